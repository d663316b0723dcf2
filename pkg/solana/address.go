package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrNoViableBumpSeed      = errors.New("unable to find a viable program address bump seed")
	ErrAddressMismatch       = errors.New("address does not match derived program address")

	ErrInvalidPublicKey = errors.New("invalid public key")
)

var (
	programHashCtor = sha256.New
)

// DeriveFunc derives a program address and its bump seed from a program and
// an ordered set of seeds. Implementations must be deterministic.
type DeriveFunc func(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error)

// CreateProgramAddress mirrors the implementation of the Solana SDK's CreateProgramAddress.
//
// ProgramAddresses are public keys that _do not_ lie on the ed25519 curve to ensure that
// there is no associated private key. In the event that the program and seed parameters
// result in a valid public key, ErrInvalidPublicKey is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return nil, ErrTooManySeeds
	}

	h := programHashCtor()
	for _, s := range seeds {
		if len(s) > MaxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(s); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, []byte("ProgramDerivedAddress")} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	hash := h.Sum(nil)
	var pub [32]byte
	copy(pub[:], hash)

	// A derived address must not be a valid compressed Edwards point, otherwise
	// a private key could exist for it. The Edwards point type is internal to
	// golang.org/x/crypto, so the curve check relies on jdgcs/ed25519.
	//
	// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L182-L187
	var A edwards25519.ExtendedGroupElement
	if A.FromBytes(&pub) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// FindProgramAddressAndBump mirrors the implementation of the Solana SDK's
// FindProgramAddress. It returns the address and bump seed.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return nil, 0, ErrTooManySeeds
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	bumpSeed := []byte{math.MaxUint8}
	withBump[len(seeds)] = bumpSeed
	for i := 0; i < math.MaxUint8; i++ {
		pub, err := CreateProgramAddress(program, withBump...)
		if err == nil {
			return pub, bumpSeed[0], nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}

		bumpSeed[0]--
	}

	return nil, 0, ErrNoViableBumpSeed
}

// FindProgramAddress mirrors the implementation of the Solana SDK's FindProgramAddress.
// It only returns the address.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}

// ValidateProgramAddress re-derives the program address for seeds and checks it
// is exactly claimed. The bump seed of the derived address is returned on success.
func ValidateProgramAddress(derive DeriveFunc, program, claimed ed25519.PublicKey, seeds ...[]byte) (uint8, error) {
	expected, bump, err := derive(program, seeds...)
	if err != nil {
		return 0, err
	}

	if len(claimed) != ed25519.PublicKeySize || !bytes.Equal(expected, claimed) {
		return 0, ErrAddressMismatch
	}

	return bump, nil
}
