package vault

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/solana/binary"
)

const (
	VaultPoolAccountSize = (1 + // initialized
		1 + // bump
		ed25519.PublicKeySize + // authority
		binary.StringLenPrefixSize + MaxIdentifierLength) // vault_id
)

// VaultPoolAccount is the state of a vault's value pool. The pool's lamports
// are the vault's holdings.
type VaultPoolAccount struct {
	IsInitialized bool
	Bump          uint8
	Authority     ed25519.PublicKey
	VaultId       string
}

func (obj *VaultPoolAccount) Marshal() []byte {
	var offset int

	data := make([]byte, VaultPoolAccountSize)

	binary.PutBool(data, obj.IsInitialized, &offset)
	binary.PutUint8(data, obj.Bump, &offset)
	binary.PutKey32(data, obj.Authority, &offset)
	binary.PutString(data, obj.VaultId, &offset)

	return data
}

// Unmarshal decodes vault pool state, returning ErrUninitializedAccount for
// an all-zero buffer and ErrDecodeCorruption for malformed data.
func (obj *VaultPoolAccount) Unmarshal(data []byte) error {
	if isZeroed(data) {
		return ErrUninitializedAccount
	}

	var offset int

	if err := binary.GetBool(data, &obj.IsInitialized, &offset); err != nil {
		return errors.Wrapf(ErrDecodeCorruption, "initialized: %v", err)
	}
	if !obj.IsInitialized {
		return errors.Wrap(ErrDecodeCorruption, "uninitialized pool with non-zero content")
	}
	if err := binary.GetUint8(data, &obj.Bump, &offset); err != nil {
		return errors.Wrapf(ErrDecodeCorruption, "bump: %v", err)
	}
	if err := binary.GetKey32(data, &obj.Authority, &offset); err != nil {
		return errors.Wrapf(ErrDecodeCorruption, "authority: %v", err)
	}
	if err := binary.GetString(data, &obj.VaultId, &offset); err != nil {
		return errors.Wrapf(ErrDecodeCorruption, "vault_id: %v", err)
	}

	return nil
}

func (obj *VaultPoolAccount) String() string {
	return fmt.Sprintf(
		"VaultPoolAccount{initialized=%t,bump=%d,authority=%s,vault_id=%s}",
		obj.IsInitialized,
		obj.Bump,
		base58.Encode(obj.Authority),
		obj.VaultId,
	)
}
