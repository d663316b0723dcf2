package ledger

import (
	"crypto/ed25519"
	"math"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Record is the committed state of a single account. Addresses and owners are
// base58 encoded public keys.
type Record struct {
	Address  string
	Owner    string
	Lamports uint64
	Data     []byte

	Version       uint64
	LastUpdatedAt time.Time
}

func (r *Record) Validate() error {
	if err := validateKey(r.Address); err != nil {
		return errors.Wrapf(ErrInvalidRecord, "address: %v", err)
	}
	if err := validateKey(r.Owner); err != nil {
		return errors.Wrapf(ErrInvalidRecord, "owner: %v", err)
	}

	// Postgres stores lamports in a signed BIGINT
	if r.Lamports > math.MaxInt64 {
		return errors.Wrapf(ErrInvalidRecord, "lamports %d exceeds storage range", r.Lamports)
	}

	return nil
}

func (r *Record) Clone() Record {
	var data []byte
	if r.Data != nil {
		data = make([]byte, len(r.Data))
		copy(data, r.Data)
	}

	return Record{
		Address:       r.Address,
		Owner:         r.Owner,
		Lamports:      r.Lamports,
		Data:          data,
		Version:       r.Version,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	*dst = r.Clone()
}

func validateKey(value string) error {
	decoded, err := base58.Decode(value)
	if err != nil {
		return err
	}
	if len(decoded) != ed25519.PublicKeySize {
		return errors.Errorf("invalid key length %d", len(decoded))
	}
	return nil
}
