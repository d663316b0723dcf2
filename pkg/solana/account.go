package solana

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

var (
	// SystemProgramID owns every account that has not been assigned to a program.
	SystemProgramID = ed25519.PublicKey(make([]byte, ed25519.PublicKeySize))
)

// AccountInfo is the view of an account a program receives while processing
// an instruction. Programs mutate Lamports, Data and Owner in place; the host
// decides whether the mutations are persisted.
type AccountInfo struct {
	Key        ed25519.PublicKey
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	IsSigner   bool
	IsWritable bool
}

// NewEmptyAccountInfo returns an unallocated, unfunded system account.
func NewEmptyAccountInfo(key ed25519.PublicKey) *AccountInfo {
	return &AccountInfo{
		Key:   key,
		Owner: SystemProgramID,
	}
}

// IsOwnedBy returns whether the account is owned by program.
func (a *AccountInfo) IsOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, program)
}

// IsUnallocated returns whether the account is owned by the system program
// and holds no data.
func (a *AccountInfo) IsUnallocated() bool {
	return a.IsOwnedBy(SystemProgramID) && len(a.Data) == 0
}

// Clone returns a deep copy of the account.
func (a *AccountInfo) Clone() *AccountInfo {
	cloned := &AccountInfo{
		Key:        make(ed25519.PublicKey, len(a.Key)),
		Owner:      make(ed25519.PublicKey, len(a.Owner)),
		Lamports:   a.Lamports,
		IsSigner:   a.IsSigner,
		IsWritable: a.IsWritable,
	}
	copy(cloned.Key, a.Key)
	copy(cloned.Owner, a.Owner)

	if a.Data != nil {
		cloned.Data = make([]byte, len(a.Data))
		copy(cloned.Data, a.Data)
	}

	return cloned
}

func (a *AccountInfo) String() string {
	return base58.Encode(a.Key)
}
