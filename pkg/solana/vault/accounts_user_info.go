package vault

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/solana/binary"
)

const (
	// MaxUserInfoAccountSize is both the allocated size of a user record
	// account and the ceiling on its encoded length.
	MaxUserInfoAccountSize = 1000

	minUserInfoAccountSize = (1 + // initialized
		4 + // balance
		binary.StringLenPrefixSize + // vault_id
		binary.StringLenPrefixSize + // user_key
		binary.StringLenPrefixSize + // fund_status
		binary.StringLenPrefixSize) // bot_status
)

// UserInfoAccount is the persisted ledger record of a (authority, user key)
// pair. Balance is in whole units.
type UserInfoAccount struct {
	IsInitialized bool
	Balance       uint32
	VaultId       string
	UserKey       string
	FundStatus    string
	BotStatus     string
}

// Size returns the encoded length of the record.
func (obj *UserInfoAccount) Size() int {
	return UserInfoAccountSize(obj.VaultId, obj.UserKey, obj.FundStatus, obj.BotStatus)
}

// UserInfoAccountSize returns the encoded length of a record holding the
// provided strings.
func UserInfoAccountSize(vaultId, userKey, fundStatus, botStatus string) int {
	return minUserInfoAccountSize + len(vaultId) + len(userKey) + len(fundStatus) + len(botStatus)
}

func (obj *UserInfoAccount) Marshal() []byte {
	data := make([]byte, obj.Size())
	obj.marshal(data)
	return data
}

// MarshalInto writes the record at the start of dst and zeroes the rest of
// the buffer.
func (obj *UserInfoAccount) MarshalInto(dst []byte) error {
	size := obj.Size()
	if size > MaxUserInfoAccountSize {
		return errors.Wrapf(ErrRecordTooLarge, "%d bytes", size)
	}
	if size > len(dst) {
		return errors.Wrapf(ErrRecordTooLarge, "%d bytes exceeds account size %d", size, len(dst))
	}

	written := obj.marshal(dst)
	for i := written; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

func (obj *UserInfoAccount) marshal(dst []byte) int {
	var offset int

	binary.PutBool(dst, obj.IsInitialized, &offset)
	binary.PutUint32(dst, obj.Balance, &offset)
	binary.PutString(dst, obj.VaultId, &offset)
	binary.PutString(dst, obj.UserKey, &offset)
	binary.PutString(dst, obj.FundStatus, &offset)
	binary.PutString(dst, obj.BotStatus, &offset)

	return offset
}

// UnmarshalUserInfoAccount decodes a user record.
//
// An empty or all-zero buffer returns ErrUninitializedAccount. Any other
// structurally invalid buffer returns ErrDecodeCorruption. Bytes after a
// well-formed record are ignored.
func UnmarshalUserInfoAccount(data []byte) (*UserInfoAccount, error) {
	if isZeroed(data) {
		return nil, ErrUninitializedAccount
	}

	var obj UserInfoAccount
	var offset int

	if err := binary.GetBool(data, &obj.IsInitialized, &offset); err != nil {
		return nil, errors.Wrapf(ErrDecodeCorruption, "initialized: %v", err)
	}
	if !obj.IsInitialized {
		return nil, errors.Wrap(ErrDecodeCorruption, "uninitialized record with non-zero content")
	}
	if err := binary.GetUint32(data, &obj.Balance, &offset); err != nil {
		return nil, errors.Wrapf(ErrDecodeCorruption, "balance: %v", err)
	}
	if err := binary.GetString(data, &obj.VaultId, &offset); err != nil {
		return nil, errors.Wrapf(ErrDecodeCorruption, "vault_id: %v", err)
	}
	if err := binary.GetString(data, &obj.UserKey, &offset); err != nil {
		return nil, errors.Wrapf(ErrDecodeCorruption, "user_key: %v", err)
	}
	if err := binary.GetString(data, &obj.FundStatus, &offset); err != nil {
		return nil, errors.Wrapf(ErrDecodeCorruption, "fund_status: %v", err)
	}
	if err := binary.GetString(data, &obj.BotStatus, &offset); err != nil {
		return nil, errors.Wrapf(ErrDecodeCorruption, "bot_status: %v", err)
	}

	return &obj, nil
}

func (obj *UserInfoAccount) String() string {
	return fmt.Sprintf(
		"UserInfoAccount{initialized=%t,balance=%d,vault_id=%s,user_key=%s,fund_status=%s,bot_status=%s}",
		obj.IsInitialized,
		obj.Balance,
		obj.VaultId,
		obj.UserKey,
		obj.FundStatus,
		obj.BotStatus,
	)
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
