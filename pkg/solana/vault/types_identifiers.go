package vault

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/solana"
)

const (
	// MaxIdentifierLength is bound by the maximum length of a single seed.
	MaxIdentifierLength = solana.MaxSeedLength
)

// VaultId identifies a vault. It is the sole seed of the vault pool address.
type VaultId string

// UserKey identifies the external user a record belongs to.
type UserKey string

// NewVaultId validates a vault identifier.
//
// Vault ids beginning with the treasury seed prefix are rejected, since the
// concatenated seeds of such a vault pool would equal those of another
// vault's treasury.
func NewVaultId(value string) (VaultId, error) {
	if err := validateIdentifier(value); err != nil {
		return "", errors.Wrap(err, "vault id")
	}

	if strings.HasPrefix(value, string(treasuryPrefix)) {
		return "", errors.Wrapf(ErrInvalidIdentifier, "vault id: reserved prefix %q", treasuryPrefix)
	}

	return VaultId(value), nil
}

// NewUserKey validates a user key.
func NewUserKey(value string) (UserKey, error) {
	if err := validateIdentifier(value); err != nil {
		return "", errors.Wrap(err, "user key")
	}
	return UserKey(value), nil
}

func (v VaultId) String() string {
	return string(v)
}

func (v VaultId) Seed() []byte {
	return []byte(v)
}

func (k UserKey) String() string {
	return string(k)
}

func (k UserKey) Seed() []byte {
	return []byte(k)
}

func validateIdentifier(value string) error {
	if len(value) == 0 {
		return errors.Wrap(ErrInvalidIdentifier, "empty")
	}
	if len(value) > MaxIdentifierLength {
		return errors.Wrapf(ErrInvalidIdentifier, "length %d exceeds %d", len(value), MaxIdentifierLength)
	}
	if !utf8.ValidString(value) {
		return errors.Wrap(ErrInvalidIdentifier, "not valid utf-8")
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return errors.Wrapf(ErrInvalidIdentifier, "control character %U", r)
		}
	}
	return nil
}
