package vault

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVaultId(t *testing.T) {
	for _, valid := range []string{"v", "vault-1", strings.Repeat("a", MaxIdentifierLength), "trea", "my-treasury", "ボールト"} {
		vaultId, err := NewVaultId(valid)
		require.NoError(t, err, valid)
		assert.Equal(t, valid, vaultId.String())
		assert.Equal(t, []byte(valid), vaultId.Seed())
	}

	for _, invalid := range []string{
		"",
		strings.Repeat("a", MaxIdentifierLength+1),
		"bad\x00id",
		"tab\tid",
		string([]byte{0xff, 0xfe}),
		"treasury",
		"treasuryX",
	} {
		_, err := NewVaultId(invalid)
		assert.True(t, errors.Is(err, ErrInvalidIdentifier), invalid)
	}
}

func TestNewUserKey(t *testing.T) {
	userKey, err := NewUserKey("treasury-user")
	require.NoError(t, err)
	assert.Equal(t, "treasury-user", userKey.String())

	for _, invalid := range []string{"", strings.Repeat("u", 33), "new\nline"} {
		_, err := NewUserKey(invalid)
		assert.True(t, errors.Is(err, ErrInvalidIdentifier), invalid)
	}
}
