package vault

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserInfoAccount_RoundTrip(t *testing.T) {
	expected := &UserInfoAccount{
		IsInitialized: true,
		Balance:       1234,
		VaultId:       "vault-1",
		UserKey:       "user-1",
		FundStatus:    "funded",
		BotStatus:     "running",
	}

	data := expected.Marshal()
	require.Len(t, data, expected.Size())

	actual, err := UnmarshalUserInfoAccount(data)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestUserInfoAccount_Layout(t *testing.T) {
	record := &UserInfoAccount{
		IsInitialized: true,
		Balance:       258,
		VaultId:       "v",
		UserKey:       "uk",
		FundStatus:    "",
		BotStatus:     "b",
	}

	expected := []byte{
		1,
		2, 1, 0, 0,
		1, 0, 0, 0, 'v',
		2, 0, 0, 0, 'u', 'k',
		0, 0, 0, 0,
		1, 0, 0, 0, 'b',
	}
	assert.Equal(t, expected, record.Marshal())
}

func TestUserInfoAccount_MarshalIntoZeroesTail(t *testing.T) {
	dst := make([]byte, MaxUserInfoAccountSize)
	for i := range dst {
		dst[i] = 0xff
	}

	record := &UserInfoAccount{IsInitialized: true, Balance: 1, VaultId: "v", UserKey: "u"}
	require.NoError(t, record.MarshalInto(dst))

	size := record.Size()
	assert.Equal(t, record.Marshal(), dst[:size])
	for _, b := range dst[size:] {
		require.Zero(t, b)
	}

	// Trailing bytes after a well-formed record are ignored
	actual, err := UnmarshalUserInfoAccount(dst)
	require.NoError(t, err)
	assert.Equal(t, record, actual)
}

func TestUserInfoAccount_SizeCeiling(t *testing.T) {
	padding := MaxUserInfoAccountSize - UserInfoAccountSize("v1", "u1", "", "")

	atLimit := &UserInfoAccount{
		IsInitialized: true,
		VaultId:       "v1",
		UserKey:       "u1",
		FundStatus:    strings.Repeat("f", padding/2),
		BotStatus:     strings.Repeat("b", padding-padding/2),
	}
	require.Equal(t, MaxUserInfoAccountSize, atLimit.Size())
	assert.NoError(t, atLimit.MarshalInto(make([]byte, MaxUserInfoAccountSize)))

	overLimit := *atLimit
	overLimit.BotStatus += "b"
	require.Equal(t, MaxUserInfoAccountSize+1, overLimit.Size())

	dst := make([]byte, 2*MaxUserInfoAccountSize)
	assert.True(t, errors.Is(overLimit.MarshalInto(dst), ErrRecordTooLarge))
	for _, b := range dst {
		require.Zero(t, b)
	}

	small := &UserInfoAccount{IsInitialized: true, VaultId: "v1", UserKey: "u1"}
	assert.True(t, errors.Is(small.MarshalInto(make([]byte, 10)), ErrRecordTooLarge))
}

func TestUnmarshalUserInfoAccount_Uninitialized(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		{},
		make([]byte, 1),
		make([]byte, MaxUserInfoAccountSize),
	} {
		_, err := UnmarshalUserInfoAccount(data)
		assert.Equal(t, ErrUninitializedAccount, err)
	}
}

func TestUnmarshalUserInfoAccount_Corrupt(t *testing.T) {
	valid := (&UserInfoAccount{IsInitialized: true, Balance: 5, VaultId: "vault", UserKey: "user"}).Marshal()

	uninitializedWithContent := make([]byte, MaxUserInfoAccountSize)
	uninitializedWithContent[3] = 1

	badFlag := append([]byte{}, valid...)
	badFlag[0] = 2

	overrun := append([]byte{}, valid...)
	overrun[5] = 0xff

	badUTF8 := append([]byte{}, valid...)
	badUTF8[9] = 0xff

	for name, data := range map[string][]byte{
		"uninitialized with content": uninitializedWithContent,
		"invalid initialized flag":   badFlag,
		"truncated balance":          {1, 0, 0},
		"truncated strings":          valid[:len(valid)-1],
		"string overrun":             overrun,
		"invalid utf-8":              badUTF8,
	} {
		_, err := UnmarshalUserInfoAccount(data)
		assert.True(t, errors.Is(err, ErrDecodeCorruption), name)
		assert.False(t, errors.Is(err, ErrUninitializedAccount), name)
	}
}
