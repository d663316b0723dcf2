package solana

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachingDeriveFunc(t *testing.T) {
	program := make(ed25519.PublicKey, ed25519.PublicKeySize)
	program[0] = 1

	var calls int
	counting := func(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
		calls++
		return FindProgramAddressAndBump(program, seeds...)
	}

	derive := NewCachingDeriveFunc(counting, 2)

	expected, expectedBump, err := FindProgramAddressAndBump(program, []byte("vault-1"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		address, bump, err := derive(program, []byte("vault-1"))
		require.NoError(t, err)
		assert.Equal(t, expected, address)
		assert.Equal(t, expectedBump, bump)
	}
	assert.Equal(t, 1, calls)

	// Callers mutating a result do not affect the cached value
	address, _, err := derive(program, []byte("vault-1"))
	require.NoError(t, err)
	address[0] ^= 0xff
	address, _, err = derive(program, []byte("vault-1"))
	require.NoError(t, err)
	assert.Equal(t, expected, address)

	// Seed boundaries are part of the key
	_, _, err = derive(program, []byte("vault-"), []byte("1"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// Evicted once the cache is full
	_, _, err = derive(program, []byte("vault-2"))
	require.NoError(t, err)
	_, _, err = derive(program, []byte("vault-1"))
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestCachingDeriveFunc_ErrorsNotCached(t *testing.T) {
	failure := errors.New("derivation failed")

	var calls int
	derive := NewCachingDeriveFunc(func(ed25519.PublicKey, ...[]byte) (ed25519.PublicKey, uint8, error) {
		calls++
		return nil, 0, failure
	}, 10)

	for i := 0; i < 2; i++ {
		_, _, err := derive(make(ed25519.PublicKey, ed25519.PublicKeySize), []byte("seed"))
		assert.Equal(t, failure, err)
	}
	assert.Equal(t, 2, calls)
}
