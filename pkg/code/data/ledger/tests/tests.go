package tests

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault-server/pkg/code/data/ledger"
)

func RunTests(t *testing.T, s ledger.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s ledger.Store){
		testRoundTrip,
		testUpdate,
		testStaleVersion,
		testAtomicity,
		testInvalidRecords,
		testIsolation,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s ledger.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		address := newKey(t)
		_, err := s.Get(ctx, address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		expected := &ledger.Record{
			Address:  address,
			Owner:    newKey(t),
			Lamports: 42,
			Data:     []byte{1, 2, 3},
		}
		require.NoError(t, s.SaveAll(ctx, expected))
		assert.EqualValues(t, 1, expected.Version)
		assert.False(t, expected.LastUpdatedAt.IsZero())

		actual, err := s.Get(ctx, address)
		require.NoError(t, err)
		assertEquivalentRecords(t, expected, actual)
	})
}

func testUpdate(t *testing.T, s ledger.Store) {
	t.Run("testUpdate", func(t *testing.T) {
		ctx := context.Background()

		record := &ledger.Record{
			Address: newKey(t),
			Owner:   systemOwner(),
		}
		require.NoError(t, s.SaveAll(ctx, record))

		record.Owner = newKey(t)
		record.Lamports = 1_000
		record.Data = make([]byte, 1000)
		record.Data[0] = 1
		require.NoError(t, s.SaveAll(ctx, record))
		assert.EqualValues(t, 2, record.Version)

		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, record, actual)

		// Empty data round trips
		record.Data = nil
		require.NoError(t, s.SaveAll(ctx, record))

		actual, err = s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.Empty(t, actual.Data)
		assert.EqualValues(t, 3, actual.Version)
	})
}

func testStaleVersion(t *testing.T, s ledger.Store) {
	t.Run("testStaleVersion", func(t *testing.T) {
		ctx := context.Background()

		record := &ledger.Record{
			Address:  newKey(t),
			Owner:    systemOwner(),
			Lamports: 10,
		}
		require.NoError(t, s.SaveAll(ctx, record))

		// Creating an existing account is stale
		duplicate := &ledger.Record{
			Address: record.Address,
			Owner:   systemOwner(),
		}
		assert.True(t, errors.Is(s.SaveAll(ctx, duplicate), ledger.ErrStaleVersion))

		// Two writers read the same version, only the first wins
		first, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		second, err := s.Get(ctx, record.Address)
		require.NoError(t, err)

		first.Lamports = 20
		require.NoError(t, s.SaveAll(ctx, first))

		second.Lamports = 30
		assert.True(t, errors.Is(s.SaveAll(ctx, second), ledger.ErrStaleVersion))
		assert.EqualValues(t, 1, second.Version)

		// Updating an account that was never created is stale
		missing := &ledger.Record{
			Address: newKey(t),
			Owner:   systemOwner(),
			Version: 3,
		}
		assert.True(t, errors.Is(s.SaveAll(ctx, missing), ledger.ErrStaleVersion))

		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 20, actual.Lamports)
		assert.EqualValues(t, 2, actual.Version)
	})
}

func testAtomicity(t *testing.T, s ledger.Store) {
	t.Run("testAtomicity", func(t *testing.T) {
		ctx := context.Background()

		existing := &ledger.Record{
			Address:  newKey(t),
			Owner:    systemOwner(),
			Lamports: 100,
		}
		require.NoError(t, s.SaveAll(ctx, existing))

		created := &ledger.Record{
			Address:  newKey(t),
			Owner:    systemOwner(),
			Lamports: 50,
		}
		stale := &ledger.Record{
			Address:  existing.Address,
			Owner:    systemOwner(),
			Lamports: 50,
			Version:  existing.Version + 1,
		}

		// The valid creation is rolled back with the stale update
		assert.True(t, errors.Is(s.SaveAll(ctx, created, stale), ledger.ErrStaleVersion))

		_, err := s.Get(ctx, created.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		actual, err := s.Get(ctx, existing.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 100, actual.Lamports)
		assert.EqualValues(t, 1, actual.Version)

		// Both succeed together
		existing.Lamports = 50
		require.NoError(t, s.SaveAll(ctx, created, existing))

		for _, record := range []*ledger.Record{created, existing} {
			actual, err := s.Get(ctx, record.Address)
			require.NoError(t, err)
			assert.EqualValues(t, 50, actual.Lamports)
		}
	})
}

func testInvalidRecords(t *testing.T, s ledger.Store) {
	t.Run("testInvalidRecords", func(t *testing.T) {
		ctx := context.Background()

		valid := &ledger.Record{
			Address: newKey(t),
			Owner:   systemOwner(),
		}
		invalid := &ledger.Record{
			Address: "invalid",
			Owner:   systemOwner(),
		}
		assert.True(t, errors.Is(s.SaveAll(ctx, valid, invalid), ledger.ErrInvalidRecord))

		_, err := s.Get(ctx, valid.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		// The same address twice in one batch is ambiguous
		again := valid.Clone()
		assert.True(t, errors.Is(s.SaveAll(ctx, valid, &again), ledger.ErrInvalidRecord))
	})
}

func testIsolation(t *testing.T, s ledger.Store) {
	t.Run("testIsolation", func(t *testing.T) {
		ctx := context.Background()

		record := &ledger.Record{
			Address: newKey(t),
			Owner:   systemOwner(),
			Data:    []byte{1},
		}
		require.NoError(t, s.SaveAll(ctx, record))

		// Mutating saved or returned records does not leak into the store
		record.Data[0] = 2
		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, actual.Data)

		actual.Data[0] = 3
		actual, err = s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, actual.Data)
	})
}

func assertEquivalentRecords(t *testing.T, expected, actual *ledger.Record) {
	assert.Equal(t, expected.Address, actual.Address)
	assert.Equal(t, expected.Owner, actual.Owner)
	assert.Equal(t, expected.Lamports, actual.Lamports)
	assert.Equal(t, expected.Data, actual.Data)
	assert.Equal(t, expected.Version, actual.Version)
}

func newKey(t *testing.T) string {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return base58.Encode(pub)
}

func systemOwner() string {
	return base58.Encode(make([]byte, ed25519.PublicKeySize))
}
