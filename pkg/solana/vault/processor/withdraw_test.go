package processor

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault-server/pkg/pointer"
	"github.com/code-payments/code-vault-server/pkg/solana"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

type withdrawEnv struct {
	*testEnv
	userInfo     *solana.AccountInfo
	vaultPool    *solana.AccountInfo
	treasuryPool *solana.AccountInfo
}

func setupWithdraw(t *testing.T, overrides *testOverrides, deposited uint32) *withdrawEnv {
	env := setupWithOverrides(t, overrides)

	vaultPool := env.initializeVault(t, testVaultId)
	userInfo := env.userInfoAccount(t, testUserKey)
	treasuryPool := env.treasuryAccount(t, testVaultId)

	accounts := []*solana.AccountInfo{env.authority, userInfo, vaultPool}
	require.NoError(t, env.processor.Process(env.ctx, accounts, depositData(testVaultId, testUserKey, vault.AmountFromUnits(deposited), "funded", "running")))

	return &withdrawEnv{
		testEnv:      env,
		userInfo:     userInfo,
		vaultPool:    vaultPool,
		treasuryPool: treasuryPool,
	}
}

func (e *withdrawEnv) accounts() []*solana.AccountInfo {
	return []*solana.AccountInfo{e.authority, e.userInfo, e.vaultPool, e.treasuryPool}
}

func TestWithdraw_HappyPath(t *testing.T) {
	env := setupWithdraw(t, &testOverrides{}, 100)
	total := totalLamports(env.accounts()...)

	require.NoError(t, env.processor.Process(env.ctx, env.accounts(), withdrawData(testVaultId, testUserKey, vault.AmountFromUnits(100), "withdrawn", "stopped")))

	record := readUserInfo(t, env.userInfo)
	assert.Zero(t, record.Balance)
	assert.Equal(t, "withdrawn", record.FundStatus)
	assert.Equal(t, "stopped", record.BotStatus)
	assert.Equal(t, string(testUserKey), record.UserKey)

	assert.EqualValues(t, vault.AmountFromUnits(2).Lamports(), env.treasuryPool.Lamports)
	assert.Zero(t, env.vaultPool.Lamports)
	assert.EqualValues(t, initialAuthorityLamports-vault.AmountFromUnits(2).Lamports(), env.authority.Lamports)
	assert.Equal(t, total, totalLamports(env.accounts()...))
}

func TestWithdraw_PartialWithTruncatedFee(t *testing.T) {
	env := setupWithdraw(t, &testOverrides{}, 100)

	// 2% of 1 unit is 0.02 units, which is representable in nano units
	require.NoError(t, env.processor.Process(env.ctx, env.accounts(), withdrawData(testVaultId, testUserKey, vault.AmountFromUnits(1), "funded", "running")))

	assert.EqualValues(t, 99, readUserInfo(t, env.userInfo).Balance)
	assert.EqualValues(t, 20_000_000, env.treasuryPool.Lamports)
	assert.EqualValues(t, vault.AmountFromUnits(99).Lamports(), env.vaultPool.Lamports)
}

func TestWithdraw_FeeOverride(t *testing.T) {
	env := setupWithdraw(t, &testOverrides{withdrawFeeBps: pointer.Uint64(0)}, 10)

	require.NoError(t, env.processor.Process(env.ctx, env.accounts(), withdrawData(testVaultId, testUserKey, vault.AmountFromUnits(10), "", "")))

	assert.Zero(t, env.treasuryPool.Lamports)
	assert.EqualValues(t, initialAuthorityLamports, env.authority.Lamports)
}

func TestWithdraw_InvalidFeeRate(t *testing.T) {
	env := setupWithdraw(t, &testOverrides{withdrawFeeBps: pointer.Uint64(maxFeeBps + 1)}, 10)

	before := snapshot(env.accounts()...)
	err := env.processor.Process(env.ctx, env.accounts(), withdrawData(testVaultId, testUserKey, vault.AmountFromUnits(10), "", ""))
	assert.True(t, errors.Is(err, ErrInvalidFeeRate))
	assert.Equal(t, before, snapshot(env.accounts()...))
}

func TestWithdraw_Idempotency(t *testing.T) {
	env := setupWithdraw(t, &testOverrides{}, 100)

	data := withdrawData(testVaultId, testUserKey, vault.AmountFromUnits(100), "withdrawn", "stopped")
	require.NoError(t, env.processor.Process(env.ctx, env.accounts(), data))

	before := snapshot(env.accounts()...)
	err := env.processor.Process(env.ctx, env.accounts(), data)
	assert.True(t, errors.Is(err, vault.ErrInsufficientFunds))
	assert.Equal(t, before, snapshot(env.accounts()...))
}

func TestWithdraw_BeforeDeposit(t *testing.T) {
	env := setup(t)
	vaultPool := env.initializeVault(t, testVaultId)
	userInfo := env.userInfoAccount(t, testUserKey)
	treasuryPool := env.treasuryAccount(t, testVaultId)

	withdrawAccounts := []*solana.AccountInfo{env.authority, userInfo, vaultPool, treasuryPool}
	before := snapshot(withdrawAccounts...)
	err := env.processor.Process(env.ctx, withdrawAccounts, withdrawData(testVaultId, testUserKey, 0, "", ""))
	assert.True(t, errors.Is(err, vault.ErrUninitializedAccount))
	assert.Equal(t, before, snapshot(withdrawAccounts...))

	// The failed withdrawal leaves the record available for a first deposit
	depositAccounts := []*solana.AccountInfo{env.authority, userInfo, vaultPool}
	require.NoError(t, env.processor.Process(env.ctx, depositAccounts, depositData(testVaultId, testUserKey, vault.AmountFromUnits(5), "", "")))
	assert.EqualValues(t, 5, readUserInfo(t, userInfo).Balance)
}

func TestWithdraw_SizeCheckedBeforeRecordLoad(t *testing.T) {
	env := setup(t)
	vaultPool := env.initializeVault(t, testVaultId)
	userInfo := env.userInfoAccount(t, testUserKey)
	treasuryPool := env.treasuryAccount(t, testVaultId)

	accounts := []*solana.AccountInfo{env.authority, userInfo, vaultPool, treasuryPool}
	err := env.processor.Process(env.ctx, accounts, withdrawData(testVaultId, testUserKey, 0, strings.Repeat("x", vault.MaxUserInfoAccountSize), ""))
	assert.True(t, errors.Is(err, vault.ErrRecordTooLarge))
}

func TestWithdraw_PoolShortfall(t *testing.T) {
	env := setupWithdraw(t, &testOverrides{}, 100)

	// The ledger claims more than the pool can pay out
	env.vaultPool.Lamports = vault.AmountFromUnits(50).Lamports()

	before := snapshot(env.accounts()...)
	err := env.processor.Process(env.ctx, env.accounts(), withdrawData(testVaultId, testUserKey, vault.AmountFromUnits(100), "", ""))
	assert.True(t, errors.Is(err, vault.ErrInsufficientFunds))
	assert.Equal(t, before, snapshot(env.accounts()...))
}

func TestWithdraw_Rejections(t *testing.T) {
	for _, tc := range []struct {
		name     string
		mutate   func(t *testing.T, env *withdrawEnv, accounts []*solana.AccountInfo)
		data     []byte
		expected error
	}{
		{
			name: "missing signature",
			mutate: func(_ *testing.T, _ *withdrawEnv, accounts []*solana.AccountInfo) {
				accounts[0].IsSigner = false
			},
			expected: vault.ErrMissingSignature,
		},
		{
			name: "not enough accounts",
			mutate: func(_ *testing.T, _ *withdrawEnv, accounts []*solana.AccountInfo) {
				accounts[3] = nil
			},
			expected: vault.ErrNotEnoughAccountKeys,
		},
		{
			name: "user record at wrong address",
			mutate: func(t *testing.T, env *withdrawEnv, accounts []*solana.AccountInfo) {
				accounts[1] = env.userInfoAccount(t, "someone-else")
			},
			expected: vault.ErrInvalidDerivation,
		},
		{
			name: "vault pool supplied as treasury",
			mutate: func(_ *testing.T, env *withdrawEnv, accounts []*solana.AccountInfo) {
				accounts[3] = env.vaultPool
			},
			expected: vault.ErrInvalidDerivation,
		},
		{
			name: "treasury supplied as vault pool",
			mutate: func(_ *testing.T, env *withdrawEnv, accounts []*solana.AccountInfo) {
				accounts[2] = env.treasuryPool
			},
			expected: vault.ErrInvalidDerivation,
		},
		{
			name: "vault for another id",
			mutate: func(t *testing.T, env *withdrawEnv, accounts []*solana.AccountInfo) {
				accounts[2] = env.initializeVault(t, "vault-2")
			},
			expected: vault.ErrInvalidDerivation,
		},
		{
			name:     "insufficient ledger balance",
			data:     withdrawData(testVaultId, testUserKey, vault.AmountFromUnits(101), "", ""),
			expected: vault.ErrInsufficientFunds,
		},
		{
			name:     "fractional amount",
			data:     withdrawData(testVaultId, testUserKey, vault.NanosPerUnit/2, "", ""),
			expected: vault.ErrFractionalAmount,
		},
		{
			name: "record owned by another program",
			mutate: func(_ *testing.T, env *withdrawEnv, accounts []*solana.AccountInfo) {
				accounts[1].Owner = env.authority.Key
			},
			expected: vault.ErrInvalidAccountOwner,
		},
		{
			name: "corrupt record",
			mutate: func(_ *testing.T, _ *withdrawEnv, accounts []*solana.AccountInfo) {
				accounts[1].Data[0] = 9
			},
			expected: vault.ErrDecodeCorruption,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := setupWithdraw(t, &testOverrides{}, 100)

			accounts := env.accounts()
			if tc.mutate != nil {
				tc.mutate(t, env, accounts)
			}
			if accounts[3] == nil {
				accounts = accounts[:3]
			}

			data := withdrawData(testVaultId, testUserKey, vault.AmountFromUnits(10), "", "")
			if tc.data != nil {
				data = tc.data
			}

			before := snapshot(accounts...)
			err := env.processor.Process(env.ctx, accounts, data)
			assert.True(t, errors.Is(err, tc.expected), "unexpected error: %v", err)
			assert.Equal(t, before, snapshot(accounts...))
		})
	}
}

func TestVault_BalanceConservation(t *testing.T) {
	env := setupWithdraw(t, &testOverrides{}, 40)
	total := totalLamports(env.accounts()...)

	deposit := func(units uint32) {
		accounts := []*solana.AccountInfo{env.authority, env.userInfo, env.vaultPool}
		require.NoError(t, env.processor.Process(env.ctx, accounts, depositData(testVaultId, testUserKey, vault.AmountFromUnits(units), "", "")))
	}
	withdraw := func(units uint32) {
		require.NoError(t, env.processor.Process(env.ctx, env.accounts(), withdrawData(testVaultId, testUserKey, vault.AmountFromUnits(units), "", "")))
	}

	deposit(60)
	withdraw(30)
	deposit(5)
	withdraw(75)

	record := readUserInfo(t, env.userInfo)
	assert.Zero(t, record.Balance)

	// Fees are 2% of every withdrawal
	assert.EqualValues(t, vault.AmountFromUnits(105).Lamports()/50, env.treasuryPool.Lamports)
	assert.Zero(t, env.vaultPool.Lamports)
	assert.Equal(t, total, totalLamports(env.accounts()...))
}
