package processor

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault-server/pkg/solana"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
	_ "github.com/code-payments/code-vault-server/pkg/testutil"
)

const (
	testVaultId vault.VaultId = "vault-1"
	testUserKey vault.UserKey = "user-1"

	initialAuthorityLamports = 1_000 * vault.NanosPerUnit
)

// fakeDerive is a deterministic stand-in for program address derivation.
// Seeds are length prefixed so distinct seed sets never collide.
func fakeDerive(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write([]byte{byte(len(seed))})
		h.Write(seed)
	}
	h.Write(program)
	return h.Sum(nil), 255, nil
}

type testEnv struct {
	ctx       context.Context
	processor *Processor
	authority *solana.AccountInfo
}

func setup(t *testing.T) *testEnv {
	return setupWithOverrides(t, &testOverrides{})
}

func setupWithOverrides(t *testing.T, overrides *testOverrides) *testEnv {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	authority := solana.NewEmptyAccountInfo(pub)
	authority.Lamports = initialAuthorityLamports
	authority.IsSigner = true
	authority.IsWritable = true

	return &testEnv{
		ctx:       context.Background(),
		processor: New(fakeDerive, withManualTestOverrides(overrides)),
		authority: authority,
	}
}

func (e *testEnv) derivedAccount(t *testing.T, seeds ...[]byte) *solana.AccountInfo {
	address, _, err := fakeDerive(vault.PROGRAM_ID, seeds...)
	require.NoError(t, err)

	account := solana.NewEmptyAccountInfo(address)
	account.IsWritable = true
	return account
}

func (e *testEnv) userInfoAccount(t *testing.T, userKey vault.UserKey) *solana.AccountInfo {
	return e.derivedAccount(t, vault.UserInfoSeeds(e.authority.Key, userKey)...)
}

func (e *testEnv) vaultPoolAccount(t *testing.T, vaultId vault.VaultId) *solana.AccountInfo {
	return e.derivedAccount(t, vault.VaultSeeds(vaultId)...)
}

func (e *testEnv) treasuryAccount(t *testing.T, vaultId vault.VaultId) *solana.AccountInfo {
	return e.derivedAccount(t, vault.TreasurySeeds(vaultId)...)
}

func (e *testEnv) initializeVault(t *testing.T, vaultId vault.VaultId) *solana.AccountInfo {
	vaultPool := e.vaultPoolAccount(t, vaultId)
	require.NoError(t, e.processor.Process(e.ctx, []*solana.AccountInfo{e.authority, vaultPool}, initializeVaultData(vaultId)))
	return vaultPool
}

func initializeVaultData(vaultId vault.VaultId) []byte {
	return vault.NewInitializeVaultInstruction(
		&vault.InitializeVaultInstructionAccounts{},
		&vault.InitializeVaultInstructionArgs{VaultId: vaultId},
	).Data
}

func depositData(vaultId vault.VaultId, userKey vault.UserKey, amount vault.Amount, fundStatus, botStatus string) []byte {
	return vault.NewDepositInstruction(
		&vault.DepositInstructionAccounts{},
		&vault.DepositInstructionArgs{
			VaultId:    vaultId,
			UserKey:    userKey,
			Amount:     amount,
			FundStatus: fundStatus,
			BotStatus:  botStatus,
		},
	).Data
}

func withdrawData(vaultId vault.VaultId, userKey vault.UserKey, amount vault.Amount, fundStatus, botStatus string) []byte {
	return vault.NewWithdrawInstruction(
		&vault.WithdrawInstructionAccounts{},
		&vault.WithdrawInstructionArgs{
			VaultId:    vaultId,
			UserKey:    userKey,
			Amount:     amount,
			FundStatus: fundStatus,
			BotStatus:  botStatus,
		},
	).Data
}

func snapshot(accounts ...*solana.AccountInfo) []*solana.AccountInfo {
	cloned := make([]*solana.AccountInfo, len(accounts))
	for i, account := range accounts {
		cloned[i] = account.Clone()
	}
	return cloned
}

func totalLamports(accounts ...*solana.AccountInfo) uint64 {
	var total uint64
	for _, account := range accounts {
		total += account.Lamports
	}
	return total
}

func readUserInfo(t *testing.T, account *solana.AccountInfo) *vault.UserInfoAccount {
	record, err := vault.UnmarshalUserInfoAccount(account.Data)
	require.NoError(t, err)
	return record
}
