package async_vault

import (
	"context"

	"github.com/code-payments/code-vault-server/pkg/metrics"
)

const (
	poolBalanceCheckEventName = "VaultPoolBalanceCheck"
)

func recordPoolBalanceEvent(ctx context.Context, balance *poolBalance) {
	metrics.RecordEvent(ctx, poolBalanceCheckEventName, map[string]interface{}{
		"vault_id":          string(balance.vaultId),
		"pool":              balance.poolAddress,
		"pool_lamports":     balance.poolLamports,
		"pool_missing":      balance.poolMissing,
		"pool_initialized":  balance.poolInitialized,
		"treasury":          balance.treasuryAddress,
		"treasury_lamports": balance.treasuryLamports,
		"treasury_missing":  balance.treasuryMissing,
	})
}
