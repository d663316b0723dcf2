package runtime

import (
	"context"

	"github.com/code-payments/code-vault-server/pkg/metrics"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

const (
	transactionProcessedEventName = "VaultTransactionProcessed"
)

func recordTransactionEvent(ctx context.Context, signature string, instructions int, attempts uint, err error) {
	kvPairs := map[string]interface{}{
		"signature":    signature,
		"instructions": instructions,
		"attempts":     attempts,
		"success":      err == nil,
	}

	if err != nil {
		kvPairs["error"] = err.Error()
		if code, ok := vault.ToErrorCode(err); ok {
			kvPairs["program_error_code"] = code
		}
	}

	metrics.RecordEvent(ctx, transactionProcessedEventName, kvPairs)
}
