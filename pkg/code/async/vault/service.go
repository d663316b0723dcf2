package async_vault

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault-server/pkg/code/async"
	"github.com/code-payments/code-vault-server/pkg/code/data/ledger"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

type service struct {
	log      *logrus.Entry
	store    ledger.Store
	vaultIds []vault.VaultId

	// Observes every completed check. Only set in tests.
	onCheck func(*poolBalance)
}

// New returns a service that periodically reports the vault and treasury pool
// balances of every vault in vaultIds.
func New(store ledger.Store, vaultIds ...vault.VaultId) async.Service {
	return &service{
		log:      logrus.StandardLogger().WithField("service", "vault"),
		store:    store,
		vaultIds: vaultIds,
	}
}

func (p *service) Start(ctx context.Context, interval time.Duration) error {
	go func() {
		err := p.poolBalanceWorker(ctx, interval)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("vault pool balance loop terminated unexpectedly")
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	}
}
