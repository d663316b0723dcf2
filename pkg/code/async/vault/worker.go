package async_vault

import (
	"context"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault-server/pkg/code/data/ledger"
	"github.com/code-payments/code-vault-server/pkg/metrics"
	"github.com/code-payments/code-vault-server/pkg/retry"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

type poolBalance struct {
	vaultId vault.VaultId

	poolAddress      string
	poolLamports     uint64
	poolMissing      bool
	poolInitialized  bool
	treasuryAddress  string
	treasuryLamports uint64
	treasuryMissing  bool
}

func (p *service) poolBalanceWorker(serviceCtx context.Context, interval time.Duration) error {
	delay := interval

	err := retry.Loop(
		func() (err error) {
			time.Sleep(delay)

			if err := serviceCtx.Err(); err != nil {
				return err
			}

			tracedCtx, end := metrics.StartTransaction(serviceCtx, "async__vault_pool_service__check_balances")
			defer end()

			var wg sync.WaitGroup
			for _, vaultId := range p.vaultIds {
				wg.Add(1)
				go func(vaultId vault.VaultId) {
					defer wg.Done()

					balance, err := p.checkPool(tracedCtx, vaultId)
					if err != nil {
						p.log.WithError(err).WithField("vault_id", vaultId).Warn("failure checking vault pool balance")
						return
					}

					recordPoolBalanceEvent(tracedCtx, balance)
					if p.onCheck != nil {
						p.onCheck(balance)
					}
				}(vaultId)
			}
			wg.Wait()

			return nil
		},
		retry.NonRetriableErrors(context.Canceled),
	)

	return err
}

func (p *service) checkPool(ctx context.Context, vaultId vault.VaultId) (*poolBalance, error) {
	log := p.log.WithFields(logrus.Fields{
		"method":   "checkPool",
		"vault_id": vaultId,
	})

	poolAddress, _, err := vault.GetVaultAddress(&vault.GetVaultAddressArgs{VaultId: vaultId})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving vault pool address")
	}

	treasuryAddress, _, err := vault.GetTreasuryAddress(&vault.GetTreasuryAddressArgs{VaultId: vaultId})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving treasury pool address")
	}

	balance := &poolBalance{
		vaultId:         vaultId,
		poolAddress:     base58.Encode(poolAddress),
		treasuryAddress: base58.Encode(treasuryAddress),
	}

	pool, err := p.store.Get(ctx, balance.poolAddress)
	switch err {
	case nil:
		balance.poolLamports = pool.Lamports
		balance.poolInitialized = isInitializedPool(pool)
	case ledger.ErrAccountNotFound:
		log.Debug("vault pool does not exist")
		balance.poolMissing = true
	default:
		return nil, errors.Wrap(err, "error getting vault pool account")
	}

	treasury, err := p.store.Get(ctx, balance.treasuryAddress)
	switch err {
	case nil:
		balance.treasuryLamports = treasury.Lamports
	case ledger.ErrAccountNotFound:
		balance.treasuryMissing = true
	default:
		return nil, errors.Wrap(err, "error getting treasury pool account")
	}

	log.WithFields(logrus.Fields{
		"pool_lamports":     balance.poolLamports,
		"treasury_lamports": balance.treasuryLamports,
	}).Trace("checked vault pool balance")

	return balance, nil
}

func isInitializedPool(record *ledger.Record) bool {
	if record.Owner != base58.Encode(vault.PROGRAM_ID) {
		return false
	}

	var state vault.VaultPoolAccount
	return state.Unmarshal(record.Data) == nil && state.IsInitialized
}
