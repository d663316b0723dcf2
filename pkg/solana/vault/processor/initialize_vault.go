package processor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault-server/pkg/solana"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

// initializeVault creates the vault pool account at its derived address.
//
// Accounts:
//  0. [signer, writable] authority
//  1. [writable] vault pool
func (p *Processor) initializeVault(_ context.Context, accounts []*solana.AccountInfo, args *vault.InitializeVaultInstructionArgs) error {
	log := p.log.WithFields(logrus.Fields{
		"method":   "InitializeVault",
		"vault_id": args.VaultId,
	})

	if err := requireAccounts(accounts, 2); err != nil {
		return err
	}
	authority, vaultPool := accounts[0], accounts[1]

	if err := requireSigner(authority); err != nil {
		log.WithError(err).Info("rejected vault initialization")
		return err
	}

	bump, err := p.validateAddress(roleVaultPool, vaultPool, vault.VaultSeeds(args.VaultId)...)
	if err != nil {
		log.WithError(err).Info("rejected vault initialization")
		return err
	}

	// Lamports sent to the address ahead of creation are kept.
	if !vaultPool.IsUnallocated() {
		err = errors.Wrapf(vault.ErrAccountAlreadyInUse, "vault pool %s", vaultPool)
		log.WithError(err).Info("rejected vault initialization")
		return err
	}

	state := &vault.VaultPoolAccount{
		IsInitialized: true,
		Bump:          bump,
		Authority:     authority.Key,
		VaultId:       string(args.VaultId),
	}

	allocateAndAssign(vaultPool, vault.VaultPoolAccountSize, p.program)
	copy(vaultPool.Data, state.Marshal())

	log.WithField("vault_pool", vaultPool.String()).Debug("vault initialized")
	return nil
}
