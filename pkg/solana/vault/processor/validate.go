package processor

import (
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/solana"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

type accountRole string

const (
	roleUserInfo     accountRole = "user_info"
	roleVaultPool    accountRole = "vault_pool"
	roleTreasuryPool accountRole = "treasury_pool"
)

// validateAddress re-derives the address for a role and requires the
// supplied account to be exactly that address.
func (p *Processor) validateAddress(role accountRole, account *solana.AccountInfo, seeds ...[]byte) (uint8, error) {
	bump, err := solana.ValidateProgramAddress(p.derive, p.program, account.Key, seeds...)
	if err != nil {
		return 0, errors.Wrapf(vault.ErrInvalidDerivation, "%s %s: %v", role, base58.Encode(account.Key), err)
	}
	return bump, nil
}

func requireSigner(account *solana.AccountInfo) error {
	if !account.IsSigner {
		return errors.Wrapf(vault.ErrMissingSignature, "%s", account)
	}
	return nil
}

func requireAccounts(accounts []*solana.AccountInfo, n int) error {
	if len(accounts) < n {
		return errors.Wrapf(vault.ErrNotEnoughAccountKeys, "expected %d accounts, got %d", n, len(accounts))
	}
	return nil
}

// loadVaultPool requires the vault pool to be an initialized account owned by
// the program.
func (p *Processor) loadVaultPool(account *solana.AccountInfo) (*vault.VaultPoolAccount, error) {
	if !account.IsOwnedBy(p.program) {
		if account.IsUnallocated() {
			return nil, errors.Wrapf(vault.ErrUninitializedAccount, "vault pool %s", account)
		}
		return nil, errors.Wrapf(vault.ErrInvalidAccountOwner, "vault pool %s", account)
	}

	var pool vault.VaultPoolAccount
	if err := pool.Unmarshal(account.Data); err != nil {
		return nil, errors.Wrapf(err, "vault pool %s", account)
	}
	return &pool, nil
}
