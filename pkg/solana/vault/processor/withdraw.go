package processor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault-server/pkg/solana"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

// withdraw debits the user's ledger balance and pays the withdrawn lamports
// out of the vault pool, net of the protocol fee which goes to the treasury.
//
// Accounts:
//  0. [signer, writable] authority
//  1. [writable] user record
//  2. [writable] vault pool
//  3. [writable] treasury pool
func (p *Processor) withdraw(ctx context.Context, accounts []*solana.AccountInfo, args *vault.WithdrawInstructionArgs) error {
	log := p.log.WithFields(logrus.Fields{
		"method":   "Withdraw",
		"vault_id": args.VaultId,
		"user_key": args.UserKey,
		"amount":   args.Amount.String(),
	})

	fee, err := p.applyWithdraw(ctx, accounts, args)
	if err != nil {
		log.WithError(err).Info("rejected withdrawal")
		return err
	}

	log.WithField("fee", fee.String()).Debug("withdrawal processed")
	return nil
}

func (p *Processor) applyWithdraw(ctx context.Context, accounts []*solana.AccountInfo, args *vault.WithdrawInstructionArgs) (vault.Amount, error) {
	if err := requireAccounts(accounts, 4); err != nil {
		return 0, err
	}
	authority, userInfo, vaultPool, treasuryPool := accounts[0], accounts[1], accounts[2], accounts[3]

	if err := requireSigner(authority); err != nil {
		return 0, err
	}

	if _, err := p.validateAddress(roleUserInfo, userInfo, vault.UserInfoSeeds(authority.Key, args.UserKey)...); err != nil {
		return 0, err
	}

	size := vault.UserInfoAccountSize(string(args.VaultId), string(args.UserKey), args.FundStatus, args.BotStatus)
	if size > vault.MaxUserInfoAccountSize {
		return 0, errors.Wrapf(vault.ErrRecordTooLarge, "%d bytes", size)
	}

	record, err := p.loadUserInfoForWithdraw(userInfo)
	if err != nil {
		return 0, err
	}

	units, err := args.Amount.Units()
	if err != nil {
		return 0, err
	}
	if record.Balance < units {
		return 0, errors.Wrapf(vault.ErrInsufficientFunds, "balance %d < %d", record.Balance, units)
	}

	updated := *record
	updated.VaultId = string(args.VaultId)
	updated.Balance = record.Balance - units
	updated.FundStatus = args.FundStatus
	updated.BotStatus = args.BotStatus

	if _, err := p.validateAddress(roleTreasuryPool, treasuryPool, vault.TreasurySeeds(args.VaultId)...); err != nil {
		return 0, err
	}

	fee, net, err := computeFee(args.Amount, p.withdrawFeeBps(ctx))
	if err != nil {
		return 0, err
	}

	if _, err := p.validateAddress(roleVaultPool, vaultPool, vault.VaultSeeds(args.VaultId)...); err != nil {
		return 0, err
	}
	if _, err := p.loadVaultPool(vaultPool); err != nil {
		return 0, err
	}

	transfers := []lamportTransfer{
		{from: vaultPool, to: treasuryPool, lamports: fee.Lamports()},
		{from: vaultPool, to: authority, lamports: net.Lamports()},
	}
	if err := checkTransfers(transfers...); err != nil {
		return 0, err
	}

	// Every check has passed. Apply the ledger write, then the fee and payout.
	if err := updated.MarshalInto(userInfo.Data); err != nil {
		return 0, err
	}
	applyTransfers(transfers...)

	return fee, nil
}

// loadUserInfoForWithdraw requires an initialized record owned by the program.
func (p *Processor) loadUserInfoForWithdraw(account *solana.AccountInfo) (*vault.UserInfoAccount, error) {
	if !account.IsOwnedBy(p.program) {
		if account.IsUnallocated() {
			return nil, errors.Wrapf(vault.ErrUninitializedAccount, "user record %s", account)
		}
		return nil, errors.Wrapf(vault.ErrInvalidAccountOwner, "user record %s", account)
	}

	record, err := vault.UnmarshalUserInfoAccount(account.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "user record %s", account)
	}
	return record, nil
}
