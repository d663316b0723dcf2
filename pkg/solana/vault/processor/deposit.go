package processor

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault-server/pkg/solana"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

// deposit credits the user's ledger balance and moves the deposited lamports
// from the authority into the vault pool.
//
// Accounts:
//  0. [signer, writable] authority
//  1. [writable] user record
//  2. [writable] vault pool
func (p *Processor) deposit(_ context.Context, accounts []*solana.AccountInfo, args *vault.DepositInstructionArgs) error {
	log := p.log.WithFields(logrus.Fields{
		"method":   "Deposit",
		"vault_id": args.VaultId,
		"user_key": args.UserKey,
		"amount":   args.Amount.String(),
	})

	err := p.applyDeposit(accounts, args)
	if err != nil {
		log.WithError(err).Info("rejected deposit")
		return err
	}

	log.Debug("deposit processed")
	return nil
}

func (p *Processor) applyDeposit(accounts []*solana.AccountInfo, args *vault.DepositInstructionArgs) error {
	if err := requireAccounts(accounts, 3); err != nil {
		return err
	}
	authority, userInfo, vaultPool := accounts[0], accounts[1], accounts[2]

	if err := requireSigner(authority); err != nil {
		return err
	}

	if _, err := p.validateAddress(roleUserInfo, userInfo, vault.UserInfoSeeds(authority.Key, args.UserKey)...); err != nil {
		return err
	}

	record, needsAllocation, err := p.loadUserInfoForDeposit(userInfo)
	if err != nil {
		return err
	}
	if !record.IsInitialized {
		record.UserKey = string(args.UserKey)
	}

	updated := *record
	updated.IsInitialized = true
	updated.VaultId = string(args.VaultId)
	updated.FundStatus = args.FundStatus
	updated.BotStatus = args.BotStatus

	if size := updated.Size(); size > vault.MaxUserInfoAccountSize {
		return errors.Wrapf(vault.ErrRecordTooLarge, "%d bytes", size)
	}

	units, err := args.Amount.Units()
	if err != nil {
		return err
	}
	if record.Balance > math.MaxUint32-units {
		return errors.Wrapf(vault.ErrArithmeticOverflow, "balance %d + %d", record.Balance, units)
	}
	updated.Balance = record.Balance + units

	if _, err := p.validateAddress(roleVaultPool, vaultPool, vault.VaultSeeds(args.VaultId)...); err != nil {
		return err
	}
	if _, err := p.loadVaultPool(vaultPool); err != nil {
		return err
	}

	transfer := lamportTransfer{from: authority, to: vaultPool, lamports: args.Amount.Lamports()}
	if err := checkTransfers(transfer); err != nil {
		return err
	}

	// Every check has passed. Apply the ledger write and the value movement.
	if needsAllocation {
		allocateAndAssign(userInfo, vault.MaxUserInfoAccountSize, p.program)
	}
	if err := updated.MarshalInto(userInfo.Data); err != nil {
		return err
	}
	applyTransfers(transfer)

	return nil
}

// loadUserInfoForDeposit returns the current record, or a fresh one when the
// account has never been written.
func (p *Processor) loadUserInfoForDeposit(account *solana.AccountInfo) (*vault.UserInfoAccount, bool, error) {
	if account.IsUnallocated() {
		return &vault.UserInfoAccount{}, true, nil
	}

	if !account.IsOwnedBy(p.program) {
		return nil, false, errors.Wrapf(vault.ErrInvalidAccountOwner, "user record %s", account)
	}

	if len(account.Data) < vault.MaxUserInfoAccountSize {
		return nil, false, errors.Wrapf(vault.ErrDecodeCorruption, "user record %s has %d bytes", account, len(account.Data))
	}

	record, err := vault.UnmarshalUserInfoAccount(account.Data)
	if errors.Is(err, vault.ErrUninitializedAccount) {
		return &vault.UserInfoAccount{}, false, nil
	} else if err != nil {
		return nil, false, errors.Wrapf(err, "user record %s", account)
	}

	return record, false, nil
}
