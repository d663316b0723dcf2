package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	async_vault "github.com/code-payments/code-vault-server/pkg/code/async/vault"
	"github.com/code-payments/code-vault-server/pkg/code/data/ledger"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

type appFunc func() *app

func newFundCmd(getApp appFunc) *cobra.Command {
	var (
		address  string
		lamports uint64
	)

	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Credit lamports to a system account, the authority by default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := getApp()

			target, err := a.resolveAddress(address)
			if err != nil {
				return err
			}

			if err := a.runtime.Fund(a.ctx, target, lamports); err != nil {
				return err
			}

			balance, err := a.lamports(target)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "address:  %s\nlamports: %d (%s)\n", base58.Encode(target), balance, vault.Amount(balance))
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "base58 address to fund, defaults to the authority")
	cmd.Flags().Uint64Var(&lamports, "lamports", 0, "lamports to credit")
	_ = cmd.MarkFlagRequired("lamports")

	return cmd
}

func newInitVaultCmd(getApp appFunc) *cobra.Command {
	var vaultIdValue string

	cmd := &cobra.Command{
		Use:   "init-vault",
		Short: "Create the vault pool for a vault id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := getApp()

			authority, err := a.authorityKey()
			if err != nil {
				return err
			}

			vaultId, err := vault.NewVaultId(vaultIdValue)
			if err != nil {
				return err
			}

			poolAddress, _, err := vault.GetVaultAddress(&vault.GetVaultAddressArgs{VaultId: vaultId})
			if err != nil {
				return err
			}

			err = a.submit(vault.NewInitializeVaultInstruction(
				&vault.InitializeVaultInstructionAccounts{
					Authority: authority,
					VaultPool: poolAddress,
				},
				&vault.InitializeVaultInstructionArgs{
					VaultId: vaultId,
				},
			))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "vault:      %s\nvault pool: %s\n", vaultId, base58.Encode(poolAddress))
			return nil
		},
	}

	cmd.Flags().StringVar(&vaultIdValue, "vault", "", "vault id")
	_ = cmd.MarkFlagRequired("vault")

	return cmd
}

type transferFlags struct {
	vaultId    string
	userKey    string
	amount     string
	fundStatus string
	botStatus  string
}

func (f *transferFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.vaultId, "vault", "", "vault id")
	cmd.Flags().StringVar(&f.userKey, "user", "", "user key")
	cmd.Flags().StringVar(&f.amount, "amount", "", "decimal amount in whole units, e.g. 100 or 100.0")
	cmd.Flags().StringVar(&f.fundStatus, "fund-status", "", "fund status recorded on the user record")
	cmd.Flags().StringVar(&f.botStatus, "bot-status", "", "bot status recorded on the user record")

	_ = cmd.MarkFlagRequired("vault")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")
}

type transferParams struct {
	authority       ed25519.PublicKey
	vaultId         vault.VaultId
	userKey         vault.UserKey
	amount          vault.Amount
	userInfoAddress ed25519.PublicKey
	poolAddress     ed25519.PublicKey
	treasuryAddress ed25519.PublicKey
}

func (f *transferFlags) params(a *app) (*transferParams, error) {
	authority, err := a.authorityKey()
	if err != nil {
		return nil, err
	}

	vaultId, err := vault.NewVaultId(f.vaultId)
	if err != nil {
		return nil, err
	}

	userKey, err := vault.NewUserKey(f.userKey)
	if err != nil {
		return nil, err
	}

	amount, err := vault.ParseAmount(f.amount)
	if err != nil {
		return nil, err
	}

	userInfoAddress, _, err := vault.GetUserInfoAddress(&vault.GetUserInfoAddressArgs{
		Authority: authority,
		UserKey:   userKey,
	})
	if err != nil {
		return nil, err
	}

	poolAddress, _, err := vault.GetVaultAddress(&vault.GetVaultAddressArgs{VaultId: vaultId})
	if err != nil {
		return nil, err
	}

	treasuryAddress, _, err := vault.GetTreasuryAddress(&vault.GetTreasuryAddressArgs{VaultId: vaultId})
	if err != nil {
		return nil, err
	}

	return &transferParams{
		authority:       authority,
		vaultId:         vaultId,
		userKey:         userKey,
		amount:          amount,
		userInfoAddress: userInfoAddress,
		poolAddress:     poolAddress,
		treasuryAddress: treasuryAddress,
	}, nil
}

func newDepositCmd(getApp appFunc) *cobra.Command {
	var flags transferFlags

	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit into a vault on behalf of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := getApp()

			params, err := flags.params(a)
			if err != nil {
				return err
			}

			err = a.submit(vault.NewDepositInstruction(
				&vault.DepositInstructionAccounts{
					Authority: params.authority,
					UserInfo:  params.userInfoAddress,
					VaultPool: params.poolAddress,
				},
				&vault.DepositInstructionArgs{
					VaultId:    params.vaultId,
					UserKey:    params.userKey,
					Amount:     params.amount,
					FundStatus: flags.fundStatus,
					BotStatus:  flags.botStatus,
				},
			))
			if err != nil {
				return err
			}

			return a.printUserInfo(cmd.OutOrStdout(), params.userInfoAddress)
		},
	}

	flags.register(cmd)
	return cmd
}

func newWithdrawCmd(getApp appFunc) *cobra.Command {
	var flags transferFlags

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw from a vault on behalf of a user, paying the protocol fee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := getApp()

			params, err := flags.params(a)
			if err != nil {
				return err
			}

			err = a.submit(vault.NewWithdrawInstruction(
				&vault.WithdrawInstructionAccounts{
					Authority:    params.authority,
					UserInfo:     params.userInfoAddress,
					VaultPool:    params.poolAddress,
					TreasuryPool: params.treasuryAddress,
				},
				&vault.WithdrawInstructionArgs{
					VaultId:    params.vaultId,
					UserKey:    params.userKey,
					Amount:     params.amount,
					FundStatus: flags.fundStatus,
					BotStatus:  flags.botStatus,
				},
			))
			if err != nil {
				return err
			}

			return a.printUserInfo(cmd.OutOrStdout(), params.userInfoAddress)
		},
	}

	flags.register(cmd)
	return cmd
}

func newUserInfoCmd(getApp appFunc) *cobra.Command {
	var userKeyValue string

	cmd := &cobra.Command{
		Use:   "user-info",
		Short: "Print the user record held for the authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := getApp()

			authority, err := a.authorityKey()
			if err != nil {
				return err
			}

			userKey, err := vault.NewUserKey(userKeyValue)
			if err != nil {
				return err
			}

			address, _, err := vault.GetUserInfoAddress(&vault.GetUserInfoAddressArgs{
				Authority: authority,
				UserKey:   userKey,
			})
			if err != nil {
				return err
			}

			return a.printUserInfo(cmd.OutOrStdout(), address)
		},
	}

	cmd.Flags().StringVar(&userKeyValue, "user", "", "user key")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newPoolCmd(getApp appFunc) *cobra.Command {
	var vaultIdValue string

	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Print the vault and treasury pool balances of a vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := getApp()

			vaultId, err := vault.NewVaultId(vaultIdValue)
			if err != nil {
				return err
			}

			poolAddress, _, err := vault.GetVaultAddress(&vault.GetVaultAddressArgs{VaultId: vaultId})
			if err != nil {
				return err
			}
			treasuryAddress, _, err := vault.GetTreasuryAddress(&vault.GetTreasuryAddressArgs{VaultId: vaultId})
			if err != nil {
				return err
			}

			poolLamports, err := a.lamports(poolAddress)
			if err != nil {
				return err
			}
			treasuryLamports, err := a.lamports(treasuryAddress)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vault:         %s\n", vaultId)
			fmt.Fprintf(out, "vault pool:    %s %d (%s)\n", base58.Encode(poolAddress), poolLamports, vault.Amount(poolLamports))
			fmt.Fprintf(out, "treasury pool: %s %d (%s)\n", base58.Encode(treasuryAddress), treasuryLamports, vault.Amount(treasuryLamports))
			return nil
		},
	}

	cmd.Flags().StringVar(&vaultIdValue, "vault", "", "vault id")
	_ = cmd.MarkFlagRequired("vault")

	return cmd
}

func newMonitorCmd(getApp appFunc) *cobra.Command {
	var vaultIdValues []string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Periodically report vault pool balances until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := getApp()

			if len(vaultIdValues) == 0 {
				vaultIdValues = a.config.MonitoredVaultIds
			}
			if len(vaultIdValues) == 0 {
				return errors.New("no vault ids to monitor")
			}

			vaultIds := make([]vault.VaultId, len(vaultIdValues))
			for i, value := range vaultIdValues {
				vaultId, err := vault.NewVaultId(value)
				if err != nil {
					return errors.Wrapf(err, "vault id %q", value)
				}
				vaultIds[i] = vaultId
			}

			a.log.WithField("vault_ids", vaultIdValues).Info("starting vault pool monitor")

			err := async_vault.New(a.store, vaultIds...).Start(a.ctx, a.config.MonitorInterval)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringSliceVar(&vaultIdValues, "vault", nil, "vault ids to monitor, defaults to monitored_vault_ids")

	return cmd
}

// resolveAddress decodes a base58 address, defaulting to the authority.
func (a *app) resolveAddress(value string) (ed25519.PublicKey, error) {
	if len(value) == 0 {
		return a.authorityKey()
	}

	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "invalid address")
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("address must be %d bytes", ed25519.PublicKeySize)
	}
	return decoded, nil
}

// lamports returns the committed balance of address, zero when it has never
// been written.
func (a *app) lamports(address ed25519.PublicKey) (uint64, error) {
	account, err := a.runtime.GetAccount(a.ctx, address)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return account.Lamports, nil
}

func (a *app) printUserInfo(out io.Writer, address ed25519.PublicKey) error {
	account, err := a.runtime.GetAccount(a.ctx, address)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return errors.Wrapf(vault.ErrUninitializedAccount, "user record %s", base58.Encode(address))
	} else if err != nil {
		return err
	}

	if !account.IsOwnedBy(vault.PROGRAM_ID) {
		return errors.Wrapf(vault.ErrInvalidAccountOwner, "user record %s", base58.Encode(address))
	}

	record, err := vault.UnmarshalUserInfoAccount(account.Data)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "user record: %s\n", base58.Encode(address))
	fmt.Fprintf(out, "user key:    %s\n", record.UserKey)
	fmt.Fprintf(out, "vault:       %s\n", record.VaultId)
	fmt.Fprintf(out, "balance:     %d\n", record.Balance)
	fmt.Fprintf(out, "fund status: %s\n", record.FundStatus)
	fmt.Fprintf(out, "bot status:  %s\n", record.BotStatus)
	return nil
}
