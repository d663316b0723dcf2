package vault

import (
	"crypto/ed25519"

	"github.com/code-payments/code-vault-server/pkg/solana"
)

type WithdrawInstructionArgs struct {
	VaultId    VaultId
	UserKey    UserKey
	Amount     Amount
	FundStatus string
	BotStatus  string
}

type WithdrawInstructionAccounts struct {
	Authority    ed25519.PublicKey
	UserInfo     ed25519.PublicKey
	VaultPool    ed25519.PublicKey
	TreasuryPool ed25519.PublicKey
}

func (*WithdrawInstructionArgs) InstructionType() InstructionType {
	return InstructionTypeWithdraw
}

func NewWithdrawInstruction(
	accounts *WithdrawInstructionAccounts,
	args *WithdrawInstructionArgs,
) solana.Instruction {
	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: encodeLedgerUpdate(InstructionTypeWithdraw, (*ledgerUpdateArgs)(args)),

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Authority,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.UserInfo,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.VaultPool,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.TreasuryPool,
				IsWritable: true,
				IsSigner:   false,
			},
		},
	}
}
