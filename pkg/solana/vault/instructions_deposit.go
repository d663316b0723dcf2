package vault

import (
	"crypto/ed25519"

	"github.com/code-payments/code-vault-server/pkg/solana"
)

type DepositInstructionArgs struct {
	VaultId    VaultId
	UserKey    UserKey
	Amount     Amount
	FundStatus string
	BotStatus  string
}

type DepositInstructionAccounts struct {
	Authority ed25519.PublicKey
	UserInfo  ed25519.PublicKey
	VaultPool ed25519.PublicKey
}

func (*DepositInstructionArgs) InstructionType() InstructionType {
	return InstructionTypeDeposit
}

func NewDepositInstruction(
	accounts *DepositInstructionAccounts,
	args *DepositInstructionArgs,
) solana.Instruction {
	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: encodeLedgerUpdate(InstructionTypeDeposit, (*ledgerUpdateArgs)(args)),

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
		},
	}
}
