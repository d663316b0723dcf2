package vault

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/solana"
	"github.com/code-payments/code-vault-server/pkg/solana/binary"
)

type InitializeVaultInstructionArgs struct {
	VaultId VaultId
}

type InitializeVaultInstructionAccounts struct {
	Authority ed25519.PublicKey
	VaultPool ed25519.PublicKey
}

func (*InitializeVaultInstructionArgs) InstructionType() InstructionType {
	return InstructionTypeInitializeVault
}

func NewInitializeVaultInstruction(
	accounts *InitializeVaultInstructionAccounts,
	args *InitializeVaultInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+binary.StringSize(string(args.VaultId)))

	putInstructionType(data, InstructionTypeInitializeVault, &offset)
	binary.PutString(data, string(args.VaultId), &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Authority,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.VaultPool,
				IsWritable: true,
				IsSigner:   false,
			},
		},
	}
}

func decodeInitializeVaultInstructionArgs(data []byte, offset *int) (*InitializeVaultInstructionArgs, error) {
	var rawVaultId string
	if err := binary.GetString(data, &rawVaultId, offset); err != nil {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "vault_id: %v", err)
	}

	vaultId, err := NewVaultId(rawVaultId)
	if err != nil {
		return nil, err
	}

	return &InitializeVaultInstructionArgs{VaultId: vaultId}, nil
}
