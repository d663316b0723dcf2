package vault

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/solana/binary"
)

// InstructionArgs are the typed arguments of a decoded vault instruction.
type InstructionArgs interface {
	InstructionType() InstructionType
}

// ledgerUpdateArgs is the argument layout shared by deposits and withdrawals.
type ledgerUpdateArgs struct {
	VaultId    VaultId
	UserKey    UserKey
	Amount     Amount
	FundStatus string
	BotStatus  string
}

func encodeLedgerUpdate(instructionType InstructionType, args *ledgerUpdateArgs) []byte {
	var offset int

	data := make([]byte, 1+
		binary.StringSize(string(args.VaultId))+
		binary.StringSize(string(args.UserKey))+
		8+
		binary.StringSize(args.FundStatus)+
		binary.StringSize(args.BotStatus))

	putInstructionType(data, instructionType, &offset)
	binary.PutString(data, string(args.VaultId), &offset)
	binary.PutString(data, string(args.UserKey), &offset)
	binary.PutUint64(data, uint64(args.Amount), &offset)
	binary.PutString(data, args.FundStatus, &offset)
	binary.PutString(data, args.BotStatus, &offset)

	return data
}

func decodeLedgerUpdate(data []byte, offset *int) (*ledgerUpdateArgs, error) {
	var (
		rawVaultId string
		rawUserKey string
		amount     uint64
		args       ledgerUpdateArgs
	)

	if err := binary.GetString(data, &rawVaultId, offset); err != nil {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "vault_id: %v", err)
	}
	if err := binary.GetString(data, &rawUserKey, offset); err != nil {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "user_key: %v", err)
	}
	if err := binary.GetUint64(data, &amount, offset); err != nil {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "amount: %v", err)
	}
	if err := binary.GetString(data, &args.FundStatus, offset); err != nil {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "fund_status: %v", err)
	}
	if err := binary.GetString(data, &args.BotStatus, offset); err != nil {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "bot_status: %v", err)
	}

	var err error
	if args.VaultId, err = NewVaultId(rawVaultId); err != nil {
		return nil, err
	}
	if args.UserKey, err = NewUserKey(rawUserKey); err != nil {
		return nil, err
	}
	args.Amount = Amount(amount)

	return &args, nil
}

// DecodeInstruction decodes vault instruction data into typed arguments.
// Unknown instruction types, truncated data and trailing bytes are rejected
// with ErrInvalidInstructionData.
func DecodeInstruction(data []byte) (InstructionArgs, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrInvalidInstructionData, "empty instruction data")
	}

	offset := 1

	var args InstructionArgs
	switch InstructionType(data[0]) {
	case InstructionTypeInitializeVault:
		decoded, err := decodeInitializeVaultInstructionArgs(data, &offset)
		if err != nil {
			return nil, err
		}
		args = decoded
	case InstructionTypeDeposit:
		decoded, err := decodeLedgerUpdate(data, &offset)
		if err != nil {
			return nil, err
		}
		args = (*DepositInstructionArgs)(decoded)
	case InstructionTypeWithdraw:
		decoded, err := decodeLedgerUpdate(data, &offset)
		if err != nil {
			return nil, err
		}
		args = (*WithdrawInstructionArgs)(decoded)
	default:
		return nil, errors.Wrapf(ErrInvalidInstructionData, "unknown instruction type %d", data[0])
	}

	if offset != len(data) {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "%d trailing bytes", len(data)-offset)
	}

	return args, nil
}
