package vault

type InstructionType uint8

const (
	InstructionTypeInitializeVault InstructionType = iota
	InstructionTypeDeposit
	InstructionTypeWithdraw
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeInitializeVault:
		return "initialize_vault"
	case InstructionTypeDeposit:
		return "deposit"
	case InstructionTypeWithdraw:
		return "withdraw"
	}
	return "unknown"
}

func putInstructionType(dst []byte, v InstructionType, offset *int) {
	dst[*offset] = uint8(v)
	*offset += 1
}
