package runtime

import (
	"github.com/pkg/errors"
)

var (
	ErrNoInstructions          = errors.New("transaction has no instructions")
	ErrTransactionTooLarge     = errors.New("transaction exceeds maximum size")
	ErrUnsupportedProgram      = errors.New("instruction targets an unsupported program")
	ErrUnbalancedTransaction   = errors.New("transaction does not conserve lamports")
	ErrReadonlyAccountModified = errors.New("readonly account was modified")
	ErrExternalAccountModified = errors.New("account not owned by the program was modified")
	ErrExternalAccountDebited  = errors.New("account not owned by the program was debited")
	ErrNotSystemAccount        = errors.New("only system accounts can be funded")
	ErrBalanceOverflow         = errors.New("account balance overflow")
	ErrLockLost                = errors.New("account lock lost before commit")
)
