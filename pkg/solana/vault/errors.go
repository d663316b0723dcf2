package vault

import (
	"github.com/pkg/errors"
)

// Error is a program error with a stable numeric code surfaced to callers.
type Error struct {
	code uint32
	name string
	msg  string
}

func newError(code uint32, name, msg string) *Error {
	e := &Error{code: code, name: name, msg: msg}
	errorsByCode[code] = e
	return e
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Code() uint32 {
	return e.code
}

func (e *Error) Name() string {
	return e.name
}

var errorsByCode = make(map[uint32]*Error)

var (
	ErrMissingSignature       = newError(1, "MissingSignature", "missing required signature")
	ErrInvalidDerivation      = newError(2, "InvalidDerivation", "account address does not match derived address")
	ErrRecordTooLarge         = newError(3, "RecordTooLarge", "user record exceeds maximum size")
	ErrUninitializedAccount   = newError(4, "UninitializedAccount", "account is not initialized")
	ErrInsufficientFunds      = newError(5, "InsufficientFunds", "insufficient funds")
	ErrDecodeCorruption       = newError(6, "DecodeCorruption", "account data is corrupt")
	ErrArithmeticOverflow     = newError(7, "ArithmeticOverflow", "arithmetic overflow")
	ErrInvalidInstructionData = newError(8, "InvalidInstructionData", "invalid instruction data")
	ErrNotEnoughAccountKeys   = newError(9, "NotEnoughAccountKeys", "not enough account keys")
	ErrAccountAlreadyInUse    = newError(10, "AccountAlreadyInUse", "account already in use")
	ErrInvalidAccountOwner    = newError(11, "InvalidAccountOwner", "invalid account owner")
	ErrInvalidIdentifier      = newError(12, "InvalidIdentifier", "invalid identifier")
	ErrFractionalAmount       = newError(13, "FractionalAmount", "amount is not a whole number of units")
)

// ToErrorCode returns the program error code carried by err, if any.
func ToErrorCode(err error) (uint32, bool) {
	var programErr *Error
	if errors.As(err, &programErr) {
		return programErr.code, true
	}
	return 0, false
}

// ErrorFromCode returns the program error registered for code.
func ErrorFromCode(code uint32) (*Error, bool) {
	e, ok := errorsByCode[code]
	return e, ok
}
