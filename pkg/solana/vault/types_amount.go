package vault

import (
	"math"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// AmountDecimals is the fixed-point scale of transfer amounts.
	AmountDecimals = 9

	// NanosPerUnit is the number of nano units (lamports) in one ledger unit.
	NanosPerUnit = 1_000_000_000
)

var (
	ErrNegativeAmount  = errors.New("amount is negative")
	ErrAmountPrecision = errors.Errorf("amount has more than %d decimal places", AmountDecimals)
)

// Amount is a transfer amount in nano units. One nano unit is one lamport.
type Amount uint64

// ParseAmount parses a decimal string such as "100.5" into nano units.
func ParseAmount(value string) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidInstructionData, "amount %q: %v", value, err)
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal converts a decimal quantity of units into nano units
// without rounding.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}

	nanos := d.Shift(AmountDecimals)
	if !nanos.Equal(nanos.Truncate(0)) {
		return 0, ErrAmountPrecision
	}

	bi := nanos.BigInt()
	if !bi.IsUint64() {
		return 0, errors.Wrap(ErrArithmeticOverflow, "amount exceeds u64 nano units")
	}

	return Amount(bi.Uint64()), nil
}

// AmountFromUnits converts whole ledger units into nano units.
func AmountFromUnits(units uint32) Amount {
	return Amount(uint64(units) * NanosPerUnit)
}

// Units converts the amount to whole ledger units. Amounts that are not a
// whole number of units are rejected rather than truncated.
func (a Amount) Units() (uint32, error) {
	if uint64(a)%NanosPerUnit != 0 {
		return 0, errors.Wrapf(ErrFractionalAmount, "%s", a.String())
	}

	units := uint64(a) / NanosPerUnit
	if units > math.MaxUint32 {
		return 0, errors.Wrapf(ErrArithmeticOverflow, "%d units exceeds ledger range", units)
	}

	return uint32(units), nil
}

func (a Amount) Lamports() uint64 {
	return uint64(a)
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), -AmountDecimals)
}

func (a Amount) String() string {
	return a.Decimal().String()
}
