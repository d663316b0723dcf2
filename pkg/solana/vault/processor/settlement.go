package processor

import (
	"context"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

const (
	maxFeeBps = 10_000
)

var (
	ErrInvalidFeeRate = errors.New("fee rate exceeds 10000 bps")
)

// computeFee splits amount into the protocol fee, truncated toward zero, and
// the remainder. fee + net always equals amount.
func computeFee(amount vault.Amount, feeBps uint64) (fee, net vault.Amount, err error) {
	if feeBps > maxFeeBps {
		return 0, 0, errors.Wrapf(ErrInvalidFeeRate, "%d bps", feeBps)
	}

	// amount * feeBps fits in 128 bits and hi < maxFeeBps, so Div64 cannot
	// overflow.
	hi, lo := bits.Mul64(uint64(amount), feeBps)
	quo, _ := bits.Div64(hi, lo, maxFeeBps)

	fee = vault.Amount(quo)
	return fee, amount - fee, nil
}

func (p *Processor) withdrawFeeBps(ctx context.Context) uint64 {
	return p.conf.withdrawFeeBps.Get(ctx)
}
