package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/retry/backoff"
)

// Strategy decides whether an action should be attempted again after it
// returned err. attempts counts the attempts made so far, starting at 1.
// Strategies may sleep or cause other side effects.
type Strategy func(attempts uint, err error) bool

// Limit caps the total number of attempts, including the first.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriable, including
// wrapped errors.
func RetriableErrors(retriable ...error) Strategy {
	return func(_ uint, err error) bool {
		return matchesAny(err, retriable)
	}
}

// NonRetriableErrors retries every error except those matching one of
// nonRetriable, including wrapped errors.
func NonRetriableErrors(nonRetriable ...error) Strategy {
	return func(_ uint, err error) bool {
		return !matchesAny(err, nonRetriable)
	}
}

// Context stops retrying once ctx is done.
func Context(ctx context.Context) Strategy {
	return func(_ uint, _ error) bool {
		return ctx.Err() == nil
	}
}

// Backoff sleeps for the delay produced by strategy, capped at maxBackoff,
// before allowing the next attempt.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(attempts uint, _ error) bool {
		sleeperImpl.Sleep(capDelay(strategy(attempts), maxBackoff))
		return true
	}
}

// BackoffWithJitter is Backoff with the capped delay randomly adjusted by up
// to +/- jitter of itself. A capped delay of 100ms with a jitter of 0.1
// sleeps between 90ms and 110ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := capDelay(strategy(attempts), maxBackoff)
		factor := 1 + (rand.Float64()*2-1)*jitter
		sleeperImpl.Sleep(time.Duration(float64(delay) * factor))
		return true
	}
}

func capDelay(delay, maxBackoff time.Duration) time.Duration {
	return time.Duration(math.Min(float64(delay), float64(maxBackoff)))
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (r *realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = &realSleeper{}
