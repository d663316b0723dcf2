package retry

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-vault-server/pkg/retry/backoff"
)

func TestLimit(t *testing.T) {
	strategy := Limit(2)

	assert.True(t, strategy(1, errors.New("test")))
	assert.False(t, strategy(2, errors.New("test")))

	counter, err := Retry(func() error {
		return errors.New("test")
	}, Limit(2))

	assert.EqualError(t, err, "test")
	assert.EqualValues(t, 2, counter)
}

func TestRetriableErrors(t *testing.T) {
	retriableErrors := []error{
		errors.New("retriableA"),
		errors.New("retriableB"),
	}

	strategy := RetriableErrors(retriableErrors...)
	for _, err := range retriableErrors {
		assert.True(t, strategy(1, err))
		assert.True(t, strategy(1, errors.Wrap(err, "wrapper")))
	}
	assert.False(t, strategy(2, errors.New("unexpected")))
}

func TestNonRetriableErrors(t *testing.T) {
	nonRetriableErrors := []error{
		errors.New("nonRetriableA"),
		errors.New("nonRetriableB"),
	}

	strategy := NonRetriableErrors(nonRetriableErrors...)
	for _, err := range nonRetriableErrors {
		assert.False(t, strategy(1, err))
		assert.False(t, strategy(1, errors.Wrap(err, "wrapper")))
	}
	assert.True(t, strategy(1, errors.New("unexpected")))
}

func TestContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	strategy := Context(ctx)

	assert.True(t, strategy(1, errors.New("test")))
	cancel()
	assert.False(t, strategy(2, errors.New("test")))
}

func TestBackoff(t *testing.T) {
	ts := &testSleeper{}
	sleeperImpl = ts
	strategy := Backoff(backoff.Exponential(100*time.Millisecond, 2), 500*time.Millisecond)

	for i := uint(1); i <= 5; i++ {
		assert.True(t, strategy(i, errors.New("test-error")))
	}

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
	}, ts.sleepTimes)
}

func TestBackoffWithJitter(t *testing.T) {
	iterations := 10000
	delay := time.Millisecond

	ts := &testSleeper{}
	sleeperImpl = ts
	strategy := BackoffWithJitter(backoff.Constant(delay), delay, 0.1)

	for i := 0; i < iterations; i++ {
		assert.True(t, strategy(1, errors.New("err")))
	}

	for _, d := range ts.sleepTimes {
		assert.InDelta(t, float64(delay), float64(d), 0.1*float64(delay)+1)
	}

	// Uniform jitter over +/- 10% averages out to the delay
	assert.InDelta(t, float64(delay), float64(ts.Mean()), 0.01*float64(delay))
}

type testSleeper struct {
	sleepTimes []time.Duration
}

func (t *testSleeper) Sleep(d time.Duration) {
	t.sleepTimes = append(t.sleepTimes, d)
}

func (t *testSleeper) Mean() time.Duration {
	var total float64
	for _, d := range t.sleepTimes {
		total += float64(d)
	}
	return time.Duration(math.Round(total / float64(len(t.sleepTimes))))
}
