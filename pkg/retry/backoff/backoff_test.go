package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstant(t *testing.T) {
	s := Constant(100 * time.Millisecond)

	for i := uint(1); i < 10; i++ {
		assert.Equal(t, 100*time.Millisecond, s(i))
	}
}

func TestLinear(t *testing.T) {
	s := Linear(500 * time.Millisecond)

	assert.Equal(t, 500*time.Millisecond, s(1))
	assert.Equal(t, time.Second, s(2))
	assert.Equal(t, 1500*time.Millisecond, s(3))
}

func TestExponential(t *testing.T) {
	s := Exponential(2*time.Second, 3.0)

	assert.Equal(t, 2*time.Second, s(1))
	assert.Equal(t, 6*time.Second, s(2))
	assert.Equal(t, 18*time.Second, s(3))
	assert.Equal(t, 54*time.Second, s(4))
}

func TestBinaryExponential(t *testing.T) {
	s := BinaryExponential(time.Second)

	assert.Equal(t, time.Second, s(1))
	assert.Equal(t, 2*time.Second, s(2))
	assert.Equal(t, 8*time.Second, s(4))
}

func TestSaturation(t *testing.T) {
	assert.EqualValues(t, math.MaxInt64, Exponential(time.Hour, 10)(200))
	assert.EqualValues(t, math.MaxInt64, Linear(math.MaxInt64/2)(3))
}
