package wrapper

import (
	"context"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault-server/pkg/config/memory"
)

func TestUint64Config(t *testing.T) {
	defaultValue := uint64(200)
	overridenValue := uint64(math.MaxUint64)
	mock := memory.NewConfig(nil)
	wrapper := NewUint64Config(mock, defaultValue)

	// Return the default value when no override is set
	val, err := wrapper.GetSafe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultValue, val)
	assert.Equal(t, defaultValue, wrapper.Get(context.Background()))

	// The overriden value is returned when set
	mock.SetValue(overridenValue)
	val, err = wrapper.GetSafe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, overridenValue, val)

	// Text sources are parsed
	mock.SetValue([]byte(strconv.FormatUint(42, 10)))
	assert.EqualValues(t, 42, wrapper.Get(context.Background()))

	// The last observed config value is returned on error
	mock.InduceErrors()
	val, err = wrapper.GetSafe(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 42, val)

	// The default value is returned when the override no longer has a value
	mock.StopInducingErrors()
	mock.ClearValue()
	val, err = wrapper.GetSafe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultValue, val)

	// Unparseable and unsupported values keep the last known value
	mock.SetValue([]byte("not a number"))
	val, err = wrapper.GetSafe(context.Background())
	assert.Error(t, err)
	assert.Equal(t, defaultValue, val)

	mock.SetValue(-1)
	val, err = wrapper.GetSafe(context.Background())
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, defaultValue, val)

	mock.SetValue("not supported")
	val, err = wrapper.GetSafe(context.Background())
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, defaultValue, val)
}

func TestDurationConfig(t *testing.T) {
	defaultValue := 10 * time.Second
	mock := memory.NewConfig(nil)
	wrapper := NewDurationConfig(mock, defaultValue)

	assert.Equal(t, defaultValue, wrapper.Get(context.Background()))

	mock.SetValue(time.Minute)
	assert.Equal(t, time.Minute, wrapper.Get(context.Background()))

	mock.SetValue([]byte("250ms"))
	assert.Equal(t, 250*time.Millisecond, wrapper.Get(context.Background()))

	mock.SetValue(uint64(5))
	val, err := wrapper.GetSafe(context.Background())
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, 250*time.Millisecond, val)
}

func TestCustomConversion(t *testing.T) {
	mock := memory.NewConfig([]byte("a,b"))
	wrapper := New(mock, 0, func(raw interface{}) (int, error) {
		return len(raw.([]byte)), nil
	})
	assert.Equal(t, 3, wrapper.Get(context.Background()))

	wrapper.Shutdown()
	val, err := wrapper.GetSafe(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 3, val)
}
