package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// ConvertFunc converts a raw config value into its typed form. Values read
// from text sources such as the environment arrive as []byte.
type ConvertFunc[T any] func(raw interface{}) (T, error)

// TypedConfig is a utility wrapper converting a raw config into a typed one
type TypedConfig[T any] struct {
	override     config.Config
	defaultValue T
	convert      ConvertFunc[T]

	stateMu   sync.RWMutex
	lastValue T
}

// New returns a typed config utility wrapper
func New[T any](override config.Config, defaultValue T, convert ConvertFunc[T]) *TypedConfig[T] {
	return &TypedConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return New(override, defaultValue, toUint64)
}

// NewDurationConfig returns a new time.Duration config utility wrapper
func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return New(override, defaultValue, toDuration)
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *TypedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	override, err := c.override.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if err == config.ErrNoValue {
		c.setLastValue(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	newValue, err := c.convert(override)
	if err != nil {
		return lastValue, err
	}

	c.setLastValue(newValue)
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *TypedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *TypedConfig[T]) Shutdown() {
	c.override.Shutdown()
}

func (c *TypedConfig[T]) setLastValue(v T) {
	c.stateMu.Lock()
	c.lastValue = v
	c.stateMu.Unlock()
}

func toUint64(raw interface{}) (uint64, error) {
	switch v := raw.(type) {
	case []byte:
		return strconv.ParseUint(string(v), 10, 64)
	case uint64:
		return v, nil
	case uint32:
		return uint64(v), nil
	case int:
		if v < 0 {
			return 0, ErrUnsuportedConversion
		}
		return uint64(v), nil
	default:
		return 0, ErrUnsuportedConversion
	}
}

func toDuration(raw interface{}) (time.Duration, error) {
	switch v := raw.(type) {
	case []byte:
		return time.ParseDuration(string(v))
	case time.Duration:
		return v, nil
	default:
		return 0, ErrUnsuportedConversion
	}
}
