package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/code-vault-server/pkg/config"
	"github.com/code-payments/code-vault-server/pkg/config/wrapper"
)

type conf struct {
	key string
}

// NewConfig returns a config backed by the environment variable key. The
// variable is read on every Get.
func NewConfig(key string) config.Config {
	return &conf{
		key: strings.ToUpper(key),
	}
}

// Get implements Config.Get
func (c *conf) Get(_ context.Context) (interface{}, error) {
	val := os.Getenv(c.key)
	if len(val) == 0 {
		return nil, config.ErrNoValue
	}

	return []byte(val), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}

// NewUint64Config creates a env-based uint64 config
func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

// NewDurationConfig creates a env-based duration config
func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
