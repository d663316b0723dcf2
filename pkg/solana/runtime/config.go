package runtime

import (
	"time"

	"github.com/code-payments/code-vault-server/pkg/config"
	"github.com/code-payments/code-vault-server/pkg/config/env"
	"github.com/code-payments/code-vault-server/pkg/config/memory"
	"github.com/code-payments/code-vault-server/pkg/config/wrapper"
	"github.com/code-payments/code-vault-server/pkg/pointer"
)

const (
	envConfigPrefix = "VAULT_RUNTIME_"

	MaxCommitAttemptsConfigEnvName = envConfigPrefix + "MAX_COMMIT_ATTEMPTS"
	defaultMaxCommitAttempts       = 3

	LockTimeoutConfigEnvName = envConfigPrefix + "LOCK_TIMEOUT"
	defaultLockTimeout       = 10 * time.Second
)

type conf struct {
	maxCommitAttempts config.Uint64
	lockTimeout       config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			maxCommitAttempts: env.NewUint64Config(MaxCommitAttemptsConfigEnvName, defaultMaxCommitAttempts),
			lockTimeout:       env.NewDurationConfig(LockTimeoutConfigEnvName, defaultLockTimeout),
		}
	}
}

type testOverrides struct {
	maxCommitAttempts *uint64
	lockTimeout       *time.Duration
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	maxCommitAttempts := pointer.Uint64OrDefault(overrides.maxCommitAttempts, defaultMaxCommitAttempts)
	lockTimeout := pointer.DurationOrDefault(overrides.lockTimeout, defaultLockTimeout)

	return func() *conf {
		return &conf{
			maxCommitAttempts: wrapper.NewUint64Config(memory.NewConfig(maxCommitAttempts), defaultMaxCommitAttempts),
			lockTimeout:       wrapper.NewDurationConfig(memory.NewConfig(lockTimeout), defaultLockTimeout),
		}
	}
}
