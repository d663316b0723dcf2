package processor

import (
	"github.com/code-payments/code-vault-server/pkg/config"
	"github.com/code-payments/code-vault-server/pkg/config/env"
	"github.com/code-payments/code-vault-server/pkg/config/memory"
	"github.com/code-payments/code-vault-server/pkg/config/wrapper"
	"github.com/code-payments/code-vault-server/pkg/pointer"
)

const (
	envConfigPrefix = "VAULT_PROGRAM_"

	WithdrawFeeBpsConfigEnvName = envConfigPrefix + "WITHDRAW_FEE_BPS"
	defaultWithdrawFeeBps       = 200
)

type conf struct {
	withdrawFeeBps config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			withdrawFeeBps: env.NewUint64Config(WithdrawFeeBpsConfigEnvName, defaultWithdrawFeeBps),
		}
	}
}

type testOverrides struct {
	withdrawFeeBps *uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	withdrawFeeBps := pointer.Uint64OrDefault(overrides.withdrawFeeBps, defaultWithdrawFeeBps)

	return func() *conf {
		return &conf{
			withdrawFeeBps: wrapper.NewUint64Config(memory.NewConfig(withdrawFeeBps), defaultWithdrawFeeBps),
		}
	}
}
