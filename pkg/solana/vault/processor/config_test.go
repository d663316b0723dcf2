package processor

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-vault-server/pkg/pointer"
)

func TestWithEnvConfigs(t *testing.T) {
	ctx := context.Background()

	conf := WithEnvConfigs()()
	assert.EqualValues(t, defaultWithdrawFeeBps, conf.withdrawFeeBps.Get(ctx))

	t.Setenv(WithdrawFeeBpsConfigEnvName, strconv.Itoa(150))
	assert.EqualValues(t, 150, conf.withdrawFeeBps.Get(ctx))

	// Unparseable values fall back to the last good value
	t.Setenv(WithdrawFeeBpsConfigEnvName, "not-a-number")
	assert.EqualValues(t, 150, conf.withdrawFeeBps.Get(ctx))
}

func TestWithManualTestOverrides(t *testing.T) {
	ctx := context.Background()

	conf := withManualTestOverrides(&testOverrides{})()
	assert.EqualValues(t, defaultWithdrawFeeBps, conf.withdrawFeeBps.Get(ctx))

	conf = withManualTestOverrides(&testOverrides{withdrawFeeBps: pointer.Uint64(75)})()
	assert.EqualValues(t, 75, conf.withdrawFeeBps.Get(ctx))
}
