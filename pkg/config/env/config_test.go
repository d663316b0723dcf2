package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-vault-server/pkg/config"
)

func TestConfig(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"

	c := NewConfig(env)

	v, err := c.Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)

	t.Setenv(env, "value")
	v, err = c.Get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), v)
}

func TestTypedConfigs(t *testing.T) {
	const (
		uint64Env   = "ENV_CONFIG_TEST_UINT64"
		durationEnv = "ENV_CONFIG_TEST_DURATION"
	)

	assert.EqualValues(t, 200, NewUint64Config(uint64Env, 200).Get(context.Background()))
	assert.Equal(t, time.Second, NewDurationConfig(durationEnv, time.Second).Get(context.Background()))

	t.Setenv(uint64Env, "150")
	t.Setenv(durationEnv, "3s")
	assert.EqualValues(t, 150, NewUint64Config(uint64Env, 200).Get(context.Background()))
	assert.Equal(t, 3*time.Second, NewDurationConfig(durationEnv, time.Second).Get(context.Background()))
}
