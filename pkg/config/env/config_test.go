package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-solana-sdk/pkg/config"
)

func TestConfigDoesntExist(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"
	t.Setenv(env, "default")

	v, err := NewConfig(env).Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	t.Setenv(env, "")

	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedConfigs(t *testing.T) {
	t.Setenv("ENV_CONFIG_TEST_STRING", "devnet")
	t.Setenv("ENV_CONFIG_TEST_UINT", "7")
	t.Setenv("ENV_CONFIG_TEST_DURATION", "250ms")
	t.Setenv("ENV_CONFIG_TEST_BOOL", "true")

	ctx := context.Background()
	assert.Equal(t, "devnet", NewStringConfig("env_config_test_string", "").Get(ctx))
	assert.EqualValues(t, 7, NewUint64Config("ENV_CONFIG_TEST_UINT", 1).Get(ctx))
	assert.Equal(t, 250*time.Millisecond, NewDurationConfig("ENV_CONFIG_TEST_DURATION", time.Second).Get(ctx))
	assert.True(t, NewBoolConfig("ENV_CONFIG_TEST_BOOL", false).Get(ctx))

	assert.EqualValues(t, 3, NewUint64Config("ENV_CONFIG_TEST_MISSING", 3).Get(ctx))
}
