package memory

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/config"
)

func TestConfig_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewConfig(nil)

	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, config.ErrNoValue)

	c.Set("https://api.devnet.solana.com")
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://api.devnet.solana.com", val)

	c.Fail(nil)
	_, err = c.Get(ctx)
	assert.ErrorIs(t, err, ErrInduced)

	unreachable := errors.New("unreachable")
	c.Fail(unreachable)
	_, err = c.Get(ctx)
	assert.ErrorIs(t, err, unreachable)

	c.Recover()
	val, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://api.devnet.solana.com", val)

	c.Clear()
	_, err = c.Get(ctx)
	assert.ErrorIs(t, err, config.ErrNoValue)

	c.Set(uint64(5))
	c.Shutdown()
	_, err = c.Get(ctx)
	assert.ErrorIs(t, err, config.ErrShutdown)
}
