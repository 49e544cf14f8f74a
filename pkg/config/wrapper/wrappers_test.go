package wrapper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/config"
	"github.com/code-payments/code-solana-sdk/pkg/config/memory"
)

type typedConfig[T any] interface {
	Get(ctx context.Context) T
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

// testLifecycle runs the default, override, error and shutdown transitions
// shared by every wrapper.
func testLifecycle[T any](t *testing.T, mock *memory.Config, wrapper typedConfig[T], defaultValue, overridenValue T, raw interface{}) {
	ctx := context.Background()

	// Return the default value when no override is set
	val, err := wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultValue, val)
	assert.Equal(t, defaultValue, wrapper.Get(ctx))

	// The overriden value is returned when set
	mock.Set(raw)
	val, err = wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, overridenValue, val)
	assert.Equal(t, overridenValue, wrapper.Get(ctx))

	// The last observed config value is returned on error
	mock.Fail(nil)
	val, err = wrapper.GetSafe(ctx)
	require.Error(t, err)
	assert.Equal(t, overridenValue, val)

	// The default value is returned when the override no longer has a value
	mock.Recover()
	mock.Clear()
	val, err = wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultValue, val)

	// Return an unsupported source value type
	mock.Set(struct{}{})
	val, err = wrapper.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, defaultValue, val)

	// Shutdown via the wrapper
	wrapper.Shutdown()
	_, err = wrapper.GetSafe(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestBoolConfig(t *testing.T) {
	mock := memory.NewConfig(nil)
	testLifecycle[bool](t, mock, NewBoolConfig(mock, true), true, false, false)

	for _, raw := range []interface{}{[]byte("false"), "false", false} {
		mock := memory.NewConfig(raw)
		assert.False(t, NewBoolConfig(mock, true).Get(context.Background()))
	}

	_, err := NewBoolConfig(memory.NewConfig([]byte("maybe")), true).GetSafe(context.Background())
	assert.Error(t, err)
}

func TestUint64Config(t *testing.T) {
	mock := memory.NewConfig(nil)
	testLifecycle[uint64](t, mock, NewUint64Config(mock, 3), 3, 10, uint64(10))

	for _, raw := range []interface{}{[]byte("10"), "10", uint64(10), uint(10), 10, int64(10)} {
		mock := memory.NewConfig(raw)
		assert.EqualValues(t, 10, NewUint64Config(mock, 3).Get(context.Background()), raw)
	}

	for _, raw := range []interface{}{[]byte("-1"), -1, int64(-1), "ten"} {
		_, err := NewUint64Config(memory.NewConfig(raw), 3).GetSafe(context.Background())
		assert.Error(t, err, raw)
	}
}

func TestStringConfig(t *testing.T) {
	mock := memory.NewConfig(nil)
	testLifecycle[string](t, mock, NewStringConfig(mock, "default"), "default", "override", []byte("override"))

	assert.Equal(t, "override", NewStringConfig(memory.NewConfig("override"), "default").Get(context.Background()))
}

func TestDurationConfig(t *testing.T) {
	mock := memory.NewConfig(nil)
	testLifecycle[time.Duration](t, mock, NewDurationConfig(mock, time.Second), time.Second, 2*time.Minute, []byte("2m"))

	for _, raw := range []interface{}{[]byte("120s"), "2m", "120", 2 * time.Minute, 120, int64(120)} {
		mock := memory.NewConfig(raw)
		assert.Equal(t, 2*time.Minute, NewDurationConfig(mock, time.Second).Get(context.Background()), raw)
	}

	_, err := NewDurationConfig(memory.NewConfig([]byte("cannot convert")), time.Second).GetSafe(context.Background())
	assert.Error(t, err)
}
