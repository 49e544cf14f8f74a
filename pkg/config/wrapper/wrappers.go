package wrapper

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// converter turns a raw source value into T. Env sources yield []byte, while
// file based sources yield native values.
type converter[T any] func(raw interface{}) (T, error)

// value is a utility wrapper for a typed config. It falls back to the default
// value when the source has no value.
type value[T any] struct {
	override     config.Config
	defaultValue T
	convert      converter[T]

	stateMu   sync.RWMutex
	lastValue T
}

func newValue[T any](override config.Config, defaultValue T, convert converter[T]) *value[T] {
	return &value[T]{
		override:     override,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *value[T]) GetSafe(ctx context.Context) (T, error) {
	override, err := c.override.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if err == config.ErrNoValue {
		c.stateMu.Lock()
		c.lastValue = c.defaultValue
		c.stateMu.Unlock()
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	newValue, err := c.convert(override)
	if err != nil {
		return lastValue, err
	}

	c.stateMu.Lock()
	c.lastValue = newValue
	c.stateMu.Unlock()
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *value[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *value[T]) Shutdown() {
	c.override.Shutdown()
}

// NewBoolConfig returns a new bool config utility wrapper
func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return newValue(override, defaultValue, func(raw interface{}) (bool, error) {
		switch raw := raw.(type) {
		case []byte:
			return strconv.ParseBool(string(raw))
		case string:
			return strconv.ParseBool(raw)
		case bool:
			return raw, nil
		default:
			return false, ErrUnsuportedConversion
		}
	})
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return newValue(override, defaultValue, func(raw interface{}) (uint64, error) {
		switch raw := raw.(type) {
		case []byte:
			return strconv.ParseUint(string(raw), 10, 64)
		case string:
			return strconv.ParseUint(raw, 10, 64)
		case uint64:
			return raw, nil
		case uint:
			return uint64(raw), nil
		case int:
			if raw < 0 {
				return 0, errors.Errorf("config: negative value %d", raw)
			}
			return uint64(raw), nil
		case int64:
			if raw < 0 {
				return 0, errors.Errorf("config: negative value %d", raw)
			}
			return uint64(raw), nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}

// NewStringConfig returns a new string config utility wrapper
func NewStringConfig(override config.Config, defaultValue string) config.String {
	return newValue(override, defaultValue, func(raw interface{}) (string, error) {
		switch raw := raw.(type) {
		case []byte:
			return string(raw), nil
		case string:
			return raw, nil
		default:
			return "", ErrUnsuportedConversion
		}
	})
}

// NewDurationConfig returns a new time.Duration config utility wrapper. Text
// values are parsed with time.ParseDuration, and bare integers are seconds.
func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return newValue(override, defaultValue, func(raw interface{}) (time.Duration, error) {
		switch raw := raw.(type) {
		case []byte:
			return parseDuration(string(raw))
		case string:
			return parseDuration(raw)
		case time.Duration:
			return raw, nil
		case int:
			return time.Duration(raw) * time.Second, nil
		case int64:
			return time.Duration(raw) * time.Second, nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if seconds, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(s)
}
