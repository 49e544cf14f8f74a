// Package memory provides an in memory config source, used to pin values in
// tests and manual overrides.
package memory

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/config"
)

// ErrInduced is the error returned by Get after Fail is called without an
// explicit error.
var ErrInduced = errors.New("memory config: induced failure")

// Config holds a single value in memory. A nil value reads as config.ErrNoValue,
// which lets wrapper configs fall back to their default.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	failure  error
	shutdown bool
}

// NewConfig returns a config holding value. Pass nil to leave it unset.
func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements config.Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.failure != nil:
		return nil, c.failure
	case c.value == nil:
		return nil, config.ErrNoValue
	default:
		return c.value, nil
	}
}

// Shutdown implements config.Config.Shutdown
func (c *Config) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()
}

// Set replaces the held value. Setting nil is the same as Clear.
func (c *Config) Set(value interface{}) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

// Clear drops the held value so Get reports config.ErrNoValue.
func (c *Config) Clear() {
	c.Set(nil)
}

// Fail makes Get return err until Recover is called. A nil err induces
// ErrInduced.
func (c *Config) Fail(err error) {
	if err == nil {
		err = ErrInduced
	}

	c.mu.Lock()
	c.failure = err
	c.mu.Unlock()
}

// Recover undoes Fail.
func (c *Config) Recover() {
	c.mu.Lock()
	c.failure = nil
	c.mu.Unlock()
}
