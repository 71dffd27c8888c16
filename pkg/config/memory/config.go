package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/code-payments/code-nft-issuer/pkg/config"
)

var errInduced = errors.New("memory config: induced error")

// Config is an in memory config.Config for tests and manual overrides. A nil
// value reads as config.ErrNoValue.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	induced  bool
	shutdown bool
}

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
	case c.induced:
		return nil, errInduced
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements config.Config.Shutdown
func (c *Config) Shutdown() {
	c.update(func() { c.shutdown = true })
}

func (c *Config) SetValue(value interface{}) {
	c.update(func() { c.value = value })
}

// ClearValue makes subsequent Get calls return config.ErrNoValue
func (c *Config) ClearValue() {
	c.SetValue(nil)
}

// InduceErrors makes subsequent Get calls fail until StopInducingErrors
func (c *Config) InduceErrors() {
	c.update(func() { c.induced = true })
}

func (c *Config) StopInducingErrors() {
	c.update(func() { c.induced = false })
}

func (c *Config) update(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
}
