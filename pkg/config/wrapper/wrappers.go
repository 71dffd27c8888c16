package wrapper

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// typedConfig wraps a config.Config, converting its raw values to T. Values
// are accepted as T directly or as a byte array parsed with parse.
type typedConfig[T any] struct {
	override     config.Config
	defaultValue T
	parse        func(string) (T, error)

	stateMu   sync.RWMutex
	lastValue T
}

func newTypedConfig[T any](override config.Config, defaultValue T, parse func(string) (T, error)) *typedConfig[T] {
	return &typedConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		parse:        parse,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *typedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	override, err := c.override.Get(ctx)
	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()
	if err == config.ErrNoValue {
		c.set(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	var newValue T
	switch override := override.(type) {
	case []byte:
		newValue, err = c.parse(string(override))
		if err != nil {
			return lastValue, err
		}
	case T:
		newValue = override
	default:
		return lastValue, ErrUnsuportedConversion
	}

	c.set(newValue)
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *typedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *typedConfig[T]) Shutdown() {
	c.override.Shutdown()
}

func (c *typedConfig[T]) set(value T) {
	c.stateMu.Lock()
	c.lastValue = value
	c.stateMu.Unlock()
}

// NewBoolConfig returns a new bool config utility wrapper
func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return newTypedConfig(override, defaultValue, strconv.ParseBool)
}

// NewFloat64Config returns a new float64 config utility wrapper
func NewFloat64Config(override config.Config, defaultValue float64) config.Float64 {
	return newTypedConfig(override, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return newTypedConfig(override, defaultValue, func(s string) (uint64, error) {
		return strconv.ParseUint(s, 10, 64)
	})
}

// NewStringConfig returns a new string config utility wrapper
func NewStringConfig(override config.Config, defaultValue string) config.String {
	return newTypedConfig(override, defaultValue, func(s string) (string, error) {
		return s, nil
	})
}
