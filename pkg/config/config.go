package config

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is an interface for getting a configuration value
type Config interface {
	// Get returns the latest config value
	Get(ctx context.Context) (interface{}, error)

	// Shutdown signals the config to stop all underlying resources
	Shutdown()
}

// Bool provides a boolean typed config.Config.
type Bool interface {
	Get(ctx context.Context) bool
	GetSafe(ctx context.Context) (bool, error)
	Shutdown()
}

// Float64 provides a float64 typed config.Config.
type Float64 interface {
	Get(ctx context.Context) float64
	GetSafe(ctx context.Context) (float64, error)
	Shutdown()
}

// Uint64 provides a uint64 typed config.Config.
type Uint64 interface {
	Get(ctx context.Context) uint64
	GetSafe(ctx context.Context) (uint64, error)
	Shutdown()
}

// String provides a string typed config.Config.
type String interface {
	Get(ctx context.Context) string
	GetSafe(ctx context.Context) (string, error)
	Shutdown()
}
