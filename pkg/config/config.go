package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is an interface for getting a raw configuration value
type Config interface {
	// Get returns the latest config value
	Get(ctx context.Context) (interface{}, error)

	// Shutdown signals the config to stop all underlying resources
	Shutdown()
}

// Value provides a typed config.Config.
type Value[T any] interface {
	// Get returns the latest value, falling back to the last known or
	// default value on error
	Get(ctx context.Context) T

	// GetSafe returns the latest value and any error that arose loading it
	GetSafe(ctx context.Context) (T, error)

	Shutdown()
}

// Uint64 provides a uint64 typed config.Config.
type Uint64 = Value[uint64]

// Duration provides a time.Duration typed config.Config.
type Duration = Value[time.Duration]
