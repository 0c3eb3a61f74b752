package storage

import (
	"context"
	"errors"
)

// Common storage errors.
var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("storage: closed")
)

// Storage is a persisted key-value store.
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Returns nil if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// IsNotFound reports whether err means the key holds no value.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
