// Package kv provides the key-value storage capability shared by the token
// store and the task store. Two implementations exist: a Redis-backed store
// for production (durable across restarts) and an in-memory store for
// development and tests (process-lifetime only).
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist (or has expired).
var ErrNotFound = errors.New("kv: key not found")

// ErrUnavailable is returned when the backing store cannot be reached.
// Callers must not conflate this with ErrNotFound: a missing key means
// "no data", an unavailable store means "unknown".
var ErrUnavailable = errors.New("kv: store unavailable")

// Store is the minimal key-value capability the assistant depends on.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A positive ttl sets an expiry; ttl <= 0
	// stores without one.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
