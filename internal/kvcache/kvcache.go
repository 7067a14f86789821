// Package kvcache defines the generic key-value cache boundary used by the
// URL-mapping layer, plus two backends: an in-process memory cache and a
// Redis client wrapper.  Values are opaque byte slices; callers own
// serialization.  Every entry carries its own TTL.
//
// Both backends are safe for concurrent use.
package kvcache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kvcache: key not found")

// Cache is the minimal contract the mapping cache needs from a key-value
// tier.  Implementations must treat an expired entry exactly like a
// missing one.
type Cache interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.  A zero or negative ttl stores
	// the value without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key.  Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources (janitor goroutine, connections).
	Close() error
}
