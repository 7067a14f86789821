// internal/kvcache/redis.go
//
// Redis Cache backend.
//
// Context
// -------
// Multi-node deployments share one cache tier so a write-through on one
// node is visible to every other node immediately.  This wrapper adapts
// go-redis to the Cache contract; connection pooling, timeouts, and
// retries are the client's responsibility, not this layer's.

package kvcache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis adapts a *redis.Client to Cache.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an already-configured client.  Ownership transfers; Close
// closes the client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Set implements Cache.  Redis treats expiration 0 as "no expiry", which
// matches the Cache contract for ttl <= 0.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Delete implements Cache.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Close implements Cache.
func (r *Redis) Close() error {
	return r.client.Close()
}
