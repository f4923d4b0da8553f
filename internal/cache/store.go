package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

// Store is an expiring key-value store. A ttl of zero means the key never
// expires. Implementations must be safe for concurrent use.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Increment atomically adds one to the counter at key and resets its
	// expiry to ttl, returning the new value.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// TTL returns the remaining lifetime of key, or ErrCacheMiss.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Health(ctx context.Context) error
	Close() error
}
