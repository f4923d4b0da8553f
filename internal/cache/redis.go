package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client  *redis.Client
	breaker *Breaker
	metrics *StoreMetrics
	timeout time.Duration
}

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// OpTimeout bounds every individual store call.
	OpTimeout time.Duration
	Breaker   *BreakerConfig
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		OpTimeout:    3 * time.Second,
	}
}

func NewRedisStore(config *CacheConfig) *RedisStore {
	if config == nil {
		config = DefaultCacheConfig()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	timeout := config.OpTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &RedisStore{
		client:  rdb,
		breaker: NewBreaker(config.Breaker),
		metrics: newStoreMetrics(),
		timeout: timeout,
	}
}

// do runs fn under the per-call timeout and the breaker. A miss is a
// normal outcome and does not count against the breaker.
func (r *RedisStore) do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var miss bool
	err := r.breaker.Execute(func() error {
		err := fn(ctx)
		if errors.Is(err, ErrCacheMiss) {
			miss = true
			return nil
		}
		return err
	})

	switch {
	case errors.Is(err, ErrBreakerOpen):
		r.metrics.failure(true)
		return fmt.Errorf("%w: %v", ErrCacheDown, err)
	case err != nil:
		r.metrics.failure(false)
		return err
	case miss:
		return ErrCacheMiss
	}
	return nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := r.do(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	r.metrics.write()
	return nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.do(ctx, func(ctx context.Context) error {
		data, err := r.client.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrCacheMiss
		}
		value = data
		return err
	})

	switch {
	case errors.Is(err, ErrCacheMiss):
		r.metrics.lookup(false)
		return "", ErrCacheMiss
	case err != nil:
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	r.metrics.lookup(true)
	return value, nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	err := r.do(ctx, func(ctx context.Context) error {
		return r.client.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	r.metrics.delete()
	return nil
}

func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	var found bool
	err := r.do(ctx, func(ctx context.Context) error {
		n, err := r.client.Exists(ctx, key).Result()
		found = n > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	r.metrics.lookup(found)
	return found, nil
}

func (r *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	err := r.do(ctx, func(ctx context.Context) error {
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			if ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}
	r.metrics.write()
	return incr.Val(), nil
}

func (r *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	var ttl time.Duration
	err := r.do(ctx, func(ctx context.Context) error {
		d, err := r.client.PTTL(ctx, key).Result()
		if err != nil {
			return err
		}
		// go-redis reports a missing key as -2 and no expiry as -1.
		if d == -2 {
			return ErrCacheMiss
		}
		if d < 0 {
			d = 0
		}
		ttl = d
		return nil
	})
	if errors.Is(err, ErrCacheMiss) {
		return 0, ErrCacheMiss
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read ttl of %s: %w", key, err)
	}
	return ttl, nil
}

func (r *RedisStore) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Metrics() MetricsSnapshot {
	return r.metrics.Snapshot()
}

// RedisStats is the store section of the /metrics report.
type RedisStats struct {
	Operations MetricsSnapshot `json:"operations"`
	Breaker    BreakerStats    `json:"breaker"`
	Pool       struct {
		Hits     uint32 `json:"hits"`
		Misses   uint32 `json:"misses"`
		Timeouts uint32 `json:"timeouts"`
		Total    uint32 `json:"total"`
		Idle     uint32 `json:"idle"`
	} `json:"pool"`
}

func (r *RedisStore) Stats() RedisStats {
	stats := RedisStats{Operations: r.metrics.Snapshot(), Breaker: r.breaker.Stats()}
	pool := r.client.PoolStats()
	stats.Pool.Hits = pool.Hits
	stats.Pool.Misses = pool.Misses
	stats.Pool.Timeouts = pool.Timeouts
	stats.Pool.Total = pool.TotalConns
	stats.Pool.Idle = pool.IdleConns
	return stats
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
