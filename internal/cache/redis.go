package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campushive/campushive/internal/tracing"
)

// DefaultOpTimeout bounds every Redis call so a slow cache can never make
// the feed unavailable. On timeout callers treat the result as a miss.
const DefaultOpTimeout = 150 * time.Millisecond

// scanBatchSize is the COUNT hint for SCAN during pattern deletion.
const scanBatchSize = 256

// RedisStore is a Redis-backed Store implementation.
type RedisStore struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewRedisStore creates a Redis cache store. A non-positive opTimeout falls
// back to DefaultOpTimeout.
func NewRedisStore(client *redis.Client, opTimeout time.Duration) *RedisStore {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &RedisStore{
		client:    client,
		opTimeout: opTimeout,
	}
}

// Get returns the payload for key, or ErrCacheMiss if absent.
func (s *RedisStore) Get(ctx context.Context, key string) (value []byte, err error) {
	ctx, endSpan := tracing.StartCacheSpan(ctx, tracing.CacheOperationGet)
	defer func() { endSpan(err) }()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	value, err = s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Misses are routine, not span errors.
		err = nil
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (err error) {
	ctx, endSpan := tracing.StartCacheSpan(ctx, tracing.CacheOperationSet)
	defer func() { endSpan(err) }()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the key. Absence is not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) (err error) {
	ctx, endSpan := tracing.StartCacheSpan(ctx, tracing.CacheOperationDelete)
	defer func() { endSpan(err) }()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// DeleteMatching removes all keys matching the glob pattern using SCAN so
// the server is never blocked by a KEYS call. Pattern deletion runs on the
// invalidation path, which tolerates more latency than reads, so it gets a
// looser timeout than point operations.
func (s *RedisStore) DeleteMatching(ctx context.Context, pattern string) (total int, err error) {
	ctx, endSpan := tracing.StartCacheSpan(ctx, tracing.CacheOperationDeleteMatching)
	defer func() { endSpan(err) }()

	ctx, cancel := context.WithTimeout(ctx, 10*s.opTimeout)
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return total, fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			deleted, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return total, fmt.Errorf("redis del matching %s: %w", pattern, err)
			}
			total += int(deleted)
		}
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

// SupportsPatternDelete reports that pattern deletion is available.
func (s *RedisStore) SupportsPatternDelete() bool {
	return true
}
