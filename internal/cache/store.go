// Package cache provides the cache store contract, key fingerprinting, and
// the Redis and in-memory store implementations used by the feed core.
//
// The cache is a pure performance optimization: every caller is expected to
// treat store errors as a miss and recompute (fail open). Staleness is
// bounded by per-entry TTLs; explicit invalidation and TTL expiry race to
// remove stale data and whichever fires first wins.
package cache

import (
	"context"
	"errors"
	"time"
)

// Common errors for cache operations.
var (
	// ErrCacheMiss is returned by Get when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrPatternUnsupported is returned by DeleteMatching on stores that
	// cannot delete by pattern. Callers degrade to relying on TTLs.
	ErrPatternUnsupported = errors.New("pattern delete not supported")
)

// Store is a key-value cache with per-entry TTLs. Per-key operations are
// atomic by contract; no cross-key coordination is provided or required.
// Deleting an absent key is a no-op, never an error.
type Store interface {
	// Get returns the payload for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL, replacing any
	// existing entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the key. Absence is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteMatching removes all keys matching the glob pattern and
	// returns how many were removed. Stores that cannot support this
	// return ErrPatternUnsupported; check SupportsPatternDelete first.
	DeleteMatching(ctx context.Context, pattern string) (int, error)

	// SupportsPatternDelete reports whether DeleteMatching is available.
	SupportsPatternDelete() bool
}
