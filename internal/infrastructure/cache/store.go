// Package cache provides the key/value stores behind the search cache.
package cache

import (
	"context"
	"time"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// Store is a byte-oriented key/value store with per-key expiry.
// Get returns domain.ErrCacheMiss for absent or expired keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Incr increments a counter, starting its expiry window on first increment.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// ErrMiss aliases the domain sentinel for callers that only import this package.
var ErrMiss = domain.ErrCacheMiss
