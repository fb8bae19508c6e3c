package cache

import (
	"context"
	"time"
)

// Counter keeps fixed-window counters shared by every API instance.
type Counter interface {
	// IncrementWithTTL bumps key and starts its window on first use. It
	// returns the new count and the time left in the window.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Store is what the HTTP layer needs from the shared cache: counters for
// rate limiting and a liveness probe for /health.
type Store interface {
	Counter
	Ping(ctx context.Context) error
}

var _ Store = (*RedisClient)(nil)
