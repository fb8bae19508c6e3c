package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/studyhub/studyhub-server/internal/cache"
)

const (
	defaultRateWindow = time.Minute
	cacheRatePrefix   = "rate:"
)

// RateStore counts hits per key inside a fixed window.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, resetIn time.Duration, err error)
}

// NewMemoryRateStore keeps counters in process memory. Limits are per
// instance when more than one API server runs.
func NewMemoryRateStore() RateStore {
	return newMemoryRateStore(time.Now)
}

// NewCacheRateStore keeps counters in the shared cache so every instance
// enforces the same budget. It returns nil for a nil counter.
func NewCacheRateStore(counter cache.Counter) RateStore {
	if counter == nil {
		return nil
	}
	return cacheRateStore{counter: counter}
}

type window struct {
	hits    int
	resetAt time.Time
}

type memoryRateStore struct {
	now func() time.Time

	mu        sync.Mutex
	windows   map[string]window
	nextSweep time.Time
}

func newMemoryRateStore(now func() time.Time) *memoryRateStore {
	return &memoryRateStore{now: now, windows: make(map[string]window)}
}

func (s *memoryRateStore) Increment(_ context.Context, key string, length time.Duration) (int, time.Duration, error) {
	if length <= 0 {
		length = defaultRateWindow
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !now.Before(s.nextSweep) {
		s.sweep(now)
		s.nextSweep = now.Add(length)
	}

	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = window{resetAt: now.Add(length)}
	}
	w.hits++
	s.windows[key] = w

	return w.hits, w.resetAt.Sub(now), nil
}

// sweep drops closed windows; callers hold mu.
func (s *memoryRateStore) sweep(now time.Time) {
	for key, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, key)
		}
	}
}

type cacheRateStore struct {
	counter cache.Counter
}

func (s cacheRateStore) Increment(ctx context.Context, key string, length time.Duration) (int, time.Duration, error) {
	if length <= 0 {
		length = defaultRateWindow
	}
	hits, resetIn, err := s.counter.IncrementWithTTL(ctx, cacheRatePrefix+key, length)
	return int(hits), resetIn, err
}
