package middleware

import (
	"context"
	"time"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
)

// memoryRateCapacity bounds the number of distinct client/route counters kept
// in process.
const memoryRateCapacity = 50_000

// RateStore counts requests per key within a fixed window.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// counterStore is the subset of cache.Store used for rate counters.
type counterStore interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type storeRateStore struct {
	store counterStore
}

// NewMemoryRateStore keeps counters in a process-local ttl cache. Expired
// windows are evicted by the cache itself.
func NewMemoryRateStore() RateStore {
	return &storeRateStore{store: cache.NewLocalStore(cache.LocalConfig{
		Capacity:   memoryRateCapacity,
		DefaultTTL: time.Minute,
	})}
}

// NewCacheRateStore counts in a shared cache.Store (Redis or the
// cache_entries table) so limits hold across replicas. A nil store yields nil.
func NewCacheRateStore(store cache.Store) RateStore {
	if store == nil {
		return nil
	}
	return &storeRateStore{store: store}
}

func (s *storeRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	count, ttl, err := s.store.IncrementWithTTL(ctx, key, window)
	return int(count), ttl, err
}
