package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// LocalConfig sizes the in-process cache.
type LocalConfig struct {
	Capacity   uint64
	DefaultTTL time.Duration
}

const defaultLocalTTL = time.Minute

// LocalStore is an in-process Store backed by ttlcache. Values do not survive
// restarts and are not shared between replicas.
type LocalStore struct {
	items *ttlcache.Cache[string, []byte]
	mu    sync.Mutex // serialises IncrementWithTTL
}

// NewLocalStore creates and starts a LocalStore. Call Close to stop its janitor.
func NewLocalStore(cfg LocalConfig) *LocalStore {
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = defaultLocalTTL
	}
	opts := []ttlcache.Option[string, []byte]{
		ttlcache.WithTTL[string, []byte](ttl),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if cfg.Capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](cfg.Capacity))
	}

	items := ttlcache.New[string, []byte](opts...)
	go items.Start()
	return &LocalStore{items: items}
}

// Close stops the expiry janitor.
func (s *LocalStore) Close() {
	s.items.Stop()
}

// Len reports the number of live entries.
func (s *LocalStore) Len() int {
	return s.items.Len()
}

func (s *LocalStore) IncrementWithTTL(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.items.Get(key)
	if item == nil {
		s.items.Set(key, []byte("1"), window)
		return 1, window, nil
	}

	count, _ := strconv.ParseInt(string(item.Value()), 10, 64)
	count++
	remaining := time.Until(item.ExpiresAt())
	if remaining <= 0 {
		s.items.Set(key, []byte("1"), window)
		return 1, window, nil
	}
	s.items.Set(key, []byte(strconv.FormatInt(count, 10)), remaining)
	return count, remaining, nil
}

// Set stores the value. A non-positive TTL uses the cache default.
func (s *LocalStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.DefaultTTL
	}
	s.items.Set(key, value, ttl)
	return nil
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := s.items.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (s *LocalStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.items.Delete(key)
	}
	return nil
}
