package cache

import (
	"context"
	"time"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/logger"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/metrics"
	"go.uber.org/zap"
)

// TieredStore reads through an in-process LocalStore before the shared store.
// Local copies live at most localTTL, so replicas may serve a value that is
// that much older than the shared copy. Counters always use the shared store.
type TieredStore struct {
	local    *LocalStore
	shared   Store
	localTTL time.Duration
}

// NewTieredStore combines a local and a shared store. localTTL caps how long a
// value is served from process memory.
func NewTieredStore(local *LocalStore, shared Store, localTTL time.Duration) *TieredStore {
	if localTTL <= 0 {
		localTTL = defaultLocalTTL
	}
	return &TieredStore{local: local, shared: shared, localTTL: localTTL}
}

func (s *TieredStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	return s.shared.IncrementWithTTL(ctx, key, window)
}

func (s *TieredStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.shared.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return s.local.Set(ctx, key, value, s.cap(ttl))
}

func (s *TieredStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if value, ok, _ := s.local.Get(ctx, key); ok {
		metrics.CacheLookups.WithLabelValues("local", "hit").Inc()
		return value, true, nil
	}
	metrics.CacheLookups.WithLabelValues("local", "miss").Inc()

	value, ok, err := s.shared.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("shared", "error").Inc()
		logger.WithModule("cache").Warn("shared cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false, err
	case !ok:
		metrics.CacheLookups.WithLabelValues("shared", "miss").Inc()
		return nil, false, nil
	}
	metrics.CacheLookups.WithLabelValues("shared", "hit").Inc()
	_ = s.local.Set(ctx, key, value, s.localTTL)
	return value, true, nil
}

func (s *TieredStore) Delete(ctx context.Context, keys ...string) error {
	_ = s.local.Delete(ctx, keys...)
	return s.shared.Delete(ctx, keys...)
}

// Ping delegates to the shared store when it supports health checks.
func (s *TieredStore) Ping(ctx context.Context) error {
	if p, ok := s.shared.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Shared exposes the underlying shared store.
func (s *TieredStore) Shared() Store {
	return s.shared
}

func (s *TieredStore) cap(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > s.localTTL {
		return s.localTTL
	}
	return ttl
}
