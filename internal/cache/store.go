package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store represents a shared cache interface used across the application.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Pinger is implemented by stores backed by a remote server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ErrNilStore is returned by the JSON helpers when no store is configured.
var ErrNilStore = errors.New("cache: store is nil")

// Key joins parts into a colon separated cache key, skipping empty parts.
func Key(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), ":")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ":")
}

// GetJSON loads and decodes a cached value. A miss returns false with no error.
func GetJSON(ctx context.Context, store Store, key string, dst any) (bool, error) {
	if store == nil {
		return false, ErrNilStore
	}
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("cache: decode %q: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes and stores a value with the given TTL.
func SetJSON(ctx context.Context, store Store, key string, value any, ttl time.Duration) error {
	if store == nil {
		return ErrNilStore
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}
	return store.Set(ctx, key, raw, ttl)
}
