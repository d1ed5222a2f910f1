package app

import (
	"strings"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
)

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// LocalStoreConfig sizes the in-process L1 cache.
func (c CacheConfig) LocalStoreConfig() cache.LocalConfig {
	return cache.LocalConfig{
		Capacity:   c.Local.Capacity,
		DefaultTTL: c.Local.DefaultTTL,
	}
}
