package checks

import (
	"context"
	"time"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring"
)

const defaultRedisTimeout = 2 * time.Second

// RedisPinger is satisfied by cache.RedisClient.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Redis probes the shared cache tier. Scores fall back to the local and
// database tiers, so an unreachable Redis degrades readiness but never fails it.
func Redis(client RedisPinger, enabled bool, timeout time.Duration) monitoring.Check {
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}
	return monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		switch {
		case !enabled:
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "redis disabled"}
		case client == nil:
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "redis unavailable"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := client.Ping(probeCtx); err != nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "redis ping failed: " + err.Error()}
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	})
}
