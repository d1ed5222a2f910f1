package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring"
)

const (
	defaultDatabaseTimeout = 2 * time.Second
	databaseComponent      = "database"
)

// Database pings the pool and reports degraded when every open connection is
// busy and callers are already queueing for one.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	if timeout <= 0 {
		timeout = defaultDatabaseTimeout
	}
	return monitoring.NewCheck(databaseComponent, func(ctx context.Context) monitoring.ProbeResult {
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		start := time.Now()
		sqlDB, err := db.DB()
		if err == nil {
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			err = sqlDB.PingContext(probeCtx)
			cancel()
		}
		if err != nil {
			return monitoring.ResultFromError(databaseComponent, err, time.Since(start))
		}

		stats := sqlDB.Stats()
		result := monitoring.ProbeResult{Status: monitoring.StatusUp, Duration: time.Since(start)}
		if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections && stats.WaitCount > 0 {
			result.Status = monitoring.StatusDegraded
			result.Details = fmt.Sprintf("connection pool exhausted (%d/%d in use, %d waits)",
				stats.InUse, stats.MaxOpenConnections, stats.WaitCount)
		}
		return result
	})
}
