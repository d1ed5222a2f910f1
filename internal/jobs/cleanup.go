package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

// CleanupStats captures the number of rows removed per table.
type CleanupStats struct {
	CacheEntries   int64 `json:"cache_entries"`
	MetricSamples  int64 `json:"metric_samples"`
	SentinelEvents int64 `json:"sentinel_events"`
	Scores         int64 `json:"scores"`
}

// CleanupData removes expired cache rows (entries without an expiry stay),
// scores computed before the cutoff, metric samples observed before the
// cutoff and acknowledged sentinel events older than the cutoff.
func CleanupData(ctx context.Context, db *gorm.DB, now, cutoff time.Time) (CleanupStats, error) {
	if db == nil {
		return CleanupStats{}, errors.New("cleanup data: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := CleanupStats{}

	purged, err := cache.NewDatabaseStore(db).PurgeExpiredBefore(ctx, now)
	if err != nil {
		return stats, fmt.Errorf("cleanup data: cache entries: %w", err)
	}
	stats.CacheEntries = purged

	if result := db.WithContext(ctx).
		Where("observed_at < ?", cutoff).
		Delete(&models.MetricSample{}); result.Error != nil {
		return stats, fmt.Errorf("cleanup data: metric samples: %w", result.Error)
	} else {
		stats.MetricSamples = result.RowsAffected
	}

	if result := db.WithContext(ctx).
		Where("acknowledged_at IS NOT NULL AND created_at < ?", cutoff).
		Delete(&models.SentinelEvent{}); result.Error != nil {
		return stats, fmt.Errorf("cleanup data: sentinel events: %w", result.Error)
	} else {
		stats.SentinelEvents = result.RowsAffected
	}

	if result := db.WithContext(ctx).
		Where("computed_at < ?", cutoff).
		Delete(&models.Score{}); result.Error != nil {
		return stats, fmt.Errorf("cleanup data: scores: %w", result.Error)
	} else {
		stats.Scores = result.RowsAffected
	}

	return stats, nil
}
