package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/auditctx"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/database/testutil"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func actorContext(tenantID, userID string) context.Context {
	return auditctx.WithActor(context.Background(), auditctx.Actor{
		TenantID: tenantID,
		UserID:   userID,
		Subject:  "user_" + userID,
		Role:     models.RoleAdmin,
	})
}

func newTestCache(t *testing.T) cache.Store {
	t.Helper()
	local := cache.NewLocalStore(cache.LocalConfig{DefaultTTL: time.Hour})
	t.Cleanup(local.Close)
	return local
}

func mustRecordSample(t *testing.T, db *gorm.DB, dealer *models.Dealership, observed time.Time, mutate func(*models.MetricSample)) *models.MetricSample {
	t.Helper()
	sample := &models.MetricSample{
		DealershipID: dealer.ID,
		ObservedAt:   observed,
		Source:       "test",
	}
	sample.TenantID = dealer.TenantID
	if mutate != nil {
		mutate(sample)
	}
	if err := db.Create(sample).Error; err != nil {
		t.Fatalf("create sample: %v", err)
	}
	return sample
}

func floatPtr(v float64) *float64 { return &v }
