package database

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/scoring"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Dealership{},
		&models.MetricSample{},
		&models.Score{},
		&models.SentinelEvent{},
		&models.FixPack{},
		&models.Integration{},
		&models.AuditLog{},
		&models.CacheEntry{},
		&models.SystemSetting{},
	)
}

// SeedData stores defaults that must exist before the first scoring run.
// Existing values are never overwritten.
func SeedData(db *gorm.DB) error {
	ctx := context.Background()

	current, err := GetSystemSetting(ctx, db, ScoringWeightsSetting)
	if err != nil {
		return err
	}
	if current != "" {
		return nil
	}

	encoded, err := json.Marshal(scoring.DefaultWeights())
	if err != nil {
		return fmt.Errorf("seed scoring weights: %w", err)
	}
	return UpsertSystemSetting(ctx, db, ScoringWeightsSetting, string(encoded))
}
