package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/database"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

// TestDBOption customises the behaviour of MustOpenTestDB.
type TestDBOption func(*testDBConfig)

type testDBConfig struct {
	autoMigrate bool
	seedData    bool
}

// WithAutoMigrate enables automatic schema migration after opening the test database.
func WithAutoMigrate() TestDBOption {
	return func(cfg *testDBConfig) {
		cfg.autoMigrate = true
	}
}

// WithSeedData ensures migrations are applied and default seed data inserted.
func WithSeedData() TestDBOption {
	return func(cfg *testDBConfig) {
		cfg.autoMigrate = true
		cfg.seedData = true
	}
}

// MustOpenTestDB opens a private in-memory SQLite database for tests, applying
// optional migrations and seed data. The connection is closed via t.Cleanup.
func MustOpenTestDB(t *testing.T, opts ...TestDBOption) *gorm.DB {
	t.Helper()

	cfg := testDBConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(database.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	if cfg.seedData {
		require.NoError(t, database.AutoMigrateAndSeed(db))
	} else if cfg.autoMigrate {
		require.NoError(t, database.AutoMigrate(db))
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a shared-cache memory database reports SQLITE_LOCKED instead of waiting
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// MustCreateTenant inserts a tenant with the given slug.
func MustCreateTenant(t *testing.T, db *gorm.DB, slug string) *models.Tenant {
	t.Helper()

	tenant := &models.Tenant{Name: slug, Slug: slug, Plan: "pro", Active: true}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

// MustCreateDealership inserts an active dealership under the tenant.
func MustCreateDealership(t *testing.T, db *gorm.DB, tenantID, domain string) *models.Dealership {
	t.Helper()

	dealer := &models.Dealership{
		TenantID:     tenantID,
		Name:         domain,
		Domain:       domain,
		Brand:        "Ford",
		MonthlyLeads: 400,
		AvgDealValue: 3000,
		CloseRate:    0.1,
		TargetScore:  85,
		Active:       true,
	}
	require.NoError(t, db.Create(dealer).Error)
	return dealer
}
