package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/database/testutil"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

func TestAuditServiceLogFillsActorFromContext(t *testing.T) {
	db := openServiceTestDB(t)
	tenant := testutil.MustCreateTenant(t, db, "acme")
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	ctx := actorContext(tenant.ID, "user-1")
	require.NoError(t, svc.Log(ctx, AuditEntry{
		Action:     "dealership.create",
		Resource:   "dealership",
		ResourceID: "d1",
		Result:     "success",
		Metadata:   map[string]any{"domain": "sunsetford.com"},
	}))

	logs, total, err := svc.List(context.Background(), AuditListOptions{Filters: AuditFilters{TenantID: tenant.ID}})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, logs, 1)

	entry := logs[0]
	require.NotNil(t, entry.TenantID)
	require.Equal(t, tenant.ID, *entry.TenantID)
	require.NotNil(t, entry.UserID)
	require.Equal(t, "user-1", *entry.UserID)
	require.Equal(t, "user_user-1", entry.Actor)
	require.JSONEq(t, `{"domain":"sunsetford.com"}`, string(entry.Metadata))
}

func TestAuditServiceRequiresActionAndResult(t *testing.T) {
	svc, err := NewAuditService(openServiceTestDB(t))
	require.NoError(t, err)

	require.Error(t, svc.Log(context.Background(), AuditEntry{Result: "success"}))
	require.Error(t, svc.Log(context.Background(), AuditEntry{Action: "x"}))
}

func TestAuditServiceFiltersAndCleanup(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.Log(ctx, AuditEntry{TenantID: "t1", Action: "a", Result: "success"}))
	require.NoError(t, svc.Log(ctx, AuditEntry{TenantID: "t2", Action: "b", Result: "failure"}))

	logs, total, err := svc.List(ctx, AuditListOptions{Filters: AuditFilters{Result: "failure"}})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "b", logs[0].Action)

	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", "a").
		Update("created_at", logs[0].CreatedAt.AddDate(0, 0, -100)).Error)

	removed, err := svc.CleanupOlderThan(ctx, 90)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, err = svc.CleanupOlderThan(ctx, 0)
	require.Error(t, err)
}
