package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/database/testutil"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

func TestUserServiceEnsureUser(t *testing.T) {
	db := openServiceTestDB(t)
	tenant := testutil.MustCreateTenant(t, db, "acme")
	auditSvc, err := NewAuditService(db)
	require.NoError(t, err)
	svc, err := NewUserService(db, auditSvc)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.EnsureUser(ctx, IdentityInput{
		Subject:  "user_abc",
		TenantID: tenant.ID,
		Email:    "gm@sunsetford.com",
		Role:     models.RoleManager,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, models.RoleManager, first.Role)

	second, err := svc.EnsureUser(ctx, IdentityInput{
		Subject:  "user_abc",
		TenantID: tenant.ID,
		Email:    "gm@sunsetford.com",
		Name:     "Pat",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	reloaded, err := svc.GetByID(ctx, tenant.ID, first.ID)
	require.NoError(t, err)
	require.Equal(t, "Pat", reloaded.Name)
	require.Equal(t, models.RoleAdmin, reloaded.Role)
	require.NotNil(t, reloaded.LastSeenAt)

	users, err := svc.List(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestUserServiceRejectsUnknownTenantAndMismatch(t *testing.T) {
	db := openServiceTestDB(t)
	tenantA := testutil.MustCreateTenant(t, db, "tenant-a")
	tenantB := testutil.MustCreateTenant(t, db, "tenant-b")
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.EnsureUser(ctx, IdentityInput{Subject: "s", TenantID: "missing"})
	require.ErrorIs(t, err, ErrTenantNotFound)

	_, err = svc.EnsureUser(ctx, IdentityInput{Subject: "s", TenantID: tenantA.ID})
	require.NoError(t, err)

	_, err = svc.EnsureUser(ctx, IdentityInput{Subject: "s", TenantID: tenantB.ID})
	require.ErrorIs(t, err, ErrTenantMismatch)

	_, err = svc.GetByID(ctx, tenantB.ID, "nope")
	require.ErrorIs(t, err, ErrUserNotFound)
}
