package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

func newTestService(t *testing.T, now time.Time) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:         "test-secret-test-secret-test-secret",
		Issuer:         "dealerai",
		Audience:       "dealerai-api",
		AccessTokenTTL: time.Hour,
		Clock:          func() time.Time { return now },
	})
	require.NoError(t, err)
	return svc
}

func TestJWTServiceRoundTrip(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)

	token, err := svc.GenerateAccessToken(AccessTokenInput{
		Subject:  "user_123",
		TenantID: "tenant-1",
		Role:     "Manager",
		Email:    "gm@example.com",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user_123", claims.Subject)
	require.Equal(t, "tenant-1", claims.TenantID)
	require.Equal(t, models.RoleManager, claims.Role)
	require.Equal(t, "gm@example.com", claims.Email)
}

func TestJWTServiceRejectsExpiredToken(t *testing.T) {
	now := time.Now()
	issuer := newTestService(t, now.Add(-2*time.Hour))
	token, err := issuer.GenerateAccessToken(AccessTokenInput{Subject: "u", TenantID: "t"})
	require.NoError(t, err)

	_, err = newTestService(t, now).ValidateAccessToken(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTServiceRejectsWrongSecretAndAudience(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)

	other, err := NewJWTService(JWTConfig{Secret: "another-secret", Issuer: "dealerai", Audience: "dealerai-api", Clock: func() time.Time { return now }})
	require.NoError(t, err)
	token, err := other.GenerateAccessToken(AccessTokenInput{Subject: "u", TenantID: "t"})
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	claims := &Claims{
		TenantID: "t",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			Issuer:    "dealerai",
			Audience:  jwt.ClaimStrings{"someone-else"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-test-secret-test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTServiceRequiresTenantClaim(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			Issuer:    "dealerai",
			Audience:  jwt.ClaimStrings{"dealerai-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-test-secret-test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRoles(t *testing.T) {
	require.Equal(t, models.RoleViewer, NormalizeRole("owner"))
	require.True(t, RoleAtLeast(models.RoleAdmin, models.RoleManager))
	require.True(t, RoleAtLeast(models.RoleManager, models.RoleManager))
	require.False(t, RoleAtLeast(models.RoleViewer, models.RoleManager))
}
