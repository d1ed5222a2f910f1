package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/auditctx"
	iauth "github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/auth"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	apperrors "github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/errors"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

const (
	CtxClaimsKey   = "authClaims"
	CtxUserIDKey   = "userID"
	CtxTenantIDKey = "tenantID"
	CtxRoleKey     = "role"
)

// UserEnsurer mirrors token identities into local user rows.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, input services.IdentityInput) (*models.User, error)
}

// Auth enforces JWT authentication. When users is non-nil the caller is
// mirrored into the users table and its local ID is exposed to handlers.
func Auth(jwt *iauth.JWTService, users UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			monitoring.RecordAuthAttempt("failure")
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			monitoring.RecordAuthAttempt("failure")
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		monitoring.RecordAuthAttempt("success")

		role := iauth.NormalizeRole(claims.Role)
		userID := claims.Subject
		if users != nil {
			user, err := users.EnsureUser(c.Request.Context(), services.IdentityInput{
				Subject:  claims.Subject,
				TenantID: claims.TenantID,
				Email:    claims.Email,
				Name:     claims.Name,
				Role:     role,
			})
			if err != nil {
				if errors.Is(err, services.ErrTenantMismatch) || errors.Is(err, services.ErrTenantNotFound) {
					response.Error(c, apperrors.ErrForbidden)
				} else {
					response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
				}
				c.Abort()
				return
			}
			userID = user.ID
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, userID)
		c.Set(CtxTenantIDKey, claims.TenantID)
		c.Set(CtxRoleKey, role)

		ctx := auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			UserID:    userID,
			Subject:   claims.Subject,
			TenantID:  claims.TenantID,
			Role:      role,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole rejects callers whose token role ranks below required.
func RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if role == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !iauth.RoleAtLeast(role, required) {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
