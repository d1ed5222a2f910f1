package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user service: user not found")
	// ErrTenantMismatch is returned when a known subject presents a token for another tenant.
	ErrTenantMismatch = errors.New("user service: subject belongs to another tenant")
)

// IdentityInput is the identity asserted by a verified access token.
type IdentityInput struct {
	Subject  string
	TenantID string
	Email    string
	Name     string
	Role     string
}

// UserService mirrors upstream identities into local user rows.
type UserService struct {
	db           *gorm.DB
	auditService *AuditService
	now          func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, auditService *AuditService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, auditService: auditService, now: time.Now}, nil
}

// EnsureUser returns the user for the identity, creating it on first sight.
// Email, name and role follow the token on every call.
func (s *UserService) EnsureUser(ctx context.Context, input IdentityInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	subject := strings.TrimSpace(input.Subject)
	tenantID := strings.TrimSpace(input.TenantID)
	if subject == "" || tenantID == "" {
		return nil, errors.New("user service: subject and tenant are required")
	}

	var tenant models.Tenant
	if err := s.db.WithContext(ctx).Select("id", "active").First(&tenant, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("user service: load tenant: %w", err)
	}

	now := s.now()
	var user models.User
	err := s.db.WithContext(ctx).Where(&models.User{Subject: subject}).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Subject:    subject,
			Email:      strings.TrimSpace(input.Email),
			Name:       strings.TrimSpace(input.Name),
			Role:       input.Role,
			LastSeenAt: &now,
		}
		user.TenantID = tenantID
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			if !isDuplicateKey(err) {
				return nil, fmt.Errorf("user service: create user: %w", err)
			}
			// a concurrent request created it first
			if err := s.db.WithContext(ctx).Where(&models.User{Subject: subject}).First(&user).Error; err != nil {
				return nil, fmt.Errorf("user service: reload user: %w", err)
			}
		} else {
			recordAudit(s.auditService, ctx, AuditEntry{
				TenantID:   tenantID,
				UserID:     user.ID,
				Actor:      subject,
				Action:     "user.provision",
				Resource:   "user",
				ResourceID: user.ID,
				Result:     "success",
			})
			return &user, nil
		}
	case err != nil:
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if user.TenantID != tenantID {
		return nil, ErrTenantMismatch
	}

	updates := map[string]any{"last_seen_at": now}
	if email := strings.TrimSpace(input.Email); email != "" && email != user.Email {
		updates["email"] = email
	}
	if name := strings.TrimSpace(input.Name); name != "" && name != user.Name {
		updates["name"] = name
	}
	if input.Role != "" && input.Role != user.Role {
		updates["role"] = input.Role
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: touch user: %w", err)
	}
	return &user, nil
}

// List returns the tenant's users.
func (s *UserService) List(ctx context.Context, tenantID string) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}
	return users, nil
}

// GetByID loads a user within a tenant.
func (s *UserService) GetByID(ctx context.Context, tenantID, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}
