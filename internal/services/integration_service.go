package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/crypto"
)

var (
	// ErrIntegrationNotFound indicates the integration does not exist in the tenant.
	ErrIntegrationNotFound = errors.New("integration service: integration not found")
	// ErrInvalidIntegration reports a malformed integration request.
	ErrInvalidIntegration = errors.New("integration service: invalid integration")
	// ErrEncryptionUnavailable is returned when secrets cannot be sealed.
	ErrEncryptionUnavailable = errors.New("integration service: encryption key not configured")
)

// SlackTeamConfigKey is the Integration.Config field linking a Slack workspace to a tenant.
const SlackTeamConfigKey = "team_id"

// CreateIntegrationInput describes a new tenant connector. Secret is the webhook URL.
type CreateIntegrationInput struct {
	Kind   string
	Name   string
	Secret string
	Config map[string]any
}

// IntegrationService stores tenant connectors with their secrets encrypted at rest.
type IntegrationService struct {
	db     *gorm.DB
	audit  *AuditService
	cipher *crypto.Cipher
}

// NewIntegrationService constructs an IntegrationService. A nil cipher leaves
// the service read-only for secrets.
func NewIntegrationService(db *gorm.DB, audit *AuditService, cipher *crypto.Cipher) (*IntegrationService, error) {
	if db == nil {
		return nil, errors.New("integration service: db is required")
	}
	return &IntegrationService{db: db, audit: audit, cipher: cipher}, nil
}

// Create validates, encrypts and stores an integration.
func (s *IntegrationService) Create(ctx context.Context, tenantID string, input CreateIntegrationInput) (*models.Integration, error) {
	ctx = ensureContext(ctx)

	kind := strings.ToLower(strings.TrimSpace(input.Kind))
	if kind != models.IntegrationSlackWebhook && kind != models.IntegrationGenericWebhook {
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrInvalidIntegration, input.Kind)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = kind
	}
	secret := strings.TrimSpace(input.Secret)
	if err := validateWebhookURL(secret); err != nil {
		return nil, err
	}
	if s.cipher == nil {
		return nil, ErrEncryptionUnavailable
	}

	sealed, err := s.cipher.Seal([]byte(secret), tenantID)
	if err != nil {
		return nil, fmt.Errorf("integration service: seal secret: %w", err)
	}

	config := datatypes.JSON([]byte("{}"))
	if len(input.Config) > 0 {
		encoded, err := json.Marshal(input.Config)
		if err != nil {
			return nil, fmt.Errorf("%w: config: %v", ErrInvalidIntegration, err)
		}
		config = datatypes.JSON(encoded)
	}

	integration := &models.Integration{
		Kind:             kind,
		Name:             name,
		Enabled:          true,
		SecretCiphertext: sealed,
		Config:           config,
	}
	integration.TenantID = tenantID

	if err := s.db.WithContext(ctx).Create(integration).Error; err != nil {
		return nil, fmt.Errorf("integration service: create integration: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID:   tenantID,
		Action:     "integration.create",
		Resource:   "integration",
		ResourceID: integration.ID,
		Result:     "success",
		Metadata:   map[string]any{"kind": kind, "name": name},
	})
	return integration, nil
}

// List returns the tenant's integrations without secrets.
func (s *IntegrationService) List(ctx context.Context, tenantID string) ([]models.Integration, error) {
	var integrations []models.Integration
	err := s.db.WithContext(ensureContext(ctx)).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&integrations).Error
	if err != nil {
		return nil, fmt.Errorf("integration service: list integrations: %w", err)
	}
	return integrations, nil
}

// SetEnabled toggles an integration.
func (s *IntegrationService) SetEnabled(ctx context.Context, tenantID, id string, enabled bool) error {
	ctx = ensureContext(ctx)
	res := s.db.WithContext(ctx).Model(&models.Integration{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("enabled", enabled)
	if res.Error != nil {
		return fmt.Errorf("integration service: update integration: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrIntegrationNotFound
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID:   tenantID,
		Action:     "integration.update",
		Resource:   "integration",
		ResourceID: id,
		Result:     "success",
		Metadata:   map[string]any{"enabled": enabled},
	})
	return nil
}

// Delete removes an integration.
func (s *IntegrationService) Delete(ctx context.Context, tenantID, id string) error {
	ctx = ensureContext(ctx)
	res := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&models.Integration{})
	if res.Error != nil {
		return fmt.Errorf("integration service: delete integration: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrIntegrationNotFound
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID:   tenantID,
		Action:     "integration.delete",
		Resource:   "integration",
		ResourceID: id,
		Result:     "success",
	})
	return nil
}

// ResolveWebhook returns the decrypted URL of the tenant's newest enabled
// Slack webhook, or "" when the tenant has none.
func (s *IntegrationService) ResolveWebhook(ctx context.Context, tenantID string) (string, error) {
	ctx = ensureContext(ctx)

	var integration models.Integration
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND kind = ? AND enabled = ?", tenantID, models.IntegrationSlackWebhook, true).
		Order("created_at DESC").
		Take(&integration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("integration service: resolve webhook: %w", err)
	}
	if s.cipher == nil {
		return "", ErrEncryptionUnavailable
	}

	plain, err := s.cipher.Open(integration.SecretCiphertext, integration.TenantID)
	if err != nil {
		return "", fmt.Errorf("integration service: open secret: %w", err)
	}
	return string(plain), nil
}

// TenantForSlackTeam maps a Slack workspace ID to the tenant that installed it.
func (s *IntegrationService) TenantForSlackTeam(ctx context.Context, teamID string) (string, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return "", ErrIntegrationNotFound
	}

	var integration models.Integration
	err := s.db.WithContext(ensureContext(ctx)).
		Where("kind = ? AND enabled = ?", models.IntegrationSlackWebhook, true).
		Where(datatypes.JSONQuery("config").Equals(teamID, SlackTeamConfigKey)).
		Take(&integration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrIntegrationNotFound
	}
	if err != nil {
		return "", fmt.Errorf("integration service: lookup slack team: %w", err)
	}
	return integration.TenantID, nil
}

func validateWebhookURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: webhook url is required", ErrInvalidIntegration)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: webhook url is malformed", ErrInvalidIntegration)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%w: webhook url must use https", ErrInvalidIntegration)
	}
	return nil
}
