package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

var (
	// ErrTenantNotFound indicates the requested tenant does not exist.
	ErrTenantNotFound = errors.New("tenant service: tenant not found")
	// ErrTenantSlugTaken indicates another tenant already uses the slug.
	ErrTenantSlugTaken = errors.New("tenant service: slug already in use")
	// ErrInvalidTenant reports missing or malformed tenant attributes.
	ErrInvalidTenant = errors.New("tenant service: invalid tenant")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// CreateTenantInput captures the attributes required to register a tenant.
type CreateTenantInput struct {
	Name     string
	Slug     string
	Plan     string
	Settings map[string]any
}

// UpdateTenantInput represents mutable tenant fields.
type UpdateTenantInput struct {
	Name     *string
	Plan     *string
	Active   *bool
	Settings map[string]any
}

// TenantService manages lifecycle operations for tenants.
type TenantService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewTenantService constructs a TenantService instance.
func NewTenantService(db *gorm.DB, auditService *AuditService) (*TenantService, error) {
	if db == nil {
		return nil, errors.New("tenant service: db is required")
	}
	return &TenantService{db: db, auditService: auditService}, nil
}

// Create registers a new tenant.
func (s *TenantService) Create(ctx context.Context, input CreateTenantInput) (*models.Tenant, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTenant)
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" {
		slug = slugify(name)
	}
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("%w: slug %q", ErrInvalidTenant, slug)
	}

	plan := strings.TrimSpace(input.Plan)
	if plan == "" {
		plan = "free"
	}

	tenant := &models.Tenant{Name: name, Slug: slug, Plan: plan, Active: true}
	if input.Settings != nil {
		data, err := json.Marshal(input.Settings)
		if err != nil {
			return nil, fmt.Errorf("tenant service: marshal settings: %w", err)
		}
		tenant.Settings = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(tenant).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrTenantSlugTaken
		}
		return nil, fmt.Errorf("tenant service: create tenant: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TenantID:   tenant.ID,
		Action:     "tenant.create",
		Resource:   "tenant",
		ResourceID: tenant.ID,
		Result:     "success",
		Metadata:   map[string]any{"name": name, "slug": slug},
	})

	return tenant, nil
}

// GetByID loads a tenant.
func (s *TenantService) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	ctx = ensureContext(ctx)

	var tenant models.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenant service: get tenant: %w", err)
	}
	return &tenant, nil
}

// List returns all tenants ordered by creation date.
func (s *TenantService) List(ctx context.Context) ([]models.Tenant, error) {
	ctx = ensureContext(ctx)

	var tenants []models.Tenant
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("tenant service: list tenants: %w", err)
	}
	return tenants, nil
}

// Update modifies tenant metadata.
func (s *TenantService) Update(ctx context.Context, id string, input UpdateTenantInput) (*models.Tenant, error) {
	ctx = ensureContext(ctx)

	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != tenant.Name {
			updates["name"] = name
		}
	}
	if input.Plan != nil {
		if plan := strings.TrimSpace(*input.Plan); plan != "" {
			updates["plan"] = plan
		}
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if input.Settings != nil {
		data, err := json.Marshal(input.Settings)
		if err != nil {
			return nil, fmt.Errorf("tenant service: marshal settings: %w", err)
		}
		updates["settings"] = datatypes.JSON(data)
	}

	if len(updates) == 0 {
		return tenant, nil
	}

	if err := s.db.WithContext(ctx).Model(tenant).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("tenant service: update tenant: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TenantID:   tenant.ID,
		Action:     "tenant.update",
		Resource:   "tenant",
		ResourceID: tenant.ID,
		Result:     "success",
		Metadata:   map[string]any{"fields": mapKeys(updates)},
	})

	return s.GetByID(ctx, id)
}

// Delete removes a tenant and, through cascading constraints, its dealerships and users.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(tenant).Error; err != nil {
		return fmt.Errorf("tenant service: delete tenant: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:     "tenant.delete",
		Resource:   "tenant",
		ResourceID: tenant.ID,
		Result:     "success",
	})

	return nil
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
