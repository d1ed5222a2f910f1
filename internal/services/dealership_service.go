package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/validator"
)

var (
	// ErrDealershipNotFound indicates the dealership does not exist in the caller's tenant.
	ErrDealershipNotFound = errors.New("dealership service: dealership not found")
	// ErrDealershipDomainTaken indicates the tenant already tracks the domain.
	ErrDealershipDomainTaken = errors.New("dealership service: domain already registered")
	// ErrInvalidDealership reports missing or malformed dealership attributes.
	ErrInvalidDealership = errors.New("dealership service: invalid dealership")
)

// CreateDealershipInput captures the attributes of a new dealership.
type CreateDealershipInput struct {
	Name         string
	Domain       string
	Brand        string
	City         string
	State        string
	GBPPlaceID   string
	MonthlyLeads int
	AvgDealValue float64
	CloseRate    float64
	TargetScore  float64
}

// UpdateDealershipInput represents mutable dealership fields.
type UpdateDealershipInput struct {
	Name         *string
	Domain       *string
	Brand        *string
	City         *string
	State        *string
	GBPPlaceID   *string
	MonthlyLeads *int
	AvgDealValue *float64
	CloseRate    *float64
	TargetScore  *float64
	Active       *bool
}

// DealershipListOptions filters and paginates List.
type DealershipListOptions struct {
	Page       int
	PageSize   int
	Search     string
	ActiveOnly bool
}

// DealershipService manages tenant-scoped dealerships.
type DealershipService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewDealershipService constructs a DealershipService.
func NewDealershipService(db *gorm.DB, auditService *AuditService) (*DealershipService, error) {
	if db == nil {
		return nil, errors.New("dealership service: db is required")
	}
	return &DealershipService{db: db, auditService: auditService}, nil
}

// Create registers a dealership under tenantID.
func (s *DealershipService) Create(ctx context.Context, tenantID string, input CreateDealershipInput) (*models.Dealership, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	domain := normaliseDomain(input.Domain)
	if strings.TrimSpace(tenantID) == "" {
		return nil, fmt.Errorf("%w: tenant is required", ErrInvalidDealership)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDealership)
	}
	if !validator.IsDomain(domain) {
		return nil, fmt.Errorf("%w: domain %q", ErrInvalidDealership, input.Domain)
	}
	if input.CloseRate < 0 || input.CloseRate > 1 {
		return nil, fmt.Errorf("%w: close rate must be between 0 and 1", ErrInvalidDealership)
	}

	dealer := &models.Dealership{
		TenantID:     tenantID,
		Name:         name,
		Domain:       domain,
		Brand:        strings.TrimSpace(input.Brand),
		City:         strings.TrimSpace(input.City),
		State:        strings.ToUpper(strings.TrimSpace(input.State)),
		GBPPlaceID:   strings.TrimSpace(input.GBPPlaceID),
		MonthlyLeads: input.MonthlyLeads,
		AvgDealValue: input.AvgDealValue,
		CloseRate:    input.CloseRate,
		TargetScore:  input.TargetScore,
		Active:       true,
	}

	if err := s.db.WithContext(ctx).Create(dealer).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDealershipDomainTaken
		}
		return nil, fmt.Errorf("dealership service: create dealership: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TenantID:   tenantID,
		Action:     "dealership.create",
		Resource:   "dealership",
		ResourceID: dealer.ID,
		Result:     "success",
		Metadata:   map[string]any{"domain": domain},
	})

	return dealer, nil
}

// Get loads a dealership that belongs to tenantID.
func (s *DealershipService) Get(ctx context.Context, tenantID, id string) (*models.Dealership, error) {
	ctx = ensureContext(ctx)

	var dealer models.Dealership
	err := s.db.WithContext(ctx).First(&dealer, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDealershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dealership service: get dealership: %w", err)
	}
	return &dealer, nil
}

// GetByDomain loads a tenant's dealership by its domain.
func (s *DealershipService) GetByDomain(ctx context.Context, tenantID, domain string) (*models.Dealership, error) {
	ctx = ensureContext(ctx)

	var dealer models.Dealership
	err := s.db.WithContext(ctx).
		First(&dealer, "tenant_id = ? AND domain = ?", tenantID, normaliseDomain(domain)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDealershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dealership service: get by domain: %w", err)
	}
	return &dealer, nil
}

// List returns the tenant's dealerships ordered by name.
func (s *DealershipService) List(ctx context.Context, tenantID string, opts DealershipListOptions) ([]models.Dealership, int64, error) {
	ctx = ensureContext(ctx)
	page, perPage := normalisePage(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.Dealership{}).Where("tenant_id = ?", tenantID)
	if opts.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if search := strings.ToLower(strings.TrimSpace(opts.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR domain LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("dealership service: count dealerships: %w", err)
	}

	var dealers []models.Dealership
	if err := query.Order("name ASC").Offset((page - 1) * perPage).Limit(perPage).Find(&dealers).Error; err != nil {
		return nil, 0, fmt.Errorf("dealership service: list dealerships: %w", err)
	}
	return dealers, total, nil
}

// ListActive returns every active dealership across tenants. Scheduled jobs use it.
func (s *DealershipService) ListActive(ctx context.Context) ([]models.Dealership, error) {
	ctx = ensureContext(ctx)

	var dealers []models.Dealership
	if err := s.db.WithContext(ctx).
		Joins("JOIN tenants ON tenants.id = dealerships.tenant_id").
		Where("dealerships.active = ? AND tenants.active = ?", true, true).
		Order("dealerships.id ASC").
		Find(&dealers).Error; err != nil {
		return nil, fmt.Errorf("dealership service: list active: %w", err)
	}
	return dealers, nil
}

// Update modifies a tenant's dealership.
func (s *DealershipService) Update(ctx context.Context, tenantID, id string, input UpdateDealershipInput) (*models.Dealership, error) {
	ctx = ensureContext(ctx)

	dealer, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	setString := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidDealership)
		}
		updates["name"] = name
	}
	if input.Domain != nil {
		domain := normaliseDomain(*input.Domain)
		if !validator.IsDomain(domain) {
			return nil, fmt.Errorf("%w: domain %q", ErrInvalidDealership, *input.Domain)
		}
		updates["domain"] = domain
	}
	setString("brand", input.Brand)
	setString("city", input.City)
	if input.State != nil {
		updates["state"] = strings.ToUpper(strings.TrimSpace(*input.State))
	}
	setString("gbp_place_id", input.GBPPlaceID)
	if input.MonthlyLeads != nil {
		updates["monthly_leads"] = *input.MonthlyLeads
	}
	if input.AvgDealValue != nil {
		updates["avg_deal_value"] = *input.AvgDealValue
	}
	if input.CloseRate != nil {
		if *input.CloseRate < 0 || *input.CloseRate > 1 {
			return nil, fmt.Errorf("%w: close rate must be between 0 and 1", ErrInvalidDealership)
		}
		updates["close_rate"] = *input.CloseRate
	}
	if input.TargetScore != nil {
		updates["target_score"] = *input.TargetScore
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}

	if len(updates) == 0 {
		return dealer, nil
	}

	if err := s.db.WithContext(ctx).Model(dealer).Updates(updates).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDealershipDomainTaken
		}
		return nil, fmt.Errorf("dealership service: update dealership: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TenantID:   tenantID,
		Action:     "dealership.update",
		Resource:   "dealership",
		ResourceID: dealer.ID,
		Result:     "success",
		Metadata:   map[string]any{"fields": mapKeys(updates)},
	})

	return s.Get(ctx, tenantID, id)
}

// Delete removes a dealership and its samples, scores, events and fix packs.
func (s *DealershipService) Delete(ctx context.Context, tenantID, id string) error {
	ctx = ensureContext(ctx)

	dealer, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.MetricSample{}, &models.Score{}, &models.SentinelEvent{}, &models.FixPack{}} {
			if err := tx.Where("dealership_id = ?", dealer.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(dealer).Error
	})
	if err != nil {
		return fmt.Errorf("dealership service: delete dealership: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TenantID:   tenantID,
		Action:     "dealership.delete",
		Resource:   "dealership",
		ResourceID: dealer.ID,
		Result:     "success",
		Metadata:   map[string]any{"domain": dealer.Domain},
	})
	return nil
}

// MarkScored stamps LastScoredAt.
func (s *DealershipService) MarkScored(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	return s.db.WithContext(ctx).Model(&models.Dealership{}).
		Where("id = ?", id).
		Update("last_scored_at", time.Now()).Error
}
