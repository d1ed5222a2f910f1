package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/scoring"
)

// ErrFixPackNotFound indicates the fix pack does not exist in the tenant.
var ErrFixPackNotFound = errors.New("fixpack service: fix pack not found")

// Assumed score lift, in points, when an action is completed.
const (
	recommendationLiftPoints  = 5
	criticalFindingLiftPoints = 8
	warningFindingLiftPoints  = 4
)

var priorityRank = map[string]int{"high": 0, "medium": 1, "low": 2}

// FixPackService bundles score recommendations and open sentinel findings
// into advisory remediation packs.
type FixPackService struct {
	db       *gorm.DB
	audit    *AuditService
	scores   *ScoreService
	sentinel *SentinelService
	now      func() time.Time
}

// NewFixPackService constructs a FixPackService.
func NewFixPackService(db *gorm.DB, audit *AuditService, scores *ScoreService, sentinel *SentinelService) (*FixPackService, error) {
	if db == nil {
		return nil, errors.New("fixpack service: db is required")
	}
	if scores == nil || sentinel == nil {
		return nil, errors.New("fixpack service: score and sentinel services are required")
	}
	return &FixPackService{db: db, audit: audit, scores: scores, sentinel: sentinel, now: time.Now}, nil
}

// Generate computes a fresh composite, collects open findings and stores a
// fix pack ordered by priority and estimated monthly impact.
func (s *FixPackService) Generate(ctx context.Context, dealerID string) (*models.FixPack, error) {
	ctx = ensureContext(ctx)

	dealer, err := findDealership(ctx, s.db, dealerID)
	if err != nil {
		return nil, err
	}
	composite, err := s.scores.CalculateComposite(ctx, dealer.ID)
	if err != nil {
		return nil, err
	}
	events, err := s.sentinel.OpenEvents(ctx, dealer.ID, 20)
	if err != nil {
		return nil, err
	}
	sample, err := latestSample(ctx, s.db, dealer.ID)
	if err != nil {
		return nil, err
	}

	benchmark := scoring.BenchmarkRevenueAtRisk(dealer.Brand, scoring.ChannelScores{
		Overall: composite.Score,
		SEO:     sample.SEOVisibility,
		AEO:     sample.AEOVisibility,
		GEO:     sample.GEOVisibility,
		Social:  sample.SocialVisibility,
	})
	elasticity := benchmark.Benchmark.ElasticityPerPoint

	actions := make([]models.FixAction, 0, len(composite.Recommendations)+len(events)+len(benchmark.Actions))
	seen := make(map[string]struct{})
	add := func(a models.FixAction) {
		key := strings.ToLower(a.Title)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		actions = append(actions, a)
	}

	for _, e := range events {
		priority, lift := "medium", float64(warningFindingLiftPoints)
		if e.Severity == models.SeverityCritical {
			priority, lift = "high", criticalFindingLiftPoints
		}
		title := e.Action
		if title == "" {
			title = e.Title
		}
		add(models.FixAction{Title: title, Source: "sentinel", Priority: priority, EstimatedImpact: scoring.Round(lift*elasticity, 2)})
	}
	for i, rec := range composite.Recommendations {
		priority := "medium"
		if i < 2 || strings.HasPrefix(rec, "PRIORITY") {
			priority = "high"
		}
		add(models.FixAction{Title: rec, Source: "composite", Priority: priority, EstimatedImpact: scoring.Round(recommendationLiftPoints*elasticity, 2)})
	}
	for _, a := range benchmark.Actions {
		add(models.FixAction{Title: a.Action, Source: "revenue", Priority: a.Priority, EstimatedImpact: a.EstimatedImpact})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		pi, pj := priorityRank[actions[i].Priority], priorityRank[actions[j].Priority]
		if pi != pj {
			return pi < pj
		}
		return actions[i].EstimatedImpact > actions[j].EstimatedImpact
	})

	var total float64
	for _, a := range actions {
		total += a.EstimatedImpact
	}

	status := models.FixPackStatusReady
	if len(actions) == 0 {
		status = models.FixPackStatusDraft
	}
	pack := &models.FixPack{
		DealershipID:           dealer.ID,
		Title:                  fmt.Sprintf("%s fix pack %s", dealer.Name, s.now().UTC().Format("2006-01-02")),
		Status:                 status,
		ScoreAtGeneration:      composite.Score,
		EstimatedMonthlyImpact: scoring.Round(total, 2),
		Actions:                actions,
	}
	pack.TenantID = dealer.TenantID

	if err := s.db.WithContext(ctx).Create(pack).Error; err != nil {
		return nil, fmt.Errorf("fixpack service: create fix pack: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID:   dealer.TenantID,
		Action:     "fixpack.generate",
		Resource:   "fix_pack",
		ResourceID: pack.ID,
		Result:     "success",
		Metadata:   map[string]any{"dealership_id": dealer.ID, "actions": len(actions)},
	})
	return pack, nil
}

// List returns a dealership's fix packs, newest first.
func (s *FixPackService) List(ctx context.Context, tenantID, dealerID string) ([]models.FixPack, error) {
	var packs []models.FixPack
	err := s.db.WithContext(ensureContext(ctx)).
		Where("tenant_id = ? AND dealership_id = ?", tenantID, dealerID).
		Order("created_at DESC").
		Find(&packs).Error
	if err != nil {
		return nil, fmt.Errorf("fixpack service: list fix packs: %w", err)
	}
	return packs, nil
}

// Get loads one fix pack.
func (s *FixPackService) Get(ctx context.Context, tenantID, id string) (*models.FixPack, error) {
	var pack models.FixPack
	err := s.db.WithContext(ensureContext(ctx)).Where("id = ? AND tenant_id = ?", id, tenantID).Take(&pack).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFixPackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fixpack service: get fix pack: %w", err)
	}
	return &pack, nil
}
