package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/logger"
)

const defaultDashboardTTL = 60 * time.Second

// DashboardOverview aggregates the panels shown on a dealership dashboard.
// Panels without data are left empty.
type DashboardOverview struct {
	Dealership  *models.Dealership     `json:"dealership"`
	QAI         *QAIResult             `json:"qai,omitempty"`
	RevenueRisk *RaRReport             `json:"revenue_at_risk,omitempty"`
	OpenEvents  []models.SentinelEvent `json:"open_events"`
	History     []models.Score         `json:"history"`
	GeneratedAt time.Time              `json:"generated_at"`
	Cached      bool                   `json:"cached"`
}

// DashboardService builds cached dashboard overviews.
type DashboardService struct {
	dealerships *DealershipService
	scores      *ScoreService
	sentinel    *SentinelService
	cache       cache.Store
	ttl         time.Duration
}

// NewDashboardService constructs a DashboardService. ttl defaults to 60 seconds.
func NewDashboardService(dealerships *DealershipService, scores *ScoreService, sentinel *SentinelService, store cache.Store, ttl time.Duration) (*DashboardService, error) {
	if dealerships == nil || scores == nil || sentinel == nil {
		return nil, errors.New("dashboard service: dealership, score and sentinel services are required")
	}
	if ttl <= 0 {
		ttl = defaultDashboardTTL
	}
	return &DashboardService{dealerships: dealerships, scores: scores, sentinel: sentinel, cache: store, ttl: ttl}, nil
}

// Overview loads the QAI, revenue at risk, open events and score history in parallel.
func (s *DashboardService) Overview(ctx context.Context, tenantID, dealerID string) (*DashboardOverview, error) {
	ctx = ensureContext(ctx)

	dealer, err := s.dealerships.Get(ctx, tenantID, dealerID)
	if err != nil {
		return nil, err
	}

	key := cache.Key("dashboard", tenantID, dealer.ID)
	log := logger.WithModule("dashboard").With(zap.String("dealership_id", dealer.ID))
	if s.cache != nil {
		var cached DashboardOverview
		ok, err := cache.GetJSON(ctx, s.cache, key, &cached)
		if err != nil {
			log.Warn("cache read failed", zap.Error(err))
		}
		if ok {
			cached.Cached = true
			return &cached, nil
		}
	}

	out := &DashboardOverview{Dealership: dealer, OpenEvents: []models.SentinelEvent{}, History: []models.Score{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		qai, err := s.scores.CalculateQAI(gctx, dealer.ID)
		if errors.Is(err, ErrNoMetrics) {
			return nil
		}
		out.QAI = qai
		return err
	})
	g.Go(func() error {
		rar, err := s.scores.RevenueAtRisk(gctx, dealer.ID)
		if errors.Is(err, ErrNoMetrics) {
			return nil
		}
		out.RevenueRisk = rar
		return err
	})
	g.Go(func() error {
		events, err := s.sentinel.OpenEvents(gctx, dealer.ID, 10)
		if err == nil {
			out.OpenEvents = events
		}
		return err
	})
	g.Go(func() error {
		history, err := s.scores.History(gctx, dealer.ID, models.ScoreKindQAI, 30)
		if err == nil {
			out.History = history
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.GeneratedAt = time.Now().UTC()

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, out, s.ttl); err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}
	return out, nil
}
