package api

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/ai"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/app"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/crypto"
)

// Services bundles the domain services shared by the router and the job runner.
type Services struct {
	Audit        *services.AuditService
	Tenants      *services.TenantService
	Users        *services.UserService
	Dealerships  *services.DealershipService
	Scores       *services.ScoreService
	Sentinel     *services.SentinelService
	Consensus    *services.ConsensusService
	FixPacks     *services.FixPackService
	Dashboard    *services.DashboardService
	Integrations *services.IntegrationService
}

// ServiceOptions carries the optional collaborators of NewServices. Nil fields
// disable the related feature.
type ServiceOptions struct {
	Platforms []ai.Platform
	Feed      services.FeedFetcher
	Notifier  services.AlertNotifier
	Cipher    *crypto.Cipher
	Publisher services.EventPublisher
}

// NewServices constructs every domain service over db and the shared cache store.
func NewServices(db *gorm.DB, store cache.Store, cfg *app.Config, opts ServiceOptions) (*Services, error) {
	if db == nil {
		return nil, errors.New("database handle must be provided")
	}
	if cfg == nil {
		return nil, errors.New("config must be provided")
	}

	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, fmt.Errorf("audit service: %w", err)
	}
	tenants, err := services.NewTenantService(db, audit)
	if err != nil {
		return nil, err
	}
	users, err := services.NewUserService(db, audit)
	if err != nil {
		return nil, err
	}
	dealerships, err := services.NewDealershipService(db, audit)
	if err != nil {
		return nil, err
	}
	integrations, err := services.NewIntegrationService(db, audit, opts.Cipher)
	if err != nil {
		return nil, err
	}

	var scoreOpts []services.ScoreServiceOption
	if opts.Feed != nil {
		scoreOpts = append(scoreOpts, services.WithFeedFetcher(opts.Feed))
	}
	if opts.Publisher != nil {
		scoreOpts = append(scoreOpts, services.WithScorePublisher(opts.Publisher))
	}
	scores, err := services.NewScoreService(db, store, cfg.Scoring.ScoreServiceConfig(), scoreOpts...)
	if err != nil {
		return nil, err
	}

	sentinelCfg := cfg.Sentinel.SentinelServiceConfig()
	sentinelCfg.WebhookURL = cfg.AlertWebhookURL()
	sentinel, err := services.NewSentinelService(db, audit, sentinelCfg, opts.Notifier, integrations)
	if err != nil {
		return nil, err
	}
	if opts.Publisher != nil {
		sentinel.SetPublisher(opts.Publisher)
	}

	// Consensus stays nil without platforms; its routes then answer 503.
	consensus, err := services.NewConsensusService(db, store, opts.Platforms, cfg.ConsensusServiceConfig())
	if err != nil && !errors.Is(err, services.ErrNoPlatforms) {
		return nil, err
	}
	fixpacks, err := services.NewFixPackService(db, audit, scores, sentinel)
	if err != nil {
		return nil, err
	}
	dashboard, err := services.NewDashboardService(dealerships, scores, sentinel, store, cfg.Scoring.DashboardCacheTTL)
	if err != nil {
		return nil, err
	}

	return &Services{
		Audit:        audit,
		Tenants:      tenants,
		Users:        users,
		Dealerships:  dealerships,
		Scores:       scores,
		Sentinel:     sentinel,
		Consensus:    consensus,
		FixPacks:     fixpacks,
		Dashboard:    dashboard,
		Integrations: integrations,
	}, nil
}
