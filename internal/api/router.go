package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/app"
	iauth "github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/auth"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/handlers"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/middleware"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/realtime"
)

// Dependencies is everything NewRouter wires into handlers.
type Dependencies struct {
	DB         *gorm.DB
	Config     *app.Config
	JWT        *iauth.JWTService
	Services   *Services
	Runner     handlers.JobRunner
	Monitoring *monitoring.Module
	// Realtime enables the live event stream when set.
	Realtime *realtime.Hub
	// Cache backs rate limiting. RateStore, when set, takes precedence.
	Cache     cache.Store
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, errors.New("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, errors.New("jwt service must be provided")
	}
	if deps.Config == nil {
		return nil, errors.New("config must be provided")
	}
	if deps.Services == nil {
		return nil, errors.New("services must be provided")
	}
	cfg := deps.Config
	svc := deps.Services

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))
	if limit := cfg.Server.RateLimit; limit.Enabled && limit.Requests > 0 {
		store := deps.RateStore
		if store == nil {
			store = middleware.NewCacheRateStore(deps.Cache)
		}
		r.Use(middleware.RateLimit(store, limit.Requests, limit.Window))
	}

	registerHealthRoutes(r, cfg, deps.Monitoring)
	registerMetricsRoute(r, cfg, deps.Monitoring)

	// Public routes with their own verification
	slackHandler := handlers.NewSlackHandler(cfg.Slack.SigningSecret, svc.Integrations, svc.Dealerships, svc.Scores, svc.Sentinel)
	r.POST("/api/slack/commands", slackHandler.Command)

	if deps.Runner != nil {
		registerCronRoutes(r.Group("/api/cron", middleware.CronSecret(cfg.Auth.CronSecret)), handlers.NewCronHandler(deps.Runner))
	}

	if deps.Realtime != nil {
		stream := handlers.NewRealtimeHandler(deps.Realtime, deps.JWT)
		r.GET("/api/realtime", stream.Stream)
		r.GET("/api/realtime/:stream", stream.Stream)
	}

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(deps.JWT, svc.Users))

	registerUserRoutes(api, handlers.NewUserHandler(svc.Users))
	registerTenantRoutes(api, handlers.NewTenantHandler(svc.Tenants))
	registerDealershipRoutes(api, dealershipHandlers{
		dealerships: handlers.NewDealershipHandler(svc.Dealerships),
		scores:      handlers.NewScoreHandler(svc.Dealerships, svc.Scores),
		sentinel:    handlers.NewSentinelHandler(svc.Dealerships, svc.Sentinel),
		consensus:   handlers.NewConsensusHandler(svc.Dealerships, svc.Consensus),
		fixpacks:    handlers.NewFixPackHandler(svc.Dealerships, svc.FixPacks),
	})
	registerDashboardRoutes(api, handlers.NewDashboardHandler(svc.Dashboard))
	registerIntegrationRoutes(api, handlers.NewIntegrationHandler(svc.Integrations))
	registerAuditRoutes(api, handlers.NewAuditHandler(svc.Audit))
	registerMonitoringRoutes(api, handlers.NewMonitoringHandler(deps.Monitoring, cfg))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func registerMetricsRoute(r *gin.Engine, cfg *app.Config, mon *monitoring.Module) {
	if !cfg.Monitoring.Prometheus.Enabled {
		return
	}
	endpoint := cfg.Monitoring.Prometheus.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}
	if mon == nil {
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
		return
	}
	r.GET(endpoint, gin.WrapH(mon.Handler()))
}
