package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/ai"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/api"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/app"
	iauth "github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/auth"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/database"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/feeds"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/integrations/slack"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/jobs"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring/checks"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/realtime"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/crypto"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/logger"
)

const (
	healthCheckTimeout = 2 * time.Second
	jobsMaxAge         = 36 * time.Hour
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Redis      *cache.RedisClient
	Local      *cache.LocalStore
	Cache      cache.Store
	Services   *api.Services
	Runner     *jobs.Runner
	Monitoring *monitoring.Module
	Realtime   *realtime.Hub
	Router     *gin.Engine
}

// bootstrapRuntime initialises databases, caches, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisClient(cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}
	stack.Cache = buildCache(stack, cfg)

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	cipher, err := buildCipher(ctx, stack.DB, cfg)
	if err != nil {
		return nil, err
	}

	platforms := buildPlatforms(cfg, log)
	stack.Realtime = realtime.NewHub(cfg.Server.CORS.AllowedOrigins...)

	opts := api.ServiceOptions{
		Platforms: platforms,
		Notifier:  slack.NewWebhookClient(nil),
		Cipher:    cipher,
		Publisher: stack.Realtime,
	}
	if cfg.MetricsFeed.Enabled {
		opts.Feed = feeds.NewPageSpeedClient(cfg.MetricsFeed.PageSpeedConfig(), nil)
	}

	stack.Services, err = api.NewServices(stack.DB, stack.Cache, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	stack.Runner = jobs.NewRunner(stack.DB, stack.Services.Dealerships, stack.Services.Scores, stack.Services.Sentinel, stack.Services.Audit,
		cfg.Jobs.RunnerOptions(cfg.MetricsFeed.Enabled)...)
	if cfg.Jobs.Enabled {
		if err := stack.Runner.Start(); err != nil {
			return nil, fmt.Errorf("start scheduled jobs: %w", err)
		}
		log.Info("scheduled jobs started", zap.Strings("jobs", stack.Runner.Jobs()))
	}

	stack.Monitoring = buildMonitoring(stack, cfg)
	monitoring.SetModule(stack.Monitoring)

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:         stack.DB,
		Config:     cfg,
		JWT:        jwtSvc,
		Services:   stack.Services,
		Runner:     stack.Runner,
		Monitoring: stack.Monitoring,
		Realtime:   stack.Realtime,
		Cache:      stack.Cache,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// buildCache layers the in-process cache over Redis, or over the database
// cache table when Redis is off or unreachable.
func buildCache(stack *runtimeStack, cfg *app.Config) cache.Store {
	var shared cache.Store = cache.NewDatabaseStore(stack.DB)
	if stack.Redis != nil {
		shared = stack.Redis
	}
	if !cfg.Cache.Local.Enabled {
		return shared
	}
	stack.Local = cache.NewLocalStore(cfg.Cache.LocalStoreConfig())
	return cache.NewTieredStore(stack.Local, shared, cfg.Cache.Local.DefaultTTL)
}

func buildCipher(ctx context.Context, db *gorm.DB, cfg *app.Config) (*crypto.Cipher, error) {
	salt, err := database.EnsureKDFSalt(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load key derivation salt: %w", err)
	}
	cipher, err := cfg.Security.Cipher(salt)
	if err != nil {
		return nil, fmt.Errorf("initialise encryption: %w", err)
	}
	return cipher, nil
}

// buildPlatforms returns Claude when an API key is configured plus the mock
// platforms named in config.
func buildPlatforms(cfg *app.Config, log *zap.Logger) []ai.Platform {
	var platforms []ai.Platform
	if strings.TrimSpace(cfg.AI.AnthropicAPIKey) != "" {
		claude, err := ai.NewClaudePlatform(cfg.AI.ClaudeConfig())
		if err != nil {
			log.Warn("claude platform disabled", zap.Error(err))
		} else {
			platforms = append(platforms, claude)
		}
	}
	platforms = append(platforms, ai.MockPlatforms(cfg.AI.MockPlatforms)...)
	if len(platforms) == 0 {
		log.Warn("no AI platforms configured; consensus endpoints are disabled")
	}
	return platforms
}

func buildMonitoring(stack *runtimeStack, cfg *app.Config) *monitoring.Module {
	module := monitoring.NewModule(monitoring.Options{})
	health := module.Health()

	health.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	health.RegisterReadiness(checks.Database(stack.DB, healthCheckTimeout))

	var pinger checks.RedisPinger
	if stack.Redis != nil {
		pinger = stack.Redis
	}
	health.RegisterReadiness(checks.Redis(pinger, cfg.Cache.Redis.Enabled, healthCheckTimeout))
	if cfg.Jobs.Enabled {
		health.RegisterReadiness(checks.Jobs(jobsMaxAge))
	}
	return module
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Runner != nil {
		stopCtx := s.Runner.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			log.Warn("scheduled jobs still running at shutdown")
		}
	}

	if s.Local != nil {
		s.Local.Close()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver:          strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:            strings.TrimSpace(cfg.Database.Path),
		DSN:             strings.TrimSpace(cfg.Database.DSN),
		Host:            strings.TrimSpace(cfg.Database.Host),
		Port:            cfg.Database.Port,
		Name:            strings.TrimSpace(cfg.Database.Name),
		User:            strings.TrimSpace(cfg.Database.Username),
		Password:        cfg.Database.Password,
		Options:         cfg.Database.Options,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgresql":
		dbCfg.Driver = "postgres"
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}

// ensureSecretsPresent rejects configs that cannot authenticate callers.
func ensureSecretsPresent(cfg *app.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Auth.JWT.Secret = strings.TrimSpace(cfg.Auth.JWT.Secret)
	if len(cfg.Auth.JWT.Secret) < 32 {
		return fmt.Errorf("auth.jwt.secret must be at least 32 characters (current: %d)", len(cfg.Auth.JWT.Secret))
	}
	if strings.TrimSpace(cfg.Auth.CronSecret) == "" {
		return errors.New("auth.cron_secret must be configured")
	}
	return nil
}
