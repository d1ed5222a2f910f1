package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/app"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/database"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	return &app.Config{
		Database: app.DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "dealerai.db"),
		},
		Cache: app.CacheConfig{
			Local: app.LocalCacheConfig{Enabled: true, Capacity: 100, DefaultTTL: time.Minute},
		},
		Auth: app.AuthConfig{
			JWT:        app.JWTSettings{Secret: "bootstrap-test-secret-0123456789abcdef", Issuer: "test", TTL: time.Hour},
			CronSecret: "bootstrap-cron",
		},
		Security: app.SecurityConfig{EncryptionKey: "correct horse battery staple"},
		AI:       app.AIConfig{MockPlatforms: []string{"chatgpt", "gemini"}},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
}

func TestBootstrapRuntimeWiresStack(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	stack, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), log) })

	require.NotNil(t, stack.Router)
	require.NotNil(t, stack.Services.Consensus)
	require.ElementsMatch(t, []string{"chatgpt", "gemini"}, stack.Services.Consensus.Platforms())
	require.IsType(t, &cache.TieredStore{}, stack.Cache)
	require.NotNil(t, stack.Realtime)

	salt, err := database.GetSystemSetting(context.Background(), stack.DB, database.KDFSaltSetting)
	require.NoError(t, err)
	require.NotEmpty(t, salt)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health/ready", nil)
	stack.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/cron", nil)
	req.Header.Set("Authorization", "Bearer "+cfg.Auth.CronSecret)
	stack.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestBuildCacheWithoutLocalTier(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Local.Enabled = false

	db, err := initialiseDatabase(cfg)
	require.NoError(t, err)
	stack := &runtimeStack{DB: db}
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	require.IsType(t, &cache.DatabaseStore{}, buildCache(stack, cfg))
	require.Nil(t, stack.Local)
}

func TestBuildPlatformsSkipsClaudeWithoutKey(t *testing.T) {
	cfg := &app.Config{AI: app.AIConfig{MockPlatforms: []string{"perplexity"}}}
	platforms := buildPlatforms(cfg, zap.NewNop())
	require.Len(t, platforms, 1)
	require.Equal(t, "perplexity", platforms[0].Name())

	require.Empty(t, buildPlatforms(&app.Config{}, zap.NewNop()))
}

func TestConvertDatabaseConfig(t *testing.T) {
	cfg := &app.Config{Database: app.DatabaseConfig{
		Driver:       " PostgreSQL ",
		Host:         "db.internal",
		Port:         5432,
		Name:         "dealerai",
		Username:     "svc",
		Password:     "pw",
		MaxOpenConns: 12,
	}}
	dbCfg := convertDatabaseConfig(cfg)
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.internal", dbCfg.Host)
	require.Equal(t, "svc", dbCfg.User)
	require.Equal(t, 12, dbCfg.MaxOpenConns)

	require.Equal(t, "sqlite", convertDatabaseConfig(&app.Config{}).Driver)
}

func TestEnsureSecretsPresent(t *testing.T) {
	require.Error(t, ensureSecretsPresent(nil))

	cfg := testConfig(t)
	require.NoError(t, ensureSecretsPresent(cfg))

	cfg.Auth.JWT.Secret = "short"
	require.Error(t, ensureSecretsPresent(cfg))

	cfg = testConfig(t)
	cfg.Auth.CronSecret = " "
	require.Error(t, ensureSecretsPresent(cfg))
}
