package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/auth"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/sentinel"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, []string{"https://app.dealershipai.com"}, cfg.Server.CORS.AllowedOrigins)
	require.True(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, 60, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Host)
	require.Equal(t, 5432, cfg.Database.Port)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.Equal(t, 3*time.Second, cfg.Cache.Redis.Timeout)
	require.Equal(t, uint64(500), cfg.Cache.Local.Capacity)
	require.Equal(t, 2*time.Minute, cfg.Cache.Local.DefaultTTL)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, "cron-secret", cfg.Auth.CronSecret)

	require.Equal(t, 2*time.Hour, cfg.Scoring.QAICacheTTL)
	require.Equal(t, time.Hour, cfg.Scoring.CompositeCacheTTL)
	require.Equal(t, 90*time.Second, cfg.Scoring.DashboardCacheTTL)
	require.Equal(t, 450, cfg.Scoring.MonthlyLeads)
	require.InDelta(t, 0.12, cfg.Scoring.CloseRate, 1e-9)

	require.Equal(t, 12, cfg.Sentinel.Window)
	require.Equal(t, 75.0, cfg.Sentinel.Thresholds.VLIWarning)
	require.Equal(t, 50.0, cfg.Sentinel.Thresholds.VLICritical)
	require.Equal(t, 5.0, cfg.Sentinel.Thresholds.LCPSecondsCritical)
	require.Equal(t, 8.0, cfg.Sentinel.Thresholds.ReviewResponseHoursCritical)

	require.Equal(t, "15 5 * * *", cfg.Jobs.DailySchedule)
	require.Equal(t, "@hourly", cfg.Jobs.SentinelSchedule)
	require.Equal(t, 10*time.Minute, cfg.Jobs.JitterWindow)
	require.Equal(t, 8, cfg.Jobs.Concurrency)

	require.Equal(t, "sk-ant-test", cfg.AI.AnthropicAPIKey)
	require.Equal(t, "claude-sonnet-4-5", cfg.AI.Model)
	require.Equal(t, []string{"chatgpt", "gemini"}, cfg.AI.MockPlatforms)
	require.Equal(t, 30*time.Second, cfg.AI.Timeout)

	require.Equal(t, "slack-signing", cfg.Slack.SigningSecret)
	require.True(t, cfg.MetricsFeed.Enabled)
	require.Equal(t, "psi-key", cfg.MetricsFeed.APIKey)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "0 6 * * *", cfg.Jobs.DailySchedule)
	require.Equal(t, 8, cfg.Sentinel.Window)
	require.Equal(t, time.Hour, cfg.Scoring.QAICacheTTL)
	require.Equal(t, []string{"chatgpt", "gemini", "perplexity"}, cfg.AI.MockPlatforms)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("DEALERAI_SERVER_PORT", "7070")
	t.Setenv("DEALERAI_AUTH_CRON_SECRET", "from-env")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "from-env", cfg.Auth.CronSecret)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret:   "secret",
			Issuer:   " issuer ",
			Audience: "api",
			TTL:      30 * time.Minute,
			Leeway:   time.Minute,
		},
	}

	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		Audience:       "api",
		AccessTokenTTL: 30 * time.Minute,
		Leeway:         time.Minute,
	}, cfg.JWTServiceConfig())

	var empty AuthConfig
	require.Equal(t, auth.DefaultAccessTokenTTL, empty.JWTServiceConfig().AccessTokenTTL)
}

func TestSentinelServiceConfigFillsDefaults(t *testing.T) {
	cfg := SentinelConfig{
		Window:     6,
		WebhookURL: " https://hooks.example.com/x ",
		Thresholds: SentinelThresholds{VLIWarning: 72},
	}

	svcCfg := cfg.SentinelServiceConfig()
	require.Equal(t, 6, svcCfg.Window)
	require.Equal(t, "https://hooks.example.com/x", svcCfg.WebhookURL)
	require.Equal(t, 72.0, svcCfg.Thresholds.VLIWarning)
	require.Equal(t, sentinel.DefaultThresholds().AIVCritical, svcCfg.Thresholds.AIVCritical)
	require.Equal(t, sentinel.DefaultThresholds().LCPSecondsCritical, svcCfg.Thresholds.LCPSecondsCritical)
}

func TestAlertWebhookURLPrecedence(t *testing.T) {
	cfg := Config{Slack: SlackConfig{WebhookURL: "https://slack.example.com/hook"}}
	require.Equal(t, "https://slack.example.com/hook", cfg.AlertWebhookURL())

	cfg.Sentinel.WebhookURL = "https://sentinel.example.com/hook"
	require.Equal(t, "https://sentinel.example.com/hook", cfg.AlertWebhookURL())
}
