package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the DealershipAI API.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Security    SecurityConfig    `mapstructure:"security"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Sentinel    SentinelConfig    `mapstructure:"sentinel"`
	Jobs        JobsConfig        `mapstructure:"jobs"`
	AI          AIConfig          `mapstructure:"ai"`
	Slack       SlackConfig       `mapstructure:"slack"`
	MetricsFeed MetricsFeedConfig `mapstructure:"metrics_feed"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int             `mapstructure:"port"`
	LogLevel        string          `mapstructure:"log_level"`
	LogFormat       string          `mapstructure:"log_format"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig      `mapstructure:"cors"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig bounds API requests per client.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver          string            `mapstructure:"driver"`
	Path            string            `mapstructure:"path"`
	DSN             string            `mapstructure:"dsn"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Name            string            `mapstructure:"name"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	Options         map[string]string `mapstructure:"options"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration     `mapstructure:"conn_max_lifetime"`
	LogLevel        string            `mapstructure:"log_level"`
}

// CacheConfig describes cache backends.
type CacheConfig struct {
	Redis RedisCacheConfig `mapstructure:"redis"`
	Local LocalCacheConfig `mapstructure:"local"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TLS      bool          `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LocalCacheConfig sizes the in-process cache in front of the shared store.
type LocalCacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Capacity   uint64        `mapstructure:"capacity"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

// AuthConfig captures bearer token verification settings.
type AuthConfig struct {
	JWT        JWTSettings `mapstructure:"jwt"`
	CronSecret string      `mapstructure:"cron_secret"`
}

// JWTSettings configures verification of tokens minted by the identity provider.
type JWTSettings struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	Audience string        `mapstructure:"audience"`
	TTL      time.Duration `mapstructure:"access_token_ttl"`
	Leeway   time.Duration `mapstructure:"leeway"`
}

// SecurityConfig holds the key used to encrypt integration secrets at rest.
type SecurityConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

// ScoringConfig sets cache lifetimes and revenue defaults.
type ScoringConfig struct {
	QAICacheTTL       time.Duration `mapstructure:"qai_cache_ttl"`
	CompositeCacheTTL time.Duration `mapstructure:"composite_cache_ttl"`
	DashboardCacheTTL time.Duration `mapstructure:"dashboard_cache_ttl"`
	TargetScore       float64       `mapstructure:"target_score"`
	MonthlyLeads      int           `mapstructure:"monthly_leads"`
	AvgDealValue      float64       `mapstructure:"avg_deal_value"`
	CloseRate         float64       `mapstructure:"close_rate"`
}

// SentinelConfig tunes threshold monitoring.
type SentinelConfig struct {
	Window     int                `mapstructure:"window"`
	WebhookURL string             `mapstructure:"webhook_url"`
	Thresholds SentinelThresholds `mapstructure:"thresholds"`
}

// SentinelThresholds are the static breach levels.
type SentinelThresholds struct {
	VLIWarning                  float64 `mapstructure:"vli_warning"`
	VLICritical                 float64 `mapstructure:"vli_critical"`
	AIVWarning                  float64 `mapstructure:"aiv_warning"`
	AIVCritical                 float64 `mapstructure:"aiv_critical"`
	ReviewResponseHours         float64 `mapstructure:"review_response_hours"`
	ReviewResponseHoursCritical float64 `mapstructure:"review_response_hours_critical"`
	ReviewVelocity              float64 `mapstructure:"review_velocity"`
	LCPSeconds                  float64 `mapstructure:"lcp_seconds"`
	LCPSecondsCritical          float64 `mapstructure:"lcp_seconds_critical"`
	QAIDrop                     float64 `mapstructure:"qai_drop"`
}

// JobsConfig schedules background work.
type JobsConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	DailySchedule    string        `mapstructure:"daily_schedule"`
	SentinelSchedule string        `mapstructure:"sentinel_schedule"`
	CleanupSchedule  string        `mapstructure:"cleanup_schedule"`
	WeightsSchedule  string        `mapstructure:"weights_schedule"`
	JitterWindow     time.Duration `mapstructure:"jitter_window"`
	Concurrency      int           `mapstructure:"concurrency"`
	RetentionDays    int           `mapstructure:"retention_days"`
}

// AIConfig configures the AI platforms queried for consensus.
type AIConfig struct {
	AnthropicAPIKey   string        `mapstructure:"anthropic_api_key"`
	Model             string        `mapstructure:"model"`
	MaxTokens         int64         `mapstructure:"max_tokens"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MockPlatforms     []string      `mapstructure:"mock_platforms"`
}

// SlackConfig holds slash-command verification and the default alert webhook.
type SlackConfig struct {
	SigningSecret string `mapstructure:"signing_secret"`
	WebhookURL    string `mapstructure:"webhook_url"`
}

// MetricsFeedConfig points at the PageSpeed-style API used to refresh samples.
type MetricsFeedConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("DEALERAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests", 120)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/dealerai.sqlite")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")
	v.SetDefault("cache.local.enabled", true)
	v.SetDefault("cache.local.capacity", 10000)
	v.SetDefault("cache.local.default_ttl", "60s")

	v.SetDefault("auth.jwt.issuer", "dealerai")
	v.SetDefault("auth.jwt.access_token_ttl", "1h")
	v.SetDefault("auth.jwt.leeway", "30s")

	v.SetDefault("scoring.qai_cache_ttl", "1h")
	v.SetDefault("scoring.composite_cache_ttl", "1h")
	v.SetDefault("scoring.dashboard_cache_ttl", "60s")
	v.SetDefault("scoring.target_score", 85)
	v.SetDefault("scoring.monthly_leads", 300)
	v.SetDefault("scoring.avg_deal_value", 2500)
	v.SetDefault("scoring.close_rate", 0.12)

	v.SetDefault("sentinel.window", 8)
	v.SetDefault("sentinel.thresholds.vli_warning", 70)
	v.SetDefault("sentinel.thresholds.vli_critical", 50)
	v.SetDefault("sentinel.thresholds.aiv_warning", 60)
	v.SetDefault("sentinel.thresholds.aiv_critical", 40)
	v.SetDefault("sentinel.thresholds.review_response_hours", 4.0)
	v.SetDefault("sentinel.thresholds.review_response_hours_critical", 8.0)
	v.SetDefault("sentinel.thresholds.review_velocity", 0.85)
	v.SetDefault("sentinel.thresholds.lcp_seconds", 3.0)
	v.SetDefault("sentinel.thresholds.lcp_seconds_critical", 4.0)
	v.SetDefault("sentinel.thresholds.qai_drop", 10.0)

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.daily_schedule", "0 6 * * *")
	v.SetDefault("jobs.sentinel_schedule", "@hourly")
	v.SetDefault("jobs.cleanup_schedule", "30 3 * * *")
	v.SetDefault("jobs.weights_schedule", "0 4 * * 1")
	v.SetDefault("jobs.jitter_window", "30m")
	v.SetDefault("jobs.concurrency", 4)
	v.SetDefault("jobs.retention_days", 90)

	v.SetDefault("ai.model", "claude-sonnet-4-5")
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("ai.requests_per_second", 2.0)
	v.SetDefault("ai.burst", 2)
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.mock_platforms", []string{"chatgpt", "gemini", "perplexity"})

	v.SetDefault("metrics_feed.enabled", false)
	v.SetDefault("metrics_feed.base_url", "https://www.googleapis.com/pagespeedonline/v5/runPagespeed")
	v.SetDefault("metrics_feed.timeout", "45s")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
