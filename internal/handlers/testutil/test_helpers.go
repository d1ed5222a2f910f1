package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/ai"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/api"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/app"
	iauth "github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/auth"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
	sharedtestutil "github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/database/testutil"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/integrations/slack"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/jobs"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring/checks"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/realtime"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/crypto"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

const (
	// CronSecret is the bearer secret accepted by /api/cron in test environments.
	CronSecret = "test-cron-secret"
	// SlackSigningSecret signs slash commands in test environments.
	SlackSigningSecret = "test-slack-signing-secret"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	Config   *app.Config
	Services *api.Services
	Runner   *jobs.Runner
	Notifier *RecordingNotifier
	Hub      *realtime.Hub
	Tenant   *models.Tenant
}

// Option tweaks the environment before the router is built.
type Option func(*envOptions)

type envOptions struct {
	platforms []ai.Platform
	configure func(*app.Config)
}

// WithPlatforms replaces the default static AI platforms.
func WithPlatforms(platforms ...ai.Platform) Option {
	return func(o *envOptions) { o.platforms = platforms }
}

// WithConfig mutates the config before services are built.
func WithConfig(fn func(*app.Config)) Option {
	return func(o *envOptions) { o.configure = fn }
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	options := envOptions{
		platforms: []ai.Platform{
			ai.NewStaticPlatform("chatgpt", "Top picks are Sunrise Ford and Lakeside Toyota."),
			ai.NewStaticPlatform("gemini", "Sunrise Ford and Lakeside Toyota are well reviewed."),
			ai.NewStaticPlatform("perplexity", "Sunrise Ford, Lakeside Toyota and Metro Honda."),
		},
	}
	for _, opt := range opts {
		opt(&options)
	}

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	jwtSecret := "test-suite-super-secret-key-32-bytes!!"
	cfg := &app.Config{
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: jwtSecret,
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			CronSecret: CronSecret,
		},
		Scoring: app.ScoringConfig{
			QAICacheTTL:       time.Hour,
			CompositeCacheTTL: time.Hour,
			DashboardCacheTTL: time.Minute,
			TargetScore:       85,
			MonthlyLeads:      300,
			AvgDealValue:      2500,
			CloseRate:         0.12,
		},
		Sentinel: app.SentinelConfig{
			Window:     8,
			WebhookURL: "https://hooks.example.com/global",
		},
		Slack: app.SlackConfig{SigningSecret: SlackSigningSecret},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
	if options.configure != nil {
		options.configure(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	cipher, err := crypto.NewCipher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	store := cache.NewLocalStore(cache.LocalConfig{})
	t.Cleanup(store.Close)

	notifier := &RecordingNotifier{}
	hub := realtime.NewHub()
	svc, err := api.NewServices(db, store, cfg, api.ServiceOptions{
		Platforms: options.platforms,
		Notifier:  notifier,
		Cipher:    cipher,
		Publisher: hub,
	})
	require.NoError(t, err)

	runner := jobs.NewRunner(db, svc.Dealerships, svc.Scores, svc.Sentinel, svc.Audit,
		jobs.WithJitterWindow(0),
		jobs.WithSleep(func(context.Context, time.Duration) error { return nil }),
	)

	module := monitoring.NewModule(monitoring.Options{})
	module.Health().RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	module.Health().RegisterReadiness(checks.Database(db, time.Second))

	router, err := api.NewRouter(api.Dependencies{
		DB:         db,
		Config:     cfg,
		JWT:        jwtSvc,
		Services:   svc,
		Runner:     runner,
		Monitoring: module,
		Realtime:   hub,
		Cache:      store,
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		Config:   cfg,
		Services: svc,
		Runner:   runner,
		Notifier: notifier,
		Hub:      hub,
		Tenant:   sharedtestutil.MustCreateTenant(t, db, "acme-motors"),
	}
}

// Token mints an access token for a user of the env tenant with the given role.
func (e *Env) Token(role string) string {
	e.T.Helper()
	return e.TokenFor(e.Tenant.ID, "idp|"+role+"-"+e.Tenant.ID, role)
}

// TokenFor mints an access token for an arbitrary tenant and subject.
func (e *Env) TokenFor(tenantID, subject, role string) string {
	e.T.Helper()
	token, err := e.JWT.GenerateAccessToken(iauth.AccessTokenInput{
		Subject:  subject,
		TenantID: tenantID,
		Role:     role,
		Email:    role + "@example.com",
	})
	require.NoError(e.T, err)
	return token
}

// CreateDealership inserts an active dealership in the env tenant.
func (e *Env) CreateDealership(domain string) *models.Dealership {
	e.T.Helper()
	return sharedtestutil.MustCreateDealership(e.T, e.DB, e.Tenant.ID, domain)
}

// RecordSample stores a metric sample for dealerID.
func (e *Env) RecordSample(dealerID string, sample models.MetricSample) *models.MetricSample {
	e.T.Helper()
	stored, err := e.Services.Scores.RecordMetrics(context.Background(), dealerID, &sample)
	require.NoError(e.T, err)
	return stored
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader io.Reader = http.NoBody
	headers := map[string]string{}
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(data)
		headers["Content-Type"] = "application/json"
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return e.RawRequest(method, path, reader, headers)
}

// RawRequest sends body untouched with the given headers.
func (e *Env) RawRequest(method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	e.T.Helper()

	req, err := http.NewRequest(method, path, body)
	require.NoError(e.T, err)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// SlackCommand posts a signed slash-command form body.
func (e *Env) SlackCommand(form string) *httptest.ResponseRecorder {
	e.T.Helper()

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	return e.RawRequest(http.MethodPost, "/api/slack/commands", strings.NewReader(form), map[string]string{
		"Content-Type":        "application/x-www-form-urlencoded",
		slack.HeaderTimestamp: timestamp,
		slack.HeaderSignature: slack.Sign(SlackSigningSecret, timestamp, []byte(form)),
	})
}

// RecordingNotifier captures sentinel webhook posts.
type RecordingNotifier struct {
	mu       sync.Mutex
	Messages []PostedMessage
}

// PostedMessage is one captured webhook call.
type PostedMessage struct {
	URL     string
	Message slack.Message
}

// Post implements services.AlertNotifier.
func (n *RecordingNotifier) Post(_ context.Context, url string, msg slack.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, PostedMessage{URL: url, Message: msg})
	return nil
}

// Posted returns a copy of the captured messages.
func (n *RecordingNotifier) Posted() []PostedMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]PostedMessage(nil), n.Messages...)
}
