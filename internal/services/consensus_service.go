package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/ai"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/scoring"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/logger"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/metrics"
)

// MaxConsensusPlatforms caps how many assistants are compared.
const MaxConsensusPlatforms = 4

// ErrNoPlatforms is returned when the service has no AI platforms configured.
var ErrNoPlatforms = errors.New("consensus service: no platforms configured")

// ConsensusConfig tunes the consensus service.
type ConsensusConfig struct {
	CacheTTL        time.Duration
	PlatformTimeout time.Duration
}

// PlatformAnswer is one assistant's reply, or the reason it has none.
type PlatformAnswer struct {
	Platform  string `json:"platform"`
	Answer    string `json:"answer,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// ConsensusReport is the outcome of Evaluate.
type ConsensusReport struct {
	DealershipID string `json:"dealership_id"`
	Query        string `json:"query"`
	scoring.ConsensusResult
	Answers    []PlatformAnswer `json:"answers"`
	ComputedAt time.Time        `json:"computed_at"`
	Cached     bool             `json:"cached"`
}

// ConsensusService asks several AI assistants the same question about a
// dealership and scores how much their answers agree.
type ConsensusService struct {
	db        *gorm.DB
	cache     cache.Store
	platforms []ai.Platform
	cfg       ConsensusConfig
	now       func() time.Time
}

// NewConsensusService constructs a ConsensusService. Only the first
// MaxConsensusPlatforms platforms are used.
func NewConsensusService(db *gorm.DB, store cache.Store, platforms []ai.Platform, cfg ConsensusConfig) (*ConsensusService, error) {
	if db == nil {
		return nil, errors.New("consensus service: db is required")
	}
	if len(platforms) == 0 {
		return nil, ErrNoPlatforms
	}
	if len(platforms) > MaxConsensusPlatforms {
		platforms = platforms[:MaxConsensusPlatforms]
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.PlatformTimeout <= 0 {
		cfg.PlatformTimeout = 30 * time.Second
	}
	return &ConsensusService{db: db, cache: store, platforms: platforms, cfg: cfg, now: time.Now}, nil
}

// Platforms lists the configured platform names.
func (s *ConsensusService) Platforms() []string {
	names := make([]string, len(s.platforms))
	for i, p := range s.platforms {
		names[i] = p.Name()
	}
	return names
}

// Evaluate queries every platform concurrently. A failing platform is
// recorded in the report and excluded from the score.
func (s *ConsensusService) Evaluate(ctx context.Context, dealerID, query string) (*ConsensusReport, error) {
	ctx = ensureContext(ctx)

	dealer, err := findDealership(ctx, s.db, dealerID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	key := cache.Key("consensus", dealer.ID, queryDigest(query))
	if s.cache != nil {
		var cached ConsensusReport
		ok, err := cache.GetJSON(ctx, s.cache, key, &cached)
		if err != nil {
			logger.WithModule("consensus").Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			cached.Cached = true
			return &cached, nil
		}
	}

	prompt := ai.BuildPrompt(ai.DealerQuery{
		Name:  dealer.Name,
		City:  dealer.City,
		State: dealer.State,
		Brand: dealer.Brand,
		Query: query,
	})

	answers := make([]PlatformAnswer, len(s.platforms))
	g, gctx := errgroup.WithContext(ctx)
	for i, platform := range s.platforms {
		g.Go(func() error {
			answers[i] = s.ask(gctx, platform, prompt)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texts := make(map[string]string, len(answers))
	for _, a := range answers {
		if a.Error == "" {
			texts[a.Platform] = a.Answer
		}
	}

	report := &ConsensusReport{
		DealershipID:    dealer.ID,
		Query:           query,
		ConsensusResult: scoring.Consensus(texts),
		Answers:         answers,
		ComputedAt:      s.now().UTC(),
	}

	score := models.Score{
		DealershipID: dealer.ID,
		Kind:         models.ScoreKindConsensus,
		Value:        report.Score,
		Band:         report.Level,
		ComputedAt:   report.ComputedAt,
	}
	score.TenantID = dealer.TenantID
	if details, err := json.Marshal(report); err == nil {
		score.Details = datatypes.JSON(details)
	}
	if err := s.db.WithContext(ctx).Create(&score).Error; err != nil {
		return nil, fmt.Errorf("consensus service: persist score: %w", err)
	}
	metrics.ScoreCalculations.WithLabelValues(models.ScoreKindConsensus, "computed").Inc()
	metrics.LatestScore.WithLabelValues(dealer.ID, models.ScoreKindConsensus).Set(report.Score)

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, report, s.cfg.CacheTTL); err != nil {
			logger.WithModule("consensus").Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return report, nil
}

func (s *ConsensusService) ask(ctx context.Context, platform ai.Platform, prompt string) PlatformAnswer {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.PlatformTimeout)
	defer cancel()

	started := time.Now()
	answer, err := platform.Ask(callCtx, prompt)
	latency := time.Since(started)
	out := PlatformAnswer{Platform: platform.Name(), LatencyMS: latency.Milliseconds()}
	if err != nil {
		out.Error = err.Error()
		monitoring.RecordPlatformRequest(platform.Name(), "error", out.Error, latency)
		logger.WithModule("consensus").Warn("platform query failed",
			zap.String("platform", platform.Name()), zap.Error(err))
		return out
	}
	out.Answer = answer
	monitoring.RecordPlatformRequest(platform.Name(), "success", "", latency)
	return out
}

func queryDigest(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(query)))
	return hex.EncodeToString(sum[:8])
}
