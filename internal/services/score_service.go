package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/cache"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/database"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/realtime"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/scoring"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/logger"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/metrics"
)

var (
	// ErrInvalidMetrics reports an ingested sample with out-of-range values.
	ErrInvalidMetrics = errors.New("score service: invalid metrics")
	// ErrFeedDisabled is returned by RefreshFromFeed when no feed is configured.
	ErrFeedDisabled = errors.New("score service: metrics feed is not configured")
	// ErrInsufficientHistory is returned when too little data exists to learn or forecast.
	ErrInsufficientHistory = errors.New("score service: insufficient history")
)

const (
	defaultQAICacheTTL       = time.Hour
	defaultCompositeCacheTTL = time.Hour
	minLearningObservations  = 10
)

// ScoreConfig tunes caching and the revenue defaults used when a dealership
// has no lead or deal figures of its own.
type ScoreConfig struct {
	QAICacheTTL       time.Duration
	CompositeCacheTTL time.Duration
	TargetScore       float64
	MonthlyLeads      int
	AvgDealValue      float64
	CloseRate         float64
}

// QAIResult is the outcome of CalculateQAI.
type QAIResult struct {
	DealershipID string            `json:"dealership_id"`
	Score        int               `json:"score"`
	Band         string            `json:"band"`
	Inputs       scoring.QAIInputs `json:"inputs"`
	ComputedAt   time.Time         `json:"computed_at"`
	Cached       bool              `json:"cached"`
}

// CompositeScore is the outcome of CalculateComposite.
type CompositeScore struct {
	DealershipID string `json:"dealership_id"`
	scoring.CompositeResult
	ComputedAt time.Time `json:"computed_at"`
	Cached     bool      `json:"cached"`
}

// RaRReport combines the lead-based and benchmark revenue-at-risk estimates.
type RaRReport struct {
	DealershipID string                  `json:"dealership_id"`
	Input        scoring.RaRInput        `json:"input"`
	Estimate     scoring.RaRResult       `json:"estimate"`
	Benchmark    scoring.BenchmarkImpact `json:"benchmark"`
	ComputedAt   time.Time               `json:"computed_at"`
}

// ScoreService computes, caches and persists dealership scores.
type ScoreService struct {
	db       *gorm.DB
	cache    cache.Store
	provider MetricsProvider
	feed     FeedFetcher
	events   EventPublisher
	cfg      ScoreConfig
	now      func() time.Time
}

// ScoreServiceOption customises a ScoreService.
type ScoreServiceOption func(*ScoreService)

// WithMetricsProvider replaces the sample-backed provider.
func WithMetricsProvider(p MetricsProvider) ScoreServiceOption {
	return func(s *ScoreService) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithFeedFetcher enables RefreshFromFeed.
func WithFeedFetcher(f FeedFetcher) ScoreServiceOption {
	return func(s *ScoreService) { s.feed = f }
}

// WithScorePublisher pushes every persisted score to live dashboards.
func WithScorePublisher(p EventPublisher) ScoreServiceOption {
	return func(s *ScoreService) { s.events = p }
}

// WithScoreClock overrides the clock.
func WithScoreClock(now func() time.Time) ScoreServiceOption {
	return func(s *ScoreService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScoreService constructs a ScoreService. A nil store disables caching.
func NewScoreService(db *gorm.DB, store cache.Store, cfg ScoreConfig, opts ...ScoreServiceOption) (*ScoreService, error) {
	if db == nil {
		return nil, errors.New("score service: db is required")
	}
	if cfg.QAICacheTTL <= 0 {
		cfg.QAICacheTTL = defaultQAICacheTTL
	}
	if cfg.CompositeCacheTTL <= 0 {
		cfg.CompositeCacheTTL = defaultCompositeCacheTTL
	}
	if cfg.TargetScore <= 0 {
		cfg.TargetScore = 85
	}

	svc := &ScoreService{
		db:       db,
		cache:    store,
		provider: NewSampleMetricsProvider(db),
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CalculateQAI returns the dealership's QAI, served from cache for up to an hour.
func (s *ScoreService) CalculateQAI(ctx context.Context, dealerID string) (*QAIResult, error) {
	return s.calculateQAI(ensureContext(ctx), dealerID, false)
}

// RecalculateQAI computes QAI from current metrics, ignoring and then refreshing the cache.
func (s *ScoreService) RecalculateQAI(ctx context.Context, dealerID string) (*QAIResult, error) {
	return s.calculateQAI(ensureContext(ctx), dealerID, true)
}

func (s *ScoreService) calculateQAI(ctx context.Context, dealerID string, bypass bool) (*QAIResult, error) {
	key := cache.Key("qai", dealerID)
	if !bypass {
		var cached QAIResult
		if s.readCache(ctx, key, &cached) {
			cached.Cached = true
			metrics.ScoreCalculations.WithLabelValues(models.ScoreKindQAI, "cache").Inc()
			return &cached, nil
		}
	}

	dealer, err := s.loadDealer(ctx, dealerID)
	if err != nil {
		return nil, err
	}

	inputs, err := s.provider.FetchSubMetrics(ctx, dealer)
	if err != nil {
		metrics.ScoreCalculations.WithLabelValues(models.ScoreKindQAI, "error").Inc()
		if errors.Is(err, ErrNoMetrics) {
			return nil, err
		}
		return nil, fmt.Errorf("score service: fetch sub-metrics: %w", err)
	}

	score := scoring.QAI(inputs)
	result := &QAIResult{
		DealershipID: dealer.ID,
		Score:        score,
		Band:         scoring.QAIBand(score),
		Inputs:       inputs.Clamped(),
		ComputedAt:   s.now().UTC(),
	}

	if err := s.persistScore(ctx, dealer, models.ScoreKindQAI, float64(score), result.Band, result.Inputs, result.ComputedAt); err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, result, s.cfg.QAICacheTTL)
	metrics.ScoreCalculations.WithLabelValues(models.ScoreKindQAI, "computed").Inc()
	return result, nil
}

// CalculateComposite computes the nine-pillar dAI score from the newest sample
// using the stored (possibly learned) weights.
func (s *ScoreService) CalculateComposite(ctx context.Context, dealerID string) (*CompositeScore, error) {
	ctx = ensureContext(ctx)

	dealer, err := s.loadDealer(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	sample, err := latestSample(ctx, s.db, dealer.ID)
	if err != nil {
		return nil, err
	}

	weights, err := database.LoadScoringWeights(ctx, s.db)
	if err != nil {
		logger.WithModule("scoring").Warn("falling back to default weights", zap.Error(err))
	}

	result, err := scoring.Composite(pillarMetrics(sample), weights)
	if err != nil {
		metrics.ScoreCalculations.WithLabelValues(models.ScoreKindComposite, "error").Inc()
		return nil, fmt.Errorf("score service: composite: %w", err)
	}

	out := &CompositeScore{DealershipID: dealer.ID, CompositeResult: result, ComputedAt: s.now().UTC()}
	band := scoring.QAIBand(int(scoring.Round(result.Score, 0)))
	if err := s.persistScore(ctx, dealer, models.ScoreKindComposite, result.Score, band, result, out.ComputedAt); err != nil {
		return nil, err
	}
	s.writeCache(ctx, cache.Key("dai", dealer.ID), out, s.cfg.CompositeCacheTTL)
	metrics.ScoreCalculations.WithLabelValues(models.ScoreKindComposite, "computed").Inc()
	return out, nil
}

// LatestComposite returns the cached composite, falling back to the newest stored one.
func (s *ScoreService) LatestComposite(ctx context.Context, dealerID string) (*CompositeScore, error) {
	ctx = ensureContext(ctx)

	var cached CompositeScore
	if s.readCache(ctx, cache.Key("dai", dealerID), &cached) {
		cached.Cached = true
		return &cached, nil
	}

	scores, err := s.History(ctx, dealerID, models.ScoreKindComposite, 1)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, ErrNoMetrics
	}
	var result scoring.CompositeResult
	if err := json.Unmarshal(scores[0].Details, &result); err != nil {
		return nil, fmt.Errorf("score service: decode composite: %w", err)
	}
	return &CompositeScore{DealershipID: dealerID, CompositeResult: result, ComputedAt: scores[0].ComputedAt}, nil
}

// RevenueAtRisk estimates monthly and annual revenue lost to the visibility gap.
// Visibility is the newest sample's AIV, or the latest composite when AIV is
// unreported. It is read-only; RecordRevenueAtRisk stores the estimate.
func (s *ScoreService) RevenueAtRisk(ctx context.Context, dealerID string) (*RaRReport, error) {
	ctx = ensureContext(ctx)
	dealer, err := s.loadDealer(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	return s.revenueAtRisk(ctx, dealer)
}

// RecordRevenueAtRisk computes the estimate and stores it as a rar score. The
// daily scoring job is the only writer, giving one rar point per dealer per day.
func (s *ScoreService) RecordRevenueAtRisk(ctx context.Context, dealerID string) (*RaRReport, error) {
	ctx = ensureContext(ctx)
	dealer, err := s.loadDealer(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	report, err := s.revenueAtRisk(ctx, dealer)
	if err != nil {
		return nil, err
	}
	if err := s.persistScore(ctx, dealer, models.ScoreKindRaR, report.Estimate.MonthlyAtRisk, "", report, report.ComputedAt); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ScoreService) revenueAtRisk(ctx context.Context, dealer *models.Dealership) (*RaRReport, error) {
	sample, err := latestSample(ctx, s.db, dealer.ID)
	if err != nil {
		return nil, err
	}

	visibility := sample.AIV
	if visibility <= 0 {
		if composite, err := s.LatestComposite(ctx, dealer.ID); err == nil {
			visibility = composite.Score
		}
	}

	input := scoring.RaRInput{
		VisibilityScore: visibility,
		TargetScore:     firstPositive(dealer.TargetScore, s.cfg.TargetScore),
		MonthlyLeads:    float64(firstPositiveInt(dealer.MonthlyLeads, s.cfg.MonthlyLeads)),
		AvgDealValue:    firstPositive(dealer.AvgDealValue, s.cfg.AvgDealValue),
		CloseRate:       firstPositive(dealer.CloseRate, s.cfg.CloseRate),
	}
	report := &RaRReport{
		DealershipID: dealer.ID,
		Input:        input,
		Estimate:     scoring.RevenueAtRisk(input),
		Benchmark: scoring.BenchmarkRevenueAtRisk(dealer.Brand, scoring.ChannelScores{
			Overall: visibility,
			SEO:     sample.SEOVisibility,
			AEO:     sample.AEOVisibility,
			GEO:     sample.GEOVisibility,
			Social:  sample.SocialVisibility,
		}),
		ComputedAt: s.now().UTC(),
	}
	metrics.ScoreCalculations.WithLabelValues(models.ScoreKindRaR, "computed").Inc()
	return report, nil
}

// History returns up to limit scores of a kind, newest first. An empty kind returns all kinds.
func (s *ScoreService) History(ctx context.Context, dealerID, kind string, limit int) ([]models.Score, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 || limit > 365 {
		limit = 30
	}

	query := s.db.WithContext(ctx).Where("dealership_id = ?", dealerID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	var scores []models.Score
	if err := query.Order("computed_at DESC").Limit(limit).Find(&scores).Error; err != nil {
		return nil, fmt.Errorf("score service: history: %w", err)
	}
	return scores, nil
}

// forecastLookback bounds how much stored history Forecast reads.
const forecastLookback = 90 * 24 * time.Hour

// Forecast projects a score kind forward by days. Stored scores are folded
// into one point per UTC calendar day, the last score of the day winning.
func (s *ScoreService) Forecast(ctx context.Context, dealerID, kind string, days int) ([]scoring.ForecastPoint, error) {
	ctx = ensureContext(ctx)

	var scores []models.Score
	err := s.db.WithContext(ctx).
		Select("value", "computed_at").
		Where("dealership_id = ? AND kind = ? AND computed_at >= ?", dealerID, kind, s.now().Add(-forecastLookback)).
		Order("computed_at ASC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("score service: forecast history: %w", err)
	}

	series, lastDay := dailySeries(scores)
	points := scoring.Forecast(series, lastDay, days)
	if points == nil {
		return nil, ErrInsufficientHistory
	}
	return points, nil
}

// dailySeries buckets scores (oldest first) by UTC day and returns the last
// value of each day along with the final day's midnight.
func dailySeries(scores []models.Score) ([]float64, time.Time) {
	var (
		series []float64
		day    time.Time
	)
	for _, score := range scores {
		d := score.ComputedAt.UTC().Truncate(24 * time.Hour)
		if len(series) > 0 && d.Equal(day) {
			series[len(series)-1] = score.Value
			continue
		}
		series = append(series, score.Value)
		day = d
	}
	return series, day
}

// RecordMetrics ingests a metric sample for the dealership.
func (s *ScoreService) RecordMetrics(ctx context.Context, dealerID string, sample *models.MetricSample) (*models.MetricSample, error) {
	ctx = ensureContext(ctx)
	if sample == nil {
		return nil, fmt.Errorf("%w: sample is required", ErrInvalidMetrics)
	}

	dealer, err := s.loadDealer(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	if err := validateSample(sample); err != nil {
		return nil, err
	}

	sample.ID = ""
	sample.DealershipID = dealer.ID
	sample.TenantID = dealer.TenantID
	if sample.ObservedAt.IsZero() {
		sample.ObservedAt = s.now().UTC()
	}
	if sample.Source == "" {
		sample.Source = "api"
	}

	if err := s.db.WithContext(ctx).Create(sample).Error; err != nil {
		return nil, fmt.Errorf("score service: record metrics: %w", err)
	}
	return sample, nil
}

// LatestSample returns the newest metric sample.
func (s *ScoreService) LatestSample(ctx context.Context, dealerID string) (*models.MetricSample, error) {
	return latestSample(ctx, s.db, dealerID)
}

// RefreshFromFeed fetches a web performance snapshot and records it as a new
// sample that carries forward the dealership's other latest signals.
func (s *ScoreService) RefreshFromFeed(ctx context.Context, dealerID string) (*models.MetricSample, error) {
	ctx = ensureContext(ctx)
	if s.feed == nil {
		return nil, ErrFeedDisabled
	}

	dealer, err := s.loadDealer(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	snap, err := s.feed.Fetch(ctx, dealer.Domain)
	if err != nil {
		return nil, fmt.Errorf("score service: fetch feed: %w", err)
	}

	next := models.MetricSample{}
	if prev, err := latestSample(ctx, s.db, dealer.ID); err == nil {
		next = *prev
	} else if !errors.Is(err, ErrNoMetrics) {
		return nil, err
	}
	next.CreatedAt, next.UpdatedAt = time.Time{}, time.Time{}
	next.ObservedAt = snap.FetchedAt
	next.Source = "pagespeed"
	if snap.LCPSeconds != nil {
		next.LCPSeconds = snap.LCPSeconds
	}
	if snap.Performance > 0 {
		next.WX = scoring.Round(snap.Performance, 2)
	}
	if snap.SEO > 0 {
		next.SEOVisibility = scoring.Round(snap.SEO, 2)
	}
	return s.RecordMetrics(ctx, dealer.ID, &next)
}

// LearnWeights fits composite weights to recent outcomes and stores them.
// Samples carrying a lead count are the observations; revenue is derived
// from the dealership's deal value and close rate.
func (s *ScoreService) LearnWeights(ctx context.Context, since time.Time) (scoring.Weights, int, error) {
	ctx = ensureContext(ctx)

	current, err := database.LoadScoringWeights(ctx, s.db)
	if err != nil {
		logger.WithModule("scoring").Warn("stored weights unreadable, learning from defaults", zap.Error(err))
	}

	type row struct {
		models.MetricSample
		AvgDealValue float64
		CloseRate    float64
	}
	var rows []row
	err = s.db.WithContext(ctx).
		Table("metric_samples").
		Select("metric_samples.*, dealerships.avg_deal_value AS avg_deal_value, dealerships.close_rate AS close_rate").
		Joins("JOIN dealerships ON dealerships.id = metric_samples.dealership_id").
		Where("metric_samples.monthly_leads IS NOT NULL AND metric_samples.observed_at >= ?", since).
		Order("metric_samples.observed_at ASC").
		Limit(5000).
		Scan(&rows).Error
	if err != nil {
		return current, 0, fmt.Errorf("score service: load observations: %w", err)
	}
	if len(rows) < minLearningObservations {
		return current, len(rows), ErrInsufficientHistory
	}

	history := make([]scoring.Observation, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		leads := float64(*r.MonthlyLeads)
		closeRate := firstPositive(r.CloseRate, s.cfg.CloseRate)
		history = append(history, scoring.Observation{
			Metrics: pillarMetrics(&r.MetricSample),
			Outcome: scoring.Outcome{
				Leads:   leads,
				Revenue: leads * closeRate * firstPositive(r.AvgDealValue, s.cfg.AvgDealValue),
			},
		})
	}

	next := scoring.LearnWeights(history, current)
	if err := database.StoreScoringWeights(ctx, s.db, next); err != nil {
		return current, len(rows), fmt.Errorf("score service: store weights: %w", err)
	}
	return next, len(rows), nil
}

func (s *ScoreService) loadDealer(ctx context.Context, id string) (*models.Dealership, error) {
	return findDealership(ctx, s.db, id)
}

func (s *ScoreService) persistScore(ctx context.Context, dealer *models.Dealership, kind string, value float64, band string, details any, at time.Time) error {
	encoded, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("score service: encode %s details: %w", kind, err)
	}
	score := models.Score{
		DealershipID: dealer.ID,
		Kind:         kind,
		Value:        value,
		Band:         band,
		Details:      datatypes.JSON(encoded),
		ComputedAt:   at,
	}
	score.TenantID = dealer.TenantID
	if err := s.db.WithContext(ctx).Create(&score).Error; err != nil {
		return fmt.Errorf("score service: persist %s score: %w", kind, err)
	}
	metrics.LatestScore.WithLabelValues(dealer.ID, kind).Set(value)
	if s.events != nil {
		s.events.Publish(dealer.TenantID, realtime.StreamScores, realtime.EventScoreUpdated, score)
	}
	return nil
}

// readCache reports a hit. Cache failures are logged and treated as misses.
func (s *ScoreService) readCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := cache.GetJSON(ctx, s.cache, key, dst)
	if err != nil {
		logger.WithModule("scoring").Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (s *ScoreService) writeCache(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, value, ttl); err != nil {
		logger.WithModule("scoring").Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func validateSample(s *models.MetricSample) error {
	scores := map[string]float64{
		"piqr": s.PIQR, "hrp": s.HRP, "vai": s.VAI, "oci": s.OCI,
		"ati": s.ATI, "aiv": s.AIV, "vli": s.VLI, "oi": s.OI, "gbp": s.GBP,
		"rrs": s.RRS, "wx": s.WX, "ifr": s.IFR, "cis": s.CIS,
		"seo_visibility": s.SEOVisibility, "aeo_visibility": s.AEOVisibility,
		"geo_visibility": s.GEOVisibility, "social_visibility": s.SocialVisibility,
	}
	for name, v := range scores {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s must be between 0 and 100", ErrInvalidMetrics, name)
		}
	}
	if s.PolicyViolations < 0 || s.ParityDeltas < 0 || s.StalenessScore < 0 {
		return fmt.Errorf("%w: penalty inputs cannot be negative", ErrInvalidMetrics)
	}
	for name, v := range map[string]*float64{
		"review_response_hours": s.ReviewResponseHours,
		"review_velocity":       s.ReviewVelocity,
		"lcp_seconds":           s.LCPSeconds,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s cannot be negative", ErrInvalidMetrics, name)
		}
	}
	if s.MonthlyLeads != nil && *s.MonthlyLeads < 0 {
		return fmt.Errorf("%w: monthly_leads cannot be negative", ErrInvalidMetrics)
	}
	return nil
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstPositiveInt(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
