// Package jobs runs the scheduled scoring, sentinel and maintenance work.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/scoring"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/logger"
)

// Job names accepted by RunOnce.
const (
	JobDailyScoring  = "daily-scoring"
	JobSentinelSweep = "sentinel-sweep"
	JobCleanup       = "cleanup"
	JobLearnWeights  = "learn-weights"
)

const (
	defaultDailySpec     = "0 6 * * *"
	defaultSentinelSpec  = "@hourly"
	defaultCleanupSpec   = "@daily"
	defaultWeightsSpec   = "0 4 * * 1"
	defaultRetentionDays = 90
	defaultConcurrency   = 4
	learningLookback     = 90 * 24 * time.Hour
)

var (
	// ErrUnknownJob is returned for a name that is not registered.
	ErrUnknownJob = errors.New("jobs: unknown job")
	// ErrJobRunning is returned by Trigger while the job is already in flight.
	ErrJobRunning = errors.New("jobs: job already running")
)

// Dealerships lists the dealerships jobs operate on.
type Dealerships interface {
	ListActive(ctx context.Context) ([]models.Dealership, error)
	MarkScored(ctx context.Context, id string) error
}

// Scorer computes and learns dealership scores.
type Scorer interface {
	RecalculateQAI(ctx context.Context, dealerID string) (*services.QAIResult, error)
	CalculateComposite(ctx context.Context, dealerID string) (*services.CompositeScore, error)
	RecordRevenueAtRisk(ctx context.Context, dealerID string) (*services.RaRReport, error)
	RefreshFromFeed(ctx context.Context, dealerID string) (*models.MetricSample, error)
	LearnWeights(ctx context.Context, since time.Time) (scoring.Weights, int, error)
}

// SentinelRunner evaluates one dealership's thresholds.
type SentinelRunner interface {
	Run(ctx context.Context, dealerID string) ([]models.SentinelEvent, error)
}

// Result summarises one job execution.
type Result struct {
	Job       string        `json:"job"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
	Cleanup   *CleanupStats `json:"cleanup,omitempty"`
}

// Runner schedules the recurring jobs and runs them on demand.
type Runner struct {
	db          *gorm.DB
	dealerships Dealerships
	scores      Scorer
	sentinel    SentinelRunner
	audit       *services.AuditService
	cron        *cron.Cron
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
	log         *zap.Logger

	dailySchedule    string
	sentinelSchedule string
	cleanupSchedule  string
	weightsSchedule  string
	jitterWindow     time.Duration
	concurrency      int
	retention        int
	refreshFeeds     bool

	mu      sync.Mutex
	running map[string]bool

	// background outlives any request; Stop cancels it.
	background context.Context
	cancel     context.CancelFunc
	inflight   sync.WaitGroup
}

// Option customises the Runner.
type Option func(*Runner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *Runner) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithNow overrides the clock used for retention cutoffs.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSleep overrides how the daily run waits out each dealer's jitter.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// WithSchedules overrides the cron expressions. Empty values keep the defaults.
func WithSchedules(daily, sentinel, cleanup, weights string) Option {
	return func(r *Runner) {
		if daily != "" {
			r.dailySchedule = daily
		}
		if sentinel != "" {
			r.sentinelSchedule = sentinel
		}
		if cleanup != "" {
			r.cleanupSchedule = cleanup
		}
		if weights != "" {
			r.weightsSchedule = weights
		}
	}
}

// WithJitterWindow spreads the daily run over window.
func WithJitterWindow(window time.Duration) Option {
	return func(r *Runner) {
		if window >= 0 {
			r.jitterWindow = window
		}
	}
}

// WithConcurrency bounds how many dealers are processed at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithRetentionDays adjusts how long samples, events and audit logs are kept.
func WithRetentionDays(days int) Option {
	return func(r *Runner) {
		if days > 0 {
			r.retention = days
		}
	}
}

// WithFeedRefresh pulls a fresh metrics feed snapshot before each daily score.
func WithFeedRefresh(enabled bool) Option {
	return func(r *Runner) { r.refreshFeeds = enabled }
}

// NewRunner constructs a Runner. A nil dependency disables the jobs that need it.
func NewRunner(db *gorm.DB, dealerships Dealerships, scores Scorer, sentinel SentinelRunner, audit *services.AuditService, opts ...Option) *Runner {
	r := &Runner{
		db:               db,
		dealerships:      dealerships,
		scores:           scores,
		sentinel:         sentinel,
		audit:            audit,
		now:              time.Now,
		sleep:            sleepContext,
		log:              logger.WithModule("jobs"),
		dailySchedule:    defaultDailySpec,
		sentinelSchedule: defaultSentinelSpec,
		cleanupSchedule:  defaultCleanupSpec,
		weightsSchedule:  defaultWeightsSpec,
		jitterWindow:     30 * time.Minute,
		concurrency:      defaultConcurrency,
		retention:        defaultRetentionDays,
		running:          make(map[string]bool),
	}
	r.background, r.cancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		opt(r)
	}

	if r.cron == nil {
		r.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return r
}

// Jobs lists the names of the jobs this runner can execute.
func (r *Runner) Jobs() []string {
	var names []string
	if r.dealerships != nil && r.scores != nil {
		names = append(names, JobDailyScoring)
	}
	if r.dealerships != nil && r.sentinel != nil {
		names = append(names, JobSentinelSweep)
	}
	if r.db != nil || r.audit != nil {
		names = append(names, JobCleanup)
	}
	if r.scores != nil {
		names = append(names, JobLearnWeights)
	}
	sort.Strings(names)
	return names
}

// Start registers every available job with the cron scheduler and starts it.
func (r *Runner) Start() error {
	specs := map[string]string{
		JobDailyScoring:  r.dailySchedule,
		JobSentinelSweep: r.sentinelSchedule,
		JobCleanup:       r.cleanupSchedule,
		JobLearnWeights:  r.weightsSchedule,
	}
	jobs := r.Jobs()
	if len(jobs) == 0 {
		return nil
	}
	for _, job := range jobs {
		if _, err := r.cron.AddFunc(specs[job], func() {
			if _, err := r.RunOnce(r.background, job); err != nil {
				r.log.Warn("scheduled job failed", zap.String("job", job), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("jobs: schedule %s: %w", job, err)
		}
	}

	r.cron.Start()
	return nil
}

// Stop halts the scheduler and cancels triggered runs. The returned context
// is done once scheduled and triggered jobs have returned.
func (r *Runner) Stop() context.Context {
	r.cancel()
	cronDone := context.Background()
	if r.cron != nil {
		cronDone = r.cron.Stop()
	}
	ctx, done := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		r.inflight.Wait()
		done()
	}()
	return ctx
}

// Trigger starts job detached from the caller and returns at once. The run
// uses the runner's own context, so an HTTP scheduler that hangs up does not
// cancel pending dealers.
func (r *Runner) Trigger(job string) error {
	if !r.has(job) {
		return fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}
	if !r.acquire(job) {
		return fmt.Errorf("%w: %q", ErrJobRunning, job)
	}
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer r.release(job)
		if _, err := r.execute(r.background, job); err != nil {
			r.log.Warn("triggered job failed", zap.String("job", job), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every triggered run has returned.
func (r *Runner) Wait() {
	r.inflight.Wait()
}

// RunOnce executes one job synchronously. Per-dealer failures are aggregated
// into the returned error; the remaining dealers are still processed.
// A job that is already running is skipped.
func (r *Runner) RunOnce(ctx context.Context, job string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !r.has(job) {
		return Result{Job: job}, fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}
	if !r.acquire(job) {
		r.log.Info("job already running, skipping", zap.String("job", job))
		return Result{Job: job, Skipped: 1}, nil
	}
	defer r.release(job)
	return r.execute(ctx, job)
}

func (r *Runner) execute(ctx context.Context, job string) (Result, error) {
	started := time.Now()
	var (
		res Result
		err error
	)
	switch job {
	case JobDailyScoring:
		res, err = r.forEachDealer(ctx, job, r.scoreDealer)
	case JobSentinelSweep:
		res, err = r.forEachDealer(ctx, job, func(ctx context.Context, d models.Dealership) error {
			_, err := r.sentinel.Run(ctx, d.ID)
			return err
		})
	case JobCleanup:
		res, err = r.cleanup(ctx)
	case JobLearnWeights:
		res, err = r.learnWeights(ctx)
	}
	res.Job = job
	res.Duration = time.Since(started)

	outcome, message := "success", ""
	if err != nil {
		outcome, message = "failure", err.Error()
	}
	monitoring.RecordJobRun(job, outcome, message, res.Duration)
	r.log.Info("job finished",
		zap.String("job", job),
		zap.Int("processed", res.Processed),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Duration("duration", res.Duration),
		zap.Error(err),
	)
	return res, err
}

func (r *Runner) has(job string) bool {
	for _, name := range r.Jobs() {
		if name == job {
			return true
		}
	}
	return false
}

func (r *Runner) acquire(job string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running[job] {
		return false
	}
	r.running[job] = true
	return true
}

func (r *Runner) release(job string) {
	r.mu.Lock()
	delete(r.running, job)
	r.mu.Unlock()
}

// forEachDealer applies fn to every active dealership with bounded concurrency.
func (r *Runner) forEachDealer(ctx context.Context, job string, fn func(context.Context, models.Dealership) error) (Result, error) {
	dealers, err := r.dealerships.ListActive(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("jobs: %s: list dealerships: %w", job, err)
	}

	var (
		mu   sync.Mutex
		res  Result
		errs error
	)
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for _, dealer := range dealers {
		g.Go(func() error {
			err := fn(ctx, dealer)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Processed++
			case errors.Is(err, services.ErrNoMetrics):
				res.Skipped++
			default:
				res.Failed++
				errs = multierr.Append(errs, fmt.Errorf("%s %s: %w", job, dealer.ID, err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return res, errs
}

// scoreDealer waits out the dealer's jitter, then refreshes its QAI, composite
// and the day's revenue-at-risk point.
func (r *Runner) scoreDealer(ctx context.Context, dealer models.Dealership) error {
	if err := r.sleep(ctx, scoring.Jitter(dealer.ID, r.jitterWindow)); err != nil {
		return err
	}

	if r.refreshFeeds {
		if _, err := r.scores.RefreshFromFeed(ctx, dealer.ID); err != nil && !errors.Is(err, services.ErrFeedDisabled) {
			r.log.Warn("feed refresh failed", zap.String("dealership_id", dealer.ID), zap.Error(err))
		}
	}

	if _, err := r.scores.RecalculateQAI(ctx, dealer.ID); err != nil {
		return err
	}
	if _, err := r.scores.CalculateComposite(ctx, dealer.ID); err != nil {
		return err
	}
	if _, err := r.scores.RecordRevenueAtRisk(ctx, dealer.ID); err != nil {
		return err
	}
	return r.dealerships.MarkScored(ctx, dealer.ID)
}

func (r *Runner) cleanup(ctx context.Context) (Result, error) {
	var (
		res  Result
		errs error
	)
	if r.db != nil {
		now := r.now()
		stats, err := CleanupData(ctx, r.db, now, now.AddDate(0, 0, -r.retention))
		res.Cleanup = &stats
		res.Processed += int(stats.CacheEntries + stats.MetricSamples + stats.SentinelEvents + stats.Scores)
		errs = multierr.Append(errs, err)
	}
	if r.audit != nil {
		removed, err := r.audit.CleanupOlderThan(ctx, r.retention)
		res.Processed += int(removed)
		errs = multierr.Append(errs, err)
	}
	return res, errs
}

func (r *Runner) learnWeights(ctx context.Context) (Result, error) {
	_, n, err := r.scores.LearnWeights(ctx, r.now().Add(-learningLookback))
	if errors.Is(err, services.ErrInsufficientHistory) {
		return Result{Skipped: n}, nil
	}
	if err != nil {
		return Result{Failed: 1}, err
	}
	return Result{Processed: n}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
