package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/database/testutil"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/scoring"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
)

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

type fixture struct {
	db          *gorm.DB
	tenant      *models.Tenant
	dealerships *services.DealershipService
	scores      *services.ScoreService
	sentinel    *services.SentinelService
	audit       *services.AuditService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)
	dealerships, err := services.NewDealershipService(db, auditSvc)
	require.NoError(t, err)
	scores, err := services.NewScoreService(db, nil, services.ScoreConfig{})
	require.NoError(t, err)
	sentinelSvc, err := services.NewSentinelService(db, auditSvc, services.SentinelConfig{}, nil, nil)
	require.NoError(t, err)
	return fixture{
		db:          db,
		tenant:      testutil.MustCreateTenant(t, db, "acme"),
		dealerships: dealerships,
		scores:      scores,
		sentinel:    sentinelSvc,
		audit:       auditSvc,
	}
}

func recordSample(t *testing.T, db *gorm.DB, dealer *models.Dealership, observed time.Time, mutate func(*models.MetricSample)) {
	t.Helper()
	sample := &models.MetricSample{DealershipID: dealer.ID, ObservedAt: observed, Source: "test"}
	sample.TenantID = dealer.TenantID
	if mutate != nil {
		mutate(sample)
	}
	require.NoError(t, db.Create(sample).Error)
}

func TestRunnerDailyScoring(t *testing.T) {
	f := newFixture(t)
	scored := testutil.MustCreateDealership(t, f.db, f.tenant.ID, "sunsetford.com")
	empty := testutil.MustCreateDealership(t, f.db, f.tenant.ID, "emptyford.com")
	recordSample(t, f.db, scored, time.Now(), func(s *models.MetricSample) {
		s.PIQR, s.HRP, s.VAI, s.OCI = 60, 60, 60, 60
		s.ATI, s.AIV, s.VLI = 60, 60, 60
	})

	sleeper := &sleepRecorder{}
	runner := NewRunner(f.db, f.dealerships, f.scores, f.sentinel, f.audit,
		WithSleep(sleeper.Sleep),
		WithJitterWindow(30*time.Minute),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	res, err := runner.RunOnce(context.Background(), JobDailyScoring)
	require.NoError(t, err)
	require.Equal(t, JobDailyScoring, res.Job)
	require.Equal(t, 1, res.Processed)
	require.Equal(t, 1, res.Skipped)
	require.Zero(t, res.Failed)

	require.ElementsMatch(t, []time.Duration{
		scoring.Jitter(scored.ID, 30*time.Minute),
		scoring.Jitter(empty.ID, 30*time.Minute),
	}, sleeper.waits)

	reloaded, err := f.dealerships.Get(context.Background(), f.tenant.ID, scored.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastScoredAt)

	var kinds []string
	require.NoError(t, f.db.Model(&models.Score{}).Where("dealership_id = ?", scored.ID).Order("kind").Pluck("kind", &kinds).Error)
	require.Equal(t, []string{models.ScoreKindComposite, models.ScoreKindQAI, models.ScoreKindRaR}, kinds)
}

func TestRunnerDailyScoringHonoursCancellation(t *testing.T) {
	f := newFixture(t)
	testutil.MustCreateDealership(t, f.db, f.tenant.ID, "sunsetford.com")
	runner := NewRunner(f.db, f.dealerships, f.scores, f.sentinel, f.audit, WithJitterWindow(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.RunOnce(ctx, JobDailyScoring)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunnerTriggerRunsDetached(t *testing.T) {
	f := newFixture(t)
	dealer := testutil.MustCreateDealership(t, f.db, f.tenant.ID, "sunsetford.com")
	recordSample(t, f.db, dealer, time.Now(), func(s *models.MetricSample) {
		s.PIQR, s.HRP, s.VAI, s.OCI = 60, 60, 60, 60
		s.ATI, s.AIV, s.VLI = 60, 60, 60
	})

	release := make(chan struct{})
	runner := NewRunner(f.db, f.dealerships, f.scores, f.sentinel, f.audit,
		WithJitterWindow(30*time.Minute),
		WithSleep(func(ctx context.Context, _ time.Duration) error {
			select {
			case <-release:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
	)

	require.NoError(t, runner.Trigger(JobDailyScoring))
	require.ErrorIs(t, runner.Trigger(JobDailyScoring), ErrJobRunning)
	require.ErrorIs(t, runner.Trigger("reticulate"), ErrUnknownJob)

	// the jitter wait is still pending; nothing has been scored yet
	var scored int64
	require.NoError(t, f.db.Model(&models.Score{}).Count(&scored).Error)
	require.Zero(t, scored)

	close(release)
	runner.Wait()

	reloaded, err := f.dealerships.Get(context.Background(), f.tenant.ID, dealer.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastScoredAt)

	// the job lock is released once the detached run returns
	res, err := runner.RunOnce(context.Background(), JobSentinelSweep)
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)
	require.NoError(t, runner.Trigger(JobDailyScoring))
	runner.Wait()
}

func TestRunnerStopCancelsTriggeredRuns(t *testing.T) {
	f := newFixture(t)
	dealer := testutil.MustCreateDealership(t, f.db, f.tenant.ID, "sunsetford.com")
	recordSample(t, f.db, dealer, time.Now(), nil)

	runner := NewRunner(f.db, f.dealerships, f.scores, f.sentinel, f.audit,
		WithSleep(func(ctx context.Context, _ time.Duration) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	require.NoError(t, runner.Trigger(JobDailyScoring))

	select {
	case <-runner.Stop().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not wait out the cancelled run")
	}

	reloaded, err := f.dealerships.Get(context.Background(), f.tenant.ID, dealer.ID)
	require.NoError(t, err)
	require.Nil(t, reloaded.LastScoredAt)
}

type failingScorer struct {
	failID string
}

func (s *failingScorer) RecalculateQAI(ctx context.Context, dealerID string) (*services.QAIResult, error) {
	if dealerID == s.failID {
		return nil, errors.New("provider unavailable")
	}
	return &services.QAIResult{DealershipID: dealerID}, nil
}

func (s *failingScorer) CalculateComposite(context.Context, string) (*services.CompositeScore, error) {
	return &services.CompositeScore{}, nil
}

func (s *failingScorer) RecordRevenueAtRisk(context.Context, string) (*services.RaRReport, error) {
	return &services.RaRReport{}, nil
}

func (s *failingScorer) RefreshFromFeed(context.Context, string) (*models.MetricSample, error) {
	return nil, services.ErrFeedDisabled
}

func (s *failingScorer) LearnWeights(context.Context, time.Time) (scoring.Weights, int, error) {
	return scoring.DefaultWeights(), 3, services.ErrInsufficientHistory
}

func TestRunnerAggregatesDealerFailures(t *testing.T) {
	f := newFixture(t)
	bad := testutil.MustCreateDealership(t, f.db, f.tenant.ID, "badford.com")
	testutil.MustCreateDealership(t, f.db, f.tenant.ID, "goodford.com")
	testutil.MustCreateDealership(t, f.db, f.tenant.ID, "otherford.com")

	runner := NewRunner(f.db, f.dealerships, &failingScorer{failID: bad.ID}, f.sentinel, f.audit,
		WithJitterWindow(0),
		WithFeedRefresh(true),
		WithConcurrency(2),
	)

	res, err := runner.RunOnce(context.Background(), JobDailyScoring)
	require.Error(t, err)
	require.Contains(t, err.Error(), bad.ID)
	require.Equal(t, 2, res.Processed)
	require.Equal(t, 1, res.Failed)

	weights, err := runner.RunOnce(context.Background(), JobLearnWeights)
	require.NoError(t, err)
	require.Equal(t, 3, weights.Skipped)
}

func TestRunnerSentinelSweep(t *testing.T) {
	f := newFixture(t)
	dealer := testutil.MustCreateDealership(t, f.db, f.tenant.ID, "sunsetford.com")
	recordSample(t, f.db, dealer, time.Now(), func(s *models.MetricSample) {
		s.VLI = 40
	})

	runner := NewRunner(f.db, f.dealerships, f.scores, f.sentinel, f.audit)
	res, err := runner.RunOnce(context.Background(), JobSentinelSweep)
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)

	var events int64
	require.NoError(t, f.db.Model(&models.SentinelEvent{}).Count(&events).Error)
	require.EqualValues(t, 1, events)
}

func TestRunnerCleanup(t *testing.T) {
	f := newFixture(t)
	dealer := testutil.MustCreateDealership(t, f.db, f.tenant.ID, "sunsetford.com")
	now := time.Now()

	recordSample(t, f.db, dealer, now.AddDate(0, 0, -30), nil)
	recordSample(t, f.db, dealer, now, nil)
	require.NoError(t, f.db.Create(&models.CacheEntry{Key: "stale", Value: []byte("1"), ExpiresAt: now.Add(-time.Minute)}).Error)
	require.NoError(t, f.db.Create(&models.CacheEntry{Key: "fresh", Value: []byte("1"), ExpiresAt: now.Add(time.Hour)}).Error)
	require.NoError(t, f.db.Create(&models.CacheEntry{Key: "pinned", Value: []byte("1")}).Error)
	for _, at := range []time.Time{now.AddDate(0, 0, -30), now.Add(-time.Hour)} {
		score := models.Score{DealershipID: dealer.ID, Kind: models.ScoreKindRaR, Value: 1000, ComputedAt: at}
		score.TenantID = dealer.TenantID
		require.NoError(t, f.db.Create(&score).Error)
	}

	acked := now.AddDate(0, 0, -30)
	oldEvent := models.SentinelEvent{DealershipID: dealer.ID, Metric: "vli", Severity: "warning", Title: "old", AcknowledgedAt: &acked}
	oldEvent.TenantID = dealer.TenantID
	require.NoError(t, f.db.Create(&oldEvent).Error)
	require.NoError(t, f.db.Model(&oldEvent).Update("created_at", acked).Error)

	require.NoError(t, f.audit.Log(context.Background(), services.AuditEntry{Action: "test.action", Result: "success"}))
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("1 = 1").Update("created_at", now.AddDate(0, 0, -30)).Error)

	runner := NewRunner(f.db, f.dealerships, f.scores, f.sentinel, f.audit,
		WithRetentionDays(7),
		WithNow(func() time.Time { return now }),
	)
	res, err := runner.RunOnce(context.Background(), JobCleanup)
	require.NoError(t, err)
	require.NotNil(t, res.Cleanup)
	require.EqualValues(t, 1, res.Cleanup.CacheEntries)
	require.EqualValues(t, 1, res.Cleanup.MetricSamples)
	require.EqualValues(t, 1, res.Cleanup.SentinelEvents)
	require.EqualValues(t, 1, res.Cleanup.Scores)

	count := func(model any) int64 {
		var n int64
		require.NoError(t, f.db.Model(model).Count(&n).Error)
		return n
	}
	require.EqualValues(t, 1, count(&models.MetricSample{}))
	require.EqualValues(t, 2, count(&models.CacheEntry{}))
	require.EqualValues(t, 1, count(&models.Score{}))
	require.EqualValues(t, 0, count(&models.AuditLog{}))
}

func TestRunnerUnknownJobAndSchedules(t *testing.T) {
	f := newFixture(t)
	runner := NewRunner(f.db, f.dealerships, f.scores, f.sentinel, f.audit)
	require.Equal(t, []string{JobCleanup, JobDailyScoring, JobLearnWeights, JobSentinelSweep}, runner.Jobs())

	_, err := runner.RunOnce(context.Background(), "reindex")
	require.ErrorIs(t, err, ErrUnknownJob)

	bad := NewRunner(f.db, f.dealerships, f.scores, f.sentinel, f.audit, WithSchedules("not a cron expression", "", "", ""))
	require.Error(t, bad.Start())

	onlyCleanup := NewRunner(f.db, nil, nil, nil, nil)
	require.Equal(t, []string{JobCleanup}, onlyCleanup.Jobs())
	require.NoError(t, onlyCleanup.Start())
	<-onlyCleanup.Stop().Done()
}
