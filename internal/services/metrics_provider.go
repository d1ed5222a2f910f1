package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/feeds"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/scoring"
)

// ErrNoMetrics is returned when a dealership has no metric samples yet.
var ErrNoMetrics = errors.New("score service: no metrics recorded for dealership")

// MetricsProvider supplies the four QAI sub-metrics for a dealership.
type MetricsProvider interface {
	FetchSubMetrics(ctx context.Context, dealer *models.Dealership) (scoring.QAIInputs, error)
}

// FeedFetcher pulls a fresh web performance snapshot for a domain.
type FeedFetcher interface {
	Fetch(ctx context.Context, domain string) (*feeds.Snapshot, error)
}

// SampleMetricsProvider reads sub-metrics from the newest MetricSample.
type SampleMetricsProvider struct {
	db *gorm.DB
}

// NewSampleMetricsProvider constructs a SampleMetricsProvider.
func NewSampleMetricsProvider(db *gorm.DB) *SampleMetricsProvider {
	return &SampleMetricsProvider{db: db}
}

// FetchSubMetrics implements MetricsProvider.
func (p *SampleMetricsProvider) FetchSubMetrics(ctx context.Context, dealer *models.Dealership) (scoring.QAIInputs, error) {
	sample, err := latestSample(ctx, p.db, dealer.ID)
	if err != nil {
		return scoring.QAIInputs{}, err
	}
	return scoring.QAIInputs{PIQR: sample.PIQR, HRP: sample.HRP, VAI: sample.VAI, OCI: sample.OCI}, nil
}

func latestSample(ctx context.Context, db *gorm.DB, dealerID string) (*models.MetricSample, error) {
	var sample models.MetricSample
	err := db.WithContext(ensureContext(ctx)).
		Where("dealership_id = ?", dealerID).
		Order("observed_at DESC").
		Take(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoMetrics
	}
	if err != nil {
		return nil, fmt.Errorf("score service: load latest sample: %w", err)
	}
	return &sample, nil
}

func recentSamples(ctx context.Context, db *gorm.DB, dealerID string, limit int) ([]models.MetricSample, error) {
	var samples []models.MetricSample
	err := db.WithContext(ensureContext(ctx)).
		Where("dealership_id = ?", dealerID).
		Order("observed_at DESC").
		Limit(limit).
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("load recent samples: %w", err)
	}
	return samples, nil
}

func pillarMetrics(s *models.MetricSample) scoring.PillarMetrics {
	return scoring.PillarMetrics{
		ATI:              s.ATI,
		AIV:              s.AIV,
		VLI:              s.VLI,
		OI:               s.OI,
		GBP:              s.GBP,
		RRS:              s.RRS,
		WX:               s.WX,
		IFR:              s.IFR,
		CIS:              s.CIS,
		PolicyViolations: s.PolicyViolations,
		ParityDeltas:     s.ParityDeltas,
		StalenessScore:   s.StalenessScore,
	}
}
