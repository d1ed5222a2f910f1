package sentinel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

func ptr(v float64) *float64 { return &v }

func findMetric(findings []Finding, metric string) (Finding, bool) {
	for _, f := range findings {
		if f.Metric == metric {
			return f, true
		}
	}
	return Finding{}, false
}

func TestEvaluateNoSamples(t *testing.T) {
	require.Nil(t, Evaluate(nil, DefaultThresholds()))
}

func TestEvaluateHealthySample(t *testing.T) {
	sample := models.MetricSample{
		ObservedAt:          time.Now(),
		VLI:                 82,
		AIV:                 75,
		ReviewResponseHours: ptr(2),
		ReviewVelocity:      ptr(1.1),
		LCPSeconds:          ptr(2.1),
	}
	require.Empty(t, Evaluate([]models.MetricSample{sample}, DefaultThresholds()))
}

func TestEvaluateLevelSeverities(t *testing.T) {
	sample := models.MetricSample{
		ObservedAt: time.Now(),
		VLI:        65,
		AIV:        35,
		LCPSeconds: ptr(4.5),
	}
	findings := Evaluate([]models.MetricSample{sample}, DefaultThresholds())

	vli, ok := findMetric(findings, MetricVLI)
	require.True(t, ok)
	require.Equal(t, models.SeverityWarning, vli.Severity)
	require.Equal(t, 70.0, vli.Threshold)

	aiv, ok := findMetric(findings, MetricAIV)
	require.True(t, ok)
	require.Equal(t, models.SeverityCritical, aiv.Severity)

	lcp, ok := findMetric(findings, MetricLCP)
	require.True(t, ok)
	require.Equal(t, models.SeverityCritical, lcp.Severity)
	require.Equal(t, models.SeverityCritical, HighestSeverity(findings))
}

func TestEvaluateSkipsUnreportedScores(t *testing.T) {
	findings := Evaluate([]models.MetricSample{{ObservedAt: time.Now()}}, DefaultThresholds())
	require.Empty(t, findings)
}

func TestEvaluateReviewCrisis(t *testing.T) {
	sample := models.MetricSample{
		ObservedAt:          time.Now(),
		ReviewResponseHours: ptr(5.2),
		ReviewVelocity:      ptr(0.75),
	}
	findings := Evaluate([]models.MetricSample{sample}, DefaultThresholds())
	require.Len(t, findings, 1)
	require.Equal(t, MetricReviewResponseHours, findings[0].Metric)
	require.Equal(t, models.SeverityCritical, findings[0].Severity)
}

func TestEvaluateSlowResponsesOnly(t *testing.T) {
	sample := models.MetricSample{
		ObservedAt:          time.Now(),
		ReviewResponseHours: ptr(5),
		ReviewVelocity:      ptr(1.0),
	}
	findings := Evaluate([]models.MetricSample{sample}, DefaultThresholds())
	require.Len(t, findings, 1)
	require.Equal(t, models.SeverityWarning, findings[0].Severity)

	sample.ReviewResponseHours = ptr(9)
	findings = Evaluate([]models.MetricSample{sample}, DefaultThresholds())
	require.Len(t, findings, 1)
	require.Equal(t, models.SeverityCritical, findings[0].Severity)
}

func TestEvaluateQAIDropUsesOldestAndNewest(t *testing.T) {
	base := time.Now().Add(-8 * time.Hour)
	samples := []models.MetricSample{
		{ObservedAt: base.Add(7 * time.Hour), PIQR: 60, HRP: 60, VAI: 60, OCI: 60},
		{ObservedAt: base, PIQR: 80, HRP: 80, VAI: 80, OCI: 80},
		{ObservedAt: base.Add(3 * time.Hour), PIQR: 70, HRP: 70, VAI: 70, OCI: 70},
	}
	findings := Evaluate(samples, DefaultThresholds())
	drop, ok := findMetric(findings, MetricQAIDrop)
	require.True(t, ok)
	require.Equal(t, 20.0, drop.Value)
	require.Equal(t, models.SeverityWarning, drop.Severity)

	// rising scores never raise a trend finding
	samples[0].PIQR, samples[0].HRP, samples[0].VAI, samples[0].OCI = 90, 90, 90, 90
	_, ok = findMetric(Evaluate(samples, DefaultThresholds()), MetricQAIDrop)
	require.False(t, ok)
}

func TestThresholdsWithDefaults(t *testing.T) {
	th := Thresholds{VLIWarning: 75}.WithDefaults()
	require.Equal(t, 75.0, th.VLIWarning)
	require.Equal(t, 50.0, th.VLICritical)
	require.Equal(t, 0.85, th.ReviewVelocity)
}
