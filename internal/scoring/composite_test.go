package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func uniformMetrics(v float64) PillarMetrics {
	return PillarMetrics{ATI: v, AIV: v, VLI: v, OI: v, GBP: v, RRS: v, WX: v, IFR: v, CIS: v}
}

func TestDefaultWeightsAreValid(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
}

func TestCompositeWithoutPenalties(t *testing.T) {
	res, err := Composite(uniformMetrics(80), DefaultWeights())
	require.NoError(t, err)

	require.InDelta(t, 80, res.Score, 1e-9)
	require.Equal(t, 100, res.DataQuality)
	require.Equal(t, 95.0, res.Confidence)
	require.Empty(t, res.Recommendations)
	require.Zero(t, res.Penalties.Total)
}

func TestCompositeAppliesCappedPenalties(t *testing.T) {
	m := uniformMetrics(80)
	m.PolicyViolations = 2
	m.ParityDeltas = 1
	m.StalenessScore = 10

	res, err := Composite(m, DefaultWeights())
	require.NoError(t, err)

	require.InDelta(t, 0.3, res.Penalties.Policy, 1e-9)
	require.InDelta(t, 0.1, res.Penalties.Parity, 1e-9)
	require.InDelta(t, 0.2, res.Penalties.Staleness, 1e-9)
	require.InDelta(t, 32, res.Score, 1e-9)
	require.Equal(t, []string{
		"Address 2 policy violations immediately",
		"Fix data parity issues across listing platforms",
	}, res.Recommendations)
}

func TestCompositeNeverNegative(t *testing.T) {
	m := uniformMetrics(50)
	m.PolicyViolations = 100
	m.ParityDeltas = 100
	m.StalenessScore = 100

	res, err := Composite(m, DefaultWeights())
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.Score, 0.0)
}

func TestCompositeRejectsBadWeights(t *testing.T) {
	w := DefaultWeights()
	w.Pillars[PillarATI] = 0.5

	_, err := Composite(uniformMetrics(70), w)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidWeights))
}

func TestDataQualityPenalisesMissingPillars(t *testing.T) {
	m := uniformMetrics(80)
	m.ATI = 0
	require.Equal(t, 68, DataQuality(m))
}

func TestRecommendationsCappedAtFive(t *testing.T) {
	recs := Recommendations(uniformMetrics(10), DefaultWeights())
	require.Len(t, recs, 5)
	require.Contains(t, recs[0], "algorithmic trust")
}

func TestLearnWeightsFavoursCorrelatedPillar(t *testing.T) {
	history := make([]Observation, 0, 5)
	for i := 0; i < 5; i++ {
		m := uniformMetrics(60)
		m.AIV = float64(40 + i*10)
		history = append(history, Observation{
			Metrics: m,
			Outcome: Outcome{Leads: float64(100 + i*20)},
		})
	}

	current := DefaultWeights()
	next := LearnWeights(history, current)

	require.InDelta(t, 1.0, next.Sum(), 1e-9)
	require.Greater(t, next.Pillars[PillarAIV], current.Pillars[PillarAIV])
	require.Less(t, next.Pillars[PillarATI], current.Pillars[PillarATI])
	require.Equal(t, current.PolicyPenalty, next.PolicyPenalty)
	require.Equal(t, 0.20, current.Pillars[PillarAIV], "input weights must not be mutated")
}

func TestCorrelation(t *testing.T) {
	require.InDelta(t, 1.0, Correlation([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	require.InDelta(t, -1.0, Correlation([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)
	require.Zero(t, Correlation([]float64{5, 5, 5}, []float64{1, 2, 3}))
	require.Zero(t, Correlation(nil, nil))
}
