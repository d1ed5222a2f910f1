package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRevenueAtRiskGapTimesLeadsTimesDealValue(t *testing.T) {
	res := RevenueAtRisk(RaRInput{
		VisibilityScore: 60,
		TargetScore:     85,
		MonthlyLeads:    400,
		AvgDealValue:    3000,
		CloseRate:       0.1,
	})

	require.Equal(t, 25.0, res.GapPercent)
	require.Equal(t, 100.0, res.LeadsAtRisk)
	require.Equal(t, 30000.0, res.MonthlyAtRisk)
	require.Equal(t, 360000.0, res.AnnualAtRisk)
}

func TestRevenueAtRiskZeroWhenAboveTarget(t *testing.T) {
	res := RevenueAtRisk(RaRInput{VisibilityScore: 92, TargetScore: 85, MonthlyLeads: 400, AvgDealValue: 3000})
	require.Zero(t, res.MonthlyAtRisk)
	require.Zero(t, res.GapPercent)
}

func TestRevenueAtRiskDefaultsCloseRate(t *testing.T) {
	res := RevenueAtRisk(RaRInput{VisibilityScore: 50, TargetScore: 60, MonthlyLeads: 100, AvgDealValue: 1000})
	require.Equal(t, 10000.0, res.MonthlyAtRisk)
}

func TestBenchmarkForBrand(t *testing.T) {
	require.Equal(t, "luxury", BenchmarkForBrand("BMW").Segment)
	require.Equal(t, "economy", BenchmarkForBrand(" hyundai ").Segment)
	require.Equal(t, "automotive", BenchmarkForBrand("Ford").Segment)
}

func TestBenchmarkRevenueAtRisk(t *testing.T) {
	res := BenchmarkRevenueAtRisk("Ford", ChannelScores{Overall: 55, SEO: 70, AEO: 45, GEO: 60, Social: 65})

	// (65-55) * 1500
	require.Equal(t, 15000.0, res.MonthlyAtRisk)
	require.Equal(t, 180000.0, res.AnnualAtRisk)
	require.Equal(t, 30, res.PercentileRank)
	require.Zero(t, res.Channels.OrganicSearch)
	require.InDelta(t, 9000, res.Channels.AISearch, 1e-9)
	require.InDelta(t, 1500, res.Channels.LocalSearch, 1e-9)
	require.Len(t, res.Actions, 2)
	require.Equal(t, "high", res.Actions[0].Priority)
	require.GreaterOrEqual(t, res.Confidence, 0.5)
	require.LessOrEqual(t, res.Confidence, 0.95)
}

func TestBenchmarkRevenueAtRiskNeverNegative(t *testing.T) {
	res := BenchmarkRevenueAtRisk("Porsche", ChannelScores{Overall: 95, SEO: 95, AEO: 95, GEO: 95, Social: 95})
	require.Zero(t, res.MonthlyAtRisk)
	require.Empty(t, res.Actions)
	require.Equal(t, 95, res.PercentileRank)
}
