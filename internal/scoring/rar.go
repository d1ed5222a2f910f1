package scoring

import (
	"math"
	"sort"
	"strings"
)

// RaRInput describes a dealer's visibility position for revenue-at-risk estimation.
type RaRInput struct {
	VisibilityScore float64 `json:"visibility_score"`
	TargetScore     float64 `json:"target_score"`
	MonthlyLeads    float64 `json:"monthly_leads"`
	AvgDealValue    float64 `json:"avg_deal_value"`
	// CloseRate converts leads to deals. Zero means every lead counts as a deal.
	CloseRate float64 `json:"close_rate"`
}

// RaRResult is a revenue-at-risk estimate in currency units.
type RaRResult struct {
	GapPercent     float64 `json:"gap_percent"`
	LeadsAtRisk    float64 `json:"leads_at_risk"`
	MonthlyAtRisk  float64 `json:"monthly_at_risk"`
	AnnualAtRisk   float64 `json:"annual_at_risk"`
	VisibilityUsed float64 `json:"visibility_used"`
}

// RevenueAtRisk multiplies the visibility gap percentage by lead volume and deal value.
func RevenueAtRisk(in RaRInput) RaRResult {
	score := clampScore(in.VisibilityScore)
	target := clampScore(in.TargetScore)
	gap := math.Max(0, target-score) / 100

	closeRate := in.CloseRate
	if closeRate <= 0 || closeRate > 1 {
		closeRate = 1
	}
	leads := math.Max(0, in.MonthlyLeads) * gap
	monthly := leads * closeRate * math.Max(0, in.AvgDealValue)

	return RaRResult{
		GapPercent:     Round(gap*100, 2),
		LeadsAtRisk:    Round(leads, 2),
		MonthlyAtRisk:  Round(monthly, 2),
		AnnualAtRisk:   Round(monthly*12, 2),
		VisibilityUsed: score,
	}
}

// Benchmark is an industry segment's revenue profile.
type Benchmark struct {
	Segment               string  `json:"segment"`
	AverageMonthlyRevenue float64 `json:"average_monthly_revenue"`
	AverageVisibility     float64 `json:"average_visibility"`
	ElasticityPerPoint    float64 `json:"elasticity_per_point"`
	MarketGrowthRate      float64 `json:"market_growth_rate"`
}

var (
	benchmarkAutomotive = Benchmark{"automotive", 2_500_000, 65, 1500, 0.03}
	benchmarkLuxury     = Benchmark{"luxury", 5_000_000, 70, 2500, 0.05}
	benchmarkEconomy    = Benchmark{"economy", 1_500_000, 60, 1000, 0.02}

	luxuryBrands  = []string{"bmw", "mercedes-benz", "audi", "lexus", "porsche", "jaguar", "land rover"}
	economyBrands = []string{"kia", "hyundai", "nissan", "mitsubishi", "subaru"}
)

// BenchmarkForBrand maps a vehicle brand to its segment benchmark (automotive by default).
func BenchmarkForBrand(brand string) Benchmark {
	b := strings.ToLower(strings.TrimSpace(brand))
	for _, name := range luxuryBrands {
		if b == name {
			return benchmarkLuxury
		}
	}
	for _, name := range economyBrands {
		if b == name {
			return benchmarkEconomy
		}
	}
	return benchmarkAutomotive
}

// ChannelScores breaks visibility down by discovery channel.
type ChannelScores struct {
	Overall float64 `json:"overall"`
	SEO     float64 `json:"seo"`
	AEO     float64 `json:"aeo"`
	GEO     float64 `json:"geo"`
	Social  float64 `json:"social"`
}

// ChannelImpact is the monthly revenue at risk per channel.
type ChannelImpact struct {
	OrganicSearch float64 `json:"organic_search"`
	AISearch      float64 `json:"ai_search"`
	LocalSearch   float64 `json:"local_search"`
	SocialMedia   float64 `json:"social_media"`
}

// ImpactAction is a ranked improvement suggestion with its estimated monthly value.
type ImpactAction struct {
	Priority        string  `json:"priority"`
	Action          string  `json:"action"`
	EstimatedImpact float64 `json:"estimated_impact"`
	Effort          string  `json:"effort"`
}

// BenchmarkImpact is the benchmark-relative revenue estimate.
type BenchmarkImpact struct {
	Benchmark      Benchmark      `json:"benchmark"`
	MonthlyAtRisk  float64        `json:"monthly_at_risk"`
	AnnualAtRisk   float64        `json:"annual_at_risk"`
	Confidence     float64        `json:"confidence"`
	PercentileRank int            `json:"percentile_rank"`
	Channels       ChannelImpact  `json:"channels"`
	Actions        []ImpactAction `json:"actions"`
}

const (
	channelWeightSEO    = 0.4
	channelWeightAEO    = 0.3
	channelWeightGEO    = 0.2
	channelWeightSocial = 0.1
)

// BenchmarkRevenueAtRisk estimates revenue at risk from the gap to the segment's average visibility.
func BenchmarkRevenueAtRisk(brand string, scores ChannelScores) BenchmarkImpact {
	b := BenchmarkForBrand(brand)
	monthly := math.Max(0, (b.AverageVisibility-scores.Overall)*b.ElasticityPerPoint)

	channel := func(score, weight float64) float64 {
		return math.Max(0, (b.AverageVisibility-score)*b.ElasticityPerPoint*weight)
	}
	impact := ChannelImpact{
		OrganicSearch: channel(scores.SEO, channelWeightSEO),
		AISearch:      channel(scores.AEO, channelWeightAEO),
		LocalSearch:   channel(scores.GEO, channelWeightGEO),
		SocialMedia:   channel(scores.Social, channelWeightSocial),
	}

	actions := make([]ImpactAction, 0, 4)
	add := func(score float64, impact float64, a ImpactAction) {
		if score < b.AverageVisibility {
			a.EstimatedImpact = Round(impact, 2)
			actions = append(actions, a)
		}
	}
	add(scores.SEO, impact.OrganicSearch, ImpactAction{Priority: "high", Action: "Improve SEO visibility through content and technical fixes", Effort: "medium"})
	add(scores.AEO, impact.AISearch, ImpactAction{Priority: "high", Action: "Optimise for AI answer engines with structured data", Effort: "high"})
	add(scores.GEO, impact.LocalSearch, ImpactAction{Priority: "medium", Action: "Strengthen local presence through the business profile", Effort: "low"})
	add(scores.Social, impact.SocialMedia, ImpactAction{Priority: "low", Action: "Increase social engagement", Effort: "medium"})
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].EstimatedImpact > actions[j].EstimatedImpact })

	return BenchmarkImpact{
		Benchmark:      b,
		MonthlyAtRisk:  Round(monthly, 2),
		AnnualAtRisk:   Round(monthly*12, 2),
		Confidence:     channelConfidence(scores),
		PercentileRank: PercentileRank(scores.Overall),
		Channels:       impact,
		Actions:        actions,
	}
}

// channelConfidence is higher when channel scores agree; bounded to [0.5, 0.95].
func channelConfidence(s ChannelScores) float64 {
	values := []float64{s.Overall, s.SEO, s.AEO, s.GEO, s.Social}
	stddev := math.Sqrt(variance(values))
	return Round(Clamp(1-stddev/50, 0.5, 0.95), 4)
}

// PercentileRank maps a visibility score to an approximate industry percentile.
func PercentileRank(score float64) int {
	steps := []struct {
		min  float64
		rank int
	}{
		{90, 95}, {85, 90}, {80, 80}, {75, 70}, {70, 60}, {65, 50}, {60, 40}, {55, 30}, {50, 20},
	}
	for _, s := range steps {
		if score >= s.min {
			return s.rank
		}
	}
	return 10
}
