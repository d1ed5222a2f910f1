package scoring

import "math"

const (
	learningRate   = 0.01
	regularization = 0.1
)

// Outcome is the business result observed for a metrics snapshot.
type Outcome struct {
	Leads   float64 `json:"leads"`
	Revenue float64 `json:"revenue"`
}

// Observation pairs historical pillar metrics with their outcome.
type Observation struct {
	Metrics PillarMetrics `json:"metrics"`
	Outcome Outcome       `json:"outcome"`
}

// LearnWeights nudges pillar weights toward pillars that correlate with
// outcomes, applying L2 shrinkage, then renormalises to sum to 1.
// Penalty rates are left untouched.
func LearnWeights(history []Observation, current Weights) Weights {
	next := current.Clone()
	if len(history) == 0 {
		return next
	}

	outcomes := make([]float64, len(history))
	for i, obs := range history {
		outcomes[i] = obs.Outcome.Leads + obs.Outcome.Revenue*0.1
	}

	for _, p := range Pillars {
		scores := make([]float64, len(history))
		for i, obs := range history {
			scores[i] = obs.Metrics.Value(p)
		}
		gradient := -Correlation(scores, outcomes)
		w := next.Pillars[p]
		next.Pillars[p] = math.Max(0, w-learningRate*(gradient+regularization*w))
	}

	return NormalizeWeights(next)
}

// NormalizeWeights scales pillar weights to sum to 1. All-zero weights are returned unchanged.
func NormalizeWeights(w Weights) Weights {
	sum := w.Sum()
	if sum == 0 {
		return w
	}
	out := w.Clone()
	for _, p := range Pillars {
		out.Pillars[p] = w.Pillars[p] / sum
	}
	return out
}

// Correlation returns the Pearson correlation of x and y, or 0 when undefined.
func Correlation(x, y []float64) float64 {
	n := len(x)
	if n == 0 || len(y) != n {
		return 0
	}
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
		sumYY += y[i] * y[i]
	}
	fn := float64(n)
	num := fn*sumXY - sumX*sumY
	den := math.Sqrt((fn*sumXX - sumX*sumX) * (fn*sumYY - sumY*sumY))
	if den == 0 || math.IsNaN(den) {
		return 0
	}
	return num / den
}
