package scoring

import (
	"errors"
	"fmt"
	"math"
)

// Pillar identifies one of the nine composite inputs.
type Pillar string

const (
	PillarATI Pillar = "ati" // algorithmic trust
	PillarAIV Pillar = "aiv" // AI visibility
	PillarVLI Pillar = "vli" // vehicle listing integrity
	PillarOI  Pillar = "oi"  // offer integrity
	PillarGBP Pillar = "gbp" // Google Business Profile
	PillarRRS Pillar = "rrs" // review and reputation
	PillarWX  Pillar = "wx"  // web experience
	PillarIFR Pillar = "ifr" // inventory freshness
	PillarCIS Pillar = "cis" // clarity and intent
)

// Pillars lists every pillar in evaluation order.
var Pillars = []Pillar{PillarATI, PillarAIV, PillarVLI, PillarOI, PillarGBP, PillarRRS, PillarWX, PillarIFR, PillarCIS}

const (
	maxPolicyPenalty    = 0.5
	maxParityPenalty    = 0.3
	maxStalenessPenalty = 0.2
	maxRecommendations  = 5
	weightTolerance     = 0.01
)

// ErrInvalidWeights is returned when pillar weights do not sum to 1.
var ErrInvalidWeights = errors.New("scoring: pillar weights must sum to 1.0")

// PillarMetrics carries the composite inputs. Pillar scores are 0-100.
type PillarMetrics struct {
	ATI float64 `json:"ati"`
	AIV float64 `json:"aiv"`
	VLI float64 `json:"vli"`
	OI  float64 `json:"oi"`
	GBP float64 `json:"gbp"`
	RRS float64 `json:"rrs"`
	WX  float64 `json:"wx"`
	IFR float64 `json:"ifr"`
	CIS float64 `json:"cis"`

	PolicyViolations int     `json:"policy_violations"`
	ParityDeltas     int     `json:"parity_deltas"`
	StalenessScore   float64 `json:"staleness_score"`
}

// Value returns the score for a pillar.
func (m PillarMetrics) Value(p Pillar) float64 {
	switch p {
	case PillarATI:
		return m.ATI
	case PillarAIV:
		return m.AIV
	case PillarVLI:
		return m.VLI
	case PillarOI:
		return m.OI
	case PillarGBP:
		return m.GBP
	case PillarRRS:
		return m.RRS
	case PillarWX:
		return m.WX
	case PillarIFR:
		return m.IFR
	case PillarCIS:
		return m.CIS
	}
	return 0
}

func (m PillarMetrics) values() []float64 {
	out := make([]float64, len(Pillars))
	for i, p := range Pillars {
		out[i] = m.Value(p)
	}
	return out
}

// Weights holds per-pillar weights and the per-unit penalty rates.
type Weights struct {
	Pillars map[Pillar]float64 `json:"pillars"`

	PolicyPenalty    float64 `json:"policy_penalty"`
	ParityPenalty    float64 `json:"parity_penalty"`
	StalenessPenalty float64 `json:"staleness_penalty"`
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Pillars: map[Pillar]float64{
			PillarATI: 0.15,
			PillarAIV: 0.20,
			PillarVLI: 0.12,
			PillarOI:  0.10,
			PillarGBP: 0.12,
			PillarRRS: 0.10,
			PillarWX:  0.08,
			PillarIFR: 0.08,
			PillarCIS: 0.05,
		},
		PolicyPenalty:    0.15,
		ParityPenalty:    0.10,
		StalenessPenalty: 0.05,
	}
}

// Clone returns a deep copy.
func (w Weights) Clone() Weights {
	cpy := w
	cpy.Pillars = make(map[Pillar]float64, len(w.Pillars))
	for k, v := range w.Pillars {
		cpy.Pillars[k] = v
	}
	return cpy
}

// Sum returns the total pillar weight.
func (w Weights) Sum() float64 {
	var sum float64
	for _, p := range Pillars {
		sum += w.Pillars[p]
	}
	return sum
}

// Validate ensures pillar weights sum to 1 within tolerance.
func (w Weights) Validate() error {
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: got %.4f", ErrInvalidWeights, sum)
	}
	return nil
}

// Penalties reports each penalty multiplier and their total.
type Penalties struct {
	Policy    float64 `json:"policy"`
	Parity    float64 `json:"parity"`
	Staleness float64 `json:"staleness"`
	Total     float64 `json:"total"`
}

// CompositeResult is the outcome of Composite.
type CompositeResult struct {
	Score           float64       `json:"score"`
	PillarScore     float64       `json:"pillar_score"`
	Pillars         PillarMetrics `json:"pillars"`
	Weights         Weights       `json:"weights"`
	Penalties       Penalties     `json:"penalties"`
	DataQuality     int           `json:"data_quality"`
	Confidence      float64       `json:"confidence"`
	Recommendations []string      `json:"recommendations"`
}

// Composite computes the nine-pillar dealership score.
func Composite(metrics PillarMetrics, weights Weights) (CompositeResult, error) {
	if err := weights.Validate(); err != nil {
		return CompositeResult{}, err
	}

	var pillarScore float64
	for _, p := range Pillars {
		pillarScore += metrics.Value(p) * weights.Pillars[p]
	}

	penalties := Penalties{
		Policy:    math.Min(float64(metrics.PolicyViolations)*weights.PolicyPenalty, maxPolicyPenalty),
		Parity:    math.Min(float64(metrics.ParityDeltas)*weights.ParityPenalty, maxParityPenalty),
		Staleness: math.Min(metrics.StalenessScore*weights.StalenessPenalty, maxStalenessPenalty),
	}
	penalties.Policy = math.Max(0, penalties.Policy)
	penalties.Parity = math.Max(0, penalties.Parity)
	penalties.Staleness = math.Max(0, penalties.Staleness)
	penalties.Total = penalties.Policy + penalties.Parity + penalties.Staleness

	final := clampScore(pillarScore * (1 - penalties.Total))
	quality := DataQuality(metrics)

	return CompositeResult{
		Score:           Round(final, 2),
		PillarScore:     Round(pillarScore, 2),
		Pillars:         metrics,
		Weights:         weights.Clone(),
		Penalties:       penalties,
		DataQuality:     quality,
		Confidence:      math.Min(95, float64(quality)*0.8+20),
		Recommendations: Recommendations(metrics, weights),
	}, nil
}

// DataQuality scores input completeness (non-zero pillars) and consistency (low variance), 0-100.
func DataQuality(metrics PillarMetrics) int {
	values := metrics.values()
	missing := 0
	for _, v := range values {
		if v == 0 {
			missing++
		}
	}
	completeness := 1 - float64(missing)/float64(len(values))
	consistency := math.Max(0, 1-variance(values)/1000)
	return int(math.Round((completeness*0.6 + consistency*0.4) * 100))
}

type pillarRule struct {
	pillar    Pillar
	threshold float64
	advice    string
}

var pillarRules = []pillarRule{
	{PillarATI, 60, "Improve algorithmic trust by fixing schema markup and data consistency"},
	{PillarAIV, 70, "Boost AI visibility with answer-focused content and structured data"},
	{PillarVLI, 65, "Complete vehicle listings with accurate VINs, photos and pricing"},
	{PillarOI, 60, "Make offers transparent: publish terms, fees and expiry dates"},
	{PillarGBP, 70, "Complete the Google Business Profile and post recent updates"},
	{PillarRRS, 65, "Grow review volume and respond to reviews faster"},
	{PillarWX, 70, "Speed up pages and fix mobile layout issues"},
	{PillarIFR, 60, "Refresh inventory feeds and remove sold vehicles"},
	{PillarCIS, 50, "Clarify page structure and value propositions"},
}

// Recommendations returns up to five actions, ordered by rule priority.
func Recommendations(metrics PillarMetrics, weights Weights) []string {
	recs := make([]string, 0, maxRecommendations)
	for _, rule := range pillarRules {
		if metrics.Value(rule.pillar) < rule.threshold {
			recs = append(recs, rule.advice)
		}
	}
	if metrics.PolicyViolations > 0 {
		recs = append(recs, fmt.Sprintf("Address %d policy violations immediately", metrics.PolicyViolations))
	}
	if metrics.ParityDeltas > 0 {
		recs = append(recs, "Fix data parity issues across listing platforms")
	}
	if metrics.StalenessScore > 30 {
		recs = append(recs, "Update stale data to restore accuracy and trust")
	}
	if metrics.AIV < 50 && weights.Pillars[PillarAIV] > 0.15 {
		recs = append(recs, "PRIORITY: AI visibility is the highest weighted pillar and is below 50")
	}
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
