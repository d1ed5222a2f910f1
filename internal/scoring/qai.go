package scoring

// QAI sub-metric weights.
const (
	WeightPIQR = 0.30
	WeightHRP  = 0.25
	WeightVAI  = 0.25
	WeightOCI  = 0.20
)

// QAIInputs are the four sub-metrics feeding the Quality Authority Index, each on a 0-100 scale.
type QAIInputs struct {
	// PIQR is the proactive inventory quality radar score.
	PIQR float64 `json:"piqr"`
	// HRP is the hallucination risk protection score (higher is safer).
	HRP float64 `json:"hrp"`
	// VAI is the vehicle AI visibility index.
	VAI float64 `json:"vai"`
	// OCI is the offer clarity index.
	OCI float64 `json:"oci"`
}

// Clamped returns a copy with every sub-metric bounded to [0,100].
func (in QAIInputs) Clamped() QAIInputs {
	return QAIInputs{
		PIQR: clampScore(in.PIQR),
		HRP:  clampScore(in.HRP),
		VAI:  clampScore(in.VAI),
		OCI:  clampScore(in.OCI),
	}
}

// QAIRaw returns the unrounded weighted sum of the clamped inputs.
func QAIRaw(in QAIInputs) float64 {
	c := in.Clamped()
	return c.PIQR*WeightPIQR + c.HRP*WeightHRP + c.VAI*WeightVAI + c.OCI*WeightOCI
}

// QAI computes the Quality Authority Index as an integer in [0,100].
func QAI(in QAIInputs) int {
	return int(Round(clampScore(QAIRaw(in)), 0))
}

// QAIBand buckets a QAI score for display and alerting.
func QAIBand(score int) string {
	switch {
	case score >= 85:
		return "excellent"
	case score >= 70:
		return "good"
	case score >= 50:
		return "fair"
	default:
		return "poor"
	}
}
