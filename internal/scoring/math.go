// Package scoring holds the pure scoring formulas: QAI, the nine-pillar
// composite, revenue at risk, cross-platform consensus and cron jitter.
// Nothing here performs I/O.
package scoring

import "math"

// Clamp bounds v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	if places <= 0 {
		return math.Round(v)
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clampScore(v float64) float64 {
	return Clamp(v, 0, 100)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	avg := mean(values)
	var acc float64
	for _, v := range values {
		acc += (v - avg) * (v - avg)
	}
	return acc / float64(len(values))
}
