package scoring

import (
	"math"
	"time"
)

const (
	forecastMinHistory = 7
	forecastAR         = 0.6
	forecastMA         = 0.3
	forecastZ95        = 1.96
)

// ForecastPoint is one projected daily value with a 95% band.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// Forecast projects a daily score series forward with a simplified
// ARIMA(1,1,1) over the last seven observations. Each horizon i predicts a
// differenced step d_i = φ·d_{i-1} + θ·e_{i-1} + mean(d) and projects
// last + d_i·i from the final observed value. It returns nil when fewer than
// seven observations are available. Values and bands are clamped to [0,100].
func Forecast(history []float64, lastDate time.Time, days int) []ForecastPoint {
	if len(history) < forecastMinHistory || days <= 0 {
		return nil
	}
	window := history[len(history)-forecastMinHistory:]

	diffs := make([]float64, len(window)-1)
	for i := 1; i < len(window); i++ {
		diffs[i-1] = window[i] - window[i-1]
	}
	meanDiff := mean(diffs)
	stddev := math.Sqrt(variance(diffs))

	last := window[len(window)-1]
	prevDiff := diffs[len(diffs)-1]
	prevErr := prevDiff - meanDiff

	out := make([]ForecastPoint, 0, days)
	for i := 1; i <= days; i++ {
		diff := forecastAR*prevDiff + forecastMA*prevErr + meanDiff
		value := last + diff*float64(i)
		band := forecastZ95 * stddev * math.Sqrt(float64(i))
		out = append(out, ForecastPoint{
			Date:  lastDate.AddDate(0, 0, i),
			Value: Round(clampScore(value), 2),
			Lower: Round(clampScore(value-band), 2),
			Upper: Round(clampScore(value+band), 2),
		})
		prevDiff, prevErr = diff, diff-meanDiff
	}
	return out
}
