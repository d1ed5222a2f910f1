// Package sentinel evaluates recent metric samples against static thresholds.
// It performs no I/O; persistence and alerting live in the services layer.
package sentinel

import (
	"fmt"
	"sort"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/scoring"
)

// DefaultWindow is the number of most recent samples a run looks at.
const DefaultWindow = 8

// Metric names reported on findings.
const (
	MetricVLI                 = "vli"
	MetricAIV                 = "aiv"
	MetricReviewResponseHours = "review_response_hours"
	MetricReviewVelocity      = "review_velocity"
	MetricLCP                 = "lcp_seconds"
	MetricQAIDrop             = "qai_drop"
)

// Finding categories.
const (
	CategoryVisibility  = "visibility"
	CategoryReviews     = "reviews"
	CategoryPerformance = "performance"
	CategoryTrend       = "trend"
)

// Thresholds are the breach levels. "Below" metrics breach when the value
// drops under the level, "above" metrics when it exceeds it.
type Thresholds struct {
	VLIWarning  float64
	VLICritical float64
	AIVWarning  float64
	AIVCritical float64

	ReviewResponseHours         float64
	ReviewResponseHoursCritical float64
	ReviewVelocity              float64

	LCPSeconds         float64
	LCPSecondsCritical float64

	QAIDrop float64
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VLIWarning:                  70,
		VLICritical:                 50,
		AIVWarning:                  60,
		AIVCritical:                 40,
		ReviewResponseHours:         4,
		ReviewResponseHoursCritical: 8,
		ReviewVelocity:              0.85,
		LCPSeconds:                  3.0,
		LCPSecondsCritical:          4.0,
		QAIDrop:                     10,
	}
}

// WithDefaults fills zero fields from DefaultThresholds.
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.VLIWarning, d.VLIWarning)
	fill(&t.VLICritical, d.VLICritical)
	fill(&t.AIVWarning, d.AIVWarning)
	fill(&t.AIVCritical, d.AIVCritical)
	fill(&t.ReviewResponseHours, d.ReviewResponseHours)
	fill(&t.ReviewResponseHoursCritical, d.ReviewResponseHoursCritical)
	fill(&t.ReviewVelocity, d.ReviewVelocity)
	fill(&t.LCPSeconds, d.LCPSeconds)
	fill(&t.LCPSecondsCritical, d.LCPSecondsCritical)
	fill(&t.QAIDrop, d.QAIDrop)
	return t
}

// Finding is one breach.
type Finding struct {
	Metric    string
	Category  string
	Severity  string
	Title     string
	Message   string
	Value     float64
	Threshold float64
	Action    string
}

// Evaluate checks samples against thresholds. Level checks use the newest
// sample; trend checks compare the oldest and newest sample in the slice.
// Samples may be passed in any order.
func Evaluate(samples []models.MetricSample, th Thresholds) []Finding {
	if len(samples) == 0 {
		return nil
	}
	th = th.WithDefaults()

	ordered := make([]models.MetricSample, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ObservedAt.Before(ordered[j].ObservedAt)
	})
	latest := ordered[len(ordered)-1]

	var findings []Finding
	if f, ok := belowLevel(MetricVLI, CategoryVisibility, "Visibility index", latest.VLI, th.VLIWarning, th.VLICritical,
		"Refresh local landing pages and structured data"); ok {
		findings = append(findings, f)
	}
	if f, ok := belowLevel(MetricAIV, CategoryVisibility, "AI visibility", latest.AIV, th.AIVWarning, th.AIVCritical,
		"Publish FAQ and inventory content AI assistants can cite"); ok {
		findings = append(findings, f)
	}
	findings = append(findings, reviewFindings(latest, th)...)
	if latest.LCPSeconds != nil {
		lcp := *latest.LCPSeconds
		switch {
		case lcp > th.LCPSecondsCritical:
			findings = append(findings, lcpFinding(models.SeverityCritical, lcp, th.LCPSecondsCritical))
		case lcp > th.LCPSeconds:
			findings = append(findings, lcpFinding(models.SeverityWarning, lcp, th.LCPSeconds))
		}
	}
	if f, ok := qaiDrop(ordered[0], latest, th.QAIDrop); ok {
		findings = append(findings, f)
	}
	return findings
}

func belowLevel(metric, category, label string, value, warning, critical float64, action string) (Finding, bool) {
	// zero means the sample did not report this score
	if value <= 0 {
		return Finding{}, false
	}
	severity, threshold := "", 0.0
	switch {
	case value < critical:
		severity, threshold = models.SeverityCritical, critical
	case value < warning:
		severity, threshold = models.SeverityWarning, warning
	default:
		return Finding{}, false
	}
	return Finding{
		Metric:    metric,
		Category:  category,
		Severity:  severity,
		Title:     label + " below threshold",
		Message:   fmt.Sprintf("%s is %.1f, below the %.0f threshold", label, value, threshold),
		Value:     value,
		Threshold: threshold,
		Action:    action,
	}, true
}

func reviewFindings(latest models.MetricSample, th Thresholds) []Finding {
	var (
		findings []Finding
		crisis   bool
	)
	if latest.ReviewResponseHours != nil {
		hours := *latest.ReviewResponseHours
		slowVelocity := latest.ReviewVelocity != nil && *latest.ReviewVelocity < th.ReviewVelocity
		switch {
		case hours > th.ReviewResponseHours && slowVelocity:
			crisis = true
			findings = append(findings, Finding{
				Metric:    MetricReviewResponseHours,
				Category:  CategoryReviews,
				Severity:  models.SeverityCritical,
				Title:     "Review response lag",
				Message:   fmt.Sprintf("Average response time is %.1fh with velocity %.2f", hours, *latest.ReviewVelocity),
				Value:     hours,
				Threshold: th.ReviewResponseHours,
				Action:    "Start the review crisis playbook and answer open reviews today",
			})
		case hours > th.ReviewResponseHoursCritical:
			findings = append(findings, responseFinding(models.SeverityCritical, hours, th.ReviewResponseHoursCritical))
		case hours > th.ReviewResponseHours:
			findings = append(findings, responseFinding(models.SeverityWarning, hours, th.ReviewResponseHours))
		}
	}
	if !crisis && latest.ReviewVelocity != nil && *latest.ReviewVelocity < th.ReviewVelocity {
		v := *latest.ReviewVelocity
		findings = append(findings, Finding{
			Metric:    MetricReviewVelocity,
			Category:  CategoryReviews,
			Severity:  models.SeverityWarning,
			Title:     "Review velocity slowing",
			Message:   fmt.Sprintf("Review velocity is %.2f, below %.2f", v, th.ReviewVelocity),
			Value:     v,
			Threshold: th.ReviewVelocity,
			Action:    "Ask recent buyers for reviews",
		})
	}
	return findings
}

func responseFinding(severity string, hours, threshold float64) Finding {
	return Finding{
		Metric:    MetricReviewResponseHours,
		Category:  CategoryReviews,
		Severity:  severity,
		Title:     "Slow review responses",
		Message:   fmt.Sprintf("Average response time %.1fh exceeds %.1fh", hours, threshold),
		Value:     hours,
		Threshold: threshold,
		Action:    "Assign an owner to answer reviews within four hours",
	}
}

func lcpFinding(severity string, lcp, threshold float64) Finding {
	return Finding{
		Metric:    MetricLCP,
		Category:  CategoryPerformance,
		Severity:  severity,
		Title:     "VDP speed violation",
		Message:   fmt.Sprintf("LCP=%.1fs exceeds %.1fs", lcp, threshold),
		Value:     lcp,
		Threshold: threshold,
		Action:    "Compress VDP hero images and defer third-party scripts",
	}
}

func qaiDrop(first, last models.MetricSample, threshold float64) (Finding, bool) {
	if first.ID == last.ID && first.ObservedAt.Equal(last.ObservedAt) {
		return Finding{}, false
	}
	if !hasQAIInputs(first) || !hasQAIInputs(last) {
		return Finding{}, false
	}
	before := scoring.QAI(qaiInputs(first))
	after := scoring.QAI(qaiInputs(last))
	drop := float64(before - after)
	if drop < threshold {
		return Finding{}, false
	}
	return Finding{
		Metric:    MetricQAIDrop,
		Category:  CategoryTrend,
		Severity:  models.SeverityWarning,
		Title:     "QAI falling",
		Message:   fmt.Sprintf("QAI dropped %.0f points (%d to %d) over the window", drop, before, after),
		Value:     drop,
		Threshold: threshold,
		Action:    "Review recent site and listing changes",
	}, true
}

func qaiInputs(s models.MetricSample) scoring.QAIInputs {
	return scoring.QAIInputs{PIQR: s.PIQR, HRP: s.HRP, VAI: s.VAI, OCI: s.OCI}
}

func hasQAIInputs(s models.MetricSample) bool {
	return s.PIQR > 0 || s.HRP > 0 || s.VAI > 0 || s.OCI > 0
}

// HighestSeverity returns critical if any finding is critical, warning if any
// findings exist, and "" otherwise.
func HighestSeverity(findings []Finding) string {
	severity := ""
	for _, f := range findings {
		if f.Severity == models.SeverityCritical {
			return models.SeverityCritical
		}
		severity = models.SeverityWarning
	}
	return severity
}
