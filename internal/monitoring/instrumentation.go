package monitoring

import (
	"strings"
	"time"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/metrics"
)

// RecordAuthAttempt tracks bearer token verification outcomes.
func RecordAuthAttempt(result string) {
	result = normalizeLabel(result)
	metrics.AuthAttempts.WithLabelValues(result).Inc()
	if module := CurrentModule(); module != nil {
		module.stats.recordAuth(result)
	}
}

// RecordJobRun records the completion of a scheduled job.
func RecordJobRun(job, result, message string, duration time.Duration) {
	job = normalizeLabel(job)
	result = normalizeLabel(result)
	metrics.JobRuns.WithLabelValues(job, result).Inc()
	metrics.JobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if module := CurrentModule(); module != nil {
		module.stats.jobEntry(job).record(result, strings.TrimSpace(message), duration, time.Now())
	}
}

// RecordPlatformRequest records one AI platform query made for consensus.
func RecordPlatformRequest(platform, result, message string, latency time.Duration) {
	platform = normalizeLabel(platform)
	result = normalizeLabel(result)
	metrics.PlatformRequests.WithLabelValues(platform, result).Inc()
	if module := CurrentModule(); module != nil {
		module.stats.platformEntry(platform).record(result, strings.TrimSpace(message), latency, time.Now())
	}
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
