package checks

import (
	"context"
	"strings"
	"time"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring"
)

const defaultJobMaxAge = 26 * time.Hour

// Jobs reports on the scheduled jobs. Consecutive failures mark the probe down;
// a job that has not succeeded within maxAge marks it degraded.
func Jobs(maxAge time.Duration) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultJobMaxAge
	}

	return monitoring.NewCheck("jobs", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		summary := monitoring.Snapshot()

		if len(summary.Jobs) == 0 {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusUp,
				Details:  "no job runs recorded",
				Duration: time.Since(start),
			}
		}

		status := monitoring.StatusUp
		var problems []string
		for _, job := range summary.Jobs {
			if job.ConsecutiveFailures > 1 {
				status = worstStatus(status, monitoring.StatusDown)
				problems = append(problems, job.Job+": consecutive failures")
				continue
			}
			if !job.LastSuccessAt.IsZero() && start.Sub(job.LastSuccessAt) > maxAge {
				status = worstStatus(status, monitoring.StatusDegraded)
				problems = append(problems, job.Job+": last success "+job.LastSuccessAt.UTC().Format(time.RFC3339))
			}
		}

		return monitoring.ProbeResult{
			Status:   status,
			Details:  strings.Join(problems, "; "),
			Duration: time.Since(start),
		}
	})
}

func worstStatus(current, candidate monitoring.ProbeStatus) monitoring.ProbeStatus {
	if current == monitoring.StatusDown || candidate == monitoring.StatusDown {
		return monitoring.StatusDown
	}
	if current == monitoring.StatusDegraded || candidate == monitoring.StatusDegraded {
		return monitoring.StatusDegraded
	}
	return monitoring.StatusUp
}
