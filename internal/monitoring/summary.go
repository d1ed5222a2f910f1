package monitoring

import "time"

// Summary surfaces aggregated runtime data for the operator dashboard.
type Summary struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Auth        AuthSummary       `json:"auth"`
	Jobs        []JobSummary      `json:"jobs"`
	Platforms   []PlatformSummary `json:"platforms"`
}

type AuthSummary struct {
	Success uint64 `json:"success"`
	Failure uint64 `json:"failure"`
}

type JobSummary struct {
	Job                 string        `json:"job"`
	LastStatus          string        `json:"last_status"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	LastSuccessAt       time.Time     `json:"last_success_at"`
	TotalRuns           uint64        `json:"total_runs"`
}

// PlatformSummary tracks one AI platform queried for consensus.
type PlatformSummary struct {
	Platform              string    `json:"platform"`
	Success               uint64    `json:"success"`
	Failure               uint64    `json:"failure"`
	LastError             string    `json:"last_error,omitempty"`
	LastCompletedAt       time.Time `json:"last_completed_at"`
	AverageLatencySeconds float64   `json:"average_latency_seconds"`
}

// Snapshot returns a summary from the process-wide module when configured.
func Snapshot() Summary {
	return CurrentModule().Summary()
}

func emptySummary() Summary {
	return Summary{GeneratedAt: time.Now(), Jobs: []JobSummary{}, Platforms: []PlatformSummary{}}
}
