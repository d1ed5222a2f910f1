package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dealerai_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// AuthAttempts records bearer token checks by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealerai_auth_attempts_total",
			Help: "Total number of bearer token verifications",
		},
		[]string{"result"},
	)

	// ScoreCalculations counts score computations by kind (qai|dai|consensus|rar) and source (cache|computed|error).
	ScoreCalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealerai_score_calculations_total",
			Help: "Total number of score calculations",
		},
		[]string{"kind", "source"},
	)

	// LatestScore exposes the most recent score per dealership and kind.
	LatestScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dealerai_latest_score",
			Help: "Most recent score computed for a dealership",
		},
		[]string{"dealer_id", "kind"},
	)

	// SentinelEvents counts sentinel findings by severity and metric.
	SentinelEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealerai_sentinel_events_total",
			Help: "Total number of sentinel events raised",
		},
		[]string{"severity", "metric"},
	)

	// CacheLookups counts cache lookups by tier (local|shared) and result (hit|miss|error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealerai_cache_lookups_total",
			Help: "Total number of cache lookups",
		},
		[]string{"tier", "result"},
	)

	// PlatformRequests counts AI platform queries by platform and result.
	PlatformRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealerai_platform_requests_total",
			Help: "Total number of AI platform queries",
		},
		[]string{"platform", "result"},
	)

	// JobRuns counts scheduled job executions by job and result.
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealerai_job_runs_total",
			Help: "Total number of scheduled job executions",
		},
		[]string{"job", "result"},
	)

	// JobDuration measures scheduled job wall time.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dealerai_job_duration_seconds",
			Help:    "Scheduled job duration",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"job"},
	)
)
