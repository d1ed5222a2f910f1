package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProbeStatus encodes the outcome of a health probe.
type ProbeStatus string

const (
	StatusUp       ProbeStatus = "up"
	StatusDown     ProbeStatus = "down"
	StatusDegraded ProbeStatus = "degraded"
)

// severity orders statuses so the worst probe decides a report.
func (s ProbeStatus) severity() int {
	switch s {
	case StatusUp:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// ProbeResult is the outcome of one dependency probe.
type ProbeResult struct {
	Component string        `json:"component"`
	Status    ProbeStatus   `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// HealthReport is the rolled-up view served by /health endpoints.
type HealthReport struct {
	Success bool          `json:"success"`
	Status  ProbeStatus   `json:"status"`
	Checks  []ProbeResult `json:"checks"`
}

// Check is a named probe function.
type Check struct {
	Name string
	Run  func(ctx context.Context) ProbeResult
}

// NewCheck builds a Check. A nil fn always reports down.
func NewCheck(name string, fn func(ctx context.Context) ProbeResult) Check {
	if fn == nil {
		fn = func(context.Context) ProbeResult {
			return ProbeResult{Status: StatusDown, Details: "no probe registered for " + name}
		}
	}
	return Check{Name: name, Run: fn}
}

// HealthManager holds the liveness and readiness probe sets. Probes within a
// set run concurrently; results keep registration order.
type HealthManager struct {
	mu        sync.RWMutex
	liveness  []Check
	readiness []Check
}

func NewHealthManager() *HealthManager {
	return &HealthManager{}
}

func (m *HealthManager) RegisterLiveness(check Check) {
	m.register(&m.liveness, check)
}

func (m *HealthManager) RegisterReadiness(check Check) {
	m.register(&m.readiness, check)
}

func (m *HealthManager) register(set *[]Check, check Check) {
	if check.Name == "" || check.Run == nil {
		return
	}
	m.mu.Lock()
	*set = append(*set, check)
	m.mu.Unlock()
}

func (m *HealthManager) EvaluateLiveness(ctx context.Context) HealthReport {
	return m.evaluate(ctx, m.snapshot(m.liveness))
}

func (m *HealthManager) EvaluateReadiness(ctx context.Context) HealthReport {
	return m.evaluate(ctx, m.snapshot(m.readiness))
}

func (m *HealthManager) snapshot(set []Check) []Check {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Check(nil), set...)
}

func (m *HealthManager) evaluate(ctx context.Context, checks []Check) HealthReport {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]ProbeResult, len(checks))

	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			results[i] = runCheck(ctx, check)
			return nil
		})
	}
	_ = g.Wait()

	return aggregate(results)
}

// aggregate reports the worst status among results. An empty set is up.
func aggregate(results []ProbeResult) HealthReport {
	status := StatusUp
	for _, r := range results {
		if r.Status.severity() > status.severity() {
			status = r.Status
		}
	}
	if results == nil {
		results = []ProbeResult{}
	}
	return HealthReport{Success: status == StatusUp, Status: status, Checks: results}
}

func runCheck(ctx context.Context, check Check) (result ProbeResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = ProbeResult{Status: StatusDown, Details: fmt.Sprintf("probe panicked: %v", rec)}
		}
		result.Component = check.Name
		if result.Status == "" {
			result.Status = StatusDown
		}
		if result.Duration <= 0 {
			result.Duration = time.Since(start)
		}
	}()
	return check.Run(ctx)
}

// MergeReports folds several reports into one, keeping check order.
func MergeReports(reports ...HealthReport) HealthReport {
	var results []ProbeResult
	for _, r := range reports {
		results = append(results, r.Checks...)
	}
	return aggregate(results)
}

// ResultFromError maps a probe error to a result. Timeouts and cancellation
// degrade rather than fail.
func ResultFromError(component string, err error, duration time.Duration) ProbeResult {
	result := ProbeResult{Component: component, Status: StatusUp, Duration: max(duration, 0)}
	if err == nil {
		return result
	}
	result.Details = err.Error()
	result.Status = StatusDown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		result.Status = StatusDegraded
	}
	return result
}
