package monitoring

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options control monitoring module configuration.
type Options struct {
	// Gatherer is scraped by Handler. Defaults to prometheus.DefaultGatherer,
	// where pkg/metrics registers its collectors.
	Gatherer prometheus.Gatherer
}

// Module ties the metrics endpoint, runtime health probes and summary state together.
type Module struct {
	gatherer prometheus.Gatherer
	stats    *statStore
	health   *HealthManager
}

// NewModule constructs a monitoring module.
func NewModule(opts Options) *Module {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Module{
		gatherer: gatherer,
		stats:    newStatStore(),
		health:   NewHealthManager(),
	}
}

// Handler returns an http.Handler serving Prometheus metrics.
func (m *Module) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Health exposes the health manager responsible for liveness and readiness probes.
func (m *Module) Health() *HealthManager {
	if m == nil {
		return nil
	}
	return m.health
}

// Summary returns a point-in-time snapshot of this module's runtime stats.
func (m *Module) Summary() Summary {
	if m == nil || m.stats == nil {
		return emptySummary()
	}
	return m.stats.summary()
}

var globalModule atomic.Pointer[Module]

// SetModule configures the process-wide monitoring module used by instrumentation helpers.
func SetModule(module *Module) {
	if module == nil {
		return
	}
	globalModule.Store(module)
}

// CurrentModule returns the process-wide monitoring module, or nil when unset.
func CurrentModule() *Module {
	return globalModule.Load()
}
