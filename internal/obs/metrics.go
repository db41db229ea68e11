package obs

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks application metrics using atomic counters.
type Metrics struct {
	searches              atomic.Int64
	searchFailures        atomic.Int64
	phaseRetries          atomic.Int64
	lodgingFallbacks      atomic.Int64
	correlationRejections atomic.Int64
	logger                *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger,
	}
}

// IncSearches increments the submitted-search counter.
func (m *Metrics) IncSearches() {
	m.searches.Add(1)
}

// IncSearchFailures increments the exhausted-search counter.
func (m *Metrics) IncSearchFailures() {
	m.searchFailures.Add(1)
}

// IncPhaseRetries increments the per-phase collaborator retry counter.
func (m *Metrics) IncPhaseRetries() {
	m.phaseRetries.Add(1)
}

// IncLodgingFallbacks increments the lodging-only fallback counter.
func (m *Metrics) IncLodgingFallbacks() {
	m.lodgingFallbacks.Add(1)
}

// IncCorrelationRejections increments the rejected-correlation counter.
func (m *Metrics) IncCorrelationRejections() {
	m.correlationRejections.Add(1)
}

// Snapshot returns current metric values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Searches:              m.searches.Load(),
		SearchFailures:        m.searchFailures.Load(),
		PhaseRetries:          m.phaseRetries.Load(),
		LodgingFallbacks:      m.lodgingFallbacks.Load(),
		CorrelationRejections: m.correlationRejections.Load(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Searches              int64
	SearchFailures        int64
	PhaseRetries          int64
	LodgingFallbacks      int64
	CorrelationRejections int64
}

// HealthHandler returns a handler for /healthz requests.
func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	}
}

// MetricsHandler returns a handler for /metrics requests in Prometheus format.
func (m *Metrics) MetricsHandler() http.HandlerFunc {
	counters := []struct {
		name string
		help string
		load func(MetricsSnapshot) int64
	}{
		{"searches_total", "Total number of submitted searches", func(s MetricsSnapshot) int64 { return s.Searches }},
		{"search_failures_total", "Total number of exhausted searches", func(s MetricsSnapshot) int64 { return s.SearchFailures }},
		{"phase_retries_total", "Total number of collaborator retries", func(s MetricsSnapshot) int64 { return s.PhaseRetries }},
		{"lodging_fallbacks_total", "Total number of lodging-only fallbacks", func(s MetricsSnapshot) int64 { return s.LodgingFallbacks }},
		{"correlation_rejections_total", "Total number of rejected offer correlations", func(s MetricsSnapshot) int64 { return s.CorrelationRejections }},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := m.Snapshot()

		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)

		for _, c := range counters {
			if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n",
				c.name, c.help, c.name, c.name, c.load(snapshot)); err != nil {
				m.logger.Error("failed to write metrics", "error", err)
				return
			}
		}
	}
}
