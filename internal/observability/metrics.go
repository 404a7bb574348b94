// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	RunsTotal            *prometheus.CounterVec // labeled by status
	PathsSimulated       prometheus.Counter
	LiquidationsObserved prometheus.Counter
	RunDuration          prometheus.Histogram

	// Reporting metrics
	ReportsGenerated prometheus.Counter

	// Storage metrics
	StoreErrors *prometheus.CounterVec // labeled by store
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "lombard_risk_lab"
	}

	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total simulation runs by status.",
		}, []string{"status"}),

		PathsSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paths_simulated_total",
			Help:      "Total independent paths simulated.",
		}),

		LiquidationsObserved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "liquidations_observed_total",
			Help:      "Total simulated paths ending in forced liquidation.",
		}),

		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of full simulation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),

		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Total reports rendered.",
		}),

		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Storage errors by store.",
		}, []string{"store"}),
	}
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
