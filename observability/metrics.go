// Package observability provides the structured logger and Prometheus
// metrics the indicator engine reports through.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for indicator
// computations.
type Metrics struct {
	ComputationsTotal *prometheus.CounterVec   // labels: indicator, outcome={success,error}
	StageDuration     *prometheus.HistogramVec // labels: stage={validate,preprocess,compute,postprocess}

	BootstrapRebuilds prometheus.Counter
	MaskedValues      prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ComputationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "icclim",
			Name:      "computations_total",
			Help:      "Indicator computations by indicator name and outcome.",
		}, []string{"indicator", "outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "icclim",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each computation stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"stage"}),
		BootstrapRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icclim",
			Name:      "bootstrap_rebuilds_total",
			Help:      "Leave-one-year-out climatology rebuilds performed for bootstrap correction.",
		}),
		MaskedValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icclim",
			Name:      "masked_values_total",
			Help:      "Result values masked by the missing-data policy.",
		}),
	}

	prometheus.MustRegister(
		m.ComputationsTotal,
		m.StageDuration,
		m.BootstrapRebuilds,
		m.MaskedValues,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ComputationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "icclim", Name: "computations_total"}, []string{"indicator", "outcome"}),
		StageDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "icclim", Name: "stage_duration_seconds"}, []string{"stage"}),
		BootstrapRebuilds: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "icclim", Name: "bootstrap_rebuilds_total"}),
		MaskedValues:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "icclim", Name: "masked_values_total"}),
	}
}
