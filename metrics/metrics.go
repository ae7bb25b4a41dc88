// Package metrics provides Prometheus metrics for the regression engine.
//
// It covers accumulation (samples, merges), estimation outcomes and latency,
// and the size of encoded shard transfers. Library code receives a *Metrics
// through options and tolerates a nil value, so metrics stay opt-in.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Estimation outcome label values.
const (
	OutcomeEstimated         = "estimated"
	OutcomeInsufficient      = "insufficient"
	OutcomeLinearlyDependent = "linearly_dependent"
)

// Metrics holds all Prometheus collectors of the engine.
type Metrics struct {
	// Accumulation metrics
	SamplesTotal prometheus.Counter // Observations folded into accumulators
	MergesTotal  prometheus.Counter // Partial accumulators merged
	Buckets      prometheus.Gauge   // Populated buckets after the last reduce

	// Estimation metrics
	EstimationsTotal   *prometheus.CounterVec // Estimations by outcome
	EstimationDuration prometheus.Histogram   // Duration of equation build and solve

	// Transfer metrics
	ShardBytes prometheus.Histogram // Encoded shard sizes in bytes
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// This allows isolated metric collection without touching the global registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		SamplesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "linreg_samples_total",
			Help: "Total number of observations folded into accumulators",
		}),
		MergesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "linreg_merges_total",
			Help: "Total number of partial accumulators merged",
		}),
		Buckets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "linreg_buckets",
			Help: "Number of populated buckets after the last reduce",
		}),
		EstimationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linreg_estimations_total",
			Help: "Total number of estimations by outcome",
		}, []string{"outcome"}),
		EstimationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "linreg_estimation_duration_seconds",
			Help:    "Duration of building and solving the normal equations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 12),
		}),
		ShardBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "linreg_shard_bytes",
			Help:    "Size of encoded shard transfers in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		}),
	}
}

// AddSamples records n folded observations. Safe to call on a nil *Metrics.
func (m *Metrics) AddSamples(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SamplesTotal.Add(float64(n))
}

// IncMerges records one merge. Safe to call on a nil *Metrics.
func (m *Metrics) IncMerges() {
	if m == nil {
		return
	}
	m.MergesTotal.Inc()
}

// SetBuckets records the populated bucket count. Safe to call on a nil *Metrics.
func (m *Metrics) SetBuckets(n int) {
	if m == nil {
		return
	}
	m.Buckets.Set(float64(n))
}

// ObserveEstimation records one estimation outcome and its duration.
// Safe to call on a nil *Metrics.
func (m *Metrics) ObserveEstimation(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.EstimationsTotal.WithLabelValues(outcome).Inc()
	m.EstimationDuration.Observe(elapsed.Seconds())
}

// ObserveShard records the size of one encoded shard. Safe to call on a nil *Metrics.
func (m *Metrics) ObserveShard(size int) {
	if m == nil {
		return
	}
	m.ShardBytes.Observe(float64(size))
}
