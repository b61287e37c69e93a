package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors updated by the Engine. A nil *Metrics
// records nothing.
type Metrics struct {
	stepsTotal    *prometheus.CounterVec
	chainsTotal   *prometheus.CounterVec
	chainDuration prometheus.Histogram
}

// NewMetrics creates the engine collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cerberus_query_steps_total",
				Help: "Total number of trace steps applied, by node kind and result",
			},
			[]string{"kind", "result"},
		),

		chainsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cerberus_query_chains_total",
				Help: "Total number of trace chains executed, by result",
			},
			[]string{"result"},
		),

		chainDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cerberus_query_chain_duration_seconds",
				Help:    "Duration of trace chain executions in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
	}
}

func (m *Metrics) recordStep(k Kind, r QueryResult) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(k.String(), r.String()).Inc()
}

func (m *Metrics) recordChain(r QueryResult, seconds float64) {
	if m == nil {
		return
	}
	m.chainsTotal.WithLabelValues(r.String()).Inc()
	m.chainDuration.Observe(seconds)
}
