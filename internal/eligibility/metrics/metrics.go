package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the eligibility module.
type Metrics struct {
	// Verdicts by outcome and scheme
	Verdicts *prometheus.CounterVec

	// Full evaluation latency including persistence
	EvaluateLatency prometheus.Histogram
}

// New creates a new Metrics instance with all eligibility metrics registered.
func New() *Metrics {
	return &Metrics{
		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "raisegate_eligibility_verdicts_total",
			Help: "Total eligibility verdicts by outcome and scheme",
		}, []string{"verdict", "scheme"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "raisegate_eligibility_evaluate_duration_seconds",
			Help:    "Duration of full eligibility evaluation including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementVerdict records an evaluation outcome.
func (m *Metrics) IncrementVerdict(verdict, scheme string) {
	if m != nil {
		m.Verdicts.WithLabelValues(verdict, scheme).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
