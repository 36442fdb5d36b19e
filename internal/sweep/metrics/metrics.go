// Package metrics exposes sweep run counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Runs             prometheus.Counter
	RemindersSent    prometheus.Counter
	RemindersFailed  prometheus.Counter
	ExpiredMarked    prometheus.Counter
	MalformedSkipped prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Runs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "raisegate_sweep_runs_total",
			Help: "Completed sweep runs.",
		}),
		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "raisegate_sweep_reminders_sent_total",
			Help: "Reminder items accepted by the notifier.",
		}),
		RemindersFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "raisegate_sweep_reminders_failed_total",
			Help: "Reminder items rejected by the notifier.",
		}),
		ExpiredMarked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "raisegate_sweep_authorisations_expired_total",
			Help: "Authorisations flipped to invalid by the expiry pass.",
		}),
		MalformedSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "raisegate_sweep_malformed_records_total",
			Help: "Compliance records skipped as malformed during a sweep.",
		}),
	}
}

// ObserveRun records the counters for one completed run. Nil-safe so tests
// can pass a nil Metrics.
func (m *Metrics) ObserveRun(sent, failed, expired, malformed int) {
	if m == nil {
		return
	}
	m.Runs.Inc()
	m.RemindersSent.Add(float64(sent))
	m.RemindersFailed.Add(float64(failed))
	m.ExpiredMarked.Add(float64(expired))
	m.MalformedSkipped.Add(float64(malformed))
}
