package router

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the supervisor's prometheus instruments. A nil *Metrics
// records nothing.
type Metrics struct {
	decisionDuration prometheus.Histogram
	decisionsTotal   *prometheus.CounterVec
}

// NewMetrics registers the routing instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "myelin",
			Subsystem: "routing",
			Name:      "decision_duration_seconds",
			Help:      "Wall-clock duration of routing decisions.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myelin",
			Subsystem: "routing",
			Name:      "decisions_total",
			Help:      "Routing decisions by resolved task type.",
		}, []string{"task_type"}),
	}
	reg.MustRegister(m.decisionDuration, m.decisionsTotal)
	return m
}

// ObserveDecision records one routing decision.
func (m *Metrics) ObserveDecision(taskType string, d time.Duration) {
	if m == nil {
		return
	}
	m.decisionDuration.Observe(d.Seconds())
	m.decisionsTotal.WithLabelValues(taskType).Inc()
}
