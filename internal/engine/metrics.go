package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's prometheus instruments. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	cycleDuration prometheus.Histogram
	cyclesTotal   *prometheus.CounterVec
}

// NewMetrics registers the evolution instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "myelin",
			Subsystem: "evolution",
			Name:      "cycle_duration_seconds",
			Help:      "Wall-clock duration of evolution cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myelin",
			Subsystem: "evolution",
			Name:      "cycles_total",
			Help:      "Evolution cycles by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.cycleDuration, m.cyclesTotal)
	return m
}

// ObserveCycle records one finished cycle.
func (m *Metrics) ObserveCycle(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
	result := "ok"
	if !ok {
		result = "error"
	}
	m.cyclesTotal.WithLabelValues(result).Inc()
}
