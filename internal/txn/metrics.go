package txn

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the engine's Prometheus collectors.
type Metrics struct {
	Transactions     *prometheus.CounterVec
	Duration         *prometheus.HistogramVec
	ResolvePasses    prometheus.Histogram
	NotConverged     prometheus.Counter
	HistoryOperation *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diagram_transactions_total",
				Help: "Transactions by label and outcome (committed, cancelled, empty)",
			},
			[]string{"label", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "diagram_transaction_duration_seconds",
				Help:    "Time between start and end of a transaction",
				Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
			},
			[]string{"label"},
		),
		ResolvePasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "diagram_constraint_passes",
			Help:    "Passes needed by constraint resolution to reach a fixed point",
			Buckets: prometheus.LinearBuckets(1, 2, 16),
		}),
		NotConverged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "diagram_constraint_not_converged_total",
			Help: "Constraint resolutions stopped by the iteration ceiling",
		}),
		HistoryOperation: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diagram_history_total",
				Help: "Undo and redo steps",
			},
			[]string{"direction"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Transactions, m.Duration, m.ResolvePasses, m.NotConverged, m.HistoryOperation)
	}
	return m
}
