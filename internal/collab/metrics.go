package collab

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Rooms    prometheus.Gauge
	Clients  prometheus.Gauge
	Messages *prometheus.CounterVec
	Panics   prometheus.Counter
	Dropped  *prometheus.CounterVec
}

// NewMetrics creates the hub metrics and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diagram",
			Subsystem: "collab",
			Name:      "rooms",
			Help:      "Open document rooms.",
		}),
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diagram",
			Subsystem: "collab",
			Name:      "clients",
			Help:      "Connected clients.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diagram",
			Subsystem: "collab",
			Name:      "messages_total",
			Help:      "Client messages handled, by type.",
		}, []string{"type"}),
		Panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diagram",
			Subsystem: "collab",
			Name:      "editor_panics_total",
			Help:      "Inputs that panicked the editor and were recovered.",
		}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diagram",
			Subsystem: "collab",
			Name:      "dropped_messages_total",
			Help:      "Outgoing messages dropped because a client buffer was full, by type.",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(m.Rooms, m.Clients, m.Messages, m.Panics, m.Dropped)
	}
	return m
}
