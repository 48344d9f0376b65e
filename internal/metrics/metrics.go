package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "guidance"

type Metrics struct {
	DirectionsRequests *prometheus.CounterVec
	NavigationSessions *prometheus.CounterVec
	StepAdvances       prometheus.Counter
	ConnectedClients   prometheus.Gauge
	IncidentsForwarded prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DirectionsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directions_requests_total",
			Help:      "Directions requests by outcome.",
		}, []string{"outcome"}),
		NavigationSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigation_sessions_total",
			Help:      "Navigation session transitions by kind.",
		}, []string{"transition"}),
		StepAdvances: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_advances_total",
			Help:      "Steps reached while navigating.",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Websocket clients currently connected.",
		}),
		IncidentsForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_forwarded_total",
			Help:      "Incident messages sent to clients whose route they affect.",
		}),
	}
	reg.MustRegister(m.DirectionsRequests, m.NavigationSessions, m.StepAdvances, m.ConnectedClients, m.IncidentsForwarded)
	return m
}

// NewNop returns collectors registered nowhere.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
