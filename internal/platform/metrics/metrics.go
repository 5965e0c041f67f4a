// Package metrics holds the Prometheus instruments for the application. All
// methods are nil-receiver safe so tests can pass a nil *Metrics without
// registering collectors twice.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CheckIns         *prometheus.CounterVec
	Broadcasts       prometheus.Counter
	ConnectedClients prometheus.Gauge
	HandlerErrors    *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry. Call once
// per process.
func New() *Metrics {
	return &Metrics{
		CheckIns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "visitflow_checkins_total",
			Help: "Total check-in events processed, by mode.",
		}, []string{"mode"}),
		Broadcasts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visitflow_broadcasts_total",
			Help: "Total broadcast signals fanned out to hub clients.",
		}),
		ConnectedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "visitflow_connected_clients",
			Help: "Number of clients currently attached to the visit hub.",
		}),
		HandlerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "visitflow_handler_errors_total",
			Help: "Total command handler failures, by error code.",
		}, []string{"code"}),
	}
}

func (m *Metrics) RecordCheckIn(mode string) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(mode).Inc()
}

func (m *Metrics) RecordBroadcast() {
	if m == nil {
		return
	}
	m.Broadcasts.Inc()
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.ConnectedClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.ConnectedClients.Dec()
}

func (m *Metrics) RecordHandlerError(code string) {
	if m == nil {
		return
	}
	m.HandlerErrors.WithLabelValues(code).Inc()
}
