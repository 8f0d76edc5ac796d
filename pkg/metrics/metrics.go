// Package metrics exposes Prometheus instrumentation for the forwarding
// pipeline. Registration is opt-in so the library stays silent unless the
// embedding application asks for it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusForwarded = "forwarded"
	StatusFiltered  = "filtered"
	StatusDropped   = "dropped"

	StatusSent   = "sent"
	StatusFailed = "failed"
)

var (
	EventsObservedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zapslack_events_observed_total",
			Help: "Total number of log events seen by the Slack core (count)",
		},
		[]string{"status"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zapslack_deliveries_total",
			Help: "Total number of webhook deliveries attempted by the worker (count)",
		},
		[]string{"status"},
	)

	DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zapslack_delivery_duration_ms",
			Help:    "Webhook delivery duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zapslack_queue_depth",
			Help: "Number of payloads waiting for delivery (count)",
		},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zapslack_circuit_breaker_state",
			Help: "Webhook circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)
)

func Register() {
	prometheus.MustRegister(
		EventsObservedTotal,
		DeliveriesTotal,
		DeliveryDuration,
		QueueDepth,
	)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
}

func ObserveDelivery(d time.Duration, status string) {
	DeliveriesTotal.WithLabelValues(status).Inc()
	DeliveryDuration.WithLabelValues(status).Observe(float64(d.Milliseconds()))
}
