// Package metrics holds the Prometheus collectors of the room service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "qufit"

var (
	// roomOperations counts room lifecycle operations.
	// Labels: operation (create, join, leave, update, delete, set_status), code (OK or error kind)
	roomOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rooms",
		Name:      "operations_total",
		Help:      "Room lifecycle operations by outcome",
	}, []string{"operation", "code"})

	// roomOperationDuration measures lock wait plus transaction time.
	// Labels: operation
	roomOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "rooms",
		Name:      "operation_duration_seconds",
		Help:      "Room lifecycle operation latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"operation"})

	// tokensIssued counts join tokens handed out.
	tokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tokens",
		Name:      "issued_total",
		Help:      "Join tokens issued",
	})

	// feedClients tracks connected room feed websockets.
	feedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "clients",
		Help:      "Connected room feed clients",
	})

	// feedDropped counts feed clients dropped for falling behind.
	feedDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "dropped_clients_total",
		Help:      "Feed clients disconnected because their send buffer was full",
	})
)

// ObserveOperation records one finished room operation.
func ObserveOperation(operation, code string, start time.Time) {
	roomOperations.WithLabelValues(operation, code).Inc()
	roomOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// TokenIssued records a join token.
func TokenIssued() {
	tokensIssued.Inc()
}

// FeedClientConnected and FeedClientDisconnected keep the feed gauge current.
func FeedClientConnected() { feedClients.Inc() }

func FeedClientDisconnected() { feedClients.Dec() }

// FeedClientDropped records a slow client eviction.
func FeedClientDropped() {
	feedDropped.Inc()
}
