// Package telemetry provides Prometheus metrics and OpenTelemetry
// tracing for assistantd.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	// RequestsTotal counts HTTP requests by method, path, and status.
	RequestsTotal *prometheus.CounterVec

	// ChatsTotal counts chat requests by outcome (ok, error).
	ChatsTotal *prometheus.CounterVec

	// DocumentsIngestedTotal counts successfully ingested documents.
	DocumentsIngestedTotal prometheus.Counter

	// EscalationsTotal counts recorded escalations.
	EscalationsTotal prometheus.Counter
}

// NewMetrics creates and registers collectors on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh
// registry to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistantd",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),
		ChatsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistantd",
			Name:      "chats_total",
			Help:      "Chat requests by outcome.",
		}, []string{"outcome"}),
		DocumentsIngestedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "assistantd",
			Name:      "documents_ingested_total",
			Help:      "Documents successfully ingested into the vector store.",
		}),
		EscalationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "assistantd",
			Name:      "escalations_total",
			Help:      "Chat exchanges recorded as escalations.",
		}),
	}
}
