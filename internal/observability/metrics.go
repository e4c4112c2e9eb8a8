package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the ingestion service.
type Metrics struct {
	MessagesIngested prometheus.Counter
	Classifications  *prometheus.CounterVec // label: event
	PersistErrors    prometheus.Counter
	PublishErrors    prometheus.Counter
	WebhookDuration  prometheus.Histogram
}

// NewMetrics creates and registers all ingestion metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_ingest",
			Name:      "messages_ingested_total",
			Help:      "Total raw messages accepted by the webhook.",
		}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_ingest",
			Name:      "classifications_total",
			Help:      "Classifier outcomes by event type.",
		}, []string{"event"}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_ingest",
			Name:      "persist_errors_total",
			Help:      "Total storage sink write failures.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_ingest",
			Name:      "publish_errors_total",
			Help:      "Total Kafka fan-out publish failures.",
		}),
		WebhookDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_ingest",
			Name:      "webhook_duration_seconds",
			Help:      "Duration of a complete classify-store-publish webhook cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.MessagesIngested,
		m.Classifications,
		m.PersistErrors,
		m.PublishErrors,
		m.WebhookDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesIngested: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_ingest", Name: "messages_ingested_total"}),
		Classifications:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flood_ingest", Name: "classifications_total"}, []string{"event"}),
		PersistErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_ingest", Name: "persist_errors_total"}),
		PublishErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_ingest", Name: "publish_errors_total"}),
		WebhookDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "flood_ingest", Name: "webhook_duration_seconds"}),
	}
}
