// Package ingest turns raw channel messages into stored alert records:
// classify, merge, persist, and optionally fan out.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/domain"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/observability"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/sink"
)

// Publisher fans a stored record out to downstream consumers. Publishing is
// best-effort: failures are logged and counted but never fail the ingest.
type Publisher interface {
	Publish(ctx context.Context, rec domain.StoredAlertRecord) error
}

// Service is the ingestion endpoint's core: one Ingest call per webhook
// request. Each call is independent and stateless, so concurrent requests
// are safe as long as the sink tolerates concurrent writers.
type Service struct {
	sink      sink.Sink
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Service. Pass a nil publisher to disable fan-out.
func New(s sink.Sink, p Publisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		sink:      s,
		publisher: p,
		logger:    logger,
		metrics:   metrics,
	}
}

// Ingest classifies one raw message, merges the result into a stored record,
// and persists it. A classification miss is not an error; the record is
// stored as unclassified with the raw text intact. A persistence failure is
// returned to the caller so the webhook can report it.
func (s *Service) Ingest(ctx context.Context, msg domain.RawMessage) error {
	s.metrics.MessagesIngested.Inc()

	parsed := domain.ParseAlert(msg.Text, msg.Date)
	s.metrics.Classifications.WithLabelValues(parsed.Event).Inc()

	rec := domain.NewStoredRecord(msg, parsed)

	if err := s.sink.Store(ctx, rec); err != nil {
		s.metrics.PersistErrors.Inc()
		return fmt.Errorf("store alert %d: %w", rec.MsgID, err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, rec); err != nil {
			s.metrics.PublishErrors.Inc()
			s.logger.Error("publish stored alert failed", "msg_id", rec.MsgID, "error", err)
		}
	}

	s.logger.Info("message ingested", "msg_id", rec.MsgID, "event", rec.Event, "location", rec.Location)
	return nil
}

// CheckReadiness reports whether the storage sink is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.sink.Ping(ctx)
}
