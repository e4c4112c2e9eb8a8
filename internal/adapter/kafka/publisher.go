// Package kafka fans stored alerts out to a Kafka topic for downstream
// consumers (dashboards, archival jobs). Publishing is optional and
// best-effort; the webhook path never blocks on it failing.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/config"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/domain"
)

// Publisher produces stored alert records to a Kafka topic.
// It implements ingest.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured alerts topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes one stored alert and writes it to the alerts topic.
func (p *Publisher) Publish(ctx context.Context, rec domain.StoredAlertRecord) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a stored alert into a Kafka message, keyed by
// the channel message id so re-relayed duplicates land on one partition.
func serializeToMessage(rec domain.StoredAlertRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(rec.MsgID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event", Value: []byte(rec.Event)},
			{Key: "ingested_at", Value: []byte(rec.IngestedAt.Format(time.RFC3339))},
		},
	}, nil
}
