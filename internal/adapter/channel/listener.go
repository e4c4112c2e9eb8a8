package channel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/domain"
)

// MessageSource yields channel messages one at a time. Next blocks until a
// message arrives or the source is closed; Close unblocks a pending Next.
type MessageSource interface {
	Next(ctx context.Context) (domain.RawMessage, error)
	Close() error
}

// HistorySource yields up to limit historical messages in channel-native order.
type HistorySource interface {
	Backfill(ctx context.Context, limit int) ([]domain.RawMessage, error)
}

// Relayer forwards one raw message to the ingestion endpoint.
type Relayer interface {
	Relay(ctx context.Context, msg domain.RawMessage) error
}

// Listener drains a message source into the relay through a bounded queue.
// The producer blocks when the queue is full, so backpressure reaches the
// source instead of growing memory. Within one listener, messages are
// relayed in arrival order.
type Listener struct {
	source    MessageSource
	relayer   Relayer
	queueSize int
	logger    *slog.Logger
}

// NewListener wires a source to a relayer with a queue of the given size.
func NewListener(source MessageSource, relayer Relayer, queueSize int, logger *slog.Logger) *Listener {
	return &Listener{
		source:    source,
		relayer:   relayer,
		queueSize: queueSize,
		logger:    logger,
	}
}

// Run consumes live messages until the context is cancelled or the stream
// ends. A relay failure is logged and the message dropped; there is no retry
// path. On shutdown, messages already queued are drained best-effort, but
// nothing still on the wire is waited for.
func (l *Listener) Run(ctx context.Context) error {
	queue := make(chan domain.RawMessage, l.queueSize)

	// Close the source when the context ends so a blocked Next returns.
	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if err := l.source.Close(); err != nil {
				l.logger.Warn("source close failed", "error", err)
			}
		case <-stopped:
		}
	}()

	go func() {
		defer close(queue)
		for {
			msg, err := l.source.Next(ctx)
			if err != nil {
				if ctx.Err() == nil {
					l.logger.Error("channel stream ended", "error", err)
				}
				return
			}
			queue <- msg
		}
	}()

	relayed, dropped := 0, 0
	for msg := range queue {
		if err := l.relayer.Relay(ctx, msg); err != nil {
			// At-most-once: the message is gone from this path.
			dropped++
			l.logger.Error("relay failed, message dropped", "msg_id", msg.ID, "error", err)
			continue
		}
		relayed++
		l.logger.Info("message relayed", "msg_id", msg.ID)
	}
	close(stopped)

	l.logger.Info("listener stopped", "relayed", relayed, "dropped", dropped)
	return nil
}

// RunBackfill pulls up to limit historical messages and relays each
// synchronously, in the order the gateway returned them.
func (l *Listener) RunBackfill(ctx context.Context, backfiller HistorySource, limit int) error {
	messages, err := backfiller.Backfill(ctx, limit)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}

	relayed := 0
	for _, msg := range messages {
		if err := l.relayer.Relay(ctx, msg); err != nil {
			l.logger.Error("relay failed, message dropped", "msg_id", msg.ID, "error", err)
			continue
		}
		relayed++
	}
	l.logger.Info("backfill complete", "fetched", len(messages), "relayed", relayed)
	return nil
}
