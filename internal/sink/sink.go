// Package sink persists classified alert records. Two interchangeable
// backends are provided: a SQLite store for durable history and a JSON
// collection file for lightweight deployments.
package sink

import (
	"context"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/domain"
)

// Sink is the persistence boundary of the ingestion pipeline.
type Sink interface {
	// Store persists one record. Records are immutable; duplicate msg_ids
	// from replays are stored again rather than deduplicated.
	Store(ctx context.Context, rec domain.StoredAlertRecord) error

	// Ping reports whether the backend is reachable and writable.
	Ping(ctx context.Context) error

	Close() error
}
