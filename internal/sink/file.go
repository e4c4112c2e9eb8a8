package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/domain"
)

// FileSink appends records to a single JSON array file. Each Store reads the
// existing collection, appends, and rewrites the whole file, so the full
// history is retained. A mutex serializes the read-modify-write; the file
// must still have only one writer process at a time.
type FileSink struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileSink creates a file-collection sink at path, creating the parent
// directory if needed.
func NewFileSink(path string, logger *slog.Logger) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create alerts dir: %w", err)
		}
	}
	return &FileSink{path: path, logger: logger}, nil
}

// Store appends one record to the collection.
func (s *FileSink) Store(_ context.Context, rec domain.StoredAlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode alert collection: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write alert collection: %w", err)
	}

	s.logger.Info("alert appended to collection", "path", s.path, "msg_id", rec.MsgID, "count", len(records))
	return nil
}

// Ping verifies the collection directory is writable.
func (s *FileSink) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("alerts dir unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("alerts path parent %q is not a directory", dir)
	}
	return nil
}

func (s *FileSink) Close() error { return nil }

// Load returns the full stored collection in insertion order. A missing or
// corrupt file reads as an empty collection.
func (s *FileSink) Load() ([]domain.StoredAlertRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

func (s *FileSink) readAll() ([]domain.StoredAlertRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read alert collection: %w", err)
	}

	var records []domain.StoredAlertRecord
	if err := json.Unmarshal(data, &records); err != nil {
		// A corrupt collection starts over empty rather than blocking writes.
		s.logger.Warn("alert collection unreadable, starting empty", "path", s.path, "error", err)
		return nil, nil
	}
	return records, nil
}
