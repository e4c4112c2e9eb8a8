package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/domain"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/ingest"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/observability"
)

// --- mocks ---

type mockSink struct {
	stored  []domain.StoredAlertRecord
	err     error
	pingErr error
}

func (m *mockSink) Store(_ context.Context, rec domain.StoredAlertRecord) error {
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, rec)
	return nil
}

func (m *mockSink) Ping(_ context.Context) error { return m.pingErr }
func (m *mockSink) Close() error                 { return nil }

type mockPublisher struct {
	published []domain.StoredAlertRecord
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, rec domain.StoredAlertRecord) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, rec)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMessage() domain.RawMessage {
	return domain.RawMessage{
		ID:       4021,
		SenderID: 136817688,
		Text:     "Flash flood subsided at Dunearn Road. Issued 0810 hours.",
		Date:     time.Date(2025, 9, 6, 8, 15, 0, 0, time.UTC),
	}
}

// --- tests ---

func TestService_Ingest_StoresClassifiedRecord(t *testing.T) {
	frozen := time.Date(2025, 9, 6, 8, 15, 30, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { domain.SetClock(nil) })

	snk := &mockSink{}
	svc := ingest.New(snk, nil, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, svc.Ingest(context.Background(), testMessage()))

	require.Len(t, snk.stored, 1)
	rec := snk.stored[0]
	assert.Equal(t, int64(4021), rec.MsgID)
	assert.Equal(t, domain.EventFloodSubsided, rec.Event)
	assert.Equal(t, "Dunearn Road", rec.Location)
	assert.Equal(t, frozen, rec.IngestedAt)
}

func TestService_Ingest_UnclassifiedIsNotAnError(t *testing.T) {
	snk := &mockSink{}
	svc := ingest.New(snk, nil, discardLogger(), observability.NewMetricsForTesting())

	msg := testMessage()
	msg.Text = "Telemetry maintenance tonight."
	require.NoError(t, svc.Ingest(context.Background(), msg))

	require.Len(t, snk.stored, 1)
	assert.Equal(t, domain.EventUnclassified, snk.stored[0].Event)
	assert.Empty(t, snk.stored[0].Location)
	assert.Equal(t, msg.Text, snk.stored[0].Text, "raw text is preserved for follow-up")
}

func TestService_Ingest_PersistFailureSurfaces(t *testing.T) {
	snk := &mockSink{err: errors.New("disk full")}
	svc := ingest.New(snk, nil, discardLogger(), observability.NewMetricsForTesting())

	err := svc.Ingest(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestService_Ingest_PublishesAfterStore(t *testing.T) {
	snk := &mockSink{}
	pub := &mockPublisher{}
	svc := ingest.New(snk, pub, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, svc.Ingest(context.Background(), testMessage()))

	require.Len(t, pub.published, 1)
	assert.Equal(t, int64(4021), pub.published[0].MsgID)
}

func TestService_Ingest_PublishFailureDoesNotFailIngest(t *testing.T) {
	snk := &mockSink{}
	pub := &mockPublisher{err: errors.New("broker unreachable")}
	svc := ingest.New(snk, pub, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, svc.Ingest(context.Background(), testMessage()))
	assert.Len(t, snk.stored, 1)
}

func TestService_CheckReadiness(t *testing.T) {
	snk := &mockSink{}
	svc := ingest.New(snk, nil, discardLogger(), observability.NewMetricsForTesting())
	assert.NoError(t, svc.CheckReadiness(context.Background()))

	snk.pingErr = errors.New("sink offline")
	assert.Error(t, svc.CheckReadiness(context.Background()))
}
