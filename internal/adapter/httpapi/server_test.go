package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/adapter/httpapi"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/domain"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/ingest"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/observability"
)

type recordingSink struct {
	stored  []domain.StoredAlertRecord
	err     error
	pingErr error
}

func (m *recordingSink) Store(_ context.Context, rec domain.StoredAlertRecord) error {
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, rec)
	return nil
}

func (m *recordingSink) Ping(_ context.Context) error { return m.pingErr }
func (m *recordingSink) Close() error                 { return nil }

func newTestServer(snk *recordingSink) *httpapi.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	svc := ingest.New(snk, nil, logger, metrics)
	return httpapi.NewServer(":0", svc, metrics, logger)
}

func postWebhook(t *testing.T, srv *httpapi.Server, body string) (int, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/weather-alerts/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	srv.ServeHTTP(rec, req)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestWebhook_StoresClassifiedAlert(t *testing.T) {
	snk := &recordingSink{}
	srv := newTestServer(snk)

	body := `{"id":4021,"sender_id":136817688,"text":"Flash flood subsided at Dunearn Road. Issued 0810 hours.","date":"2025-09-06T08:15:00+08:00"}`
	code, resp := postWebhook(t, srv, body)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp["status"])

	require.Len(t, snk.stored, 1)
	rec := snk.stored[0]
	assert.Equal(t, int64(4021), rec.MsgID)
	assert.Equal(t, int64(136817688), rec.SenderID)
	assert.Equal(t, domain.EventFloodSubsided, rec.Event)
	assert.Equal(t, "Dunearn Road", rec.Location)

	sgt := time.FixedZone("", 8*3600)
	assert.True(t, rec.EventDateTime.Equal(time.Date(2025, 9, 6, 8, 15, 0, 0, sgt)))
}

func TestWebhook_HeavyRainTimesAnchoredToMessageDate(t *testing.T) {
	snk := &recordingSink{}
	srv := newTestServer(snk)

	body := `{"id":1,"sender_id":2,"text":"Heavy rain expected over Bukit Timah from 09:00 hours to 09:40 hours.","date":"2025-09-06T08:52:00Z"}`
	code, resp := postWebhook(t, srv, body)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp["status"])

	require.Len(t, snk.stored, 1)
	rec := snk.stored[0]
	require.NotNil(t, rec.Start)
	require.NotNil(t, rec.End)
	assert.True(t, rec.Start.Equal(time.Date(2025, 9, 6, 9, 0, 0, 0, time.UTC)))
	assert.True(t, rec.End.Equal(time.Date(2025, 9, 6, 9, 40, 0, 0, time.UTC)))
}

func TestWebhook_MalformedDateStillStores(t *testing.T) {
	snk := &recordingSink{}
	srv := newTestServer(snk)

	body := `{"id":2,"sender_id":3,"text":"Heavy rain expected over Yishun from 09:00 hours to 09:40 hours.","date":"yesterday-ish"}`
	code, resp := postWebhook(t, srv, body)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp["status"])

	require.Len(t, snk.stored, 1)
	rec := snk.stored[0]
	assert.Equal(t, domain.EventHeavyRain, rec.Event)
	assert.Nil(t, rec.Start, "no anchor, no resolved times")
	assert.Nil(t, rec.End)
	assert.True(t, rec.EventDateTime.IsZero())
}

func TestWebhook_InvalidJSONReportsErrorBody(t *testing.T) {
	snk := &recordingSink{}
	srv := newTestServer(snk)

	code, resp := postWebhook(t, srv, "{not json")

	assert.Equal(t, http.StatusOK, code, "transport status stays 200")
	assert.Equal(t, "error", resp["status"])
	assert.Contains(t, resp["detail"], "invalid payload")
	assert.Empty(t, snk.stored)
}

func TestWebhook_PersistFailureReportsErrorBody(t *testing.T) {
	snk := &recordingSink{err: errors.New("disk full")}
	srv := newTestServer(snk)

	body := `{"id":5,"sender_id":6,"text":"whatever","date":"2025-09-06T08:15:00Z"}`
	code, resp := postWebhook(t, srv, body)

	assert.Equal(t, http.StatusOK, code, "transport status stays 200")
	assert.Equal(t, "error", resp["status"])
	assert.Contains(t, resp["detail"], "disk full")
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&recordingSink{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReflectsSinkPing(t *testing.T) {
	snk := &recordingSink{}
	srv := newTestServer(snk)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	snk.pingErr = errors.New("sink offline")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "sink offline", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&recordingSink{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
