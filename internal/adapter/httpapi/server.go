// Package httpapi exposes the ingestion endpoint: the weather-alerts webhook
// plus health, readiness, and metrics routes.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/domain"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/ingest"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/observability"
)

// webhookPayload is the relay wire shape. The date travels as an ISO-8601
// string; a malformed value degrades to a zero anchor rather than rejecting
// the message, so the raw text is still classified and stored.
type webhookPayload struct {
	ID       int64  `json:"id"`
	SenderID int64  `json:"sender_id"`
	Text     string `json:"text"`
	Date     string `json:"date"`
}

// webhookResponse is always delivered with HTTP 200; the body status carries
// the actual outcome so callers can tell accepted-and-stored from
// accepted-but-lost.
type webhookResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Server hosts the webhook and operational endpoints.
type Server struct {
	httpServer *http.Server
	service    *ingest.Service
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates the ingestion HTTP server.
func NewServer(addr string, service *ingest.Service, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service: service,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("POST /weather-alerts/webhook", s.handleWebhook)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		s.metrics.WebhookDuration.Observe(time.Since(start).Seconds())
	}()

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Error("webhook payload unreadable", "error", err)
		writeJSON(w, http.StatusOK, webhookResponse{Status: "error", Detail: "invalid payload: " + err.Error()})
		return
	}

	msg := domain.RawMessage{
		ID:       payload.ID,
		SenderID: payload.SenderID,
		Text:     payload.Text,
		Date:     parseAnchor(payload.Date),
	}

	if err := s.service.Ingest(r.Context(), msg); err != nil {
		s.logger.Error("webhook ingest failed", "msg_id", msg.ID, "error", err)
		writeJSON(w, http.StatusOK, webhookResponse{Status: "error", Detail: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{Status: "ok"})
}

// parseAnchor parses an ISO-8601 date string, tolerating a missing offset.
// Unparseable input yields the zero time; the classifier treats that as an
// unusable anchor and leaves time fields absent.
func parseAnchor(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
