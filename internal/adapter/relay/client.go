// Package relay forwards raw channel messages to the ingestion endpoint.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/domain"
)

const webhookPath = "/weather-alerts/webhook"

// Client performs the one outbound HTTP POST per message. Delivery is
// at-most-once: there is no retry, no backoff, and no local queue, so a
// failed call means the message is lost from this path.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a relay client for the ingestion endpoint base URL. The
// timeout bounds the entire call including the response body.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type relayPayload struct {
	ID       int64  `json:"id"`
	SenderID int64  `json:"sender_id"`
	Text     string `json:"text"`
	Date     string `json:"date"`
}

type relayResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// Relay posts one raw message to the webhook. The endpoint answers HTTP 200
// in all cases; a body status other than "ok" is surfaced as an error so the
// listener can log the loss.
func (c *Client) Relay(ctx context.Context, msg domain.RawMessage) error {
	payload := relayPayload{
		ID:       msg.ID,
		SenderID: msg.SenderID,
		Text:     msg.Text,
		Date:     msg.Date.Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode relay payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+webhookPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay message %d: %w", msg.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay message %d: unexpected status %d", msg.ID, resp.StatusCode)
	}

	var rr relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("decode relay response: %w", err)
	}
	if rr.Status != "ok" {
		return fmt.Errorf("relay message %d rejected: %s", msg.ID, rr.Detail)
	}
	return nil
}
