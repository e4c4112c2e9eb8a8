// Package channel connects to the alert channel gateway: a persistent
// WebSocket stream for live messages and a paged HTTP API for backfill.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/config"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/domain"
)

// messageFrame is the gateway wire shape for one channel message.
type messageFrame struct {
	ID       int64  `json:"id"`
	SenderID int64  `json:"sender_id"`
	Text     string `json:"text"`
	Date     string `json:"date"`
}

// Client is an explicit handle on one authenticated gateway connection with
// a Connect/Close lifecycle. A connection is exclusively owned by one
// listener instance; create a second Client for a second listener.
type Client struct {
	gatewayURL string
	appID      string
	appHash    string
	account    string
	channel    string

	httpClient *http.Client
	dialer     *websocket.Dialer
	conn       *websocket.Conn
	logger     *slog.Logger
}

// NewClient creates a gateway client from configuration. No I/O happens
// until Connect or Backfill.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		gatewayURL: cfg.GatewayURL,
		appID:      cfg.ChannelAppID,
		appHash:    cfg.ChannelAppHash,
		account:    cfg.ChannelAccount,
		channel:    cfg.ChannelName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		dialer:     websocket.DefaultDialer,
		logger:     logger,
	}
}

func (c *Client) authHeader() http.Header {
	h := http.Header{}
	h.Set("X-App-ID", c.appID)
	h.Set("X-App-Hash", c.appHash)
	h.Set("X-Account", c.account)
	return h
}

// Connect dials the live message stream for the configured channel.
func (c *Client) Connect(ctx context.Context) error {
	streamURL, err := c.buildStreamURL()
	if err != nil {
		return err
	}

	conn, resp, err := c.dialer.DialContext(ctx, streamURL, c.authHeader())
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial channel stream: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial channel stream: %w", err)
	}
	c.conn = conn
	c.logger.Info("connected to channel stream", "channel", c.channel)
	return nil
}

// Next blocks until the next live message arrives. It returns an error when
// the connection is closed, deliberately or not; callers treat that as the
// end of the stream.
func (c *Client) Next(_ context.Context) (domain.RawMessage, error) {
	if c.conn == nil {
		return domain.RawMessage{}, errors.New("channel stream not connected")
	}

	var frame messageFrame
	if err := c.conn.ReadJSON(&frame); err != nil {
		return domain.RawMessage{}, fmt.Errorf("read channel stream: %w", err)
	}
	return frame.toRawMessage(), nil
}

// Close tears the stream connection down, unblocking any pending Next.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Backfill fetches up to limit historical messages in channel-native order.
// Messages without text (media-only posts) are skipped.
func (c *Client) Backfill(ctx context.Context, limit int) ([]domain.RawMessage, error) {
	u, err := url.Parse(c.gatewayURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	u = u.JoinPath("channels", c.channel, "messages")
	q := u.Query()
	q.Set("limit", fmt.Sprintf("%d", limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create backfill request: %w", err)
	}
	req.Header = c.authHeader()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch channel history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("channel history: status %d: %s", resp.StatusCode, body)
	}

	var frames []messageFrame
	if err := json.NewDecoder(resp.Body).Decode(&frames); err != nil {
		return nil, fmt.Errorf("decode channel history: %w", err)
	}

	messages := make([]domain.RawMessage, 0, len(frames))
	for _, frame := range frames {
		if frame.Text == "" {
			continue
		}
		messages = append(messages, frame.toRawMessage())
	}
	return messages, nil
}

func (c *Client) buildStreamURL() (string, error) {
	u, err := url.Parse(c.gatewayURL)
	if err != nil {
		return "", fmt.Errorf("parse gateway url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported gateway scheme %q", u.Scheme)
	}
	u = u.JoinPath("channels", c.channel, "stream")
	return u.String(), nil
}

// toRawMessage maps a wire frame to the domain shape. An unparseable date
// yields a zero receipt time; downstream parsing degrades gracefully.
func (f messageFrame) toRawMessage() domain.RawMessage {
	date, err := time.Parse(time.RFC3339, f.Date)
	if err != nil {
		date = time.Time{}
	}
	return domain.RawMessage{
		ID:       f.ID,
		SenderID: f.SenderID,
		Text:     f.Text,
		Date:     date,
	}
}
