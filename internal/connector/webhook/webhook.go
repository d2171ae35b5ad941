// Package webhook posts conversation events to an external HTTP endpoint,
// signing each delivery so the receiver can verify origin.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Config holds webhook notifier configuration.
type Config struct {
	URL    string // Endpoint receiving POSTed events
	Secret string // Optional HMAC-SHA256 signing secret
}

// Event is the JSON body delivered to the configured endpoint.
type Event struct {
	Type      string    `json:"type"` // "reply" or "ticket"
	SessionID string    `json:"session_id"`
	Channel   string    `json:"channel,omitempty"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier delivers events to a webhook endpoint.
type Notifier struct {
	config Config
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// New creates a webhook notifier.
func New(cfg Config, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		now:    time.Now,
	}
}

// Notify posts an event. Delivery failures are returned, not retried.
func (n *Notifier) Notify(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = n.now()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.config.Secret != "" {
		req.Header.Set("X-Signature-256", ComputeSignature(body, n.config.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: endpoint returned %d", resp.StatusCode)
	}

	n.logger.Debug("webhook delivered", "type", ev.Type, "session", ev.SessionID)
	return nil
}

// ComputeSignature generates an HMAC-SHA256 signature in "sha256=<hex>" form.
func ComputeSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature produced by ComputeSignature.
func VerifySignature(body []byte, secret, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
