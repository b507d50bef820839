// Package notify contains the worker.Notifier implementations.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rezkam/hearth/internal/application/worker"
	"github.com/rezkam/hearth/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultWebhookTimeout bounds a single webhook call.
const DefaultWebhookTimeout = 10 * time.Second

// LogNotifier writes one structured log line per delivery.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, d *domain.Delivery) error {
	n.logger.InfoContext(ctx, "reminder due",
		"delivery_id", d.ID,
		"reminder_id", d.ReminderID,
		"household_id", d.HouseholdID,
		"title", d.Title,
		"category", string(d.Category),
		"occurs_at", d.OccursAt.UTC(),
		"attempt", d.Attempts)
	return nil
}

// WebhookConfig configures a WebhookNotifier.
type WebhookConfig struct {
	URL     string
	Token   string        // Sent as a Bearer token when set
	Timeout time.Duration // Per-request timeout (default: DefaultWebhookTimeout)
}

// WebhookNotifier POSTs each delivery as JSON to a fixed URL.
type WebhookNotifier struct {
	url    string
	token  string
	client *http.Client
}

// NewWebhookNotifier creates a WebhookNotifier with a traced HTTP client.
func NewWebhookNotifier(cfg WebhookConfig) (*WebhookNotifier, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("webhook URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultWebhookTimeout
	}
	return &WebhookNotifier{
		url:   cfg.URL,
		token: cfg.Token,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// WebhookPayload is the JSON body of a webhook call.
type WebhookPayload struct {
	DeliveryID  string    `json:"delivery_id"`
	ReminderID  string    `json:"reminder_id"`
	HouseholdID string    `json:"household_id"`
	Title       string    `json:"title"`
	Notes       string    `json:"notes,omitempty"`
	Category    string    `json:"category"`
	OccursAt    time.Time `json:"occurs_at"`
	Attempt     int       `json:"attempt"`
}

// Notify sends the delivery. Network errors, 429 and 5xx responses are
// transient; any other non-2xx status is permanent.
func (n *WebhookNotifier) Notify(ctx context.Context, d *domain.Delivery) error {
	body, err := json.Marshal(WebhookPayload{
		DeliveryID:  d.ID,
		ReminderID:  d.ReminderID,
		HouseholdID: d.HouseholdID,
		Title:       d.Title,
		Notes:       d.Notes,
		Category:    string(d.Category),
		OccursAt:    d.OccursAt.UTC(),
		Attempt:     d.Attempts,
	})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", d.ID)
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return worker.Transient(fmt.Errorf("webhook request failed: %w", err))
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return worker.Transient(fmt.Errorf("webhook returned %d", resp.StatusCode))
	case resp.StatusCode == http.StatusGone:
		return worker.Cancelled{Reason: "webhook endpoint gone"}
	default:
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
}
