// Package notify delivers order notifications to external systems.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/pkg/httpclient"
)

// EventOrderCreated is the event name posted after checkout.
const EventOrderCreated = "order.created"

// Notifier is told about newly created orders.
type Notifier interface {
	NotifyOrderCreated(ctx context.Context, order *domain.Order) error
}

// Poster sends a request body to a URL. *httpclient.CircuitBreakerClient
// satisfies it.
type Poster interface {
	Post(ctx context.Context, url, contentType string, body []byte) (*http.Response, error)
}

// WebhookPayload is the JSON body posted to the webhook.
type WebhookPayload struct {
	Event  string        `json:"event"`
	SentAt time.Time     `json:"sent_at"`
	Order  *domain.Order `json:"order"`
}

// WebhookNotifier posts order events to a single URL.
type WebhookNotifier struct {
	url    string
	client Poster
	logger *slog.Logger
}

var _ Notifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier creates a notifier posting to url through client.
func NewWebhookNotifier(url string, client Poster, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: client,
		logger: logger,
	}
}

// NotifyOrderCreated posts an order.created payload. Any non-2xx response is
// returned as an error classified by its status.
func (n *WebhookNotifier) NotifyOrderCreated(ctx context.Context, order *domain.Order) error {
	body, err := json.Marshal(WebhookPayload{
		Event:  EventOrderCreated,
		SentAt: time.Now().UTC(),
		Order:  order,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	resp, err := n.client.Post(ctx, n.url, "application/json", body)
	if err != nil {
		return fmt.Errorf("post order webhook: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, "order webhook")
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	n.logger.DebugContext(ctx, "order webhook delivered",
		slog.String("order_id", order.ID),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}

// NoopNotifier drops every notification. It is used when no webhook URL is
// configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyOrderCreated(context.Context, *domain.Order) error { return nil }
