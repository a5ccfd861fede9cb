package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/secondbrain/internal/metrics"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// DefaultWebhookTimeout bounds each delivery.
const DefaultWebhookTimeout = 5 * time.Second

// Webhook kinds, used as metric labels and log fields.
const (
	WebhookContact         = "contact"
	WebhookRegistration    = "registration"
	WebhookTroubleshooting = "troubleshooting"
)

// Notifier delivers JSON payloads to automation endpoints.
type Notifier interface {
	Notify(ctx context.Context, kind string, payload any) error
}

// WebhookClient posts payloads to the configured endpoint for each kind.
//
// Deliveries share a token bucket so a burst of form posts cannot flood the automation account.
type WebhookClient struct {
	endpoints  map[string]string
	timeout    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *log.Logger
}

var _ Notifier = (*WebhookClient)(nil)

// NewWebhookClient builds a client from the webhooks config section.
func NewWebhookClient(cfg shared.WebhooksConfig, client *http.Client, logger *log.Logger) *WebhookClient {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}

	limit, burst := rate.Inf, cfg.Burst
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	if burst <= 0 {
		burst = 1
	}

	return &WebhookClient{
		endpoints: map[string]string{
			WebhookContact:         cfg.ContactURL,
			WebhookRegistration:    cfg.RegistrationURL,
			WebhookTroubleshooting: cfg.TroubleshootingURL,
		},
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, burst),
		httpClient: client,
		logger:     shared.WithLogger(logger, "component", "webhook"),
	}
}

// Notify marshals payload and posts it to the endpoint for kind.
func (w *WebhookClient) Notify(ctx context.Context, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}
	return w.Forward(ctx, kind, data)
}

// Forward posts an already-encoded JSON body to the endpoint for kind.
func (w *WebhookClient) Forward(ctx context.Context, kind string, body []byte) (err error) {
	defer func() {
		metrics.RecordWebhookDelivery(kind, err == nil)
		if err != nil {
			w.logger.Warn("webhook delivery failed", "kind", kind, "err", err)
		}
	}()

	endpoint := w.endpoints[kind]
	if endpoint == "" {
		return fmt.Errorf("%w: no endpoint configured for %s", shared.ErrWebhookFailed, kind)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limited: %w", shared.ErrWebhookFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrWebhookFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s responded %d", shared.ErrWebhookFailed, kind, resp.StatusCode)
	}

	w.logger.Debug("webhook delivered", "kind", kind, "status", resp.StatusCode)
	return nil
}
