package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/vzahanych/weather-ph/internal/config"
	"github.com/vzahanych/weather-ph/internal/models"
	"go.uber.org/zap"
)

// LogRenderer writes notifications to the structured log.
type LogRenderer struct {
	logger *zap.Logger
}

func NewLogRenderer(logger *zap.Logger) *LogRenderer {
	return &LogRenderer{logger: logger}
}

func (r *LogRenderer) Name() string { return "log" }

func (r *LogRenderer) Render(_ context.Context, p models.NotificationPayload) error {
	title, body := Format(p)
	r.logger.Info("Weather notification",
		zap.String("title", title),
		zap.String("body", body),
		zap.String("location", p.LocationName))
	return nil
}

type webhookMessage struct {
	Title   string                     `json:"title"`
	Body    string                     `json:"body"`
	Payload models.NotificationPayload `json:"payload"`
}

// WebhookRenderer POSTs each notification as JSON. One attempt per payload.
type WebhookRenderer struct {
	client *resty.Client
	url    string
}

func NewWebhookRenderer(url string) *WebhookRenderer {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("User-Agent", "weather-ph/1.0")
	return &WebhookRenderer{client: client, url: url}
}

func (r *WebhookRenderer) Name() string { return "webhook" }

func (r *WebhookRenderer) Render(ctx context.Context, p models.NotificationPayload) error {
	title, body := Format(p)

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(webhookMessage{Title: title, Body: body, Payload: p}).
		Post(r.url)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}

// NewRenderer builds the renderer selected in cfg.
func NewRenderer(cfg config.NotificationsConfig, logger *zap.Logger) (Renderer, error) {
	switch cfg.Renderer {
	case "log":
		return NewLogRenderer(logger), nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("webhook renderer requires webhook_url")
		}
		return NewWebhookRenderer(cfg.WebhookURL), nil
	default:
		return nil, fmt.Errorf("unsupported notification renderer: %s", cfg.Renderer)
	}
}
