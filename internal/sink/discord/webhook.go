// Package discord delivers payloads to a Discord-compatible webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/feedherald/feedherald/internal/config"
	"github.com/feedherald/feedherald/internal/core"
)

// ContentLimit is Discord's hard cap on message content length.
const ContentLimit = 2000

type Webhook struct {
	webhookURL string
	userAgent  string
	client     *http.Client
}

func NewWebhook(cfg config.DiscordEnvConfig) (*Webhook, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("discord webhook url is required")
	}
	return &Webhook{
		webhookURL: cfg.WebhookURL,
		userAgent:  cfg.UserAgent,
		client:     &http.Client{Timeout: cfg.HTTPTimeout},
	}, nil
}

func (w *Webhook) Limit() int {
	return ContentLimit
}

// Send posts one message payload. A non-2xx status is a failure; callers do
// not retry within the run.
func (w *Webhook) Send(ctx context.Context, content string) error {
	tracer := otel.Tracer("feedherald/sink/discord")
	ctx, span := tracer.Start(ctx, "sink.discord.send")
	span.SetAttributes(
		attribute.Int("sink.payload_chars", len([]rune(content))),
		attribute.String("digest.name", core.DigestFromContext(ctx)),
		attribute.String("run.id", core.RunIDFromContext(ctx)),
	)
	defer span.End()

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.userAgent != "" {
		req.Header.Set("User-Agent", w.userAgent)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("webhook returned status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
