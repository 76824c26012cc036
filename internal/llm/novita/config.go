// Package novita implements llm.Gateway against a Novita (OpenAI-compatible)
// chat-completions endpoint with bounded exponential-backoff retry.
package novita

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the Novita client.
type Config struct {
	APIKey     string        // if empty, falls back to env NOVITA_OPENAI_API_KEY
	BaseURL    string        // default https://api.novita.ai/openai
	Model      string        // default model for requests that don't name one
	MaxRetries int           // additional attempts after the first failure; default 3
	BaseDelay  time.Duration // backoff seed; retry i sleeps BaseDelay<<i; default 1s
	Timeout    time.Duration // http client timeout; default 45s
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("NOVITA_OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.novita.ai/openai"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek/deepseek-v3.1"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
		sleep:      sleepCtx,
	}
}

// DefaultModel returns the model used when a request doesn't name one.
func (c *Client) DefaultModel() string {
	return c.cfg.Model
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
