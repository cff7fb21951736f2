// Package llm talks to an OpenAI-compatible chat completion API (OpenRouter by default).
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cliq_go/internal/domain"
	"cliq_go/internal/infra"

	"github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
)

const serviceName = "openrouter"

// Config configures the client
type Config struct {
	BaseURL          string
	APIKey           string
	Model            string
	Timeout          time.Duration
	Temperature      float32
	MaxTokens        int
	FailureThreshold uint32        // consecutive failures before the breaker opens
	OpenTimeout      time.Duration // how long the breaker stays open
}

// ConfigFrom maps the application config onto the client config
func ConfigFrom(cfg *infra.Config) Config {
	return Config{
		BaseURL:          cfg.LLM.BaseURL,
		APIKey:           cfg.LLM.APIKey,
		Model:            cfg.LLM.Model,
		Timeout:          time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Temperature:      cfg.LLM.Temperature,
		MaxTokens:        cfg.LLM.MaxTokens,
		FailureThreshold: cfg.LLM.FailureThreshold,
		OpenTimeout:      time.Duration(cfg.LLM.OpenTimeoutSec) * time.Second,
	}
}

// Client is a chat completion client guarded by a circuit breaker.
// While the breaker is open calls fail fast with domain.ErrUpstreamUnavailable.
type Client struct {
	client  *openai.Client
	cfg     Config
	cb      *gobreaker.CircuitBreaker[string]
	metrics *infra.Metrics
}

// NewClient creates a client. An empty API key is a configuration error.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &domain.ConfigError{Field: "llm.api_key", Err: errors.New("missing")}
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	c := &Client{
		client:  openai.NewClientWithConfig(oc),
		cfg:     cfg,
		metrics: infra.GlobalMetrics,
	}

	c.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("LLM circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			c.metrics.SetCircuitState(to == gobreaker.StateOpen)
		},
		// caller cancellation says nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return c, nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.cfg.Model
}

// CompleteWithSystem sends a system + user prompt and returns the reply text.
func (c *Client) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reply, err := c.cb.Execute(func() (string, error) {
		return c.complete(ctx, systemPrompt, userPrompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", domain.NewUpstreamError(serviceName, "complete", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err))
	}
	return reply, err
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 &&
			apiErr.HTTPStatusCode != http.StatusTooManyRequests {
			return "", domain.NewFatalUpstreamError(serviceName, "complete", err)
		}
		return "", domain.NewUpstreamError(serviceName, "complete", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewFatalUpstreamError(serviceName, "complete", errors.New("no choices in response"))
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", domain.NewFatalUpstreamError(serviceName, "complete", errors.New("empty reply"))
	}
	return content, nil
}
