// Package gpt provides the chat-completion client and the cooking agent
// built on it: model intent classification, context-aware answers and
// recipe generation.
package gpt

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
	"github.com/hammamikhairi/souschef/internal/metrics"
)

// Compile-time interface check.
var _ domain.Completer = (*Client)(nil)

// DefaultModel is used when no model or deployment is configured.
const DefaultModel = openai.GPT4oMini

// ClientOption configures the Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	model      string
	apiVersion string
	baseURL    string
	timeout    time.Duration
}

// WithModel overrides the default model name. For Azure this is the
// deployment name.
func WithModel(model string) ClientOption {
	return func(c *clientConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithAPIVersion sets the Azure OpenAI API version.
func WithAPIVersion(v string) ClientOption {
	return func(c *clientConfig) {
		if v != "" {
			c.apiVersion = v
		}
	}
}

// WithBaseURL points a plain OpenAI client at a compatible server.
func WithBaseURL(u string) ClientOption {
	return func(c *clientConfig) { c.baseURL = u }
}

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client talks to OpenAI or an Azure OpenAI deployment.
type Client struct {
	api   *openai.Client
	model string
	log   *logger.Logger
}

// NewClient creates a chat client.
//   - endpoint: Azure OpenAI resource URL (e.g. "https://<resource>.openai.azure.com/");
//     empty talks to api.openai.com
//   - apiKey:   the subscription / API key
func NewClient(endpoint, apiKey string, log *logger.Logger, opts ...ClientOption) *Client {
	cc := clientConfig{
		model:      DefaultModel,
		apiVersion: "2024-02-01",
		timeout:    30 * time.Second,
	}
	for _, o := range opts {
		o(&cc)
	}

	var cfg openai.ClientConfig
	if endpoint != "" && strings.Contains(endpoint, "azure") {
		cfg = openai.DefaultAzureConfig(apiKey, endpoint)
		cfg.APIVersion = cc.apiVersion
		model := cc.model
		cfg.AzureModelMapperFunc = func(string) string { return model }
	} else {
		cfg = openai.DefaultConfig(apiKey)
		switch {
		case cc.baseURL != "":
			cfg.BaseURL = cc.baseURL
		case endpoint != "":
			cfg.BaseURL = endpoint
		}
	}
	cfg.HTTPClient = &http.Client{Timeout: cc.timeout}

	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: cc.model,
		log:   log,
	}
}

// Complete sends a system + user prompt and returns the assistant's reply.
// Every failure is reported as a *domain.CompletionError.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	c.log.Debug("gpt: chat (%d prompt chars, temp=%.1f, max=%d)", len(req.Prompt), req.Temperature, req.MaxTokens)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			c.log.Debug("gpt: API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", &domain.CompletionError{Op: "chat", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.CompletionError{Op: "chat", Err: errors.New("gpt: empty response (no choices)")}
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", &domain.CompletionError{Op: "chat", Err: errors.New("gpt: empty reply")}
	}
	c.log.Debug("gpt: reply (%d chars): %s", len(reply), truncate(reply, 120))
	return reply, nil
}

// timed wraps a completer call with the latency histogram.
func timed(ctx context.Context, c domain.Completer, op string, req domain.CompletionRequest) (string, error) {
	start := time.Now()
	defer metrics.ObserveCompletion(op, start)
	return c.Complete(ctx, req)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
