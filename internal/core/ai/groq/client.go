package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"recipio/internal/core/ai/provider"
	"recipio/internal/infrastructure/config"
	"recipio/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client talks to an OpenAI-compatible chat completions endpoint (Groq by
// default).
type Client struct {
	client      *resty.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

var _ provider.Provider = (*Client)(nil)

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string             `json:"model"`
	Messages       []provider.Message `json:"messages"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	Temperature    float64            `json:"temperature,omitempty"`
	ResponseFormat *responseFormat    `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message provider.Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

var (
	shared     *Client
	sharedOnce sync.Once
)

// Shared returns the process-wide client, creating it from cfg on first use.
// Later calls ignore cfg.
func Shared(cfg *config.Config) *Client {
	sharedOnce.Do(func() {
		shared = NewClient(cfg)
	})
	return shared
}

// NewClient creates a client from cfg.
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.Groq.BaseURL).
		SetAuthToken(cfg.Groq.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Groq.Timeout)

	return &Client{
		client:      client,
		model:       cfg.Groq.Model,
		maxTokens:   cfg.Groq.MaxTokens,
		temperature: cfg.Groq.Temperature,
		timeout:     cfg.Groq.Timeout,
	}
}

// Generate posts req to /chat/completions and returns the first choice.
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	body := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.Model == "" {
		body.Model = c.model
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.maxTokens
	}
	if body.Temperature == 0 {
		body.Temperature = c.temperature
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	common.LogDebug("Sending completion request",
		zap.String("model", body.Model),
		zap.Int("messages", len(body.Messages)),
		zap.Bool("json_mode", req.JSONMode),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to completion provider: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("completion provider returned status %d: %s", resp.StatusCode(), errorMessage(resp.Body()))
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse completion response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, errors.New("no choices in completion response")
	}

	out := &provider.Response{
		Content: result.Choices[0].Message.Content,
		Model:   result.Model,
	}
	out.Usage.PromptTokens = result.Usage.PromptTokens
	out.Usage.CompletionTokens = result.Usage.CompletionTokens
	out.Usage.TotalTokens = result.Usage.TotalTokens

	common.LogDebug("Completion received",
		zap.String("model", result.Model),
		zap.Int("content_length", len(out.Content)),
		zap.Int("total_tokens", out.Usage.TotalTokens),
	)

	return out, nil
}

// errorMessage extracts the provider's error message, falling back to the
// body text.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return string(body)
}

func (c *Client) GetModel() string {
	return c.model
}

func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
