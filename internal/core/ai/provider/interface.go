package provider

import (
	"context"
	"time"
)

// Message is one chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion request.
type Request struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	// JSONMode asks the provider to constrain output to a JSON object.
	JSONMode bool `json:"-"`
}

// NewRequest builds a request from a system persona and a user instruction.
func NewRequest(system, user string, jsonMode bool) *Request {
	return &Request{
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		JSONMode: jsonMode,
	}
}

// Response is the provider's raw completion text.
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Provider is a text completion backend. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Generate returns the completion for req. Errors are opaque provider
	// failures (network, auth, rate limit).
	Generate(ctx context.Context, req *Request) (*Response, error)

	// GetModel returns the default model name.
	GetModel() string

	// GetTimeout returns the per-request timeout.
	GetTimeout() time.Duration

	// Close releases idle connections.
	Close() error
}
