// Package backend holds the transports the remote agent runs on.
package backend

import (
	"context"
	"fmt"
	"strings"
)

// Backend defines the interface for LLM provider transports.
type Backend interface {
	// Generate sends a prompt to the model and returns its reply.
	Generate(ctx context.Context, model string, prompt string) (*Reply, error)

	// Name returns the backend identifier.
	Name() string

	// Models returns the list of supported models. The first entry is the default.
	Models() []string
}

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Reply is the text a backend produced plus optional usage data.
type Reply struct {
	Text  string
	Model string
	Usage *Usage
}

// Keys holds provider API keys.
type Keys struct {
	Anthropic string
	OpenAI    string
	Google    string
	DeepSeek  string
}

// New creates the named backend. "mock" needs no key.
func New(name string, keys Keys) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "anthropic":
		return NewAnthropic(keys.Anthropic)
	case "openai":
		return NewOpenAI(keys.OpenAI)
	case "google":
		return NewGoogle(keys.Google)
	case "deepseek":
		return NewDeepSeek(keys.DeepSeek)
	case "mock":
		return NewMock(), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// DefaultModel returns model, or the backend's first model when model is empty.
func DefaultModel(b Backend, model string) string {
	if model != "" || b == nil {
		return model
	}
	if models := b.Models(); len(models) > 0 {
		return models[0]
	}
	return ""
}
