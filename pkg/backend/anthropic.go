package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic implements Backend for Claude models.
type Anthropic struct {
	client anthropic.Client
}

// NewAnthropic creates a new Anthropic backend.
func NewAnthropic(apiKey string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Anthropic{client: client}, nil
}

// Name returns the backend identifier.
func (a *Anthropic) Name() string {
	return "anthropic"
}

// Models returns the list of supported Claude models.
func (a *Anthropic) Models() []string {
	return []string{
		"claude-sonnet-4-20250514",
		"claude-opus-4-20250514",
	}
}

// Generate sends a prompt to Claude.
func (a *Anthropic) Generate(ctx context.Context, model string, prompt string) (*Reply, error) {
	model = DefaultModel(a, model)
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, wrapSDKError("anthropic", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &Reply{
		Text:  sb.String(),
		Model: model,
		Usage: newUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens),
	}, nil
}
