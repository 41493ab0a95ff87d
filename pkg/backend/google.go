package backend

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Google implements Backend for Gemini models.
type Google struct {
	client *genai.Client
}

// NewGoogle creates a new Google Gemini backend.
func NewGoogle(apiKey string) (*Google, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &Google{client: client}, nil
}

// Name returns the backend identifier.
func (a *Google) Name() string {
	return "google"
}

// Models returns the list of supported Gemini models.
func (a *Google) Models() []string {
	return []string{
		"gemini-2.5-pro",
		"gemini-2.5-flash",
	}
}

// Generate sends a prompt to Gemini.
func (a *Google) Generate(ctx context.Context, model string, prompt string) (*Reply, error) {
	model = DefaultModel(a, model)
	resp, err := a.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("google API error: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("google returned no candidates")
	}

	var sb strings.Builder
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}

	reply := &Reply{Text: sb.String(), Model: model}
	if md := resp.UsageMetadata; md != nil {
		reply.Usage = newUsage(int64(md.PromptTokenCount), int64(md.CandidatesTokenCount))
	}
	return reply, nil
}
