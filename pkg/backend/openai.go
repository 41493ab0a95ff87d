package backend

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// OpenAI implements Backend for OpenAI chat models and for OpenAI-compatible
// providers reached through a different base URL.
type OpenAI struct {
	client openai.Client
	name   string
	models []string
}

// NewOpenAI creates a new OpenAI backend.
func NewOpenAI(apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		name:   "openai",
		models: []string{"gpt-5.2-instant", "gpt-5.2-thinking", "gpt-5.2-codex"},
	}, nil
}

// NewDeepSeek creates a backend for DeepSeek, which speaks the OpenAI API.
func NewDeepSeek(apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek API key is required")
	}

	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(deepseekBaseURL)),
		name:   "deepseek",
		models: []string{"deepseek-chat", "deepseek-reasoner"},
	}, nil
}

// Name returns the backend identifier.
func (a *OpenAI) Name() string {
	return a.name
}

// Models returns the list of supported models.
func (a *OpenAI) Models() []string {
	return a.models
}

// Generate sends a prompt as a single user message.
func (a *OpenAI) Generate(ctx context.Context, model string, prompt string) (*Reply, error) {
	model = DefaultModel(a, model)
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(4096),
	})
	if err != nil {
		return nil, wrapSDKError(a.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", a.name)
	}

	return &Reply{
		Text:  resp.Choices[0].Message.Content,
		Model: model,
		Usage: newUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}, nil
}
