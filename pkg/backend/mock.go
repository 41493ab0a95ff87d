package backend

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Mock returns deterministic replies for local runs and tests.
type Mock struct {
	responses       map[string]string
	defaultResponse string
	calls           atomic.Int64

	// Usage, when set, is attached to every reply.
	Usage *Usage
	// Err, when set, is returned instead of a reply.
	Err error
}

// NewMock creates a mock backend with a default response.
func NewMock() *Mock {
	return &Mock{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockWithResponses creates a mock backend with predefined responses.
func NewMockWithResponses(responses map[string]string, defaultResponse string) *Mock {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &Mock{responses: responses, defaultResponse: defaultResponse}
}

// Name returns the backend identifier.
func (a *Mock) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *Mock) Models() []string {
	return []string{"mock-1"}
}

// Calls reports how many times Generate ran.
func (a *Mock) Calls() int {
	return int(a.calls.Load())
}

// Generate echoes the prompt after the default response, or returns the
// canned response registered for the exact prompt.
func (a *Mock) Generate(ctx context.Context, model string, prompt string) (*Reply, error) {
	a.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.Err != nil {
		return nil, a.Err
	}
	model = DefaultModel(a, model)
	if response, ok := a.responses[prompt]; ok {
		return &Reply{Text: response, Model: model, Usage: a.Usage}, nil
	}
	content := fmt.Sprintf("%s\n%s", a.defaultResponse, prompt)
	return &Reply{Text: content, Model: model, Usage: a.Usage}, nil
}
