package backend

import (
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// StatusError wraps provider errors with HTTP status metadata.
type StatusError struct {
	Backend string
	Status  int
	Err     error
}

func (e *StatusError) Error() string {
	if e == nil {
		return "backend error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error (status=%d)", e.Backend, e.Status)
}

func (e *StatusError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable reports whether the status signals overload or a server fault.
func (e *StatusError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Status == 429 || (e.Status >= 500 && e.Status <= 599)
}

func wrapSDKError(name string, err error) error {
	wrapped := fmt.Errorf("%s API error: %w", name, err)

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return &StatusError{Backend: name, Status: anthropicErr.StatusCode, Err: wrapped}
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return &StatusError{Backend: name, Status: openaiErr.StatusCode, Err: wrapped}
	}
	return wrapped
}

func newUsage(prompt, completion int64) *Usage {
	return &Usage{
		PromptTokens:     int(prompt),
		CompletionTokens: int(completion),
		TotalTokens:      int(prompt + completion),
	}
}
