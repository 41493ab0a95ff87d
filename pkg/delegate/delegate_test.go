package delegate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		prompt    string
		agentType AgentType
		wantMsg   string
	}{
		{"empty prompt", "", AgentTask, "taskPrompt cannot be empty"},
		{"blank prompt", " \n\t", AgentTask, "taskPrompt cannot be empty"},
		{"missing agent type", "do it", "", "agentType is required"},
		{"unknown agent type", "do it", "wizard", `"wizard"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.prompt, tt.agentType)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	for _, a := range AgentTypes {
		assert.NoError(t, Validate("p", a))
	}
}

func TestValidateErrorKinds(t *testing.T) {
	assert.ErrorIs(t, Validate("", AgentTask), ErrEmptyPrompt)
	assert.ErrorIs(t, Validate("p", ""), ErrMissingAgentType)

	var invalid *InvalidAgentTypeError
	require.True(t, errors.As(Validate("p", "code-review"), &invalid))
	assert.Equal(t, "code-review", invalid.Value)
	assert.Contains(t, invalid.Error(), "task, explore, general-purpose")
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"reset", NewTransportError("ECONNRESET", "socket hang up"), true},
		{"refused lowercase code", NewTransportError("econnrefused", "refused"), true},
		{"timed out", NewTransportError("ETIMEDOUT", "timed out"), true},
		{"unknown code", NewTransportError("EACCES", "denied"), false},
		{"wrapped reset", wrap(NewTransportError("ECONNRESET", "reset")), true},
		{"plain error", errors.New("bad request"), false},
		{"delegation timeout", ErrTimeout, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"permanent transport", Permanent(NewTransportError("ECONNRESET", "reset")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestMeasured(t *testing.T) {
	m := Measured(12, 1500*time.Millisecond)
	require.NotNil(t, m.Tokens)
	assert.Equal(t, 12, *m.Tokens)
	d, ok := m.DurationValue()
	assert.True(t, ok)
	assert.Equal(t, int64(1500), d.Milliseconds())

	_, ok = Metadata{}.DurationValue()
	assert.False(t, ok)
}

func wrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "outer: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }
