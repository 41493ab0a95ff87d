package delegate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/taskgate/pkg/backend"
)

func countingPolicy(count *int) Policy {
	p := DefaultPolicy()
	p.OnAttempt = func(Attempt) { *count++ }
	return p
}

func TestClientWithoutBackendFails(t *testing.T) {
	var attempts int
	c := NewClient(WithPolicy(countingPolicy(&attempts)))

	_, err := c.Delegate(context.Background(), "p", AgentTask)
	assert.ErrorIs(t, err, ErrNoBackend)
	assert.Equal(t, 1, attempts)
}

func TestClientValidates(t *testing.T) {
	c := NewClient(WithBackend(backend.NewMock(), ""))
	_, err := c.Delegate(context.Background(), "", AgentTask)
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	_, err = c.Delegate(context.Background(), "p", "bogus")
	assert.ErrorContains(t, err, "bogus")
}

func TestClientSendsAgentPreamble(t *testing.T) {
	b := backend.NewMock()
	c := NewClient(WithBackend(b, ""))

	res, err := c.Delegate(context.Background(), "Find login component", AgentExplore)
	require.NoError(t, err)
	assert.Contains(t, res.Output, "Find login component")
	assert.Contains(t, res.Output, "exploration agent")
	assert.Equal(t, 1, b.Calls())
}

func TestClientPreservesAbsentTelemetry(t *testing.T) {
	b := backend.NewMock()
	res, err := NewClient(WithBackend(b, "")).Delegate(context.Background(), "p", AgentTask)
	require.NoError(t, err)
	assert.Nil(t, res.Metadata.Tokens)
	assert.Nil(t, res.Metadata.Duration)

	b.Usage = &backend.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	res, err = NewClient(WithBackend(b, "")).Delegate(context.Background(), "p", AgentTask)
	require.NoError(t, err)
	require.NotNil(t, res.Metadata.Tokens)
	assert.Equal(t, 15, *res.Metadata.Tokens)
	assert.Nil(t, res.Metadata.Duration)
}

func TestClientRetriesRetryableStatus(t *testing.T) {
	b := backend.NewMock()
	b.Err = &backend.StatusError{Backend: "mock", Status: 503}

	_, err := NewClient(WithBackend(b, "")).Delegate(context.Background(), "p", AgentTask)
	require.Error(t, err)
	assert.Equal(t, 2, b.Calls())

	b = backend.NewMock()
	b.Err = &backend.StatusError{Backend: "mock", Status: 400}
	_, err = NewClient(WithBackend(b, "")).Delegate(context.Background(), "p", AgentTask)
	require.Error(t, err)
	assert.Equal(t, 1, b.Calls())
}
