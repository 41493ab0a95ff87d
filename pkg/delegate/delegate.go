// Package delegate hands prompts to an out-of-process agent.
//
// A Delegator validates its input, then runs one or more attempts under a
// Policy: each attempt is bounded by a timeout and only transient failures
// are retried. Client talks to a real backend; Mock is a scripted stand-in
// with call history for tests.
package delegate

import (
	"context"
	"strings"
	"time"
)

// AgentType selects the kind of remote agent that handles a prompt.
type AgentType string

const (
	AgentTask           AgentType = "task"
	AgentExplore        AgentType = "explore"
	AgentGeneralPurpose AgentType = "general-purpose"
)

// AgentTypes lists every accepted agent type.
var AgentTypes = []AgentType{AgentTask, AgentExplore, AgentGeneralPurpose}

// Valid reports whether a is one of AgentTypes.
func (a AgentType) Valid() bool {
	for _, t := range AgentTypes {
		if a == t {
			return true
		}
	}
	return false
}

// Delegator sends a prompt to a remote agent.
type Delegator interface {
	Delegate(ctx context.Context, prompt string, agentType AgentType) (*Result, error)
}

// Metadata is the telemetry a remote agent reported. Fields the agent did not
// supply stay nil.
type Metadata struct {
	Tokens *int `json:"tokens,omitempty"`
	// Duration is in milliseconds.
	Duration *int64 `json:"duration,omitempty"`
}

// Measured builds metadata with both fields present.
func Measured(tokens int, d time.Duration) Metadata {
	ms := d.Milliseconds()
	return Metadata{Tokens: &tokens, Duration: &ms}
}

// DurationValue returns the reported duration, if any.
func (m Metadata) DurationValue() (time.Duration, bool) {
	if m.Duration == nil {
		return 0, false
	}
	return time.Duration(*m.Duration) * time.Millisecond, true
}

// Result is the outcome of a successful delegation.
type Result struct {
	Output   string   `json:"output"`
	Metadata Metadata `json:"metadata"`
}

func (r *Result) clone() *Result {
	if r == nil {
		return nil
	}
	c := &Result{Output: r.Output}
	if r.Metadata.Tokens != nil {
		v := *r.Metadata.Tokens
		c.Metadata.Tokens = &v
	}
	if r.Metadata.Duration != nil {
		v := *r.Metadata.Duration
		c.Metadata.Duration = &v
	}
	return c
}

// CallRecord is one delegation attempt seen by a Mock.
type CallRecord struct {
	Prompt    string    `json:"prompt"`
	AgentType AgentType `json:"agentType"`
	Attempt   int       `json:"attempt"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks delegation arguments. It runs before any attempt.
func Validate(prompt string, agentType AgentType) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if agentType == "" {
		return ErrMissingAgentType
	}
	if !agentType.Valid() {
		return &InvalidAgentTypeError{Value: string(agentType)}
	}
	return nil
}
