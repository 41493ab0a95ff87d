package task

import (
	"strings"
)

// Kind identifies the category of work a task represents.
type Kind string

const (
	KindExplore        Kind = "explore"
	KindTask           Kind = "task"
	KindGeneralPurpose Kind = "general-purpose"
	KindCodeReview     Kind = "code-review"
	KindAnalysis       Kind = "analysis"
	KindGeneration     Kind = "generation"
)

// Duration is the caller's rough estimate of how long a task will take.
type Duration string

const (
	DurationShort  Duration = "short"
	DurationMedium Duration = "medium"
	DurationLong   Duration = "long"
)

// Metadata holds the optional flags recognized on a task.
// Unknown keys in the source document are ignored.
type Metadata struct {
	RequiresContext       bool     `json:"requiresContext,omitempty"`
	RequiresMultipleSteps bool     `json:"requiresMultipleSteps,omitempty"`
	RequiresReasoning     bool     `json:"requiresReasoning,omitempty"`
	EstimatedDuration     Duration `json:"estimatedDuration,omitempty"`
}

// Task is a unit of work submitted for routing or execution.
type Task struct {
	ID         string   `json:"id,omitempty"`
	Type       Kind     `json:"type,omitempty"`
	Prompt     string   `json:"prompt,omitempty"`
	Metadata   Metadata `json:"metadata"`
	Complexity *int     `json:"complexity,omitempty"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Complexity != nil {
		v := *t.Complexity
		c.Complexity = &v
	}
	return &c
}

// WithComplexity returns a copy of the task carrying the given score.
// The receiver is left untouched.
func (t *Task) WithComplexity(score int) *Task {
	c := t.Clone()
	if c == nil {
		return nil
	}
	c.Complexity = &score
	return c
}

// Words counts whitespace separated words.
func Words(s string) int {
	return len(strings.Fields(s))
}
