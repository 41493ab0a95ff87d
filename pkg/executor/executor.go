// Package executor processes tasks in-process and reports telemetry about each run.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/zen-systems/taskgate/pkg/task"
)

// Name is the executor tag carried by local results.
const Name = "local"

// tokensPerWord converts a word count into an estimated token count.
const tokensPerWord = 1.3

// ErrInvalidTask is returned when Execute receives no task.
var ErrInvalidTask = errors.New("invalid task: expected a task object")

// ProcessingError reports a failure while shaping a task's output.
type ProcessingError struct {
	TaskType task.Kind
	Err      error
}

func (e *ProcessingError) Error() string {
	kind := string(e.TaskType)
	if kind == "" {
		kind = "untyped"
	}
	return fmt.Sprintf("local execution of %s task failed: %v", kind, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Result is the normalized outcome of a local execution.
type Result struct {
	Output   string        `json:"output"`
	Executor string        `json:"executor"`
	Tokens   int           `json:"tokens"`
	Duration time.Duration `json:"duration"`
	Task     *task.Task    `json:"task"`
}

// Strategy shapes the payload for one kind of task. The returned value is
// serialized to JSON.
type Strategy func(ctx context.Context, t *task.Task, now time.Time) (any, error)

// Executor runs tasks locally. It is safe for concurrent use.
type Executor struct {
	log        Logger
	recorder   Recorder
	now        func() time.Time
	strategies map[task.Kind]Strategy
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the log collaborator.
func WithLogger(l Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRecorder sets the metrics collaborator.
func WithRecorder(r Recorder) Option {
	return func(e *Executor) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithClock sets the time source for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithStrategy replaces the strategy used for one task kind.
func WithStrategy(kind task.Kind, s Strategy) Option {
	return func(e *Executor) {
		if s != nil {
			e.strategies[kind] = s
		}
	}
}

// New creates a local executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		log:        nopLogger{},
		recorder:   nopRecorder{},
		now:        time.Now,
		strategies: make(map[task.Kind]Strategy),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute processes t and returns its structured output. Failures are logged
// and recorded before being returned as *ProcessingError.
func (e *Executor) Execute(ctx context.Context, t *task.Task) (*Result, error) {
	if t == nil {
		return nil, ErrInvalidTask
	}

	started := e.now()
	fields := map[string]any{
		"executor":  Name,
		"task_type": string(t.Type),
	}
	if t.ID != "" {
		fields["task_id"] = t.ID
	}
	if t.Complexity != nil {
		fields["complexity"] = *t.Complexity
	}
	e.log.Log(LevelInfo, "local execution started", fields)

	output, err := e.process(ctx, t, started)
	elapsed := e.now().Sub(started)
	if elapsed < 0 {
		elapsed = 0
	}

	if err != nil {
		e.log.Log(LevelError, "local execution failed", with(fields, map[string]any{
			"error":       err.Error(),
			"duration_ms": elapsed.Milliseconds(),
		}))
		e.recorder.RecordExecution(ExecutionRecord{
			Executor:   Name,
			Duration:   elapsed,
			Success:    false,
			TaskType:   t.Type,
			Complexity: t.Complexity,
			Error:      err.Error(),
		})
		return nil, &ProcessingError{TaskType: t.Type, Err: err}
	}

	tokens := EstimateTokens(t.Prompt, output)
	e.log.Log(LevelInfo, "local execution completed", with(fields, map[string]any{
		"tokens":      tokens,
		"duration_ms": elapsed.Milliseconds(),
	}))
	e.recorder.RecordExecution(ExecutionRecord{
		Executor:   Name,
		Duration:   elapsed,
		Tokens:     tokens,
		Success:    true,
		TaskType:   t.Type,
		Complexity: t.Complexity,
	})

	return &Result{
		Output:   output,
		Executor: Name,
		Tokens:   tokens,
		Duration: elapsed,
		Task:     t.Clone(),
	}, nil
}

func (e *Executor) process(ctx context.Context, t *task.Task, now time.Time) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			output, err = "", fmt.Errorf("%s strategy panicked: %v", t.Type, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	payload, err := e.strategyFor(t.Type)(ctx, t, now)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}
	return string(data), nil
}

// strategyFor picks the shaping strategy. Overrides win; otherwise every kind
// maps to exactly one built-in arm, with generic as the default.
func (e *Executor) strategyFor(kind task.Kind) Strategy {
	if s, ok := e.strategies[kind]; ok {
		return s
	}
	switch kind {
	case task.KindAnalysis:
		return analyze
	case task.KindGeneration:
		return generate
	case task.KindTask, task.KindGeneralPurpose:
		return processTask
	default:
		return generic
	}
}

// EstimateTokens approximates token usage from prompt and output word counts.
func EstimateTokens(prompt, output string) int {
	words := task.Words(prompt) + task.Words(output)
	return int(math.Ceil(float64(words) * tokensPerWord))
}

func with(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
