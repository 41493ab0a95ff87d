// Package dispatch runs the full pipeline for a task: route it, then delegate
// it remotely or execute it locally, falling back when the lane allows.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zen-systems/taskgate/pkg/delegate"
	"github.com/zen-systems/taskgate/pkg/executor"
	"github.com/zen-systems/taskgate/pkg/router"
	"github.com/zen-systems/taskgate/pkg/task"
)

// Recorder receives dispatch metrics. observability.Metrics implements it.
type Recorder interface {
	executor.Recorder
	RecordDecision(*router.Decision)
	RecordFallback()
}

// Result is the normalized outcome of one dispatched task. Tokens and Duration
// are nil when the remote agent did not report them.
type Result struct {
	TaskID      string           `json:"taskId"`
	Executor    router.Executor  `json:"executor"`
	Output      string           `json:"output"`
	Tokens      *int             `json:"tokens,omitempty"`
	Duration    *time.Duration   `json:"durationNs,omitempty"`
	FellBack    bool             `json:"fellBack"`
	RemoteError string           `json:"remoteError,omitempty"`
	Decision    *router.Decision `json:"decision"`
}

// Dispatcher wires a router to the remote and local executors.
type Dispatcher struct {
	router    *router.Router
	delegator delegate.Delegator
	executor  *executor.Executor
	recorder  Recorder
	log       zerolog.Logger
	newID     func() string
	now       func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRouter sets the router.
func WithRouter(r *router.Router) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.router = r
		}
	}
}

// WithDelegator sets the remote delegator.
func WithDelegator(del delegate.Delegator) Option {
	return func(d *Dispatcher) {
		if del != nil {
			d.delegator = del
		}
	}
}

// WithExecutor sets the local executor.
func WithExecutor(e *executor.Executor) Option {
	return func(d *Dispatcher) {
		if e != nil {
			d.executor = e
		}
	}
}

// WithRecorder sets the metrics sink for decisions, fallbacks and remote runs.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log.With().Str("component", "dispatch").Logger()
	}
}

// WithIDGenerator overrides how missing task IDs are filled.
func WithIDGenerator(gen func() string) Option {
	return func(d *Dispatcher) {
		if gen != nil {
			d.newID = gen
		}
	}
}

// New creates a dispatcher. Without a delegator every remote attempt fails
// with delegate.ErrNoBackend.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		router:    router.New(),
		delegator: delegate.NewClient(),
		executor:  executor.New(),
		recorder:  nopRecorder{},
		log:       zerolog.Nop(),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AgentFor maps a task kind to the remote agent type that handles it.
func AgentFor(kind task.Kind) delegate.AgentType {
	switch kind {
	case task.KindExplore:
		return delegate.AgentExplore
	case task.KindTask:
		return delegate.AgentTask
	default:
		return delegate.AgentGeneralPurpose
	}
}

// Dispatch routes t and runs it on the chosen executor. A remote failure in
// the remote-with-fallback lane is retried locally; the remote error is kept
// on the result.
func (d *Dispatcher) Dispatch(ctx context.Context, t *task.Task) (*Result, error) {
	if t == nil {
		return nil, task.ErrInvalidInput
	}
	t = t.Clone()
	if t.ID == "" {
		t.ID = d.newID()
	}

	decision, err := d.router.Route(t)
	if err != nil {
		return nil, err
	}
	d.recorder.RecordDecision(decision)

	log := d.log.With().
		Str("task_id", t.ID).
		Str("lane", string(decision.Lane)).
		Int("complexity", decision.Complexity).
		Logger()
	log.Info().Msg(decision.Reasoning)

	if decision.Executor == router.ExecutorLocal {
		return d.runLocal(ctx, decision)
	}

	res, remoteErr := d.runRemote(ctx, decision)
	if remoteErr == nil {
		return res, nil
	}
	if !decision.CanFallback || ctx.Err() != nil {
		return nil, remoteErr
	}

	log.Warn().Err(remoteErr).Msg("remote delegation failed, falling back to local execution")
	d.recorder.RecordFallback()

	res, err = d.runLocal(ctx, decision)
	if err != nil {
		return nil, fmt.Errorf("local fallback after remote failure (%v): %w", remoteErr, err)
	}
	res.FellBack = true
	res.RemoteError = remoteErr.Error()
	return res, nil
}

// DispatchJSON decodes a raw task document and dispatches it.
func (d *Dispatcher) DispatchJSON(ctx context.Context, raw []byte) (*Result, error) {
	t, err := task.Decode(raw)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, t)
}

func (d *Dispatcher) runLocal(ctx context.Context, decision *router.Decision) (*Result, error) {
	res, err := d.executor.Execute(ctx, decision.Task)
	if err != nil {
		return nil, err
	}
	tokens := res.Tokens
	duration := res.Duration
	return &Result{
		TaskID:   decision.Task.ID,
		Executor: router.ExecutorLocal,
		Output:   res.Output,
		Tokens:   &tokens,
		Duration: &duration,
		Decision: decision,
	}, nil
}

func (d *Dispatcher) runRemote(ctx context.Context, decision *router.Decision) (*Result, error) {
	t := decision.Task
	started := d.now()
	res, err := d.delegator.Delegate(ctx, t.Prompt, AgentFor(t.Type))
	elapsed := d.now().Sub(started)

	record := executor.ExecutionRecord{
		Executor:   string(router.ExecutorRemote),
		Duration:   elapsed,
		Success:    err == nil,
		TaskType:   t.Type,
		Complexity: t.Complexity,
	}
	if err != nil {
		record.Error = err.Error()
		d.recorder.RecordExecution(record)
		return nil, err
	}
	if res == nil {
		err = errors.New("remote delegation returned no result")
		record.Success = false
		record.Error = err.Error()
		d.recorder.RecordExecution(record)
		return nil, err
	}

	out := &Result{
		TaskID:   t.ID,
		Executor: router.ExecutorRemote,
		Output:   res.Output,
		Decision: decision,
	}
	if res.Metadata.Tokens != nil {
		v := *res.Metadata.Tokens
		out.Tokens = &v
		record.Tokens = v
	}
	if dur, ok := res.Metadata.DurationValue(); ok {
		out.Duration = &dur
	}
	d.recorder.RecordExecution(record)
	return out, nil
}

type nopRecorder struct{}

func (nopRecorder) RecordExecution(executor.ExecutionRecord) {}
func (nopRecorder) RecordDecision(*router.Decision)          {}
func (nopRecorder) RecordFallback()                          {}
