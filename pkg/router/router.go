package router

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/taskgate/pkg/scorer"
	"github.com/zen-systems/taskgate/pkg/task"
)

const (
	// DefaultLowBoundary is the lowest score that still allows a local fallback.
	DefaultLowBoundary = 30
	// DefaultHighBoundary is the highest score still sent to the remote agent.
	DefaultHighBoundary = 60
)

// Router decides whether a task is delegated or processed locally.
// It is safe for concurrent use.
type Router struct {
	low    int
	high   int
	scorer *scorer.Scorer
	now    func() time.Time
	log    zerolog.Logger

	remoteOnly     atomic.Int64
	remoteFallback atomic.Int64
	local          atomic.Int64
}

// Option configures a Router.
type Option func(*Router)

// WithThresholds overrides the lane boundaries. low <= high is assumed.
func WithThresholds(low, high int) Option {
	return func(r *Router) {
		r.low = low
		r.high = high
	}
}

// WithScorer replaces the default complexity scorer.
func WithScorer(s *scorer.Scorer) Option {
	return func(r *Router) {
		if s != nil {
			r.scorer = s
		}
	}
}

// WithClock sets the time source used to stamp decisions.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger enables debug logging of each decision.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Router) {
		r.log = log.With().Str("component", "router").Logger()
	}
}

// New creates a router with default thresholds unless overridden.
func New(opts ...Option) *Router {
	r := &Router{
		low:    DefaultLowBoundary,
		high:   DefaultHighBoundary,
		scorer: scorer.Default,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Thresholds returns the configured lane boundaries.
func (r *Router) Thresholds() (low, high int) {
	return r.low, r.high
}

// Route scores the task and picks a lane. The input is never modified; the
// decision carries a copy with its complexity filled in.
func (r *Router) Route(t *task.Task) (*Decision, error) {
	if t == nil {
		return nil, task.ErrInvalidInput
	}

	complexity := r.scorer.Score(t)
	d := r.decide(complexity)
	d.Complexity = complexity
	d.Task = t.WithComplexity(complexity)
	d.Timestamp = r.now().UTC().Format(time.RFC3339Nano)

	r.count(d.Lane)
	r.log.Debug().
		Str("task_type", string(t.Type)).
		Int("complexity", complexity).
		Str("lane", string(d.Lane)).
		Msg(d.Reasoning)

	return d, nil
}

// RouteJSON decodes a raw task document and routes it.
func (r *Router) RouteJSON(raw []byte) (*Decision, error) {
	t, err := task.Decode(raw)
	if err != nil {
		return nil, err
	}
	return r.Route(t)
}

// Lane reports which lane a given score falls into.
func (r *Router) Lane(complexity int) Lane {
	return r.decide(complexity).Lane
}

// Stats returns the decision counters.
func (r *Router) Stats() Stats {
	return Stats{
		RemoteOnly:         r.remoteOnly.Load(),
		RemoteWithFallback: r.remoteFallback.Load(),
		Local:              r.local.Load(),
	}
}

// decide applies the lane rule. Boundary scores belong to the middle lane.
func (r *Router) decide(c int) *Decision {
	switch {
	case c < r.low:
		return &Decision{
			Executor:    ExecutorRemote,
			CanFallback: false,
			Lane:        LaneRemoteOnly,
			Reasoning:   fmt.Sprintf("complexity %d is below %d: low complexity, remote-only", c, r.low),
		}
	case c <= r.high:
		return &Decision{
			Executor:    ExecutorRemote,
			CanFallback: true,
			Lane:        LaneRemoteWithFallback,
			Reasoning:   fmt.Sprintf("complexity %d is within [%d, %d]: medium complexity, remote with fallback", c, r.low, r.high),
		}
	default:
		return &Decision{
			Executor:    ExecutorLocal,
			CanFallback: false,
			Lane:        LaneLocal,
			Reasoning:   fmt.Sprintf("complexity %d is above %d: high complexity, local execution", c, r.high),
		}
	}
}

func (r *Router) count(l Lane) {
	switch l {
	case LaneRemoteOnly:
		r.remoteOnly.Add(1)
	case LaneRemoteWithFallback:
		r.remoteFallback.Add(1)
	case LaneLocal:
		r.local.Add(1)
	}
}
