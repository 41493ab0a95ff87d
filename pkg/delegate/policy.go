package delegate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRetries is the number of extra attempts after a transient failure.
	DefaultMaxRetries = 1
)

const tracerName = "github.com/zen-systems/taskgate/pkg/delegate"

// Attempt describes one finished attempt. It is passed to Policy.OnAttempt.
type Attempt struct {
	AgentType AgentType
	Number    int
	Duration  time.Duration
	Err       error
	Transient bool
}

// Policy defines timeout and retry behavior.
type Policy struct {
	Timeout    time.Duration
	MaxRetries int
	// Backoff is the pause between attempts. Zero retries immediately.
	Backoff time.Duration
	// OnAttempt, when set, is called after every attempt.
	OnAttempt func(Attempt)
}

// DefaultPolicy returns a 30s timeout with one retry.
func DefaultPolicy() Policy {
	return Policy{Timeout: DefaultTimeout, MaxRetries: DefaultMaxRetries}
}

func (p Policy) normalized() Policy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	return p
}

type attemptFunc func(ctx context.Context, attempt int) (*Result, error)

// run executes fn until it succeeds, fails permanently, or runs out of retries.
// Attempts are strictly sequential. The last error is returned unchanged.
// before, if non-nil, is called synchronously ahead of each attempt.
func (p Policy) run(ctx context.Context, agentType AgentType, before func(attempt int), fn attemptFunc) (*Result, error) {
	p = p.normalized()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "delegate", trace.WithAttributes(
		attribute.String("agent.type", string(agentType)),
		attribute.Int("retry.max", p.MaxRetries),
	))
	defer span.End()

	var lastErr error
	maxAttempts := p.MaxRetries + 1
	for n := 1; n <= maxAttempts; n++ {
		if before != nil {
			before(n)
		}
		started := time.Now()
		res, err := p.attempt(ctx, agentType, n, fn)
		transient := IsTransient(err)
		if p.OnAttempt != nil {
			p.OnAttempt(Attempt{
				AgentType: agentType,
				Number:    n,
				Duration:  time.Since(started),
				Err:       err,
				Transient: transient,
			})
		}
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", n))
			return res, nil
		}

		lastErr = err
		if !transient || n == maxAttempts {
			break
		}
		if err := sleepWithContext(ctx, p.Backoff); err != nil {
			lastErr = err
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return nil, lastErr
}

type outcome struct {
	res *Result
	err error
}

// attempt runs fn under the per-attempt timeout. When the timeout fires the
// attempt's context is canceled and whatever fn later returns is dropped.
func (p Policy) attempt(ctx context.Context, agentType AgentType, n int, fn attemptFunc) (*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "delegate.attempt", trace.WithAttributes(
		attribute.String("agent.type", string(agentType)),
		attribute.Int("attempt", n),
	))
	defer span.End()

	attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("delegation attempt panicked: %v", r)}
			}
		}()
		res, err := fn(attemptCtx, n)
		done <- outcome{res: res, err: err}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-attemptCtx.Done():
		o = outcome{err: attemptCtx.Err()}
	}

	if o.err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			o.err = fmt.Errorf("%w after %s", ErrTimeout, p.Timeout)
		}
		span.RecordError(o.err)
		span.SetAttributes(attribute.Bool("transient", IsTransient(o.err)))
		span.SetStatus(codes.Error, o.err.Error())
		return nil, o.err
	}
	if o.res == nil {
		return nil, fmt.Errorf("delegation attempt returned no result")
	}
	return o.res, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
