package delegate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/zen-systems/taskgate/pkg/task"
)

const (
	defaultMinDelay = 100 * time.Millisecond
	defaultMaxDelay = 500 * time.Millisecond
)

// Call is what a Behavior sees for one attempt.
type Call struct {
	Prompt    string
	AgentType AgentType
	Attempt   int
}

// Behavior scripts a Mock attempt. Returning an error fails the attempt and
// goes through the same retry classification as a real delegation.
// Returning (nil, nil) falls through to canned and default responses.
type Behavior func(ctx context.Context, call Call) (*Result, error)

// Mock is a scripted Delegator that records every attempt.
// Each Mock owns its history; instances never share state.
type Mock struct {
	policy    Policy
	responses map[string]*Result
	behavior  Behavior
	minDelay  time.Duration
	maxDelay  time.Duration
	now       func() time.Time

	mu      sync.Mutex
	rng     *rand.Rand
	history []CallRecord
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithDelay makes every attempt wait exactly d.
func WithDelay(d time.Duration) MockOption {
	return func(m *Mock) {
		m.minDelay, m.maxDelay = d, d
	}
}

// WithDelayRange makes every attempt wait a random duration in [lo, hi].
func WithDelayRange(lo, hi time.Duration) MockOption {
	return func(m *Mock) {
		if hi < lo {
			lo, hi = hi, lo
		}
		m.minDelay, m.maxDelay = lo, hi
	}
}

// WithSeed makes random delays and default responses reproducible.
func WithSeed(seed uint64) MockOption {
	return func(m *Mock) {
		m.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand sets the random source.
func WithRand(r *rand.Rand) MockOption {
	return func(m *Mock) {
		if r != nil {
			m.rng = r
		}
	}
}

// WithResponses registers canned results keyed by exact prompt.
func WithResponses(responses map[string]Result) MockOption {
	return func(m *Mock) {
		for prompt, res := range responses {
			m.responses[prompt] = res.clone()
		}
	}
}

// WithBehavior installs a scripted behavior.
func WithBehavior(b Behavior) MockOption {
	return func(m *Mock) {
		m.behavior = b
	}
}

// WithMockPolicy sets the timeout and retry policy.
func WithMockPolicy(p Policy) MockOption {
	return func(m *Mock) {
		m.policy = p
	}
}

// WithMockClock sets the time source for call records.
func WithMockClock(now func() time.Time) MockOption {
	return func(m *Mock) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMock creates a mock delegator with a random 100-500ms delay.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		policy:    DefaultPolicy(),
		responses: make(map[string]*Result),
		minDelay:  defaultMinDelay,
		maxDelay:  defaultMaxDelay,
		now:       time.Now,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Delegate validates its input and runs scripted attempts under the mock's policy.
func (m *Mock) Delegate(ctx context.Context, prompt string, agentType AgentType) (*Result, error) {
	if err := Validate(prompt, agentType); err != nil {
		return nil, err
	}

	record := func(attempt int) { m.record(prompt, agentType, attempt) }
	return m.policy.run(ctx, agentType, record, func(ctx context.Context, attempt int) (*Result, error) {
		delay := m.nextDelay()
		if err := sleepWithContext(ctx, delay); err != nil {
			return nil, err
		}

		if m.behavior != nil {
			res, err := m.behavior(ctx, Call{Prompt: prompt, AgentType: agentType, Attempt: attempt})
			if err != nil {
				return nil, err
			}
			if res != nil {
				return res.clone(), nil
			}
		}
		if res, ok := m.responses[prompt]; ok {
			return res.clone(), nil
		}
		return m.defaultResult(prompt, agentType, delay), nil
	})
}

// History returns a copy of every recorded attempt, oldest first.
func (m *Mock) History() []CallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CallRecord, len(m.history))
	copy(out, m.history)
	return out
}

// ClearHistory forgets all recorded attempts.
func (m *Mock) ClearHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
}

func (m *Mock) record(prompt string, agentType AgentType, attempt int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, CallRecord{
		Prompt:    prompt,
		AgentType: agentType,
		Attempt:   attempt,
		Timestamp: m.now(),
	})
}

func (m *Mock) nextDelay() time.Duration {
	if m.maxDelay <= m.minDelay {
		return m.minDelay
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minDelay + time.Duration(m.rng.Int64N(int64(m.maxDelay-m.minDelay)+1))
}

// defaultResult fabricates a reply that is specific to the prompt.
func (m *Mock) defaultResult(prompt string, agentType AgentType, delay time.Duration) *Result {
	sum := sha256.Sum256([]byte(prompt))
	ref := hex.EncodeToString(sum[:])[:8]

	m.mu.Lock()
	extra := m.rng.IntN(200)
	m.mu.Unlock()

	words := task.Words(prompt)
	output := fmt.Sprintf("[%s agent] completed %q (%d words, ref %s)", agentType, truncate(prompt, 80), words, ref)
	tokens := words*4 + 50 + extra
	return &Result{Output: output, Metadata: Measured(tokens, delay)}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
