package delegate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/taskgate/pkg/backend"
)

// agentPreambles steer the backend model toward each agent's role.
var agentPreambles = map[AgentType]string{
	AgentExplore:        "You are a read-only exploration agent. Locate the relevant code or information and summarize what you found.",
	AgentTask:           "You are a task agent. Carry out the request below and report the outcome concisely.",
	AgentGeneralPurpose: "You are a general-purpose agent. Plan the work, complete it end to end, and report the result.",
}

// Client delegates prompts to a remote agent running on a backend.
// Without a backend every attempt fails with ErrNoBackend.
type Client struct {
	backend backend.Backend
	model   string
	policy  Policy
	log     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBackend sets the backend and model. An empty model uses the backend default.
func WithBackend(b backend.Backend, model string) ClientOption {
	return func(c *Client) {
		c.backend = b
		c.model = model
	}
}

// WithPolicy sets the timeout and retry policy.
func WithPolicy(p Policy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithLogger sets the logger used for attempt failures.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log.With().Str("component", "delegate").Logger()
	}
}

// NewClient creates a production delegator.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		policy: DefaultPolicy(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Delegate sends prompt to the backend as the given agent type.
func (c *Client) Delegate(ctx context.Context, prompt string, agentType AgentType) (*Result, error) {
	if err := Validate(prompt, agentType); err != nil {
		return nil, err
	}

	return c.policy.run(ctx, agentType, nil, func(ctx context.Context, attempt int) (*Result, error) {
		if c.backend == nil {
			return nil, ErrNoBackend
		}

		started := time.Now()
		reply, err := c.backend.Generate(ctx, c.model, agentPrompt(agentType, prompt))
		if err != nil {
			c.log.Warn().
				Err(err).
				Str("backend", c.backend.Name()).
				Str("agent_type", string(agentType)).
				Int("attempt", attempt).
				Bool("transient", IsTransient(err)).
				Msg("delegation attempt failed")
			return nil, err
		}

		c.log.Debug().
			Str("backend", c.backend.Name()).
			Str("model", reply.Model).
			Dur("elapsed", time.Since(started)).
			Msg("delegation attempt succeeded")

		res := &Result{Output: reply.Text}
		if reply.Usage != nil {
			tokens := reply.Usage.TotalTokens
			res.Metadata.Tokens = &tokens
		}
		return res, nil
	})
}

func agentPrompt(agentType AgentType, prompt string) string {
	return agentPreambles[agentType] + "\n\n" + prompt
}
