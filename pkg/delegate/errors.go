package delegate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/zen-systems/taskgate/pkg/backend"
)

var (
	// ErrEmptyPrompt is returned for a blank prompt.
	ErrEmptyPrompt = errors.New("taskPrompt cannot be empty")
	// ErrMissingAgentType is returned when no agent type was given.
	ErrMissingAgentType = errors.New("agentType is required")
	// ErrTimeout is returned when an attempt outlives its timeout.
	ErrTimeout = errors.New("delegation timed out")
	// ErrNoBackend is returned by a Client that has no backend to call.
	ErrNoBackend = errors.New("remote agent backend not configured")
)

// InvalidAgentTypeError names an agent type outside AgentTypes.
type InvalidAgentTypeError struct {
	Value string
}

func (e *InvalidAgentTypeError) Error() string {
	valid := make([]string, len(AgentTypes))
	for i, t := range AgentTypes {
		valid[i] = string(t)
	}
	return fmt.Sprintf("invalid agentType %q: must be one of %s", e.Value, strings.Join(valid, ", "))
}

// transientCodes are the transport error codes worth another attempt.
var transientCodes = map[string]bool{
	"ECONNRESET":   true,
	"ETIMEDOUT":    true,
	"ECONNREFUSED": true,
	"EPIPE":        true,
	"EHOSTUNREACH": true,
	"ENETUNREACH":  true,
	"EAI_AGAIN":    true,
}

var transientErrnos = []syscall.Errno{
	syscall.ECONNRESET,
	syscall.ETIMEDOUT,
	syscall.ECONNREFUSED,
	syscall.EPIPE,
	syscall.EHOSTUNREACH,
	syscall.ENETUNREACH,
}

// TransportError is a failure reported by the transport with a symbolic code
// such as ECONNRESET.
type TransportError struct {
	Code string
	Err  error
}

// NewTransportError builds a TransportError with a plain message.
func NewTransportError(code, message string) *TransportError {
	return &TransportError{Code: code, Err: errors.New(message)}
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("transport error %s", e.Code)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PermanentError marks a failure that must not be retried regardless of
// what it wraps.
type PermanentError struct {
	Err error
}

// Permanent wraps err so IsTransient reports false for it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether an error is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transientCodes[strings.ToUpper(transportErr.Code)]
	}
	for _, errno := range transientErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return false
}
