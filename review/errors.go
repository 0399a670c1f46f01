package review

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/reviewgraph/graph"
)

// OrchestrationError is returned by Run for any step failure, reducer
// violation, routing failure or cancellation. errors.As reaches the
// underlying MalformedOracleResponseError or CollaboratorTimeoutError
// through it.
type OrchestrationError = graph.OrchestrationError

// RunawayLoopError is returned by Run when the step bound is exceeded.
type RunawayLoopError = graph.RunawayLoopError

// ErrEmptySnippet is returned by Run for a blank snippet.
var ErrEmptySnippet = errors.New("snippet is empty")

// ErrInvalidUTF8 is returned by Run for a snippet that is not valid UTF-8.
// Steps work on JSON snapshots of the state, which cannot carry such bytes
// unchanged.
var ErrInvalidUTF8 = errors.New("snippet is not valid UTF-8")

// MalformedOracleResponseError reports oracle output that could not be
// parsed or is inconsistent with the analyzed snippet.
type MalformedOracleResponseError struct {
	Step   Step
	Reason string
	// Raw is the sanitized oracle output.
	Raw   string
	Cause error
}

func (e *MalformedOracleResponseError) Error() string {
	msg := fmt.Sprintf("MALFORMED_ORACLE_RESPONSE: %s: %s", e.Step, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *MalformedOracleResponseError) Unwrap() error {
	return e.Cause
}

// CollaboratorTimeoutError reports an oracle or tool call that exceeded
// its bound. It unwraps to context.DeadlineExceeded.
type CollaboratorTimeoutError struct {
	Step         Step
	Collaborator string
	Timeout      time.Duration
	Cause        error
}

func (e *CollaboratorTimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("COLLABORATOR_TIMEOUT: %s: %s exceeded %s", e.Step, e.Collaborator, e.Timeout)
	}
	return fmt.Sprintf("COLLABORATOR_TIMEOUT: %s: %s timed out", e.Step, e.Collaborator)
}

func (e *CollaboratorTimeoutError) Unwrap() error {
	return e.Cause
}

// StateError is a reducer invariant violation.
type StateError struct {
	Field  string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("STATE_INVARIANT: %s: %s", e.Field, e.Reason)
}

// RoutingError reports a state the routing table has no entry for.
type RoutingError struct {
	Presence string
	Reason   string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("INCONSISTENT_STATE: %s (%s)", e.Reason, e.Presence)
}
