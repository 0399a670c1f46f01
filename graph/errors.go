package graph

import (
	"errors"
	"fmt"
)

// ErrMaxStepsExceeded is matched by every RunawayLoopError via errors.Is.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// Orchestration error codes.
const (
	CodeNodeFailed    = "NODE_FAILED"
	CodeNodeTimeout   = "NODE_TIMEOUT"
	CodeNodeNotFound  = "NODE_NOT_FOUND"
	CodeNoRoute       = "NO_ROUTE"
	CodeMergeRejected = "MERGE_REJECTED"
	CodeCancelled     = "CANCELLED"
	CodeStateCopy     = "STATE_COPY_FAILED"
)

// EngineError reports a misconfigured engine (missing reducer, duplicate
// node, bad option). It is returned before any step runs.
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// OrchestrationError aborts a run.
//
// It is returned for a failed or timed-out step, a state the Router cannot
// decide on, a delta the Reducer rejects, or cancellation between steps.
// Run returns the last consistent state alongside it, so callers get both
// the partial state and the point at which the run stopped.
type OrchestrationError struct {
	// Code is one of the Code* constants.
	Code string

	// Message is the human-readable description.
	Message string

	// RunID identifies the failed run.
	RunID string

	// Step is the 1-based step that was about to run or was running.
	Step int

	// NodeID is the node that failed, or "" when routing failed.
	NodeID string

	// LastCompleted is the last node whose delta was merged, or "".
	LastCompleted string

	// Cause is the underlying error.
	Cause error
}

func (e *OrchestrationError) Error() string {
	msg := fmt.Sprintf("%s: %s (run %s, step %d", e.Code, e.Message, e.RunID, e.Step)
	if e.NodeID != "" {
		msg += ", node " + e.NodeID
	}
	if e.LastCompleted != "" {
		msg += ", after " + e.LastCompleted
	}
	msg += ")"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *OrchestrationError) Unwrap() error {
	return e.Cause
}

// RunawayLoopError is returned when a run needs more steps than the
// configured bound. It carries the node the Router wanted to run next.
type RunawayLoopError struct {
	RunID         string
	MaxSteps      int
	Next          string
	LastCompleted string
}

func (e *RunawayLoopError) Error() string {
	return fmt.Sprintf("RUNAWAY_LOOP: run %s exceeded %d steps (last %s, next %s)",
		e.RunID, e.MaxSteps, e.LastCompleted, e.Next)
}

// Is reports whether target is ErrMaxStepsExceeded.
func (e *RunawayLoopError) Is(target error) bool {
	return target == ErrMaxStepsExceeded
}
