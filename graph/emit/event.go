// Package emit delivers workflow observability events to pluggable backends.
package emit

// Event represents an observability event emitted during workflow execution.
//
// The engine emits one event when a run starts, one before and one after
// every step, and one when the run finishes or fails. Steps may add their
// own events (for example after an oracle call, with token counts).
type Event struct {
	// RunID identifies the workflow execution that emitted this event.
	RunID string

	// Step is the sequential step number in the workflow (1-indexed).
	// Zero for run-level events.
	Step int

	// NodeID identifies which node emitted this event.
	// Empty string for run-level events.
	NodeID string

	// Msg names the event. The engine uses the Msg* constants.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": step or run duration in milliseconds
	//   - "error": error text for failure events
	//   - "tokens_in", "tokens_out", "model": oracle usage
	//   - "next": node chosen by the router
	Meta map[string]interface{}
}

// Event names emitted by the engine.
const (
	MsgRunStart    = "run_start"
	MsgRunComplete = "run_complete"
	MsgRunError    = "run_error"
	MsgNodeStart   = "node_start"
	MsgNodeEnd     = "node_end"
	MsgNodeError   = "node_error"

	// Collaborator calls made from inside a step.
	MsgOracleCall = "oracle_call"
	MsgToolRun    = "tool_run"
)
