package graph

import "context"

// Node represents one step of a workflow.
//
// A node receives a private snapshot of the current state, performs its
// work (calling oracles, tools, or plain logic) and returns the fields it
// produced as a partial state. Nodes never decide where execution goes
// next; that is the engine's Router's job, so the transition table stays
// in one place and can be tested without running any node.
//
// Type parameter S is the state type shared across the workflow.
type Node[S any] interface {
	// Run executes the node's logic with the given context and state.
	// The context carries the step deadline when one is configured.
	Run(ctx context.Context, state S) NodeResult[S]
}

// NodeResult represents the output of a node execution.
type NodeResult[S any] struct {
	// Delta is the partial state update produced by this node.
	// It is merged into the current state by the engine's reducer.
	Delta S

	// Err contains any error that occurred during node execution.
	// A non-nil Err aborts the run; the engine wraps it in an
	// OrchestrationError and leaves the state untouched.
	Err error
}

// NodeFunc is a function adapter that implements the Node interface.
//
// Example:
//
//	detect := NodeFunc[MyState](func(ctx context.Context, s MyState) NodeResult[MyState] {
//	    return NodeResult[MyState]{Delta: MyState{Result: "processed"}}
//	})
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements the Node interface for NodeFunc.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}

// NodeError represents an error that occurred inside a node.
// Nodes use it to attach a machine-readable code to a failure.
type NodeError struct {
	// Message is the human-readable error description.
	Message string

	// Code is a machine-readable error code for programmatic handling.
	Code string

	// NodeID identifies which node produced this error.
	NodeID string

	// Cause is the underlying error that caused this NodeError.
	Cause error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	msg := e.Message
	if e.NodeID != "" {
		msg = "node " + e.NodeID + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error for error wrapping support.
func (e *NodeError) Unwrap() error {
	return e.Cause
}
