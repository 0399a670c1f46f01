// Package graph provides a small, generic step engine for stateful workflows.
//
// A workflow is a set of named nodes, a reducer that merges each node's
// partial output into the shared state, and a Router: a pure function that
// looks at the state and names the next node, or returns Stop. The engine
// drives that loop with a step bound, per-step timeouts, cooperative
// cancellation between steps, observability events and Prometheus metrics.
package graph

// Next specifies where execution goes after the current state.
type Next struct {
	// To names the next node to execute.
	// Ignored when Terminal is set.
	To string

	// Terminal indicates the workflow is complete.
	Terminal bool
}

// Stop returns a Next that terminates workflow execution.
func Stop() Next {
	return Next{Terminal: true}
}

// Goto returns a Next that routes to the specified node.
func Goto(nodeID string) Next {
	return Next{To: nodeID}
}

// Router decides the next node from the current state.
//
// Routers must be pure: the same state always yields the same decision,
// and they must not mutate the state. A Router returns an error when the
// state is inconsistent and no decision can be made; the engine turns
// that into an OrchestrationError with code CodeNoRoute.
//
// The Router is consulted before every step, including the first, so the
// entry point of a run is whatever the Router picks for the initial state.
type Router[S any] func(state S) (Next, error)

// Reducer merges a node's partial update into the previous state.
//
// Reducers return an error when the delta would violate a state invariant
// (for example overwriting a field that may only be written once). The
// engine then aborts the run with code CodeMergeRejected and keeps prev.
type Reducer[S any] func(prev, delta S) (S, error)
