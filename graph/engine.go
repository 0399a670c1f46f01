package graph

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dshills/reviewgraph/graph/emit"
)

// Run outcome labels used for metrics.
const (
	runCompleted = "completed"
	runFailed    = "failed"
	runRunaway   = "runaway"
	runCancelled = "cancelled"
)

// Engine drives a stateful workflow one step at a time.
//
// Each step:
//  1. asks the Router for the next node (Stop ends the run)
//  2. checks for cancellation and the MaxSteps bound
//  3. runs the node on a deep copy of the state, under its timeout
//  4. merges the node's delta with the Reducer
//
// Steps never overlap within a run. Independent runs may call Run on the
// same Engine concurrently; the engine keeps no per-run state of its own.
//
// Type parameter S is the state type shared across the workflow.
//
// Example:
//
//	engine, err := graph.New(reducer, emit.NewNullEmitter(), graph.WithMaxSteps(8))
//	_ = engine.Add("detect", detectNode)
//	_ = engine.Add("fix", fixNode)
//	_ = engine.Route(func(s MyState) (graph.Next, error) {
//	    if s.Issues == nil {
//	        return graph.Goto("detect"), nil
//	    }
//	    return graph.Stop(), nil
//	})
//	final, err := engine.Run(ctx, "run-001", MyState{Input: "..."})
type Engine[S any] struct {
	mu sync.RWMutex

	reducer Reducer[S]
	nodes   map[string]Node[S]
	router  Router[S]
	emitter emit.Emitter
	opts    Options
}

// New creates an Engine.
//
// A nil emitter discards events. Options are applied in order; the first
// failing option aborts construction.
func New[S any](reducer Reducer[S], emitter emit.Emitter, options ...Option) (*Engine[S], error) {
	if reducer == nil {
		return nil, &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}

	cfg := &engineConfig{}
	for _, opt := range options {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return &Engine[S]{
		reducer: reducer,
		nodes:   make(map[string]Node[S]),
		emitter: emitter,
		opts:    cfg.opts,
	}, nil
}

// Add registers a node under a unique, non-empty ID.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{
			Message: "duplicate node ID: " + nodeID,
			Code:    "DUPLICATE_NODE",
		}
	}

	e.nodes[nodeID] = node
	return nil
}

// Route sets the Router consulted before every step.
func (e *Engine[S]) Route(router Router[S]) error {
	if router == nil {
		return &EngineError{Message: "router cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.router = router
	return nil
}

// Options returns the effective engine options.
func (e *Engine[S]) Options() Options {
	return e.opts
}

// Costs returns the configured cost tracker, or nil.
func (e *Engine[S]) Costs() *CostTracker {
	return e.opts.CostTracker
}

// Metrics returns the configured metrics, or nil. A nil
// *PrometheusMetrics is safe to call.
func (e *Engine[S]) Metrics() *PrometheusMetrics {
	return e.opts.Metrics
}

// Emitter returns the engine's emitter. Nodes use it to report
// collaborator calls under the same sinks as engine events.
func (e *Engine[S]) Emitter() emit.Emitter {
	return e.emitter
}

// Run executes the workflow from initial until the Router returns Stop.
//
// On failure Run returns the last consistent state (every delta merged so
// far, nothing from the failing step) together with an
// *OrchestrationError or *RunawayLoopError. Cancellation is checked
// before each step; a step that is already running sees the cancelled
// context and may return early.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	e.mu.RLock()
	router := e.router
	e.mu.RUnlock()

	if router == nil {
		return initial, &EngineError{
			Message: "router not set (call Route before Run)",
			Code:    "NO_ROUTER",
		}
	}

	metrics := e.opts.Metrics
	metrics.RunStarted()
	runStart := time.Now()
	e.emitter.Emit(emit.Event{RunID: runID, Msg: emit.MsgRunStart})

	state := initial
	lastCompleted := ""
	executed := 0

	fail := func(err error, status string) (S, error) {
		metrics.RunFinished(status, executed)
		e.emitter.Emit(emit.Event{
			RunID:  runID,
			Step:   executed,
			NodeID: lastCompleted,
			Msg:    emit.MsgRunError,
			Meta: map[string]interface{}{
				"error":       err.Error(),
				"duration_ms": time.Since(runStart).Milliseconds(),
			},
		})
		return state, err
	}

	for {
		step := executed + 1

		next, err := router(state)
		if err != nil {
			return fail(&OrchestrationError{
				Code:          CodeNoRoute,
				Message:       "router cannot decide on current state",
				RunID:         runID,
				Step:          step,
				LastCompleted: lastCompleted,
				Cause:         err,
			}, runFailed)
		}

		if next.Terminal {
			metrics.RunFinished(runCompleted, executed)
			e.emitter.Emit(emit.Event{
				RunID:  runID,
				Step:   executed,
				NodeID: lastCompleted,
				Msg:    emit.MsgRunComplete,
				Meta: map[string]interface{}{
					"steps":       executed,
					"duration_ms": time.Since(runStart).Milliseconds(),
				},
			})
			return state, nil
		}

		if err := ctx.Err(); err != nil {
			return fail(&OrchestrationError{
				Code:          CodeCancelled,
				Message:       "run cancelled before step",
				RunID:         runID,
				Step:          step,
				NodeID:        next.To,
				LastCompleted: lastCompleted,
				Cause:         err,
			}, runCancelled)
		}

		if e.opts.MaxSteps > 0 && step > e.opts.MaxSteps {
			return fail(&RunawayLoopError{
				RunID:         runID,
				MaxSteps:      e.opts.MaxSteps,
				Next:          next.To,
				LastCompleted: lastCompleted,
			}, runRunaway)
		}

		e.mu.RLock()
		node, exists := e.nodes[next.To]
		e.mu.RUnlock()

		if !exists {
			return fail(&OrchestrationError{
				Code:          CodeNodeNotFound,
				Message:       "router chose an unknown node",
				RunID:         runID,
				Step:          step,
				NodeID:        next.To,
				LastCompleted: lastCompleted,
			}, runFailed)
		}

		snapshot, err := deepCopy(state)
		if err != nil {
			return fail(&OrchestrationError{
				Code:          CodeStateCopy,
				Message:       "cannot snapshot state",
				RunID:         runID,
				Step:          step,
				NodeID:        next.To,
				LastCompleted: lastCompleted,
				Cause:         err,
			}, runFailed)
		}

		e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: next.To, Msg: emit.MsgNodeStart})

		stepStart := time.Now()
		result, timeoutErr := executeNodeWithTimeout(ctx, node, next.To, snapshot, e.opts.nodeTimeout(next.To))
		elapsed := time.Since(stepStart)

		if timeoutErr != nil || result.Err != nil {
			code, status, cause := CodeNodeFailed, "error", result.Err
			if timeoutErr != nil {
				code, status, cause = CodeNodeTimeout, "timeout", timeoutErr
			}
			metrics.RecordStepLatency(next.To, elapsed, status)
			e.emitter.Emit(emit.Event{
				RunID:  runID,
				Step:   step,
				NodeID: next.To,
				Msg:    emit.MsgNodeError,
				Meta: map[string]interface{}{
					"error":       cause.Error(),
					"duration_ms": elapsed.Milliseconds(),
				},
			})

			runStatus := runFailed
			if errors.Is(cause, context.Canceled) {
				runStatus = runCancelled
			}
			return fail(&OrchestrationError{
				Code:          code,
				Message:       "step failed",
				RunID:         runID,
				Step:          step,
				NodeID:        next.To,
				LastCompleted: lastCompleted,
				Cause:         cause,
			}, runStatus)
		}

		merged, err := e.reducer(state, result.Delta)
		if err != nil {
			metrics.RecordStepLatency(next.To, elapsed, "error")
			return fail(&OrchestrationError{
				Code:          CodeMergeRejected,
				Message:       "reducer rejected step output",
				RunID:         runID,
				Step:          step,
				NodeID:        next.To,
				LastCompleted: lastCompleted,
				Cause:         err,
			}, runFailed)
		}

		state = merged
		executed = step
		lastCompleted = next.To

		metrics.RecordStepLatency(next.To, elapsed, "success")
		e.emitter.Emit(emit.Event{
			RunID:  runID,
			Step:   step,
			NodeID: next.To,
			Msg:    emit.MsgNodeEnd,
			Meta: map[string]interface{}{
				"duration_ms": elapsed.Milliseconds(),
			},
		})
	}
}
