package review

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/reviewgraph/graph"
	"github.com/dshills/reviewgraph/graph/emit"
	"github.com/dshills/reviewgraph/graph/model"
	"github.com/dshills/reviewgraph/graph/tool"
)

type runIDKey struct{}

func withRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func runIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// collaborators wraps the oracle and the tool runner with call bounds,
// metrics, cost tracking and events.
type collaborators struct {
	oracle        *model.Oracle
	tools         *tool.Runner
	oracleTimeout time.Duration
	toolTimeout   time.Duration

	emitter emit.Emitter
	metrics *graph.PrometheusMetrics
	costs   *graph.CostTracker
}

type callResult[T any] struct {
	value T
	err   error
}

// bounded runs call under timeout. The bound holds even when call ignores
// its context: the result of an abandoned call is discarded. A parent
// cancellation is returned as the parent's error, not as a timeout.
func bounded[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	if timeout <= 0 {
		v, err := call(ctx)
		return v, false, err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		v, err := call(callCtx)
		done <- callResult[T]{value: v, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return zero, true, res.err
		}
		return res.value, false, res.err
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		return zero, true, callCtx.Err()
	}
}

// ask renders p, consults the oracle and returns the sanitized answer.
func (c *collaborators) ask(ctx context.Context, step Step, p *model.Prompt, values map[string]any) (string, error) {
	start := time.Now()
	out, timedOut, err := bounded(ctx, c.oracleTimeout, func(ctx context.Context) (model.ChatOut, error) {
		return c.oracle.Ask(ctx, p, values)
	})
	elapsed := time.Since(start)

	if err != nil {
		outcome := "error"
		if timedOut {
			outcome = "timeout"
			err = &CollaboratorTimeoutError{Step: step, Collaborator: "oracle", Timeout: c.oracleTimeout, Cause: err}
		}
		c.metrics.RecordCollaboratorCall("oracle", outcome)
		c.emit(ctx, step, emit.MsgOracleCall, map[string]interface{}{
			"prompt":      p.Name,
			"error":       err.Error(),
			"duration_ms": elapsed.Milliseconds(),
		})
		return "", err
	}

	c.metrics.RecordCollaboratorCall("oracle", "success")
	meta := map[string]interface{}{
		"prompt":      p.Name,
		"model":       out.Model,
		"tokens_in":   out.Usage.InputTokens,
		"tokens_out":  out.Usage.OutputTokens,
		"duration_ms": elapsed.Milliseconds(),
	}
	if c.costs != nil {
		if cost, err := c.costs.RecordLLMCall(out.Model, out.Usage.InputTokens, out.Usage.OutputTokens, string(step)); err == nil {
			meta["cost_usd"] = cost
		}
	}
	c.emit(ctx, step, emit.MsgOracleCall, meta)

	return model.StripFences(out.Text), nil
}

// analyze runs the static-analysis tools on snippet.
func (c *collaborators) analyze(ctx context.Context, step Step, snippet string) (map[string]string, error) {
	if c.tools == nil {
		return map[string]string{}, nil
	}

	start := time.Now()
	reports, timedOut, err := bounded(ctx, c.toolTimeout, func(ctx context.Context) (map[string]string, error) {
		return c.tools.Run(ctx, snippet)
	})
	elapsed := time.Since(start)

	if err != nil {
		collaborator := "tools"
		var toolErr *tool.Error
		if errors.As(err, &toolErr) {
			collaborator = "tool " + toolErr.Tool
			timedOut = timedOut || toolErr.Timeout
		}

		outcome := "error"
		if timedOut {
			outcome = "timeout"
			err = &CollaboratorTimeoutError{Step: step, Collaborator: collaborator, Timeout: c.toolTimeout, Cause: err}
		}
		c.metrics.RecordCollaboratorCall("tools", outcome)
		c.emit(ctx, step, emit.MsgToolRun, map[string]interface{}{
			"error":       err.Error(),
			"duration_ms": elapsed.Milliseconds(),
		})
		return nil, err
	}

	c.metrics.RecordCollaboratorCall("tools", "success")
	c.emit(ctx, step, emit.MsgToolRun, map[string]interface{}{
		"tools":       len(reports),
		"duration_ms": elapsed.Milliseconds(),
	})
	return reports, nil
}

func (c *collaborators) emit(ctx context.Context, step Step, msg string, meta map[string]interface{}) {
	if c.emitter == nil {
		return
	}
	c.emitter.Emit(emit.Event{RunID: runIDFrom(ctx), NodeID: string(step), Msg: msg, Meta: meta})
}
