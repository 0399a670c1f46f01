package graph

import (
	"context"
	"fmt"
	"time"
)

// nodeTimeout determines the timeout for a node:
// 1. per-node override from WithNodeTimeout
// 2. engine-wide default from WithDefaultNodeTimeout
// 3. 0 (no timeout)
func (o Options) nodeTimeout(nodeID string) time.Duration {
	if d, ok := o.NodeTimeouts[nodeID]; ok && d > 0 {
		return d
	}
	if o.DefaultNodeTimeout > 0 {
		return o.DefaultNodeTimeout
	}
	return 0
}

// executeNodeWithTimeout runs node under an optional deadline.
//
// The node runs in its own goroutine so a node that ignores its context
// still cannot hold the run past the deadline. The node only ever sees a
// snapshot, so a late result is simply discarded.
//
// Returns a non-nil error only for a step timeout. Cancellation of the
// parent context surfaces as result.Err.
func executeNodeWithTimeout[S any](
	ctx context.Context,
	node Node[S],
	nodeID string,
	state S,
	timeout time.Duration,
) (NodeResult[S], error) {
	if timeout <= 0 {
		return node.Run(ctx, state), nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan NodeResult[S], 1)
	go func() {
		done <- node.Run(timeoutCtx, state)
	}()

	select {
	case result := <-done:
		return result, nil
	case <-timeoutCtx.Done():
		if err := ctx.Err(); err != nil {
			return NodeResult[S]{Err: err}, nil
		}
		return NodeResult[S]{}, &EngineError{
			Message: fmt.Sprintf("node %s exceeded timeout of %v", nodeID, timeout),
			Code:    CodeNodeTimeout,
		}
	}
}
