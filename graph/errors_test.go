package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestOrchestrationError(t *testing.T) {
	cause := errors.New("oracle returned garbage")
	err := &OrchestrationError{
		Code:          CodeNodeFailed,
		Message:       "step failed",
		RunID:         "run-9",
		Step:          3,
		NodeID:        "detect_fixed",
		LastCompleted: "suggest_fix",
		Cause:         cause,
	}

	msg := err.Error()
	for _, want := range []string{"NODE_FAILED", "run-9", "step 3", "node detect_fixed", "after suggest_fix", "oracle returned garbage"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}

	var wrapped error = &OrchestrationError{Code: CodeCancelled, Cause: context.Canceled}
	if !errors.Is(wrapped, context.Canceled) {
		t.Error("cancellation should unwrap to context.Canceled")
	}
}

func TestRunawayLoopError(t *testing.T) {
	err := &RunawayLoopError{RunID: "run", MaxSteps: 8, Next: "suggest_fix", LastCompleted: "detect_fixed"}

	if !errors.Is(err, ErrMaxStepsExceeded) {
		t.Error("expected match with ErrMaxStepsExceeded")
	}
	if errors.Is(err, context.Canceled) {
		t.Error("unexpected match with context.Canceled")
	}
	if !strings.Contains(err.Error(), "exceeded 8 steps") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestEngineError(t *testing.T) {
	tests := []struct {
		err  *EngineError
		want string
	}{
		{&EngineError{Message: "router cannot be nil"}, "router cannot be nil"},
		{&EngineError{Message: "duplicate node ID: x", Code: "DUPLICATE_NODE"}, "DUPLICATE_NODE: duplicate node ID: x"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestNodeError(t *testing.T) {
	cause := errors.New("exit status 2")
	err := &NodeError{Message: "analyzer failed", Code: "TOOL", NodeID: "detect_original", Cause: cause}

	if got, want := err.Error(), "node detect_original: analyzer failed: exit status 2"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}
