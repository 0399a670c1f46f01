package tool

import (
	"context"
	"sync"
	"time"
)

// MockTool is a test implementation of Tool.
//
// Reports are returned in order; once exhausted the last one repeats.
// Delay simulates a slow analyzer and honors cancellation unless
// IgnoreContext is set, which models a tool that never checks its
// context.
//
// Example:
//
//	mock := &MockTool{ToolName: "pylint", Reports: []string{"line 2: division by zero"}}
type MockTool struct {
	// ToolName is the identifier returned by Name().
	ToolName string

	// Reports contains the sequence of reports to return.
	Reports []string

	// Err, if set, is returned instead of a report.
	Err error

	Delay         time.Duration
	IgnoreContext bool

	// Calls records the snippet of every Analyze invocation.
	Calls []string

	mu        sync.Mutex
	callIndex int
}

// Name implements Tool.
func (m *MockTool) Name() string {
	return m.ToolName
}

// Analyze implements Tool.
func (m *MockTool) Analyze(ctx context.Context, snippet string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, snippet)
	delay, ignore := m.Delay, m.IgnoreContext
	m.mu.Unlock()

	if delay > 0 {
		if ignore {
			time.Sleep(delay)
		} else {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Reports) == 0 {
		return "", nil
	}

	idx := m.callIndex
	if idx >= len(m.Reports) {
		idx = len(m.Reports) - 1
	} else {
		m.callIndex++
	}
	return m.Reports[idx], nil
}

// Reset clears the call history and rewinds Reports.
func (m *MockTool) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of Analyze invocations so far.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
