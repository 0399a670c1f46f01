package model

import (
	"context"
	"sync"
	"time"
)

// MockChatModel is a test implementation of ChatModel.
//
// Responses are returned in order; once exhausted the last one repeats.
// Handler, when set, replaces Responses and lets a test answer based on
// the prompt; it runs outside the mock's lock and sees the call context.
// Delay simulates a slow provider and honors cancellation.
//
// Example:
//
//	mock := &MockChatModel{
//	    Responses: []ChatOut{{Text: `{"score": 7, "issues": []}`}},
//	}
type MockChatModel struct {
	// Responses contains the sequence of outputs to return.
	Responses []ChatOut

	// Handler computes the response from the messages. Overrides Responses.
	Handler func(ctx context.Context, messages []Message) (ChatOut, error)

	// Err, if set, is returned instead of a response.
	Err error

	// Delay is waited before answering. A cancelled context ends the wait
	// early with the context's error.
	Delay time.Duration

	// Calls records every Chat invocation.
	Calls []MockChatCall

	mu        sync.Mutex
	callIndex int
}

// MockChatCall records a single invocation of Chat.
type MockChatCall struct {
	Messages []Message
}

// Chat implements ChatModel.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	if ctx.Err() != nil {
		return ChatOut{}, ctx.Err()
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, MockChatCall{Messages: messages})
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ChatOut{}, ctx.Err()
		}
	}

	m.mu.Lock()
	handler, failure := m.Handler, m.Err
	m.mu.Unlock()
	if failure == nil && handler != nil {
		return handler(ctx, messages)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return ChatOut{}, m.Err
	}
	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// CallCount returns the number of Chat invocations so far.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// History returns a copy of the recorded calls.
func (m *MockChatModel) History() []MockChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockChatCall(nil), m.Calls...)
}

// Reset clears the call history and rewinds Responses.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.callIndex = 0
}
