package model

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockChatModel(t *testing.T) {
	ctx := context.Background()

	t.Run("responses in order then repeat last", func(t *testing.T) {
		m := &MockChatModel{Responses: []ChatOut{{Text: "a"}, {Text: "b"}}}
		var got []string
		for i := 0; i < 3; i++ {
			out, err := m.Chat(ctx, nil)
			if err != nil {
				t.Fatalf("Chat failed: %v", err)
			}
			got = append(got, out.Text)
		}
		if got[0] != "a" || got[1] != "b" || got[2] != "b" {
			t.Errorf("got %v, want [a b b]", got)
		}

		m.Reset()
		if out, _ := m.Chat(ctx, nil); out.Text != "a" {
			t.Errorf("after Reset got %q, want a", out.Text)
		}
	})

	t.Run("handler", func(t *testing.T) {
		m := &MockChatModel{Handler: func(_ context.Context, msgs []Message) (ChatOut, error) {
			return ChatOut{Text: msgs[0].Content + "!"}, nil
		}}
		out, _ := m.Chat(ctx, []Message{{Role: RoleUser, Content: "hi"}})
		if out.Text != "hi!" {
			t.Errorf("got %q", out.Text)
		}
		if h := m.History(); len(h) != 1 || h[0].Messages[0].Content != "hi" {
			t.Errorf("history = %+v", h)
		}
	})

	t.Run("handler sees context and runs unlocked", func(t *testing.T) {
		entered := make(chan struct{}, 2)
		m := &MockChatModel{Handler: func(ctx context.Context, _ []Message) (ChatOut, error) {
			entered <- struct{}{}
			<-ctx.Done()
			return ChatOut{}, ctx.Err()
		}}
		cctx, cancel := context.WithCancel(ctx)
		errs := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() {
				_, err := m.Chat(cctx, nil)
				errs <- err
			}()
		}
		<-entered
		<-entered
		cancel()
		for i := 0; i < 2; i++ {
			if err := <-errs; !errors.Is(err, context.Canceled) {
				t.Errorf("got %v, want context.Canceled", err)
			}
		}
	})

	t.Run("error", func(t *testing.T) {
		want := errors.New("boom")
		m := &MockChatModel{Err: want}
		if _, err := m.Chat(ctx, nil); !errors.Is(err, want) {
			t.Errorf("got %v, want %v", err, want)
		}
	})

	t.Run("delay honors deadline", func(t *testing.T) {
		m := &MockChatModel{Delay: time.Second, Responses: []ChatOut{{Text: "late"}}}
		tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := m.Chat(tctx, nil)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("got %v, want DeadlineExceeded", err)
		}
		if time.Since(start) > 500*time.Millisecond {
			t.Error("Chat did not return early")
		}
	})
}
