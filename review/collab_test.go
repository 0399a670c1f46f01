package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/reviewgraph/graph/emit"
	"github.com/dshills/reviewgraph/graph/model"
)

func TestBounded(t *testing.T) {
	t.Run("returns value", func(t *testing.T) {
		v, timedOut, err := bounded(context.Background(), time.Second, func(context.Context) (int, error) {
			return 7, nil
		})
		if v != 7 || timedOut || err != nil {
			t.Errorf("got %d, %v, %v", v, timedOut, err)
		}
	})

	t.Run("times out call that ignores context", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		start := time.Now()
		_, timedOut, err := bounded(context.Background(), 20*time.Millisecond, func(context.Context) (int, error) {
			<-release
			return 1, nil
		})
		if !timedOut || !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("got timedOut=%v err=%v", timedOut, err)
		}
		if time.Since(start) > time.Second {
			t.Error("bound not enforced")
		}
	})

	t.Run("call honoring deadline counts as timeout", func(t *testing.T) {
		_, timedOut, _ := bounded(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		if !timedOut {
			t.Error("expected timeout")
		}
	})

	t.Run("parent cancellation is not a timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, timedOut, err := bounded(ctx, time.Second, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		if timedOut || !errors.Is(err, context.Canceled) {
			t.Errorf("got timedOut=%v err=%v", timedOut, err)
		}
	})

	t.Run("zero timeout is unbounded", func(t *testing.T) {
		_, timedOut, err := bounded(context.Background(), 0, func(ctx context.Context) (int, error) {
			if _, ok := ctx.Deadline(); ok {
				t.Error("unexpected deadline")
			}
			return 0, nil
		})
		if timedOut || err != nil {
			t.Errorf("got timedOut=%v err=%v", timedOut, err)
		}
	})
}

func TestCollaborators_AskEmitsEvent(t *testing.T) {
	buf := emit.NewBufferedEmitter()
	c := &collaborators{
		oracle:        model.NewOracle(divisionOracle()),
		oracleTimeout: time.Second,
		emitter:       buf,
	}
	ps := newPromptSet()

	text, err := c.ask(withRunID(context.Background(), "run-ask"), StepGenerateTests, ps.tests, map[string]any{
		"language":  "python",
		"framework": "pytest",
		"snippet":   divSnippet,
	})
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if text == "" || text[0] == '`' {
		t.Errorf("fences not stripped: %q", text)
	}

	events := buf.GetHistoryWithFilter("run-ask", emit.HistoryFilter{Msg: emit.MsgOracleCall})
	if len(events) != 1 {
		t.Fatalf("got %d oracle events, want 1", len(events))
	}
	e := events[0]
	if e.NodeID != string(StepGenerateTests) || e.Meta["prompt"] != "tests" || e.Meta["tokens_in"] != 1000 {
		t.Errorf("event = %+v", e)
	}
}

func TestCollaborators_AnalyzeWithoutTools(t *testing.T) {
	c := &collaborators{}
	reports, err := c.analyze(context.Background(), StepDetectOriginal, divSnippet)
	if err != nil || reports == nil || len(reports) != 0 {
		t.Errorf("got %v, %v; want empty map", reports, err)
	}
}
