package anthropic

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dshills/reviewgraph/graph/model"
)

type fakeMessages struct {
	got  sdk.MessageNewParams
	resp *sdk.Message
	err  error
}

func (f *fakeMessages) New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error) {
	f.got = body
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestNewChatModel(t *testing.T) {
	if _, err := NewChatModel("", ""); err == nil {
		t.Fatal("expected error for empty API key")
	}

	m, err := NewChatModel("key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.modelName != DefaultModel {
		t.Errorf("modelName = %q, want %q", m.modelName, DefaultModel)
	}
}

func TestChatModel_Chat(t *testing.T) {
	fake := &fakeMessages{resp: &sdk.Message{
		Model: "claude-3-5-sonnet-20241022",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "def f():\n"},
			{Type: "text", Text: "    return 1"},
		},
		Usage: sdk.Usage{InputTokens: 30, OutputTokens: 12},
	}}
	m := &ChatModel{modelName: DefaultModel, maxTokens: defaultMaxTokens, client: fake}

	out, err := m.Chat(context.Background(), []model.Message{
		{Role: model.RoleSystem, Content: "You fix code."},
		{Role: model.RoleUser, Content: "def f(): return 0"},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if out.Text != "def f():\n    return 1" {
		t.Errorf("Text = %q", out.Text)
	}
	if out.Usage.InputTokens != 30 || out.Usage.OutputTokens != 12 {
		t.Errorf("Usage = %+v", out.Usage)
	}
	if len(fake.got.System) != 1 || fake.got.System[0].Text != "You fix code." {
		t.Errorf("System = %+v, want one block", fake.got.System)
	}
	if len(fake.got.Messages) != 1 {
		t.Errorf("sent %d turns, want 1", len(fake.got.Messages))
	}
	if fake.got.MaxTokens != defaultMaxTokens {
		t.Errorf("MaxTokens = %d", fake.got.MaxTokens)
	}
}

func TestChatModel_EmptyContent(t *testing.T) {
	m := &ChatModel{modelName: DefaultModel, client: &fakeMessages{resp: &sdk.Message{}}}

	_, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "x"}})

	var provErr *model.ProviderError
	if !errors.As(err, &provErr) || provErr.Code != model.CodeEmptyResponse {
		t.Errorf("got %v, want empty_response", err)
	}
}

func TestChatModel_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`)
	}))
	defer srv.Close()

	m, err := NewChatModel("key", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewChatModel failed: %v", err)
	}

	_, err = m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "x"}})

	var provErr *model.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("got %v, want ProviderError", err)
	}
	if provErr.Code != model.CodeRateLimited || !provErr.Retryable {
		t.Errorf("got code %q retryable %v, want rate_limited retryable", provErr.Code, provErr.Retryable)
	}
}
