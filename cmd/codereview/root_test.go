package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/reviewgraph/review"
)

func executeCommand(stdin string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd("test-version")
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := executeCommand("", "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "test-version") {
		t.Errorf("got %q", out)
	}
}

func TestRootHelp(t *testing.T) {
	out, _, err := executeCommand("", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sub := range []string{"review", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing subcommand %q", sub)
		}
	}
}

func TestReadSnippet(t *testing.T) {
	snippet, lang, err := readSnippet(nil, strings.NewReader("x = 1\n"))
	if err != nil || snippet != "x = 1\n" || lang != "" {
		t.Errorf("stdin: got %q, %q, %v", snippet, lang, err)
	}

	path := filepath.Join(t.TempDir(), "main.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, lang, _ := readSnippet([]string{path}, nil); lang != "go" {
		t.Errorf("language = %q, want go", lang)
	}
}

// fakeOpenAI answers chat completions by prompt kind.
func fakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body := string(raw)

		var answer string
		switch {
		case strings.Contains(body, "single JSON object") && strings.Contains(body, "is None"):
			answer = `{"score": 9, "issues": []}`
		case strings.Contains(body, "single JSON object"):
			answer = "```json\n" + `{"score": 3, "issues": [{"title": "None dereference", "description": "d may be None", "category": "Bug", "severity": "Critical", "start_line": 2, "end_line": 2, "code_lines": ["    return d[\"k\"]"]}]}` + "\n```"
		case strings.Contains(body, "Rewrite the code"):
			answer = "def get(d):\n    if d is None:  # fix: #1\n        return None  # fix: #1\n    return d[\"k\"]"
		default:
			answer = "```python\ndef test_get_none():\n    assert get(None) is None\n```"
		}

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": answer},
			}},
			"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 20, "total_tokens": 120},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestReviewCommand_EndToEnd(t *testing.T) {
	srv := fakeOpenAI(t)
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "sk-test")

	metricsFile := filepath.Join(t.TempDir(), "review.prom")
	config := writeTestConfig(t, fmt.Sprintf(`
oracle:
  provider: openai
  base_url: %s/
log:
  level: error
output:
  metrics_file: %s
`, srv.URL, metricsFile))

	stdout, stderr, err := executeCommand("def get(d):\n    return d[\"k\"]\n", "review", "--config", config)
	if err != nil {
		t.Fatalf("review failed: %v\nstderr: %s", err, stderr)
	}

	var final review.State
	if err := json.Unmarshal([]byte(stdout), &final); err != nil {
		t.Fatalf("stdout is not a state: %v\n%s", err, stdout)
	}
	if issues, _ := final.OriginalIssues.Get(); len(issues) != 1 {
		t.Errorf("original issues = %d, want 1", len(issues))
	}
	if fixed, _ := final.FixedSnippet.Get(); !strings.Contains(fixed, "# fix: #1") {
		t.Errorf("fixed snippet = %q", fixed)
	}
	if tests, _ := final.GeneratedTests.Get(); !strings.HasPrefix(tests, "def test_get_none") {
		t.Errorf("tests = %q", tests)
	}

	if !strings.Contains(stderr, "score delta: +6.0") {
		t.Errorf("summary missing from stderr: %s", stderr)
	}

	metrics, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(metrics), `reviewgraph_runs_total{status="completed"} 1`) {
		t.Errorf("metrics = %s", metrics)
	}
}

func TestReviewCommand_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, _, err := executeCommand("x = 1", "review", "--provider", "anthropic")
	if err == nil || !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Errorf("got %v, want missing key error", err)
	}
}

func TestReviewCommand_EmptySnippet(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	_, _, err := executeCommand("   \n", "review")
	if err == nil || !strings.Contains(err.Error(), "snippet is empty") {
		t.Errorf("got %v, want empty snippet error", err)
	}
}
