package review

import (
	"encoding/json"
	"strings"
	"testing"
)

func validIssue() Issue {
	return Issue{
		Title:       "Division by zero",
		Description: "f(0) raises",
		Category:    CategoryBug,
		Severity:    SeverityCritical,
		StartLine:   2,
		EndLine:     2,
		CodeLines:   []string{"  return 1/x"},
	}
}

func TestLines(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		want    []string
	}{
		{"empty", "", nil},
		{"single", "x = 1", []string{"x = 1"}},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"blank line kept", "a\n\nb", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lines(tt.snippet)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSliceLines(t *testing.T) {
	snippet := "a\nb\nc"

	got, err := SliceLines(snippet, 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got, ",") != "b,c" {
		t.Errorf("got %q, want [b c]", got)
	}

	got[0] = "changed"
	if Lines(snippet)[1] != "b" {
		t.Error("slice aliases the snippet lines")
	}

	for _, r := range [][2]int{{0, 1}, {2, 1}, {3, 4}} {
		if _, err := SliceLines(snippet, r[0], r[1]); err == nil {
			t.Errorf("range %d-%d: expected error", r[0], r[1])
		}
	}
}

func TestNumberLines(t *testing.T) {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = "x"
	}
	got := NumberLines(strings.Join(lines, "\n"))

	if !strings.HasPrefix(got, " 1 | x\n") {
		t.Errorf("first line padded wrong: %q", got)
	}
	if !strings.HasSuffix(got, "10 | x") {
		t.Errorf("last line wrong: %q", got)
	}
	if NumberLines(divSnippet) != "1 | def f(x):\n2 |   return 1/x" {
		t.Errorf("got %q", NumberLines(divSnippet))
	}
}

func TestIssue_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Issue)
		wantErr bool
	}{
		{"valid", func(*Issue) {}, false},
		{"missing title", func(i *Issue) { i.Title = "" }, true},
		{"missing description", func(i *Issue) { i.Description = "" }, true},
		{"unknown category", func(i *Issue) { i.Category = "Style" }, true},
		{"unknown severity", func(i *Issue) { i.Severity = "MAJOR" }, true},
		{"zero start line", func(i *Issue) { i.StartLine = 0 }, true},
		{"end before start", func(i *Issue) { i.StartLine, i.EndLine = 2, 1 }, true},
		{"end past snippet", func(i *Issue) { i.EndLine = 3; i.CodeLines = []string{"  return 1/x", ""} }, true},
		{"no code lines", func(i *Issue) { i.CodeLines = nil }, true},
		{"code lines mismatch", func(i *Issue) { i.CodeLines = []string{"return 1/x"} }, true},
		{"multi line", func(i *Issue) {
			i.StartLine = 1
			i.CodeLines = []string{"def f(x):", "  return 1/x"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := validIssue()
			tt.mutate(&is)
			err := is.Validate(divSnippet)
			if (err != nil) != tt.wantErr {
				t.Errorf("got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIssue_ValidateCodeLinesProperty(t *testing.T) {
	snippet := "import os\n\ndef run(cmd):\n    os.system(cmd)\n    return True\n"
	n := len(Lines(snippet))

	for start := 1; start <= n; start++ {
		for end := start; end <= n; end++ {
			is := validIssue()
			is.StartLine, is.EndLine = start, end
			is.CodeLines, _ = SliceLines(snippet, start, end)
			if err := is.Validate(snippet); err != nil {
				t.Errorf("lines %d-%d: %v", start, end, err)
			}
		}
	}
}

func TestSeverity_UnmarshalJSON(t *testing.T) {
	tests := map[string]Severity{
		`"Critical"`:   SeverityCritical,
		`"CRITICAL"`:   SeverityCritical,
		`"[Critical]"`: SeverityCritical,
		`"warning"`:    SeverityWarning,
		`"MAJOR"`:      "MAJOR",
	}
	for in, want := range tests {
		var got Severity
		if err := json.Unmarshal([]byte(in), &got); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Errorf("%s: got %q, want %q", in, got, want)
		}
	}
}

func TestCategory_UnmarshalJSON(t *testing.T) {
	tests := map[string]Category{
		`"Bug"`:                 CategoryBug,
		`"security issue"`:      CategorySecurityIssue,
		`"Security"`:            CategorySecurityIssue,
		`"performance_problem"`: CategoryPerformanceProblem,
		`"Performance-Problem"`: CategoryPerformanceProblem,
		`"Style"`:               "Style",
	}
	for in, want := range tests {
		var got Category
		if err := json.Unmarshal([]byte(in), &got); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Errorf("%s: got %q, want %q", in, got, want)
		}
	}
}
