package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/reviewgraph/graph/model"
)

const detectSystem = `You are an expert {{.language}} code reviewer focused on bugs, security vulnerabilities and performance problems.
Report only issues that matter: logic and boundary errors, misuse of language features, unsafe input handling, injection, unsafe deserialization, slow algorithms and excessive memory use. Ignore style.

Answer with a single JSON object and nothing else:
{"score": <number from 0 to 10 rating overall quality>, "issues": [<issue>, ...]}

Each issue has these fields:
- "title": short label
- "description": what is wrong and why
- "category": one of "Bug", "SecurityIssue", "PerformanceProblem"
- "severity": "Critical" (must fix: runtime errors, vulnerabilities, severe slowdowns) or "Warning" (works, but should be improved)
- "start_line", "end_line": 1-based inclusive line numbers
- "code_lines": the exact text of lines start_line through end_line, one string per line, without the line-number prefix

If there are no issues, return "issues": [].`

const detectUser = `Analyze this {{.language}} code. Line numbers are shown before the "|" separator.

{{.numbered}}

Static analysis reports:
{{.reports}}`

const fixSystem = `You are an expert {{.language}} developer. Rewrite the code so that every listed issue is fixed while keeping its behavior otherwise unchanged.
Return only the complete corrected code.
End every line you change with a trailing comment "{{.comment}} fix: #<issue number>" naming the issue it fixes.`

const fixUser = `Code:
{{.snippet}}

Issues:
{{.issues}}`

const testSystem = `You are an expert in testing {{.language}} code. Write thorough unit tests using {{.framework}}.
Cover normal behavior, edge cases and error handling. Return only the test code.`

const testUser = `Write unit tests for this code:

{{.snippet}}`

// promptSet holds the templates shared by every run.
type promptSet struct {
	detect *model.Prompt
	fix    *model.Prompt
	tests  *model.Prompt
}

func newPromptSet() *promptSet {
	return &promptSet{
		detect: model.NewPrompt("detect", detectSystem, detectUser, []string{"language", "numbered", "reports"}),
		fix:    model.NewPrompt("fix", fixSystem, fixUser, []string{"language", "comment", "snippet", "issues"}),
		tests:  model.NewPrompt("tests", testSystem, testUser, []string{"language", "framework", "snippet"}),
	}
}

// language conventions used by the prompts.
type language struct {
	comment   string
	framework string
}

var languages = map[string]language{
	"python":     {comment: "#", framework: "pytest"},
	"go":         {comment: "//", framework: "the standard testing package with table-driven tests"},
	"javascript": {comment: "//", framework: "Jest"},
	"typescript": {comment: "//", framework: "Jest"},
	"java":       {comment: "//", framework: "JUnit 5"},
}

func conventions(lang string) language {
	if l, ok := languages[strings.ToLower(lang)]; ok {
		return l
	}
	return language{comment: "#", framework: "the idiomatic test framework"}
}

// formatReports concatenates tool reports in tool-name order.
func formatReports(reports map[string]string) string {
	if len(reports) == 0 {
		return "(none)"
	}
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "== %s ==\n%s\n\n", name, strings.TrimSpace(reports[name]))
	}
	return strings.TrimSpace(sb.String())
}

// formatIssues renders issues as a numbered list for the fix prompt.
func formatIssues(issues []Issue) string {
	if len(issues) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for i, is := range issues {
		fmt.Fprintf(&sb, "#%d [%s %s] lines %d-%d: %s\n%s\n", i+1, is.Severity, is.Category, is.StartLine, is.EndLine, is.Title, is.Description)
	}
	return strings.TrimSpace(sb.String())
}
