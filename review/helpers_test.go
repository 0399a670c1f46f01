package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/reviewgraph/graph/model"
)

const divSnippet = "def f(x):\n  return 1/x"

const divFixed = "def f(x):\n  if x == 0:  # fix: #1\n    raise ValueError(\"x must be non-zero\")  # fix: #1\n  return 1/x"

const divIssue = `{"title": "Division by zero", "description": "f(0) raises ZeroDivisionError", "category": "Bug", "severity": "Critical", "start_line": 2, "end_line": 2, "code_lines": ["  return 1/x"]}`

// promptKind tells the scripted oracle which step is asking.
func promptKind(msgs []model.Message) string {
	system := msgs[0].Content
	switch {
	case strings.Contains(system, "single JSON object"):
		return "detect"
	case strings.Contains(system, "Rewrite the code"):
		return "fix"
	case strings.Contains(system, "unit tests"):
		return "tests"
	default:
		return "unknown"
	}
}

// scriptedOracle answers by prompt kind on top of model.MockChatModel.
// Handlers receive the user message and the call context and may be
// swapped before the run starts.
type scriptedOracle struct {
	*model.MockChatModel

	detect func(ctx context.Context, user string) (string, error)
	fix    func(ctx context.Context, user string) (string, error)
	tests  func(ctx context.Context, user string) (string, error)
}

func newScriptedOracle(detect, fix, tests func(context.Context, string) (string, error)) *scriptedOracle {
	o := &scriptedOracle{detect: detect, fix: fix, tests: tests}
	o.MockChatModel = &model.MockChatModel{Handler: o.answer}
	return o
}

func (o *scriptedOracle) answer(ctx context.Context, msgs []model.Message) (model.ChatOut, error) {
	kind := promptKind(msgs)
	var handler func(context.Context, string) (string, error)
	switch kind {
	case "detect":
		handler = o.detect
	case "fix":
		handler = o.fix
	case "tests":
		handler = o.tests
	}
	if handler == nil {
		return model.ChatOut{}, fmt.Errorf("no handler for %s prompt", kind)
	}

	text, err := handler(ctx, msgs[len(msgs)-1].Content)
	if err != nil {
		return model.ChatOut{}, err
	}
	return model.ChatOut{Text: text, Model: "gpt-4o-mini", Usage: model.Usage{InputTokens: 1000, OutputTokens: 200}}, nil
}

// calls lists the prompt kinds in the order the oracle saw them.
func (o *scriptedOracle) calls() []string {
	var kinds []string
	for _, c := range o.History() {
		kinds = append(kinds, promptKind(c.Messages))
	}
	return kinds
}

func reply(text string) func(context.Context, string) (string, error) {
	return func(context.Context, string) (string, error) { return text, nil }
}

// divisionOracle plays the documented example: one Critical Bug in the
// original, a clean fix, and a test file.
func divisionOracle() *scriptedOracle {
	return newScriptedOracle(
		func(_ context.Context, user string) (string, error) {
			if strings.Contains(user, "x == 0") {
				return "```json\n{\"score\": 9, \"issues\": []}\n```", nil
			}
			return "```json\n{\"score\": 4, \"issues\": [" + divIssue + "]}\n```", nil
		},
		reply("```python\n"+divFixed+"\n```"),
		reply("```python\nimport pytest\n\ndef test_f_zero():\n    with pytest.raises(ValueError):\n        f(0)\n```"),
	)
}
