package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/reviewgraph/graph"
)

// phase selects the snippet a detection step reads and the fields it writes.
type phase struct {
	step   Step
	prefix string

	snippet func(State) string
	done    func(State) bool
	write   func(delta *State, issues []Issue, score Optional[float64])
}

var originalPhase = phase{
	step:    StepDetectOriginal,
	prefix:  "original",
	snippet: func(s State) string { return s.OriginalSnippet },
	done:    func(s State) bool { return s.OriginalIssues.IsSet() },
	write: func(d *State, issues []Issue, score Optional[float64]) {
		d.OriginalIssues = Some(issues)
		d.OriginalQualityScore = score
	},
}

var fixedPhase = phase{
	step:    StepDetectFixed,
	prefix:  "fixed",
	snippet: func(s State) string { return s.FixedSnippet.OrElse("") },
	done:    func(s State) bool { return s.FixedIssues.IsSet() },
	write: func(d *State, issues []Issue, score Optional[float64]) {
		d.FixedIssues = Some(issues)
		d.FixedQualityScore = score
	},
}

// detectStep runs the tools and the oracle on one phase's snippet.
// It is a no-op when the phase already has issues.
type detectStep struct {
	phase   phase
	collab  *collaborators
	prompts *promptSet
	lang    string
}

func (d *detectStep) Run(ctx context.Context, s State) graph.NodeResult[State] {
	if d.phase.done(s) {
		return graph.NodeResult[State]{}
	}
	snippet := d.phase.snippet(s)

	reports, err := d.collab.analyze(ctx, d.phase.step, snippet)
	if err != nil {
		return failed(d.phase.step, "static analysis failed", err)
	}

	raw, err := d.collab.ask(ctx, d.phase.step, d.prompts.detect, map[string]any{
		"language": d.lang,
		"numbered": NumberLines(snippet),
		"reports":  formatReports(reports),
	})
	if err != nil {
		return failed(d.phase.step, "oracle call failed", err)
	}

	issues, score, err := parseDetection(d.phase.step, raw, snippet)
	if err != nil {
		return failed(d.phase.step, "detection rejected", err)
	}

	var delta State
	d.phase.write(&delta, issues, score)
	if len(reports) > 0 {
		delta.AnalysisReports = make(map[string]string, len(reports))
		for name, report := range reports {
			delta.AnalysisReports[d.phase.prefix+"/"+name] = report
		}
	}
	return graph.NodeResult[State]{Delta: delta}
}

// Quality scores run from minScore to maxScore inclusive.
const (
	minScore = 0
	maxScore = 10
)

// detection is the oracle's answer. A bare array is accepted as an issue
// list without a score.
type detection struct {
	Score  *float64 `json:"score"`
	Issues *[]Issue `json:"issues"`
}

func parseDetection(step Step, raw, snippet string) ([]Issue, Optional[float64], error) {
	malformed := func(reason string, cause error) ([]Issue, Optional[float64], error) {
		return nil, None[float64](), &MalformedOracleResponseError{Step: step, Reason: reason, Raw: raw, Cause: cause}
	}

	var resp detection
	if strings.HasPrefix(strings.TrimSpace(raw), "[") {
		var list []Issue
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return malformed("not a JSON issue list", err)
		}
		resp.Issues = &list
	} else if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return malformed("not a JSON object", err)
	}

	if resp.Issues == nil {
		return malformed("missing issues", nil)
	}
	if resp.Score != nil && (*resp.Score < minScore || *resp.Score > maxScore) {
		return malformed(fmt.Sprintf("score %g outside %d-%d", *resp.Score, minScore, maxScore), nil)
	}

	issues := make([]Issue, 0, len(*resp.Issues))
	for i, is := range *resp.Issues {
		if err := is.Validate(snippet); err != nil {
			return malformed(fmt.Sprintf("issue %d", i+1), err)
		}
		issues = append(issues, is)
	}

	score := None[float64]()
	if resp.Score != nil {
		score = Some(*resp.Score)
	}
	return issues, score, nil
}

// suggestStep asks the oracle for a corrected snippet. In refine mode it
// fixes the latest fix against that fix's own issues.
type suggestStep struct {
	collab  *collaborators
	prompts *promptSet
	lang    string
}

func (f *suggestStep) Run(ctx context.Context, s State) graph.NodeResult[State] {
	snippet := s.OriginalSnippet
	issues, _ := s.OriginalIssues.Get()
	if fixed, ok := s.FixedSnippet.Get(); ok {
		snippet = fixed
		issues, _ = s.FixedIssues.Get()
	}

	text, err := f.collab.ask(ctx, StepSuggestFix, f.prompts.fix, map[string]any{
		"language": f.lang,
		"comment":  conventions(f.lang).comment,
		"snippet":  snippet,
		"issues":   formatIssues(issues),
	})
	if err != nil {
		return failed(StepSuggestFix, "oracle call failed", err)
	}
	if strings.TrimSpace(text) == "" {
		return failed(StepSuggestFix, "fix rejected", &MalformedOracleResponseError{Step: StepSuggestFix, Reason: "empty fix"})
	}

	return graph.NodeResult[State]{Delta: State{FixedSnippet: Some(text)}}
}

// generateStep asks the oracle for tests of the final snippet.
type generateStep struct {
	collab  *collaborators
	prompts *promptSet
	lang    string
}

func (g *generateStep) Run(ctx context.Context, s State) graph.NodeResult[State] {
	snippet := s.FixedSnippet.OrElse(s.OriginalSnippet)
	conv := conventions(g.lang)

	text, err := g.collab.ask(ctx, StepGenerateTests, g.prompts.tests, map[string]any{
		"language":  g.lang,
		"framework": conv.framework,
		"snippet":   snippet,
	})
	if err != nil {
		return failed(StepGenerateTests, "oracle call failed", err)
	}
	if strings.TrimSpace(text) == "" {
		return failed(StepGenerateTests, "tests rejected", &MalformedOracleResponseError{Step: StepGenerateTests, Reason: "empty test output"})
	}

	return graph.NodeResult[State]{Delta: State{GeneratedTests: Some(text)}}
}

func failed(step Step, msg string, err error) graph.NodeResult[State] {
	return graph.NodeResult[State]{Err: &graph.NodeError{
		Message: msg,
		Code:    "STEP_FAILED",
		NodeID:  string(step),
		Cause:   err,
	}}
}
