package review

import (
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	warning := validIssue()
	warning.Severity = SeverityWarning
	warning.Category = CategoryPerformanceProblem

	s := State{
		OriginalSnippet:      divSnippet,
		OriginalIssues:       Some([]Issue{validIssue(), warning}),
		OriginalQualityScore: Some(4.0),
		FixedSnippet:         Some(divFixed),
		FixedIssues:          Some([]Issue{}),
		FixedQualityScore:    Some(8.5),
		GeneratedTests:       Some("def test(): pass"),
	}
	sum := Summarize(s)

	orig, ok := sum.Original.Get()
	if !ok || orig.Total != 2 || orig.BySeverity[SeverityCritical] != 1 || orig.ByCategory[CategoryPerformanceProblem] != 1 {
		t.Errorf("original counts = %+v", orig)
	}
	if fixed, ok := sum.Fixed.Get(); !ok || fixed.Total != 0 {
		t.Errorf("fixed counts = %+v", fixed)
	}
	if delta, _ := sum.ScoreDelta.Get(); delta != 4.5 {
		t.Errorf("delta = %v, want 4.5", delta)
	}

	out := sum.String()
	for _, want := range []string{
		"original: 2 issue(s) (1 critical, 1 warning; 1 bug, 0 security, 1 performance)",
		"fixed: 0 issue(s)",
		"score delta: +4.5",
		"tests generated: true",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummarize_Partial(t *testing.T) {
	sum := Summarize(State{
		OriginalSnippet:      divSnippet,
		OriginalIssues:       Some([]Issue{}),
		OriginalQualityScore: Some(7.0),
	})

	if sum.Fixed.IsSet() || sum.ScoreDelta.IsSet() || sum.TestsGenerated {
		t.Errorf("partial summary = %+v", sum)
	}
	if !strings.Contains(sum.String(), "fixed: not analyzed") {
		t.Errorf("got %q", sum.String())
	}
}
