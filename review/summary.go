package review

import (
	"fmt"
	"strings"
)

// IssueCounts tallies an issue list.
type IssueCounts struct {
	Total      int              `json:"total"`
	BySeverity map[Severity]int `json:"by_severity"`
	ByCategory map[Category]int `json:"by_category"`
}

// Summary condenses a final state into the numbers a caller displays or
// exports as metrics.
type Summary struct {
	Original       Optional[IssueCounts] `json:"original"`
	Fixed          Optional[IssueCounts] `json:"fixed"`
	ScoreDelta     Optional[float64]     `json:"score_delta"`
	Revisions      int                   `json:"revisions"`
	TestsGenerated bool                  `json:"tests_generated"`
}

// Summarize computes the Summary of s. ScoreDelta is fixed minus original
// and is present only when both scores are.
func Summarize(s State) Summary {
	sum := Summary{
		Revisions:      len(s.Revisions),
		TestsGenerated: s.GeneratedTests.IsSet(),
	}
	if issues, ok := s.OriginalIssues.Get(); ok {
		sum.Original = Some(countIssues(issues))
	}
	if issues, ok := s.FixedIssues.Get(); ok {
		sum.Fixed = Some(countIssues(issues))
	}

	before, okBefore := s.OriginalQualityScore.Get()
	after, okAfter := s.FixedQualityScore.Get()
	if okBefore && okAfter {
		sum.ScoreDelta = Some(after - before)
	}
	return sum
}

func countIssues(issues []Issue) IssueCounts {
	c := IssueCounts{
		Total:      len(issues),
		BySeverity: make(map[Severity]int),
		ByCategory: make(map[Category]int),
	}
	for _, is := range issues {
		c.BySeverity[is.Severity]++
		c.ByCategory[is.Category]++
	}
	return c
}

// String renders the summary on one line per phase.
func (s Summary) String() string {
	var sb strings.Builder
	writeCounts := func(label string, c Optional[IssueCounts]) {
		counts, ok := c.Get()
		if !ok {
			fmt.Fprintf(&sb, "%s: not analyzed\n", label)
			return
		}
		fmt.Fprintf(&sb, "%s: %d issue(s) (%d critical, %d warning; %d bug, %d security, %d performance)\n",
			label, counts.Total,
			counts.BySeverity[SeverityCritical], counts.BySeverity[SeverityWarning],
			counts.ByCategory[CategoryBug], counts.ByCategory[CategorySecurityIssue], counts.ByCategory[CategoryPerformanceProblem])
	}
	writeCounts("original", s.Original)
	writeCounts("fixed", s.Fixed)

	if delta, ok := s.ScoreDelta.Get(); ok {
		fmt.Fprintf(&sb, "score delta: %+.1f\n", delta)
	}
	if s.Revisions > 0 {
		fmt.Fprintf(&sb, "revisions: %d\n", s.Revisions)
	}
	fmt.Fprintf(&sb, "tests generated: %t", s.TestsGenerated)
	return sb.String()
}
