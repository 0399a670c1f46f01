package review

import (
	"maps"
	"slices"

	"github.com/dshills/reviewgraph/graph"
)

// State is the record threaded through a review run.
//
// Every step returns a partial State holding only the fields it wrote.
// The reducer merges it under these rules:
//   - OriginalSnippet never changes after the run starts.
//   - A set field is never overwritten or cleared.
//   - FixedSnippet needs OriginalIssues; FixedIssues needs FixedSnippet;
//     GeneratedTests needs FixedIssues.
//   - A quality score is only written together with its issue list.
//
// In refine mode a new FixedSnippet may replace an analyzed one: the old
// fix moves to Revisions and its issues and score are cleared.
type State struct {
	OriginalSnippet      string            `json:"original_snippet"`
	OriginalIssues       Optional[[]Issue] `json:"original_issues"`
	OriginalQualityScore Optional[float64] `json:"original_quality_score"`
	FixedSnippet         Optional[string]  `json:"fixed_snippet"`
	FixedIssues          Optional[[]Issue] `json:"fixed_issues"`
	FixedQualityScore    Optional[float64] `json:"fixed_quality_score"`
	GeneratedTests       Optional[string]  `json:"generated_tests"`
	AnalysisReports      map[string]string `json:"analysis_reports,omitempty"`
	Revisions            []Revision        `json:"revisions,omitempty"`
}

// Revision is a fix replaced in refine mode, kept with its analysis.
type Revision struct {
	FixedSnippet      string            `json:"fixed_snippet"`
	FixedIssues       []Issue           `json:"fixed_issues"`
	FixedQualityScore Optional[float64] `json:"fixed_quality_score"`
}

// NewReducer returns the merge function for review state. refine allows
// an analyzed fix to be replaced.
func NewReducer(refine bool) graph.Reducer[State] {
	return func(prev, delta State) (State, error) {
		return reduce(prev, delta, refine)
	}
}

func reduce(prev, delta State, refine bool) (State, error) {
	next := prev
	next.AnalysisReports = maps.Clone(prev.AnalysisReports)
	next.Revisions = slices.Clone(prev.Revisions)

	if delta.OriginalSnippet != "" && delta.OriginalSnippet != prev.OriginalSnippet {
		return prev, &StateError{Field: "original_snippet", Reason: "is immutable"}
	}
	if len(delta.Revisions) > 0 {
		return prev, &StateError{Field: "revisions", Reason: "only the reducer appends revisions"}
	}

	if delta.OriginalIssues.IsSet() {
		if prev.OriginalIssues.IsSet() {
			return prev, &StateError{Field: "original_issues", Reason: "already set"}
		}
		next.OriginalIssues = delta.OriginalIssues
	}
	if delta.OriginalQualityScore.IsSet() {
		if !delta.OriginalIssues.IsSet() {
			return prev, &StateError{Field: "original_quality_score", Reason: "must be written with original_issues"}
		}
		next.OriginalQualityScore = delta.OriginalQualityScore
	}

	if delta.FixedSnippet.IsSet() {
		if !next.OriginalIssues.IsSet() {
			return prev, &StateError{Field: "fixed_snippet", Reason: "original_issues not set"}
		}
		if prev.FixedSnippet.IsSet() {
			if !refine {
				return prev, &StateError{Field: "fixed_snippet", Reason: "already set"}
			}
			if !prev.FixedIssues.IsSet() {
				return prev, &StateError{Field: "fixed_snippet", Reason: "previous fix was never analyzed"}
			}
			oldSnippet, _ := prev.FixedSnippet.Get()
			oldIssues, _ := prev.FixedIssues.Get()
			next.Revisions = append(next.Revisions, Revision{
				FixedSnippet:      oldSnippet,
				FixedIssues:       oldIssues,
				FixedQualityScore: prev.FixedQualityScore,
			})
			next.FixedIssues = None[[]Issue]()
			next.FixedQualityScore = None[float64]()
		}
		next.FixedSnippet = delta.FixedSnippet
	}

	if delta.FixedIssues.IsSet() {
		if !next.FixedSnippet.IsSet() {
			return prev, &StateError{Field: "fixed_issues", Reason: "fixed_snippet not set"}
		}
		if next.FixedIssues.IsSet() {
			return prev, &StateError{Field: "fixed_issues", Reason: "already set"}
		}
		next.FixedIssues = delta.FixedIssues
	}
	if delta.FixedQualityScore.IsSet() {
		if !delta.FixedIssues.IsSet() {
			return prev, &StateError{Field: "fixed_quality_score", Reason: "must be written with fixed_issues"}
		}
		next.FixedQualityScore = delta.FixedQualityScore
	}

	if delta.GeneratedTests.IsSet() {
		if prev.GeneratedTests.IsSet() {
			return prev, &StateError{Field: "generated_tests", Reason: "already set"}
		}
		if !next.FixedIssues.IsSet() {
			return prev, &StateError{Field: "generated_tests", Reason: "fixed_issues not set"}
		}
		next.GeneratedTests = delta.GeneratedTests
	}

	// Reports are display-only; a re-analyzed fix replaces its phase's entries.
	if len(delta.AnalysisReports) > 0 {
		if next.AnalysisReports == nil {
			next.AnalysisReports = make(map[string]string, len(delta.AnalysisReports))
		}
		maps.Copy(next.AnalysisReports, delta.AnalysisReports)
	}

	return next, nil
}
