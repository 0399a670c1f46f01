package review

import (
	"fmt"

	"github.com/dshills/reviewgraph/graph"
)

// Step names a node of the review workflow.
type Step string

const (
	StepDetectOriginal Step = "detect_original"
	StepSuggestFix     Step = "suggest_fix"
	StepDetectFixed    Step = "detect_fixed"
	StepGenerateTests  Step = "generate_tests"
	StepDone           Step = "done"
)

// Steps lists the executable steps in table order.
var Steps = []Step{StepDetectOriginal, StepSuggestFix, StepDetectFixed, StepGenerateTests}

// Route picks the next step from the presence of OriginalIssues,
// FixedSnippet, FixedIssues and GeneratedTests:
//
//	original_issues  fixed_snippet  fixed_issues  generated_tests  next
//	absent           absent         absent        absent           detect_original
//	present          absent         absent        absent           suggest_fix
//	present          present        absent        absent           detect_fixed
//	present          present        present       absent           generate_tests
//	present          present        present       present          done
//
// Any other combination is a *RoutingError. With refine set, a fix that
// still has issues routes to suggest_fix instead of generate_tests.
func Route(s State, refine bool) (Step, error) {
	oi := s.OriginalIssues.IsSet()
	fs := s.FixedSnippet.IsSet()
	fi := s.FixedIssues.IsSet()
	gt := s.GeneratedTests.IsSet()

	inconsistent := func(reason string) (Step, error) {
		return "", &RoutingError{Presence: presence(oi, fs, fi, gt), Reason: reason}
	}

	switch {
	case fi && !fs:
		return inconsistent("fixed_issues without fixed_snippet")
	case fs && !oi:
		return inconsistent("fixed_snippet without original_issues")
	case gt && !fi:
		return inconsistent("generated_tests without fixed_issues")
	case gt:
		return StepDone, nil
	case !oi:
		return StepDetectOriginal, nil
	case !fs:
		return StepSuggestFix, nil
	case !fi:
		return StepDetectFixed, nil
	}

	if issues, _ := s.FixedIssues.Get(); refine && len(issues) > 0 {
		return StepSuggestFix, nil
	}
	return StepGenerateTests, nil
}

// router adapts Route to the engine.
func router(refine bool) graph.Router[State] {
	return func(s State) (graph.Next, error) {
		step, err := Route(s, refine)
		if err != nil {
			return graph.Next{}, err
		}
		if step == StepDone {
			return graph.Stop(), nil
		}
		return graph.Goto(string(step)), nil
	}
}

func presence(flags ...bool) string {
	names := []string{"original_issues", "fixed_snippet", "fixed_issues", "generated_tests"}
	out := ""
	for i, set := range flags {
		if i > 0 {
			out += " "
		}
		mark := "-"
		if set {
			mark = "+"
		}
		out += fmt.Sprintf("%s%s", mark, names[i])
	}
	return out
}
