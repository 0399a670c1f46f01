package review

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Severity is the closed set of issue severities.
type Severity string

const (
	// SeverityCritical must be fixed before the code ships.
	SeverityCritical Severity = "Critical"
	// SeverityWarning works but should be improved.
	SeverityWarning Severity = "Warning"
)

// Category is the closed set of issue kinds.
type Category string

const (
	CategoryBug                Category = "Bug"
	CategorySecurityIssue      Category = "SecurityIssue"
	CategoryPerformanceProblem Category = "PerformanceProblem"
)

// UnmarshalJSON accepts the canonical spelling in any case, with or
// without square brackets ("[CRITICAL]"). Other values are kept as-is
// and rejected by validation.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	key := strings.ToLower(strings.Trim(strings.TrimSpace(raw), "[]"))
	switch key {
	case "critical":
		*s = SeverityCritical
	case "warning":
		*s = SeverityWarning
	default:
		*s = Severity(raw)
	}
	return nil
}

// UnmarshalJSON accepts the canonical spelling in any case and with
// spaces, underscores or hyphens between words ("security issue").
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(raw)))
	switch key {
	case "bug":
		*c = CategoryBug
	case "securityissue", "security":
		*c = CategorySecurityIssue
	case "performanceproblem", "performance":
		*c = CategoryPerformanceProblem
	default:
		*c = Category(raw)
	}
	return nil
}

// Issue is one finding of a detection step.
//
// Lines are 1-based and inclusive. CodeLines must equal the analyzed
// snippet's lines StartLine through EndLine.
type Issue struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Category    Category `json:"category" validate:"required,oneof=Bug SecurityIssue PerformanceProblem"`
	Severity    Severity `json:"severity" validate:"required,oneof=Critical Warning"`
	StartLine   int      `json:"start_line" validate:"min=1"`
	EndLine     int      `json:"end_line" validate:"gtefield=StartLine"`
	CodeLines   []string `json:"code_lines" validate:"required,min=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the issue against the snippet it was reported on.
func (i Issue) Validate(snippet string) error {
	if err := validate.Struct(i); err != nil {
		return fmt.Errorf("invalid issue %q: %w", i.Title, err)
	}

	want, err := SliceLines(snippet, i.StartLine, i.EndLine)
	if err != nil {
		return fmt.Errorf("invalid issue %q: %w", i.Title, err)
	}
	if !slices.Equal(i.CodeLines, want) {
		return fmt.Errorf("invalid issue %q: code_lines do not match lines %d-%d of the snippet", i.Title, i.StartLine, i.EndLine)
	}
	return nil
}

// Lines splits a snippet into lines. A trailing newline does not start a
// new line and carriage returns are dropped.
func Lines(snippet string) []string {
	if snippet == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(snippet, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// SliceLines returns lines start through end (1-based, inclusive).
func SliceLines(snippet string, start, end int) ([]string, error) {
	lines := Lines(snippet)
	if start < 1 || end < start || end > len(lines) {
		return nil, fmt.Errorf("line range %d-%d outside 1-%d", start, end, len(lines))
	}
	return slices.Clone(lines[start-1 : end]), nil
}

// NumberLines prefixes every line with its 1-based number, the form the
// detection prompt embeds.
func NumberLines(snippet string) string {
	lines := Lines(snippet)
	width := len(fmt.Sprint(len(lines)))

	var sb strings.Builder
	for i, l := range lines {
		fmt.Fprintf(&sb, "%*d | %s\n", width, i+1, l)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
