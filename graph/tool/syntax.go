package tool

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

const maxSyntaxErrors = 20

// SyntaxTool parses the snippet with tree-sitter and reports ERROR and
// MISSING nodes with 1-based line numbers. It needs no external binary,
// so it is always available.
type SyntaxTool struct {
	language string
	lang     *sitter.Language
}

// NewSyntaxTool creates a SyntaxTool for language: python, go or javascript.
func NewSyntaxTool(language string) (*SyntaxTool, error) {
	lang := treeSitterLanguage(language)
	if lang == nil {
		return nil, fmt.Errorf("syntax tool: unsupported language %q", language)
	}
	return &SyntaxTool{language: strings.ToLower(language), lang: lang}, nil
}

// Name implements Tool.
func (t *SyntaxTool) Name() string {
	return "syntax"
}

// Analyze implements Tool.
func (t *SyntaxTool) Analyze(ctx context.Context, snippet string) (string, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(t.lang)

	src := []byte(snippet)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", t.language, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return fmt.Sprintf("%s syntax: no errors", t.language), nil
	}

	var findings []string
	collectSyntaxErrors(root, src, &findings)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s syntax: %d error(s)\n", t.language, len(findings))
	for _, f := range findings {
		sb.WriteString(f)
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func collectSyntaxErrors(node *sitter.Node, src []byte, findings *[]string) {
	if len(*findings) >= maxSyntaxErrors {
		return
	}

	if node.IsMissing() || node.IsError() {
		pos := node.StartPoint()
		msg := "syntax error"
		if node.IsMissing() {
			msg = "missing " + node.Type()
		} else if start, end := node.StartByte(), node.EndByte(); end > start && int(end) <= len(src) && end-start <= 40 {
			msg = fmt.Sprintf("unexpected %q", string(src[start:end]))
		}
		*findings = append(*findings, fmt.Sprintf("line %d, col %d: %s", pos.Row+1, pos.Column+1, msg))
		if node.IsError() {
			return
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collectSyntaxErrors(node.Child(i), src, findings)
	}
}

func treeSitterLanguage(language string) *sitter.Language {
	switch strings.ToLower(language) {
	case "python", "py":
		return python.GetLanguage()
	case "go", "golang":
		return golang.GetLanguage()
	case "javascript", "js":
		return javascript.GetLanguage()
	default:
		return nil
	}
}
