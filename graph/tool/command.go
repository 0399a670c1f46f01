package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// FilePlaceholder in CommandTool arguments is replaced by the path of the
// temporary file holding the snippet.
const FilePlaceholder = "{file}"

// CommandResult is the outcome of one external command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner executes an external program.
//
// A non-zero exit is a result, not an error: linters report findings
// through their exit code. An error means the program could not run.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) (CommandResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Dir is the working directory. Empty means the current one.
	Dir string
}

// Run implements CommandRunner.
func (r ExecRunner) Run(ctx context.Context, name string, args []string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return CommandResult{}, ctx.Err()
	}

	result := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return CommandResult{}, fmt.Errorf("run %s: %w", name, err)
	}
	return result, nil
}

// CommandTool runs a command-line analyzer (pylint, bandit, staticcheck)
// on a temporary file containing the snippet.
//
// Example:
//
//	pylint := tool.NewCommandTool("pylint", "pylint", []string{"--score=y", tool.FilePlaceholder}, ".py")
type CommandTool struct {
	name    string
	command string
	args    []string
	ext     string
	runner  CommandRunner
}

// CommandOption configures a CommandTool.
type CommandOption func(*CommandTool)

// WithCommandRunner replaces the default ExecRunner.
func WithCommandRunner(r CommandRunner) CommandOption {
	return func(t *CommandTool) { t.runner = r }
}

// NewCommandTool creates a CommandTool. When args contain no
// FilePlaceholder the file path is appended. ext is the temp file
// extension, such as ".py".
func NewCommandTool(name, command string, args []string, ext string, opts ...CommandOption) *CommandTool {
	t := &CommandTool{
		name:    name,
		command: command,
		args:    append([]string(nil), args...),
		ext:     ext,
		runner:  ExecRunner{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements Tool.
func (t *CommandTool) Name() string {
	return t.name
}

// Analyze implements Tool. The report is the command's stdout followed by
// its stderr; an empty report notes the exit code.
func (t *CommandTool) Analyze(ctx context.Context, snippet string) (string, error) {
	f, err := os.CreateTemp("", "reviewgraph-*"+t.ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := f.WriteString(snippet); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	res, err := t.runner.Run(ctx, t.command, t.expandArgs(path))
	if err != nil {
		return "", err
	}

	report := strings.TrimSpace(strings.TrimSpace(res.Stdout) + "\n" + strings.TrimSpace(res.Stderr))
	if report == "" {
		report = fmt.Sprintf("%s: no output (exit %d)", t.name, res.ExitCode)
	}
	return report, nil
}

func (t *CommandTool) expandArgs(path string) []string {
	args := make([]string, 0, len(t.args)+1)
	replaced := false
	for _, a := range t.args {
		if strings.Contains(a, FilePlaceholder) {
			a = strings.ReplaceAll(a, FilePlaceholder, path)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, path)
	}
	return args
}
