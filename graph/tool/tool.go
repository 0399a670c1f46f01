// Package tool runs static-analysis collaborators against a snippet.
//
// A Tool turns source text into an opaque textual report. Runner fans a
// snippet out to every configured tool at once and collects the reports
// keyed by tool name. The workflow embeds the reports in prompts; it
// never parses them.
package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Tool is a static analyzer.
//
// Implementations must be safe for concurrent use: independent runs
// share tool handles. A finding is not an error; Analyze returns an
// error only when the analyzer itself could not run.
//
// Example:
//
//	type LineCounter struct{}
//
//	func (LineCounter) Name() string { return "lines" }
//
//	func (LineCounter) Analyze(ctx context.Context, snippet string) (string, error) {
//	    return fmt.Sprintf("%d lines", strings.Count(snippet, "\n")+1), nil
//	}
type Tool interface {
	// Name identifies the tool in reports. Names are unique within a Runner.
	Name() string

	// Analyze inspects snippet and returns the raw report.
	Analyze(ctx context.Context, snippet string) (string, error)
}

// Error reports a failed or timed-out tool call.
type Error struct {
	Tool    string
	Timeout bool
	Cause   error
}

func (e *Error) Error() string {
	if e.Timeout {
		return fmt.Sprintf("tool %s: timed out: %v", e.Tool, e.Cause)
	}
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Runner runs a fixed set of tools concurrently.
//
// Each call is bounded by Timeout when it is positive. The bound holds
// even for a tool that ignores its context: Run stops waiting and reports
// a timeout. The first failure cancels the remaining calls.
type Runner struct {
	tools   []Tool
	timeout time.Duration
}

// NewRunner creates a Runner. Tool names must be unique.
func NewRunner(timeout time.Duration, tools ...Tool) (*Runner, error) {
	seen := make(map[string]bool, len(tools))
	for _, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("tool runner: nil tool")
		}
		if seen[t.Name()] {
			return nil, fmt.Errorf("tool runner: duplicate tool name %q", t.Name())
		}
		seen[t.Name()] = true
	}
	return &Runner{tools: tools, timeout: timeout}, nil
}

// Names returns the configured tool names in sorted order.
func (r *Runner) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		names = append(names, t.Name())
	}
	sort.Strings(names)
	return names
}

// Run analyzes snippet with every tool and returns reports by tool name.
// A nil Runner or one without tools returns an empty map.
func (r *Runner) Run(ctx context.Context, snippet string) (map[string]string, error) {
	reports := make(map[string]string)
	if r == nil || len(r.tools) == 0 {
		return reports, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range r.tools {
		g.Go(func() error {
			report, err := r.analyze(gctx, t, snippet)
			if err != nil {
				return err
			}
			mu.Lock()
			reports[t.Name()] = report
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

type analyzeResult struct {
	report string
	err    error
}

func (r *Runner) analyze(ctx context.Context, t Tool, snippet string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan analyzeResult, 1)
	go func() {
		report, err := t.Analyze(ctx, snippet)
		done <- analyzeResult{report: report, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", &Error{Tool: t.Name(), Timeout: ctx.Err() == context.DeadlineExceeded, Cause: res.err}
		}
		return res.report, nil
	case <-ctx.Done():
		return "", &Error{Tool: t.Name(), Timeout: ctx.Err() == context.DeadlineExceeded, Cause: ctx.Err()}
	}
}
