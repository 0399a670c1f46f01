// Package review implements the iterative code review workflow.
//
// A run takes a source snippet through four steps on a graph.Engine:
// detect issues in the original, suggest a fix, detect issues in the fix,
// and generate tests. Which step runs next is a pure function of which
// State fields are present (see Route). Every oracle and tool call is
// bounded; any failure aborts the run and is returned with the partial
// state.
//
// Example:
//
//	wf, err := review.NewWorkflow(review.Config{
//	    Oracle:   openaiModel,
//	    Tools:    runner,
//	    Language: "python",
//	})
//	final, err := wf.Run(ctx, "def f(x):\n  return 1/x")
package review

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dshills/reviewgraph/graph"
	"github.com/dshills/reviewgraph/graph/emit"
	"github.com/dshills/reviewgraph/graph/model"
	"github.com/dshills/reviewgraph/graph/tool"
)

// Defaults applied by NewWorkflow to zero Config fields.
const (
	DefaultMaxSteps      = 2 * 4
	DefaultOracleTimeout = 2 * time.Minute
	DefaultToolTimeout   = time.Minute
	DefaultLanguage      = "python"
)

// Config holds the collaborators and limits of a Workflow.
type Config struct {
	// Oracle answers every prompt. Required.
	Oracle model.ChatModel `validate:"required"`

	// Tools runs static analysis before each detection. Optional.
	Tools *tool.Runner

	// Language of submitted snippets, used in prompts.
	Language string

	// OracleTimeout bounds each oracle call.
	OracleTimeout time.Duration `validate:"gte=0"`

	// ToolTimeout bounds each static-analysis pass.
	ToolTimeout time.Duration `validate:"gte=0"`

	// StepTimeout bounds each whole step. Zero means unbounded.
	StepTimeout time.Duration `validate:"gte=0"`

	// MaxSteps bounds executed steps per run.
	MaxSteps int `validate:"gte=0"`

	// RefineUntilClean sends a fix with remaining issues back to
	// SuggestFix until it is clean or MaxSteps is reached.
	RefineUntilClean bool

	Emitter emit.Emitter
	Metrics *graph.PrometheusMetrics
	Costs   *graph.CostTracker
}

var validateConfig = validator.New()

// Workflow runs reviews. It is safe for concurrent use; runs share no state.
type Workflow struct {
	engine *graph.Engine[State]
	cfg    Config
}

// NewWorkflow validates cfg, applies defaults and wires the steps.
func NewWorkflow(cfg Config) (*Workflow, error) {
	if err := validateConfig.Struct(cfg); err != nil {
		return nil, fmt.Errorf("review config: %w", err)
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.OracleTimeout == 0 {
		cfg.OracleTimeout = DefaultOracleTimeout
	}
	if cfg.ToolTimeout == 0 {
		cfg.ToolTimeout = DefaultToolTimeout
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}

	engine, err := graph.New(NewReducer(cfg.RefineUntilClean), cfg.Emitter,
		graph.WithMaxSteps(cfg.MaxSteps),
		graph.WithDefaultNodeTimeout(cfg.StepTimeout),
		graph.WithMetrics(cfg.Metrics),
		graph.WithCostTracker(cfg.Costs),
	)
	if err != nil {
		return nil, err
	}

	collab := &collaborators{
		oracle:        model.NewOracle(cfg.Oracle),
		tools:         cfg.Tools,
		oracleTimeout: cfg.OracleTimeout,
		toolTimeout:   cfg.ToolTimeout,
		emitter:       engine.Emitter(),
		metrics:       engine.Metrics(),
		costs:         engine.Costs(),
	}
	prompts := newPromptSet()

	steps := map[Step]graph.Node[State]{
		StepDetectOriginal: &detectStep{phase: originalPhase, collab: collab, prompts: prompts, lang: cfg.Language},
		StepSuggestFix:     &suggestStep{collab: collab, prompts: prompts, lang: cfg.Language},
		StepDetectFixed:    &detectStep{phase: fixedPhase, collab: collab, prompts: prompts, lang: cfg.Language},
		StepGenerateTests:  &generateStep{collab: collab, prompts: prompts, lang: cfg.Language},
	}
	for _, id := range Steps {
		if err := engine.Add(string(id), steps[id]); err != nil {
			return nil, err
		}
	}
	if err := engine.Route(router(cfg.RefineUntilClean)); err != nil {
		return nil, err
	}

	return &Workflow{engine: engine, cfg: cfg}, nil
}

// Config returns the effective configuration, defaults applied.
func (w *Workflow) Config() Config {
	return w.cfg
}

// Run reviews snippet to completion.
//
// On failure the returned State holds every field written before the
// failing step, and the error is an *OrchestrationError or a
// *RunawayLoopError.
func (w *Workflow) Run(ctx context.Context, snippet string) (State, error) {
	return w.RunWithID(ctx, uuid.NewString(), snippet)
}

// RunWithID is Run with a caller-chosen run ID, which appears in every
// event and error of the run.
func (w *Workflow) RunWithID(ctx context.Context, runID, snippet string) (State, error) {
	if strings.TrimSpace(snippet) == "" {
		return State{}, ErrEmptySnippet
	}
	return w.Resume(ctx, runID, State{OriginalSnippet: snippet})
}

// Resume continues a run from a previously returned state, such as the
// partial state of a run that failed with a timeout. Steps whose fields
// are present are not repeated.
func (w *Workflow) Resume(ctx context.Context, runID string, state State) (State, error) {
	if strings.TrimSpace(state.OriginalSnippet) == "" {
		return state, ErrEmptySnippet
	}
	if !utf8.ValidString(state.OriginalSnippet) {
		return state, ErrInvalidUTF8
	}
	return w.engine.Run(withRunID(ctx, runID), runID, state)
}

// Task is a review running in the background.
type Task struct {
	RunID string

	done   chan struct{}
	cancel context.CancelFunc
	state  State
	err    error
}

// Submit starts a review in the background. Cancelling ctx or calling
// Cancel stops the run before its next step.
func (w *Workflow) Submit(ctx context.Context, snippet string) *Task {
	runCtx, cancel := context.WithCancel(ctx)
	t := &Task{
		RunID:  uuid.NewString(),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(t.done)
		defer cancel()
		t.state, t.err = w.RunWithID(runCtx, t.RunID, snippet)
	}()
	return t
}

// Done is closed when the run finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run finishes and returns its result.
func (t *Task) Wait() (State, error) {
	<-t.done
	return t.state, t.err
}

// Cancel requests cancellation. It does not wait.
func (t *Task) Cancel() {
	t.cancel()
}
