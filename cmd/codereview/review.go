package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/reviewgraph/graph"
	"github.com/dshills/reviewgraph/graph/emit"
	"github.com/dshills/reviewgraph/review"
)

// languageByExt guesses the snippet language when --language is not given.
var languageByExt = map[string]string{
	".py":   "python",
	".go":   "go",
	".js":   "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".java": "java",
}

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review [file]",
		Short: "Review a snippet read from file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReview,
	}

	f := cmd.Flags()
	f.String("provider", "", "LLM provider: openai, anthropic or google")
	f.String("model", "", "model name (provider default when empty)")
	f.String("language", "", "snippet language (guessed from the file extension)")
	f.Bool("refine", false, "re-fix until the fix has no issues or max steps is reached")
	f.Int("max-steps", 0, "maximum executed steps per run")
	f.Bool("syntax", false, "run the built-in tree-sitter syntax check")
	f.Bool("trace", false, "export workflow spans to stderr")
	f.String("metrics-file", "", "write Prometheus metrics to this file after the run")
	f.String("log-level", "", "log level: debug, info, warn or error")
	return cmd
}

// applyFlags overrides file values with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *Config) {
	f := cmd.Flags()
	if f.Changed("provider") {
		cfg.Oracle.Provider, _ = f.GetString("provider")
		if !f.Changed("model") {
			cfg.Oracle.Model = ""
		}
		cfg.Oracle.APIKeyEnv = ""
	}
	if f.Changed("model") {
		cfg.Oracle.Model, _ = f.GetString("model")
	}
	if f.Changed("language") {
		cfg.Workflow.Language, _ = f.GetString("language")
	}
	if f.Changed("refine") {
		cfg.Workflow.RefineUntilClean, _ = f.GetBool("refine")
	}
	if f.Changed("max-steps") {
		cfg.Workflow.MaxSteps, _ = f.GetInt("max-steps")
	}
	if f.Changed("syntax") {
		cfg.Tools.Syntax, _ = f.GetBool("syntax")
	}
	if f.Changed("trace") {
		cfg.Output.Trace, _ = f.GetBool("trace")
	}
	if f.Changed("metrics-file") {
		cfg.Output.MetricsFile, _ = f.GetString("metrics-file")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
}

// readSnippet reads the named file, or stdin for "" and "-".
func readSnippet(args []string, stdin io.Reader) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("read snippet: %w", err)
	}
	return string(data), languageByExt[strings.ToLower(filepath.Ext(args[0]))], nil
}

func runReview(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	snippet, guessed, err := readSnippet(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if guessed != "" && !cmd.Flags().Changed("language") {
		cfg.Workflow.Language = guessed
	}
	applyFlags(cmd, cfg)
	if err := cfg.finalize(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	oracle, closeOracle, err := newOracle(ctx, cfg.Oracle, os.Getenv)
	if err != nil {
		return fmt.Errorf("oracle: %w", err)
	}
	defer closeOracle()

	runner, err := newToolRunner(cfg.Tools, cfg.Workflow.Language)
	if err != nil {
		return fmt.Errorf("tools: %w", err)
	}

	trail := emit.NewBufferedEmitter()
	emitters := []emit.Emitter{emit.NewZapEmitter(logger), trail}
	if cfg.Output.Trace {
		tracer, shutdown, err := newTracing(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("trace flush failed", zap.Error(err))
			}
		}()
		emitters = append(emitters, tracer)
	}

	registry := prometheus.NewRegistry()
	costs := graph.NewCostTracker("USD")

	wf, err := review.NewWorkflow(review.Config{
		Oracle:           oracle,
		Tools:            runner,
		Language:         cfg.Workflow.Language,
		OracleTimeout:    time.Duration(cfg.Oracle.Timeout),
		ToolTimeout:      time.Duration(cfg.Tools.Timeout),
		StepTimeout:      time.Duration(cfg.Workflow.StepTimeout),
		MaxSteps:         cfg.Workflow.MaxSteps,
		RefineUntilClean: cfg.Workflow.RefineUntilClean,
		Emitter:          emit.NewMultiEmitter(emitters...),
		Metrics:          graph.NewPrometheusMetrics(registry),
		Costs:            costs,
	})
	if err != nil {
		return err
	}

	runID := fmt.Sprintf("review-%d", time.Now().UnixNano())
	final, runErr := wf.RunWithID(ctx, runID, snippet)

	if runErr != nil {
		logger.Error("review failed", zap.String("run_id", runID), zap.Error(runErr))
		for _, e := range trail.GetHistory(runID) {
			logger.Debug("trail", zap.String("msg", e.Msg), zap.String("node_id", e.NodeID), zap.Any("meta", e.Meta))
		}
	}

	in, out := costs.TokenUsage()
	logger.Info("oracle usage",
		zap.Int("calls", len(costs.Calls())),
		zap.Int64("tokens_in", in),
		zap.Int64("tokens_out", out),
		zap.Float64("cost_usd", costs.TotalCost()),
	)

	if cfg.Output.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.Output.MetricsFile, registry); err != nil {
			logger.Warn("metrics export failed", zap.Error(err))
		}
	}

	if err := writeResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), final); err != nil {
		return err
	}
	return runErr
}

// writeResult prints the state as JSON and the summary. A partial state
// is printed too, so a failed run still shows what was completed.
func writeResult(stdout, stderr io.Writer, final review.State) error {
	if final.OriginalSnippet == "" {
		return nil
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(final); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err := fmt.Fprintln(stderr, review.Summarize(final))
	return err
}
