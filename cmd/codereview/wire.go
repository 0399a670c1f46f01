package main

import (
	"context"
	"fmt"
	"io"
	"time"

	antoption "github.com/anthropics/anthropic-sdk-go/option"
	oaoption "github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	gapioption "google.golang.org/api/option"

	"github.com/dshills/reviewgraph/graph/emit"
	"github.com/dshills/reviewgraph/graph/model"
	"github.com/dshills/reviewgraph/graph/model/anthropic"
	"github.com/dshills/reviewgraph/graph/model/google"
	"github.com/dshills/reviewgraph/graph/model/openai"
	"github.com/dshills/reviewgraph/graph/tool"
)

// newLogger builds the process logger. Logs go to stderr so stdout stays
// machine-readable.
func newLogger(cfg LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zcfg.Level = level
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// newOracle builds the configured provider adapter. The returned close
// function releases provider resources and is never nil.
func newOracle(ctx context.Context, cfg OracleConfig, getenv func(string) string) (model.ChatModel, func(), error) {
	noop := func() {}
	apiKey := getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, noop, fmt.Errorf("%s is not set", cfg.APIKeyEnv)
	}

	switch cfg.Provider {
	case "openai":
		var opts []openai.Option
		if cfg.Temperature != nil {
			opts = append(opts, openai.WithTemperature(*cfg.Temperature))
		}
		reqOpts := []oaoption.RequestOption{oaoption.WithMaxRetries(0)}
		if cfg.BaseURL != "" {
			reqOpts = append(reqOpts, oaoption.WithBaseURL(cfg.BaseURL))
		}
		m, err := openai.NewChatModel(apiKey, cfg.Model, opts, reqOpts...)
		return m, noop, err

	case "anthropic":
		reqOpts := []antoption.RequestOption{antoption.WithMaxRetries(0)}
		if cfg.BaseURL != "" {
			reqOpts = append(reqOpts, antoption.WithBaseURL(cfg.BaseURL))
		}
		m, err := anthropic.NewChatModel(apiKey, cfg.Model, reqOpts...)
		return m, noop, err

	case "google":
		var opts []gapioption.ClientOption
		if cfg.BaseURL != "" {
			opts = append(opts, gapioption.WithEndpoint(cfg.BaseURL))
		}
		m, err := google.NewChatModel(ctx, apiKey, cfg.Model, opts...)
		if err != nil {
			return nil, noop, err
		}
		return m, func() { _ = m.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// newToolRunner builds the analyzer runner, or nil when no tool is
// configured.
func newToolRunner(cfg ToolsConfig, language string) (*tool.Runner, error) {
	var tools []tool.Tool
	if cfg.Syntax {
		syntax, err := tool.NewSyntaxTool(language)
		if err != nil {
			return nil, err
		}
		tools = append(tools, syntax)
	}
	for _, c := range cfg.Commands {
		tools = append(tools, tool.NewCommandTool(c.Name, c.Command, c.Args, c.Ext))
	}
	for _, h := range cfg.HTTP {
		tools = append(tools, tool.NewHTTPTool(h.Name, h.URL, h.Headers))
	}
	if len(tools) == 0 {
		return nil, nil
	}
	return tool.NewRunner(time.Duration(cfg.Timeout), tools...)
}

// newTracing returns an emitter that exports spans to w, and a shutdown
// function that flushes them.
func newTracing(w io.Writer) (emit.Emitter, func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("create exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return emit.NewOTelEmitter(tp.Tracer("reviewgraph")), tp.Shutdown, nil
}
