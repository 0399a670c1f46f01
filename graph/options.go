package graph

import "time"

// Options configures Engine execution behavior.
//
// Zero values are valid: no step bound, no timeouts, no metrics.
type Options struct {
	// MaxSteps limits the number of executed steps per run.
	// A run that needs one more step fails with RunawayLoopError.
	// If 0, no limit is enforced.
	MaxSteps int

	// DefaultNodeTimeout bounds each step unless NodeTimeouts overrides it.
	DefaultNodeTimeout time.Duration

	// NodeTimeouts holds per-node overrides of DefaultNodeTimeout.
	NodeTimeouts map[string]time.Duration

	// Metrics receives step latency and run outcome metrics. Optional.
	Metrics *PrometheusMetrics

	// CostTracker is exposed to nodes via Engine.Costs. Optional.
	// The engine itself records nothing in it.
	CostTracker *CostTracker
}

// Option is a functional option for configuring an Engine.
//
// Example:
//
//	engine, err := graph.New(reducer, emitter,
//	    graph.WithMaxSteps(8),
//	    graph.WithDefaultNodeTimeout(2*time.Minute),
//	)
type Option func(*engineConfig) error

type engineConfig struct {
	opts Options
}

// WithMaxSteps sets the step bound for every run.
func WithMaxSteps(n int) Option {
	return func(cfg *engineConfig) error {
		if n < 0 {
			return &EngineError{Message: "max steps must not be negative", Code: "INVALID_OPTION"}
		}
		cfg.opts.MaxSteps = n
		return nil
	}
}

// WithDefaultNodeTimeout bounds every step that has no per-node override.
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		if d < 0 {
			return &EngineError{Message: "node timeout must not be negative", Code: "INVALID_OPTION"}
		}
		cfg.opts.DefaultNodeTimeout = d
		return nil
	}
}

// WithNodeTimeout bounds a single node.
func WithNodeTimeout(nodeID string, d time.Duration) Option {
	return func(cfg *engineConfig) error {
		if nodeID == "" || d < 0 {
			return &EngineError{Message: "node timeout needs a node ID and a non-negative duration", Code: "INVALID_OPTION"}
		}
		if cfg.opts.NodeTimeouts == nil {
			cfg.opts.NodeTimeouts = make(map[string]time.Duration)
		}
		cfg.opts.NodeTimeouts[nodeID] = d
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection.
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.Metrics = metrics
		return nil
	}
}

// WithCostTracker attaches an LLM cost tracker.
func WithCostTracker(tracker *CostTracker) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.CostTracker = tracker
		return nil
	}
}
