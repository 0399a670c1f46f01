package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	yaml "go.yaml.in/yaml/v2"

	"github.com/dshills/reviewgraph/review"
)

// Duration is a time.Duration written as "30s" or "2m" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the structure of the configuration YAML file.
type Config struct {
	Oracle   OracleConfig   `yaml:"oracle"`
	Tools    ToolsConfig    `yaml:"tools"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Log      LogConfig      `yaml:"log"`
	Output   OutputConfig   `yaml:"output"`
}

// OracleConfig selects the LLM provider.
type OracleConfig struct {
	// Provider is openai, anthropic or google.
	Provider string `yaml:"provider" validate:"oneof=openai anthropic google"`
	// Model defaults to the provider adapter's default model.
	Model string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env" validate:"required"`
	// BaseURL overrides the provider endpoint (openai and anthropic).
	BaseURL     string   `yaml:"base_url" validate:"omitempty,url"`
	Timeout     Duration `yaml:"timeout" validate:"gte=0"`
	Temperature *float64 `yaml:"temperature" validate:"omitempty,gte=0,lte=2"`
}

// ToolsConfig lists the static analyzers run before each detection.
type ToolsConfig struct {
	Timeout Duration `yaml:"timeout" validate:"gte=0"`
	// Syntax enables the built-in tree-sitter syntax check.
	Syntax   bool                `yaml:"syntax"`
	Commands []CommandToolConfig `yaml:"commands" validate:"dive"`
	HTTP     []HTTPToolConfig    `yaml:"http" validate:"dive"`
}

// CommandToolConfig describes an external analyzer run on a temp file.
type CommandToolConfig struct {
	Name    string   `yaml:"name" validate:"required"`
	Command string   `yaml:"command" validate:"required"`
	Args    []string `yaml:"args"`
	Ext     string   `yaml:"ext"`
}

// HTTPToolConfig describes an analyzer service the snippet is POSTed to.
type HTTPToolConfig struct {
	Name    string            `yaml:"name" validate:"required"`
	URL     string            `yaml:"url" validate:"required,url"`
	Headers map[string]string `yaml:"headers"`
}

// WorkflowConfig mirrors review.Config limits.
type WorkflowConfig struct {
	Language         string   `yaml:"language"`
	MaxSteps         int      `yaml:"max_steps" validate:"gte=0"`
	StepTimeout      Duration `yaml:"step_timeout" validate:"gte=0"`
	RefineUntilClean bool     `yaml:"refine_until_clean"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// OutputConfig selects optional outputs.
type OutputConfig struct {
	// MetricsFile receives Prometheus metrics in text format after the run.
	MetricsFile string `yaml:"metrics_file"`
	// Trace exports one span per workflow event to stderr.
	Trace bool `yaml:"trace"`
}

var apiKeyEnvs = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"google":    "GOOGLE_API_KEY",
}

func defaultConfig() Config {
	return Config{
		Oracle: OracleConfig{
			Provider: "openai",
			Timeout:  Duration(review.DefaultOracleTimeout),
		},
		Tools: ToolsConfig{
			Timeout: Duration(review.DefaultToolTimeout),
		},
		Workflow: WorkflowConfig{
			Language: review.DefaultLanguage,
			MaxSteps: review.DefaultMaxSteps,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

var validateConfig = validator.New(validator.WithRequiredStructEnabled())

// loadConfig reads path over the defaults. An empty path yields the
// defaults. Unknown keys are rejected.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	return &cfg, nil
}

// finalize fills provider-dependent defaults and validates cfg.
func (c *Config) finalize() error {
	if c.Oracle.APIKeyEnv == "" {
		c.Oracle.APIKeyEnv = apiKeyEnvs[c.Oracle.Provider]
	}
	if err := validateConfig.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
