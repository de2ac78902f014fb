// Package application wires configuration, the model client, and the
// pipeline stages into a runnable experiment.
package application

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "120s" or "2m".
type Duration time.Duration

// UnmarshalYAML parses the duration from its string form.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Temperatures holds per-stage sampling temperatures. Zero values select
// each stage's default.
type Temperatures struct {
	Relevance  float64 `yaml:"relevance" validate:"gte=0,lte=2"`
	Generation float64 `yaml:"generation" validate:"gte=0,lte=2"`
	Judging    float64 `yaml:"judging" validate:"gte=0,lte=2"`
	Analysis   float64 `yaml:"analysis" validate:"gte=0,lte=2"`
	Insights   float64 `yaml:"insights" validate:"gte=0,lte=2"`
}

// Config is the experiment's run configuration, loaded from YAML. API
// credentials never appear here; they are read from the provider's
// environment variable at startup.
type Config struct {
	// Provider selects the model backend: openai, anthropic, google, or
	// gemini (Gemini through its OpenAI-compatible endpoint).
	Provider string `yaml:"provider" validate:"required,oneof=openai anthropic google gemini"`

	// Model is the model identifier all stages use.
	Model string `yaml:"model" validate:"required"`

	// BaseURL overrides the provider endpoint; empty keeps the default.
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`

	// DatasetPath points at the question dataset JSON file.
	DatasetPath string `yaml:"dataset_path" validate:"required"`

	// ReportsDir is where stage checkpoints are written.
	ReportsDir string `yaml:"reports_dir" validate:"required"`

	// SampleSize limits the run to a random subset of the dataset;
	// 0 runs every question.
	SampleSize int `yaml:"sample_size" validate:"gte=0"`

	// RequestTimeout bounds each model request.
	RequestTimeout Duration `yaml:"request_timeout" validate:"gte=0"`

	// RateLimitRPS paces model requests; 0 disables rate limiting.
	RateLimitRPS float64 `yaml:"rate_limit_rps" validate:"gte=0"`

	// MetricsAddr exposes Prometheus metrics on this address when set,
	// e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr"`

	Temperatures Temperatures `yaml:"temperatures"`
}

// DefaultConfig returns the configuration a missing or partial file falls
// back to.
func DefaultConfig() Config {
	return Config{
		Provider:       "gemini",
		Model:          "gemini-2.5-flash-lite",
		DatasetPath:    "data/questions.json",
		ReportsDir:     "reports",
		RequestTimeout: Duration(120 * time.Second),
		Temperatures: Temperatures{
			Relevance:  0.3,
			Generation: 0.2,
			Judging:    0.1,
			Analysis:   0.1,
			Insights:   0.65,
		},
	}
}

// LoadConfig reads and validates the YAML config at path, applying
// defaults for unset fields. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// credentialEnvVars maps each provider to the environment variable holding
// its API key.
var credentialEnvVars = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"google":    "GEMINI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// APIKey resolves the provider's credential from the environment. A
// missing credential is fatal to the run.
func (c Config) APIKey() (string, error) {
	envVar := credentialEnvVars[c.Provider]
	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("%s environment variable is not set", envVar)
	}
	return key, nil
}
