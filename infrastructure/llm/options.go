package llm

import (
	"fmt"
	"net/url"
	"sync"
)

// Parameter bounds shared across providers. Temperature goes to 2.0 to
// accommodate Gemini.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0

	// DefaultMaxTokens bounds generation length when the caller does not
	// specify one. Step-by-step solutions are long, so the default is
	// generous.
	DefaultMaxTokens = 4096
)

// BaseProvider carries the model name with concurrency-safe access, for
// embedding in provider adapters.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the configured model name.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized per-call parameter set extracted from
// the options map every provider receives.
type RequestOptions struct {
	MaxTokens int
	Model     string
	// Temperature is nil when the provider default should apply.
	Temperature *float64
	// System is the system message, empty when none was given.
	System string
	// JSONMode asks the provider for a JSON-object constrained completion
	// when it supports one.
	JSONMode bool
	// Extra carries provider-specific options not in the standard set.
	Extra map[string]any
}

// ParseRequestOptions extracts standardized parameters from an options map,
// falling back to defaults for missing or invalid entries. Unrecognized
// keys land in Extra.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: extractInt(opts, "max_tokens", DefaultMaxTokens),
		Model:     extractString(opts, "model", defaultModel),
		System:    extractString(opts, "system", ""),
		Extra:     make(map[string]any),
	}

	if temp, ok := opts["temperature"].(float64); ok && temp >= MinTemperature && temp <= MaxTemperature {
		options.Temperature = &temp
	}
	if jsonMode, ok := opts["json_mode"].(bool); ok {
		options.JSONMode = jsonMode
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "temperature", "json_mode":
		default:
			options.Extra[k] = v
		}
	}
	return options
}

func extractInt(opts map[string]any, key string, defaultVal int) int {
	if v, ok := opts[key].(int); ok && v > 0 {
		return v
	}
	return defaultVal
}

func extractString(opts map[string]any, key string, defaultVal string) string {
	if v, ok := opts[key].(string); ok && v != "" {
		return v
	}
	return defaultVal
}

// ValidateBaseURL checks that an endpoint override is a usable http(s) URL.
// Empty means the provider default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return parsed.String(), nil
}

// ClampFloat64 restricts val to [min, max].
func ClampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// TokenCounter estimates token counts from text when the provider does not
// report usage.
type TokenCounter struct {
	// CharactersPerToken approximates tokenizer density; 4 suits English.
	CharactersPerToken float64
}

// NewTokenCounter returns a counter with the default density.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens estimates the token count of text.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount prefers the provider-reported count, estimating only when
// it is absent.
func (tc *TokenCounter) GetTokenCount(actualCount int, text string) int {
	if actualCount > 0 {
		return actualCount
	}
	return tc.EstimateTokens(text)
}
