// Package ports declares the interfaces the pipeline stages depend on,
// keeping the stages decoupled from provider SDKs, the checkpoint storage
// format, and the metrics backend.
package ports

import "context"

// LLMClient is the boundary to a language model provider. Implementations
// handle authentication, request formatting, and response parsing, and must
// be safe for concurrent use: a single client instance is constructed at
// process start and shared by every stage.
type LLMClient interface {
	// Complete sends a prompt and returns the generated text.
	// The options map carries per-call settings; common keys are
	// "temperature" (float64), "max_tokens" (int), "model" (string),
	// "system" (string), and "json_mode" (bool).
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens approximates the token count of text, for cost
	// diagnostics when the provider does not report usage.
	EstimateTokens(text string) (int, error)

	// GetModel returns the configured model identifier.
	GetModel() string
}

// ArtifactStore persists stage outputs as durable checkpoint artifacts and
// loads them back, so a later stage can run from a persisted artifact
// instead of the producing stage's in-memory state.
type ArtifactStore interface {
	// Save writes artifact under the given name, replacing any previous
	// checkpoint of that name.
	Save(name string, artifact any) error

	// Load reads the named checkpoint into the value pointed to by into.
	Load(name string, into any) error
}

// MetricsCollector receives operational metrics from the model call layer.
// Implementations integrate with a monitoring backend such as Prometheus.
type MetricsCollector interface {
	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordHistogram records an observation such as a request latency.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
