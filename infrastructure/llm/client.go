// Package llm is the model-call layer of the experiment pipeline. It
// abstracts chat-completion providers (an OpenAI-compatible endpoint,
// Anthropic, Google Gemini) behind a small CoreLLM interface, composes
// cross-cutting concerns (timeout, rate limiting, metrics, tracing) as
// middleware around it, and exposes the structured-output gateway the
// pipeline stages call.
//
// A single client is constructed at process start and injected into each
// stage; every method is safe for concurrent use.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/akashg/simbench/internal/ports"
)

// CoreLLM is the minimal surface a provider adapter must implement. The
// middleware chain wraps any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt and returns the response text together with
	// input and output token counts. Provider-specific settings travel in
	// opts.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the configured model name.
	GetModel() string

	// SetModel switches the model for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM to add cross-cutting behavior. Middlewares
// compose; the first entry in ClientConfig.Middleware becomes the
// outermost wrapper.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig carries everything needed to build a provider client.
type ClientConfig struct {
	// APIKey authenticates against the provider.
	APIKey string

	// Model is the model identifier requests default to.
	Model string

	// BaseURL overrides the provider's default endpoint. The OpenAI
	// provider uses this to reach Gemini's OpenAI-compatible surface.
	BaseURL string

	// Timeout bounds individual requests at the transport level.
	// Zero means no transport timeout.
	Timeout time.Duration

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// Client implements ports.LLMClient over a middleware-wrapped CoreLLM.
type Client struct {
	core      CoreLLM
	estimator *TokenCounter
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient builds a provider client by name ("openai", "anthropic",
// "google") and wraps it with the configured middleware chain.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	// Reverse application so the first middleware ends up outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core, estimator: NewTokenCounter()}, nil
}

// Complete sends a prompt and returns the response text, discarding token
// usage.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.core.DoRequest(ctx, prompt, options)
	return response, err
}

// EstimateTokens approximates the token count of text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the model identifier of the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// ProviderFactory builds a CoreLLM from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider under a name usable in
// NewClient. Providers in this package self-register from init.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
