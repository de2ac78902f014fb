package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/akashg/simbench/internal/domain"
	"github.com/akashg/simbench/internal/ports"
)

// DefaultTemperature applies when a request does not set one.
const DefaultTemperature = 0.65

// ErrCallExhausted is the terminal error returned once the retry budget is
// spent. The last attempt's failure is wrapped alongside it.
var ErrCallExhausted = errors.New("model call failed after all attempts")

// ErrEmptyContent marks an unconstrained call that returned no text; it is
// retried like any transient failure.
var ErrEmptyContent = errors.New("response content is empty")

// RetryPolicy is the single retry configuration both gateway call paths
// share: a fixed attempt budget with exponential backoff between attempts.
// Every failure kind is retried identically within the budget; the gateway
// does not distinguish retryable from permanent failures.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// BaseDelay is the backoff before the second attempt; each further
	// attempt doubles it.
	BaseDelay time.Duration
}

// DefaultRetryPolicy matches the experiment's call contract: 3 attempts,
// 0.5s base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// Delay returns the backoff applied after failed attempt k (0-indexed):
// BaseDelay * 2^k. No delay follows the final attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay << attempt
}

func (p RetryPolicy) wait(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.Delay(attempt)):
		return nil
	}
}

// Request carries the inputs of one gateway invocation.
type Request struct {
	// UserMessage is the user-role prompt. Required.
	UserMessage string
	// SystemMessage is the system-role instruction; empty omits it.
	SystemMessage string
	// Model overrides the client's configured model when non-empty.
	Model string
	// Temperature overrides the sampling temperature; values <= 0 select
	// DefaultTemperature.
	Temperature float64
}

// Gateway is the single entry point for model calls. Structured calls
// parse and validate the response against a typed schema; unconstrained
// calls return raw text. Both paths share one retry policy and surface
// only success or a terminal error to callers.
//
// The gateway holds the long-lived client and is safe for concurrent use.
type Gateway struct {
	client   ports.LLMClient
	validate *validator.Validate
	retry    RetryPolicy
	logger   *log.Logger
}

// NewGateway wraps an injected client with validation and retry. A nil
// logger falls back to the standard logger.
func NewGateway(client ports.LLMClient, retry RetryPolicy, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Default()
	}
	return &Gateway{
		client:   client,
		validate: validator.New(),
		retry:    retry,
		logger:   logger,
	}
}

// Invoke issues a schema-constrained call and returns the parsed,
// validated response. A response that fails to parse or violates its
// declared constraints counts as a failed attempt; after the budget is
// spent the call fails with ErrCallExhausted, never with a partially valid
// value.
func Invoke[T domain.Schema](ctx context.Context, g *Gateway, req Request) (T, error) {
	var zero T
	opts := g.callOptions(req, true)

	var lastErr error
	for attempt := 0; attempt < g.retry.MaxAttempts; attempt++ {
		parsed, err := invokeOnce[T](ctx, g, req.UserMessage, opts)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
		g.logAttempt(zero.SchemaName(), attempt, req.UserMessage, err)

		if attempt < g.retry.MaxAttempts-1 {
			if werr := g.retry.wait(ctx, attempt); werr != nil {
				return zero, fmt.Errorf("retry interrupted: %w", werr)
			}
		}
	}
	return zero, fmt.Errorf("%w (schema=%s, attempts=%d): %w",
		ErrCallExhausted, zero.SchemaName(), g.retry.MaxAttempts, lastErr)
}

func invokeOnce[T domain.Schema](ctx context.Context, g *Gateway, prompt string, opts map[string]any) (T, error) {
	var parsed T

	raw, err := g.client.Complete(ctx, prompt, opts)
	if err != nil {
		return parsed, err
	}

	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return parsed, fmt.Errorf("no JSON object found in response (%d chars)", len(raw))
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return parsed, fmt.Errorf("malformed %s payload: %w", parsed.SchemaName(), err)
	}
	if err := g.validate.Struct(parsed); err != nil {
		return parsed, fmt.Errorf("%s failed schema validation: %w", parsed.SchemaName(), err)
	}
	return parsed, nil
}

// Text issues an unconstrained call and returns the raw response text.
// Empty content is treated as a transient failure and retried.
func (g *Gateway) Text(ctx context.Context, req Request) (string, error) {
	opts := g.callOptions(req, false)

	var lastErr error
	for attempt := 0; attempt < g.retry.MaxAttempts; attempt++ {
		raw, err := g.client.Complete(ctx, req.UserMessage, opts)
		if err == nil && raw == "" {
			err = ErrEmptyContent
		}
		if err == nil {
			return raw, nil
		}
		lastErr = err
		g.logAttempt("text", attempt, req.UserMessage, err)

		if attempt < g.retry.MaxAttempts-1 {
			if werr := g.retry.wait(ctx, attempt); werr != nil {
				return "", fmt.Errorf("retry interrupted: %w", werr)
			}
		}
	}
	return "", fmt.Errorf("%w (attempts=%d): %w", ErrCallExhausted, g.retry.MaxAttempts, lastErr)
}

func (g *Gateway) callOptions(req Request, jsonMode bool) map[string]any {
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	opts := map[string]any{
		"temperature": temperature,
		"json_mode":   jsonMode,
	}
	if req.SystemMessage != "" {
		opts["system"] = req.SystemMessage
	}
	if req.Model != "" {
		opts["model"] = req.Model
	}
	return opts
}

// logAttempt emits the per-failure diagnostic line. Observational only;
// nothing branches on it.
func (g *Gateway) logAttempt(schema string, attempt int, prompt string, err error) {
	estTokens, _ := g.client.EstimateTokens(prompt)
	g.logger.Printf("model call failed (schema=%s attempt=%d/%d est_prompt_tokens=%d): %v",
		schema, attempt+1, g.retry.MaxAttempts, estTokens, err)
	if attempt < g.retry.MaxAttempts-1 {
		g.logger.Printf("retrying in %.2fs", g.retry.Delay(attempt).Seconds())
	}
}

// extractJSON pulls the first JSON object out of a response that may wrap
// it in markdown fences or surrounding prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end])
		}
	}
	if idx := strings.Index(response, "```"); idx != -1 {
		start := idx + 3
		if nl := strings.Index(response[start:], "\n"); nl != -1 {
			start += nl + 1
		}
		if end := strings.Index(response[start:], "```"); end != -1 {
			candidate := strings.TrimSpace(response[start : start+end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	// Scan for the matching close brace, skipping braces inside strings.
	braceCount := 0
	inString := false
	escapeNext := false
	for i := start; i < len(response); i++ {
		char := response[i]
		if escapeNext {
			escapeNext = false
			continue
		}
		switch char {
		case '\\':
			escapeNext = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				braceCount++
			}
		case '}':
			if !inString {
				braceCount--
				if braceCount == 0 {
					return response[start : i+1]
				}
			}
		}
	}
	return ""
}
