package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashg/simbench/internal/domain"
)

// scriptedClient returns canned responses in order, repeating the last one
// once the script runs out.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	prompts   []string
	opts      []map[string]any
}

func (c *scriptedClient) Complete(_ context.Context, prompt string, options map[string]any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.calls
	c.calls++
	c.prompts = append(c.prompts, prompt)
	c.opts = append(c.opts, options)
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	var err error
	if idx < len(c.errs) {
		err = c.errs[idx]
	}
	return c.responses[idx], err
}

func (c *scriptedClient) EstimateTokens(text string) (int, error) { return len(text) / 4, nil }

func (c *scriptedClient) GetModel() string { return "test-model" }

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

const validSimilarity = `{"conceptual_similarity": 0.8, "structural_similarity": 0.6, "reasoning": "shared kinematics setup"}`

func TestInvokeParsesValidResponse(t *testing.T) {
	client := &scriptedClient{responses: []string{validSimilarity}}
	g := NewGateway(client, fastRetry(3), nil)

	got, err := Invoke[domain.RelevanceSimilarity](context.Background(), g, Request{UserMessage: "compare"})
	require.NoError(t, err)
	assert.Equal(t, 0.8, got.ConceptualSimilarity)
	assert.Equal(t, 0.6, got.StructuralSimilarity)
	assert.Equal(t, 1, client.callCount())
}

func TestInvokeRetriesMalformedResponse(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"I cannot answer that.",
		"```json\n" + validSimilarity + "\n```",
	}}
	g := NewGateway(client, fastRetry(3), nil)

	got, err := Invoke[domain.RelevanceSimilarity](context.Background(), g, Request{UserMessage: "compare"})
	require.NoError(t, err)
	assert.Equal(t, 0.8, got.ConceptualSimilarity)
	assert.Equal(t, 2, client.callCount())
}

func TestInvokeRetriesValidationFailure(t *testing.T) {
	// Parses fine but violates the [0, 1] bound, so every attempt fails.
	client := &scriptedClient{responses: []string{
		`{"conceptual_similarity": 1.5, "structural_similarity": 0.5, "reasoning": "x"}`,
	}}
	g := NewGateway(client, fastRetry(3), nil)

	_, err := Invoke[domain.RelevanceSimilarity](context.Background(), g, Request{UserMessage: "compare"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCallExhausted)
	assert.Equal(t, 3, client.callCount())
}

func TestInvokeStopsAtAttemptBudget(t *testing.T) {
	client := &scriptedClient{
		responses: []string{""},
		errs:      []error{errors.New("boom")},
	}
	g := NewGateway(client, fastRetry(3), nil)

	_, err := Invoke[domain.RelevanceSimilarity](context.Background(), g, Request{UserMessage: "compare"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCallExhausted)
	assert.ErrorContains(t, err, "relevance_similarity")
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 3, client.callCount())
}

func TestInvokeAppliesDefaultsToCallOptions(t *testing.T) {
	client := &scriptedClient{responses: []string{validSimilarity}}
	g := NewGateway(client, fastRetry(1), nil)

	_, err := Invoke[domain.RelevanceSimilarity](context.Background(), g, Request{
		UserMessage:   "compare",
		SystemMessage: "you are a judge",
	})
	require.NoError(t, err)

	require.Len(t, client.opts, 1)
	opts := client.opts[0]
	assert.Equal(t, DefaultTemperature, opts["temperature"])
	assert.Equal(t, true, opts["json_mode"])
	assert.Equal(t, "you are a judge", opts["system"])
	_, hasModel := opts["model"]
	assert.False(t, hasModel)
}

func TestInvokeHonorsRequestTemperature(t *testing.T) {
	client := &scriptedClient{responses: []string{validSimilarity}}
	g := NewGateway(client, fastRetry(1), nil)

	_, err := Invoke[domain.RelevanceSimilarity](context.Background(), g, Request{
		UserMessage: "compare",
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.3, client.opts[0]["temperature"])
}

func TestRetryPolicyDelayDoubles(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 500*time.Millisecond, p.Delay(0))
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
}

func TestInvokeSkipsDelayAfterFinalAttempt(t *testing.T) {
	client := &scriptedClient{
		responses: []string{""},
		errs:      []error{errors.New("boom")},
	}
	// Two attempts with a 30ms base delay: one backoff between them,
	// none after the second failure.
	g := NewGateway(client, RetryPolicy{MaxAttempts: 2, BaseDelay: 30 * time.Millisecond}, nil)

	start := time.Now()
	_, err := Invoke[domain.RelevanceSimilarity](context.Background(), g, Request{UserMessage: "compare"})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrCallExhausted)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Less(t, elapsed, 90*time.Millisecond)
}

func TestInvokeRespectsContextDuringBackoff(t *testing.T) {
	client := &scriptedClient{
		responses: []string{""},
		errs:      []error{errors.New("boom")},
	}
	g := NewGateway(client, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Minute}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := Invoke[domain.RelevanceSimilarity](ctx, g, Request{UserMessage: "compare"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, client.callCount())
}

func TestTextRetriesEmptyContent(t *testing.T) {
	client := &scriptedClient{responses: []string{"", "final answer"}}
	g := NewGateway(client, fastRetry(3), nil)

	got, err := g.Text(context.Background(), Request{UserMessage: "explain"})
	require.NoError(t, err)
	assert.Equal(t, "final answer", got)
	assert.Equal(t, 2, client.callCount())
}

func TestTextExhaustsOnPersistentEmptyContent(t *testing.T) {
	client := &scriptedClient{responses: []string{""}}
	g := NewGateway(client, fastRetry(3), nil)

	_, err := g.Text(context.Background(), Request{UserMessage: "explain"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCallExhausted)
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Equal(t, 3, client.callCount())
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "bare object",
			response: `{"a": 1}`,
			want:     `{"a": 1}`,
		},
		{
			name:     "json fence",
			response: "Here you go:\n```json\n{\"a\": 1}\n```\nHope that helps.",
			want:     `{"a": 1}`,
		},
		{
			name:     "anonymous fence",
			response: "```\n{\"a\": 1}\n```",
			want:     `{"a": 1}`,
		},
		{
			name:     "surrounding prose",
			response: `The result is {"a": {"b": 2}} as requested.`,
			want:     `{"a": {"b": 2}}`,
		},
		{
			name:     "braces inside strings",
			response: `{"reasoning": "use F = ma, not {impulse}", "score": 1}`,
			want:     `{"reasoning": "use F = ma, not {impulse}", "score": 1}`,
		},
		{
			name:     "escaped quote inside string",
			response: `{"reasoning": "the \"best\" answer"}`,
			want:     `{"reasoning": "the \"best\" answer"}`,
		},
		{
			name:     "no object",
			response: "I am unable to comply.",
			want:     "",
		},
		{
			name:     "unterminated object",
			response: `{"a": 1`,
			want:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.response))
		})
	}
}
