package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashg/simbench/infrastructure/llm"
	"github.com/akashg/simbench/infrastructure/store"
	"github.com/akashg/simbench/internal/domain"
)

// routedClient answers each call by recognizing which stage prompt it
// received, so concurrent calls within a stage stay deterministic.
type routedClient struct {
	mu    sync.Mutex
	calls int

	// judgeVerdict is returned for every metric evaluation call.
	judgeVerdict string
}

func newRoutedClient() *routedClient {
	return &routedClient{
		judgeVerdict: `{"winner": "SOLUTION_A", "margin_of_winning": 0.9, "reasoning": "A is rigorous"}`,
	}
}

func (c *routedClient) Complete(_ context.Context, prompt string, options map[string]any) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	system, _ := options["system"].(string)
	switch {
	case strings.Contains(system, "assess the similarity"):
		return `{"conceptual_similarity": 0.7, "structural_similarity": 0.5, "reasoning": "both are projectile problems"}`, nil
	case strings.Contains(system, "represent the main question"):
		return `{"is_difficulty_appropriate": "YES", "is_solution_approach_viable": "PARTIAL", "reasoning": "approach transfers with extra steps"}`, nil
	case strings.Contains(system, "acting as a judge"):
		return c.judgeVerdict, nil
	case strings.Contains(prompt, "<SIMILAR_QUESTIONS_WITH_SOLUTION_APPROACHES>"):
		return `{"thoughts": "reuse the energy conservation trick", "generated_solution": "guided solution"}`, nil
	case strings.Contains(prompt, "Your task is to solve the given question"):
		return `{"thoughts": "start from kinematics", "generated_solution": "plain solution"}`, nil
	case strings.Contains(prompt, "post mortem"):
		return `{"hypothesis": "the worked approach transferred directly", "evidence": "judge cited the reused derivation"}`, nil
	case strings.Contains(prompt, "Lead AI Strategist"):
		return `{"insights": [{"recommendation": "keep approach summaries short", "reasoning": "long ones diluted the signal"}]}`, nil
	default:
		return "", fmt.Errorf("unrecognized prompt: %.80s", prompt)
	}
}

func (c *routedClient) EstimateTokens(text string) (int, error) { return len(text) / 4, nil }

func (c *routedClient) GetModel() string { return "test-model" }

func (c *routedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func testQuestion(id string) domain.QuestionRecord {
	return domain.QuestionRecord{
		QuestionID:   id,
		Subject:      domain.SubjectPhysics,
		QuestionText: "A ball is thrown at 20 m/s at 30 degrees. Find the range.",
		SimilarQuestions: []domain.SimilarQuestion{{
			SimilarQuestionText:        "A stone is thrown at 15 m/s at 45 degrees. Find the range.",
			SummarizedSolutionApproach: "Decompose velocity, use R = v^2 sin(2θ)/g.",
		}},
	}
}

func testGateway(client *routedClient) *llm.Gateway {
	return llm.NewGateway(client, llm.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}, quietLogger())
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testStore(t *testing.T) *store.JSONStore {
	t.Helper()
	s, err := store.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestFullPipeline(t *testing.T) {
	client := newRoutedClient()
	gateway := testGateway(client)
	artifacts := testStore(t)
	questions := []domain.QuestionRecord{testQuestion("q1")}
	ctx := context.Background()

	reports, err := NewRelevanceEvaluator(gateway, artifacts, 0, quietLogger()).Evaluate(ctx, questions)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "q1", reports[0].QuestionID)
	assert.Equal(t, 0.7, reports[0].Similarity.ConceptualSimilarity)
	assert.Equal(t, domain.AlignmentPartial, reports[0].Alignment.IsSolutionApproachViable)
	assert.Equal(t, 2, client.callCount())

	without, with, err := NewSolutionBuilder(gateway, artifacts, 0, quietLogger()).Generate(ctx, questions)
	require.NoError(t, err)
	require.Len(t, without, 1)
	require.Len(t, with, 1)
	assert.Equal(t, "plain solution", without[0].Solution)
	assert.False(t, without[0].WasSolvedWithSimilarQuestions)
	assert.Equal(t, "guided solution", with[0].Solution)
	assert.True(t, with[0].WasSolvedWithSimilarQuestions)
	assert.Equal(t, 4, client.callCount())

	analyzer, err := NewComparativeAnalyzer(gateway, artifacts, questions, with, without, 0, 0, 0, quietLogger())
	require.NoError(t, err)

	comparisons, err := analyzer.Analyze(ctx)
	require.NoError(t, err)
	require.Len(t, comparisons, 1)
	require.Len(t, comparisons[0].Metrics, 3)
	assert.Equal(t, domain.WinnerSolutionA, comparisons[0].Metrics[domain.MetricClarity].Winner)
	assert.Equal(t, 7, client.callCount())

	insights, err := analyzer.GenerateInsights(ctx)
	require.NoError(t, err)
	require.NotNil(t, insights)
	require.Len(t, insights.Insights, 1)
	assert.Equal(t, "keep approach summaries short", insights.Insights[0].Recommendation)
	// One root-cause analysis for the single strong win, one synthesis.
	assert.Equal(t, 9, client.callCount())

	for _, name := range []string{
		store.RelevanceReportFile,
		store.SolutionsWithoutFile,
		store.SolutionsWithFile,
		store.ComparativeReportFile,
		store.FullAnalysisReportFile,
		store.InsightReportFile,
	} {
		_, err := os.Stat(filepath.Join(artifacts.Dir(), name))
		assert.NoError(t, err, "artifact %s", name)
	}
}
