package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/akashg/simbench/infrastructure/llm"
	"github.com/akashg/simbench/infrastructure/middleware"
	"github.com/akashg/simbench/infrastructure/store"
	"github.com/akashg/simbench/internal/domain"
	"github.com/akashg/simbench/internal/pipeline"
)

// Stage names accepted by Run.
const (
	StageAll       = "all"
	StageRelevance = "relevance"
	StageSolutions = "solutions"
	StageAnalyze   = "analyze"
	StageInsights  = "insights"
)

// Runner owns the wired pipeline: one shared model client behind the
// gateway, the checkpoint store, and the loaded dataset.
type Runner struct {
	cfg       Config
	gateway   *llm.Gateway
	artifacts *store.JSONStore
	dataset   *pipeline.Dataset
	logger    *log.Logger
}

// NewRunner builds the client from configuration, loads the dataset, and
// optionally starts the metrics endpoint. Credential resolution happens
// here so a missing API key fails before any stage starts.
func NewRunner(cfg Config, logger *log.Logger) (*Runner, error) {
	if logger == nil {
		logger = log.Default()
	}

	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	chain := []llm.Middleware{
		llm.TracingMiddleware("simbench"),
	}
	if cfg.MetricsAddr != "" {
		chain = append(chain, llm.MetricsMiddleware(middleware.NewPrometheusMetrics()))
		go serveMetrics(cfg.MetricsAddr, logger)
	}
	if cfg.RateLimitRPS > 0 {
		chain = append(chain, llm.RateLimitMiddleware(rate.Limit(cfg.RateLimitRPS), 1))
	}
	if cfg.RequestTimeout > 0 {
		chain = append(chain, llm.TimeoutMiddleware(time.Duration(cfg.RequestTimeout)))
	}

	providerType := cfg.Provider
	baseURL := cfg.BaseURL
	if providerType == "gemini" {
		// Gemini through its OpenAI-compatible surface.
		providerType = "openai"
		if baseURL == "" {
			baseURL = llm.GeminiOpenAIBaseURL
		}
	}

	client, err := llm.NewClient(providerType, llm.ClientConfig{
		APIKey:     apiKey,
		Model:      cfg.Model,
		BaseURL:    baseURL,
		Middleware: chain,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build %s client: %w", cfg.Provider, err)
	}

	artifacts, err := store.NewJSONStore(cfg.ReportsDir)
	if err != nil {
		return nil, err
	}

	dataset, err := pipeline.LoadDataset(cfg.DatasetPath, logger)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:       cfg,
		gateway:   llm.NewGateway(client, llm.DefaultRetryPolicy(), logger),
		artifacts: artifacts,
		dataset:   dataset,
		logger:    logger,
	}, nil
}

func serveMetrics(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Printf("serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Printf("metrics server stopped: %v", err)
	}
}

// Run executes the named stage, or the full pipeline for StageAll.
func (r *Runner) Run(ctx context.Context, stage string) error {
	switch stage {
	case StageAll:
		return r.runAll(ctx)
	case StageRelevance:
		_, err := r.relevanceEvaluator().Evaluate(ctx, r.sample())
		return err
	case StageSolutions:
		_, _, err := r.solutionBuilder().Generate(ctx, r.sample())
		return err
	case StageAnalyze:
		analyzer, err := r.analyzerFromCheckpoints()
		if err != nil {
			return err
		}
		_, err = analyzer.Analyze(ctx)
		return err
	case StageInsights:
		analyzer, err := r.analyzerFromCheckpoints()
		if err != nil {
			return err
		}
		_, err = analyzer.GenerateInsights(ctx)
		return err
	default:
		return fmt.Errorf("unknown stage %q (want %s|%s|%s|%s|%s)",
			stage, StageAll, StageRelevance, StageSolutions, StageAnalyze, StageInsights)
	}
}

func (r *Runner) runAll(ctx context.Context) error {
	questions := r.sample()

	r.banner("STAGE 1/4: RELEVANCE EVALUATION")
	if _, err := r.relevanceEvaluator().Evaluate(ctx, questions); err != nil {
		return err
	}

	r.banner("STAGE 2/4: SOLUTION GENERATION")
	without, with, err := r.solutionBuilder().Generate(ctx, questions)
	if err != nil {
		return err
	}

	r.banner("STAGE 3/4: COMPARATIVE ANALYSIS")
	analyzer, err := r.newAnalyzer(questions, with, without)
	if err != nil {
		return err
	}
	if _, err := analyzer.Analyze(ctx); err != nil {
		return err
	}

	r.banner("STAGE 4/4: INSIGHT GENERATION")
	_, err = analyzer.GenerateInsights(ctx)
	return err
}

func (r *Runner) sample() []domain.QuestionRecord {
	questions := r.dataset.RandomSubset(r.cfg.SampleSize)
	if len(questions) < len(r.dataset.Questions) {
		r.logger.Printf("sampled %d of %d questions", len(questions), len(r.dataset.Questions))
	}
	return questions
}

func (r *Runner) relevanceEvaluator() *pipeline.RelevanceEvaluator {
	return pipeline.NewRelevanceEvaluator(r.gateway, r.artifacts, r.cfg.Temperatures.Relevance, r.logger)
}

func (r *Runner) solutionBuilder() *pipeline.SolutionBuilder {
	return pipeline.NewSolutionBuilder(r.gateway, r.artifacts, r.cfg.Temperatures.Generation, r.logger)
}

func (r *Runner) newAnalyzer(questions []domain.QuestionRecord, with, without []domain.GeneratedSolutionRecord) (*pipeline.ComparativeAnalyzer, error) {
	return pipeline.NewComparativeAnalyzer(
		r.gateway, r.artifacts, questions, with, without,
		r.cfg.Temperatures.Judging, r.cfg.Temperatures.Analysis, r.cfg.Temperatures.Insights,
		r.logger,
	)
}

// analyzerFromCheckpoints rebuilds the analyzer for a standalone analyze or
// insights run from the persisted solution checkpoints. The question set is
// whatever subset the solutions stage actually processed, in checkpoint
// order.
func (r *Runner) analyzerFromCheckpoints() (*pipeline.ComparativeAnalyzer, error) {
	var with, without []domain.GeneratedSolutionRecord
	if err := r.artifacts.Load(store.SolutionsWithFile, &with); err != nil {
		return nil, fmt.Errorf("solutions checkpoint required before analysis: %w", err)
	}
	if err := r.artifacts.Load(store.SolutionsWithoutFile, &without); err != nil {
		return nil, fmt.Errorf("solutions checkpoint required before analysis: %w", err)
	}

	byID := make(map[string]domain.QuestionRecord, len(r.dataset.Questions))
	for _, q := range r.dataset.Questions {
		byID[q.QuestionID] = q
	}
	questions := make([]domain.QuestionRecord, 0, len(with))
	for _, record := range with {
		question, ok := byID[record.QuestionID]
		if !ok {
			return nil, fmt.Errorf("solutions checkpoint references unknown question %s", record.QuestionID)
		}
		questions = append(questions, question)
	}

	return r.newAnalyzer(questions, with, without)
}

func (r *Runner) banner(title string) {
	r.logger.Printf("========== %s ==========", title)
}
