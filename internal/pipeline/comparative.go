package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/akashg/simbench/infrastructure/llm"
	"github.com/akashg/simbench/infrastructure/store"
	"github.com/akashg/simbench/internal/domain"
	"github.com/akashg/simbench/internal/ports"
)

// Stage temperature defaults. Judging and root-cause analysis both run
// near-greedy; insight synthesis uses the gateway default for more varied
// phrasing.
const (
	DefaultJudgingTemperature  = 0.1
	DefaultAnalysisTemperature = 0.1
)

// maxAnalyses caps how many strong wins and strong losses each get a
// root-cause analysis call.
const maxAnalyses = 4

// ComparativeAnalyzer runs the judging and insight stages. Construction
// eagerly joins the dataset with both generated solution sets so a missing
// solution fails the run before any model call is spent.
type ComparativeAnalyzer struct {
	gateway      *llm.Gateway
	artifacts    ports.ArtifactStore
	questions    []domain.QuestionRecord
	judgingTemp  float64
	analysisTemp float64
	insightTemp  float64
	logger       *log.Logger
}

// NewComparativeAnalyzer joins questions with their generated solutions.
// Every question must have exactly one solution in each set; a missing
// entry is an error. Temperatures <= 0 select the stage defaults (insight
// synthesis defaults to the gateway's own default).
func NewComparativeAnalyzer(
	gateway *llm.Gateway,
	artifacts ports.ArtifactStore,
	questions []domain.QuestionRecord,
	with, without []domain.GeneratedSolutionRecord,
	judgingTemp, analysisTemp, insightTemp float64,
	logger *log.Logger,
) (*ComparativeAnalyzer, error) {
	if judgingTemp <= 0 {
		judgingTemp = DefaultJudgingTemperature
	}
	if analysisTemp <= 0 {
		analysisTemp = DefaultAnalysisTemperature
	}
	if logger == nil {
		logger = log.Default()
	}

	withByID := indexSolutions(with)
	withoutByID := indexSolutions(without)

	joined := make([]domain.QuestionRecord, len(questions))
	for i, question := range questions {
		guided, ok := withByID[question.QuestionID]
		if !ok {
			return nil, fmt.Errorf("no with-similar solution found for question %s", question.QuestionID)
		}
		plain, ok := withoutByID[question.QuestionID]
		if !ok {
			return nil, fmt.Errorf("no without-similar solution found for question %s", question.QuestionID)
		}
		question.SolutionWithSimilar = guided.Solution
		question.SolutionWithoutSimilar = plain.Solution
		joined[i] = question
	}

	return &ComparativeAnalyzer{
		gateway:      gateway,
		artifacts:    artifacts,
		questions:    joined,
		judgingTemp:  judgingTemp,
		analysisTemp: analysisTemp,
		insightTemp:  insightTemp,
		logger:       logger,
	}, nil
}

func indexSolutions(records []domain.GeneratedSolutionRecord) map[string]domain.GeneratedSolutionRecord {
	byID := make(map[string]domain.GeneratedSolutionRecord, len(records))
	for _, r := range records {
		byID[r.QuestionID] = r
	}
	return byID
}

// Analyze judges every question pairwise on each comparison metric and
// persists the reports. SOLUTION_A is always the with-similar solution and
// SOLUTION_B the without-similar one; the judge never learns the mapping.
// A failed judgement aborts the stage before the checkpoint is written.
func (a *ComparativeAnalyzer) Analyze(ctx context.Context) ([]domain.ComparisonReport, error) {
	reports := make([]domain.ComparisonReport, 0, len(a.questions))

	for i, question := range a.questions {
		a.logger.Printf("judging question %s (%d/%d)", question.QuestionID, i+1, len(a.questions))

		systemPrompts := comparisonSystemPrompts(question.Subject)
		userPrompt := comparisonUserPrompt(question.QuestionText, question.SolutionWithSimilar, question.SolutionWithoutSimilar)

		report := domain.ComparisonReport{
			QuestionID: question.QuestionID,
			Metrics:    make(map[domain.Metric]domain.MetricEvaluation, len(domain.ComparisonMetrics)),
		}
		for _, metric := range domain.ComparisonMetrics {
			evaluation, err := llm.Invoke[domain.MetricEvaluation](ctx, a.gateway, llm.Request{
				SystemMessage: systemPrompts[metric],
				UserMessage:   userPrompt,
				Temperature:   a.judgingTemp,
			})
			if err != nil {
				return nil, fmt.Errorf("judging %s on %s: %w", question.QuestionID, metric, err)
			}
			report.Metrics[metric] = evaluation
		}
		reports = append(reports, report)
	}

	if err := a.artifacts.Save(store.ComparativeReportFile, reports); err != nil {
		return nil, fmt.Errorf("failed to persist comparison reports: %w", err)
	}
	a.logger.Printf("comparative analysis complete: %d reports saved to %s", len(reports), store.ComparativeReportFile)
	return reports, nil
}

// GenerateInsights reloads the judging checkpoint, scores and classifies
// every comparison, runs root-cause analyses on the strongest wins and
// losses, and synthesizes the final recommendations. When no comparison
// clears the strong threshold in either direction it reports the outcome
// breakdown and stops without any model call.
func (a *ComparativeAnalyzer) GenerateInsights(ctx context.Context) (*domain.InsightReport, error) {
	var reports []domain.ComparisonReport
	if err := a.artifacts.Load(store.ComparativeReportFile, &reports); err != nil {
		return nil, fmt.Errorf("comparative analysis checkpoint required before insight generation: %w", err)
	}

	questionsByID := make(map[string]domain.QuestionRecord, len(a.questions))
	for _, q := range a.questions {
		questionsByID[q.QuestionID] = q
	}

	scored := make([]domain.ScoredComparison, 0, len(reports))
	var wins, losses, inconclusive []domain.ScoredComparison
	for _, report := range reports {
		question, ok := questionsByID[report.QuestionID]
		if !ok {
			return nil, fmt.Errorf("comparison report references unknown question %s", report.QuestionID)
		}
		sc := domain.ScoredComparison{
			QuestionID:           report.QuestionID,
			AverageScore:         report.AverageScore(),
			FullAnalysis:         report,
			OriginalQuestionData: question,
		}
		scored = append(scored, sc)
		switch domain.Classify(sc.AverageScore) {
		case domain.OutcomeWin:
			wins = append(wins, sc)
		case domain.OutcomeLoss:
			losses = append(losses, sc)
		default:
			inconclusive = append(inconclusive, sc)
		}
	}

	if err := a.artifacts.Save(store.FullAnalysisReportFile, scored); err != nil {
		return nil, fmt.Errorf("failed to persist full analysis report: %w", err)
	}

	a.logger.Printf("outcome breakdown: %d strong wins, %d strong losses, %d inconclusive (threshold ±%.1f)",
		len(wins), len(losses), len(inconclusive), domain.StrongThreshold)
	if len(wins) == 0 && len(losses) == 0 {
		a.logger.Printf("no comparison cleared the strong threshold; skipping insight generation")
		for _, sc := range scored {
			a.logger.Printf("  %s: average_score=%.4f (%s)", sc.QuestionID, sc.AverageScore, domain.Classify(sc.AverageScore))
		}
		return nil, nil
	}

	winRecords, err := a.analyzeOutcomes(ctx, capAnalyses(wins), domain.OutcomeWin)
	if err != nil {
		return nil, err
	}
	lossRecords, err := a.analyzeOutcomes(ctx, capAnalyses(losses), domain.OutcomeLoss)
	if err != nil {
		return nil, err
	}

	report, err := llm.Invoke[domain.InsightReport](ctx, a.gateway, llm.Request{
		UserMessage: insightGenerationPrompt(winRecords, lossRecords),
		Temperature: a.insightTemp,
	})
	if err != nil {
		return nil, fmt.Errorf("insight synthesis: %w", err)
	}

	if err := a.artifacts.Save(store.InsightReportFile, report); err != nil {
		return nil, fmt.Errorf("failed to persist insight report: %w", err)
	}
	a.logger.Printf("insight generation complete: %d recommendations saved to %s", len(report.Insights), store.InsightReportFile)
	for i, insight := range report.Insights {
		a.logger.Printf("recommendation %d: %s", i+1, insight.Recommendation)
	}
	return &report, nil
}

// capAnalyses keeps the first maxAnalyses items in checkpoint order.
func capAnalyses(scored []domain.ScoredComparison) []domain.ScoredComparison {
	if len(scored) > maxAnalyses {
		return scored[:maxAnalyses]
	}
	return scored
}

func (a *ComparativeAnalyzer) analyzeOutcomes(ctx context.Context, scored []domain.ScoredComparison, outcome domain.Outcome) ([]domain.PerformanceRecord, error) {
	records := make([]domain.PerformanceRecord, 0, len(scored))
	for _, sc := range scored {
		a.logger.Printf("analyzing %s for question %s (score %.4f)", outcome, sc.QuestionID, sc.AverageScore)
		analysis, err := llm.Invoke[domain.PerformanceAnalysis](ctx, a.gateway, llm.Request{
			UserMessage: performanceAnalysisPrompt(sc, outcome),
			Temperature: a.analysisTemp,
		})
		if err != nil {
			return nil, fmt.Errorf("root-cause analysis for %s: %w", sc.QuestionID, err)
		}
		records = append(records, domain.PerformanceRecord{
			PerformanceAnalysis: analysis,
			QuestionID:          sc.QuestionID,
			Outcome:             outcome,
		})
	}
	return records, nil
}
