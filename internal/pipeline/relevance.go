package pipeline

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/akashg/simbench/infrastructure/llm"
	"github.com/akashg/simbench/infrastructure/store"
	"github.com/akashg/simbench/internal/domain"
	"github.com/akashg/simbench/internal/ports"
)

// DefaultRelevanceTemperature keeps the relevance judgements mostly
// deterministic while allowing some latitude in the written reasoning.
const DefaultRelevanceTemperature = 0.3

// RelevanceEvaluator runs the first stage: for each question it asks the
// model to score how similar the provided similar questions are to the
// main question, and separately whether they align with it in difficulty
// and approach.
type RelevanceEvaluator struct {
	gateway     *llm.Gateway
	artifacts   ports.ArtifactStore
	temperature float64
	logger      *log.Logger
}

// NewRelevanceEvaluator wires the stage. A temperature <= 0 selects
// DefaultRelevanceTemperature.
func NewRelevanceEvaluator(gateway *llm.Gateway, artifacts ports.ArtifactStore, temperature float64, logger *log.Logger) *RelevanceEvaluator {
	if temperature <= 0 {
		temperature = DefaultRelevanceTemperature
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RelevanceEvaluator{
		gateway:     gateway,
		artifacts:   artifacts,
		temperature: temperature,
		logger:      logger,
	}
}

// Evaluate runs both relevance checks for every question and persists the
// combined reports. The two checks per question run concurrently; a failed
// check aborts the whole stage so a partial checkpoint is never written.
// Reports come back in input order.
func (e *RelevanceEvaluator) Evaluate(ctx context.Context, questions []domain.QuestionRecord) ([]domain.RelevanceEvaluationReport, error) {
	reports := make([]domain.RelevanceEvaluationReport, len(questions))

	for i, question := range questions {
		e.logger.Printf("evaluating relevance for question %s (%d/%d)", question.QuestionID, i+1, len(questions))

		report := domain.RelevanceEvaluationReport{QuestionID: question.QuestionID}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			similarity, err := llm.Invoke[domain.RelevanceSimilarity](gctx, e.gateway, llm.Request{
				SystemMessage: relevanceSimilaritySystemPrompt(question.Subject),
				UserMessage:   relevanceUserPrompt(question.QuestionText, question.SimilarQuestions, false),
				Temperature:   e.temperature,
			})
			if err != nil {
				return fmt.Errorf("similarity check for question %s: %w", question.QuestionID, err)
			}
			report.Similarity = similarity
			return nil
		})
		g.Go(func() error {
			alignment, err := llm.Invoke[domain.RelevanceAlignment](gctx, e.gateway, llm.Request{
				SystemMessage: relevanceAlignmentSystemPrompt(question.Subject),
				UserMessage:   relevanceUserPrompt(question.QuestionText, question.SimilarQuestions, true),
				Temperature:   e.temperature,
			})
			if err != nil {
				return fmt.Errorf("alignment check for question %s: %w", question.QuestionID, err)
			}
			report.Alignment = alignment
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		reports[i] = report
	}

	if err := e.artifacts.Save(store.RelevanceReportFile, reports); err != nil {
		return nil, fmt.Errorf("failed to persist relevance reports: %w", err)
	}
	e.logger.Printf("relevance evaluation complete: %d reports saved to %s", len(reports), store.RelevanceReportFile)
	return reports, nil
}
