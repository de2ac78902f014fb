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

// DefaultGenerationTemperature keeps solution generation near-greedy so the
// comparison measures the effect of context, not sampling noise.
const DefaultGenerationTemperature = 0.2

// SolutionBuilder runs the second stage: for each question it generates one
// solution without the similar questions in context and one with them, so
// the two arms differ only in that context.
type SolutionBuilder struct {
	gateway     *llm.Gateway
	artifacts   ports.ArtifactStore
	temperature float64
	logger      *log.Logger
}

// NewSolutionBuilder wires the stage. A temperature <= 0 selects
// DefaultGenerationTemperature.
func NewSolutionBuilder(gateway *llm.Gateway, artifacts ports.ArtifactStore, temperature float64, logger *log.Logger) *SolutionBuilder {
	if temperature <= 0 {
		temperature = DefaultGenerationTemperature
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SolutionBuilder{
		gateway:     gateway,
		artifacts:   artifacts,
		temperature: temperature,
		logger:      logger,
	}
}

// Generate produces both solution sets and persists each as its own
// checkpoint. The returned slices are index-aligned with the input and with
// each other. Any failed generation aborts the stage before either
// checkpoint is written.
func (b *SolutionBuilder) Generate(ctx context.Context, questions []domain.QuestionRecord) (without, with []domain.GeneratedSolutionRecord, err error) {
	without = make([]domain.GeneratedSolutionRecord, 0, len(questions))
	with = make([]domain.GeneratedSolutionRecord, 0, len(questions))

	for i, question := range questions {
		b.logger.Printf("generating solutions for question %s (%d/%d)", question.QuestionID, i+1, len(questions))

		plain, err := llm.Invoke[domain.GeneratedSolution](ctx, b.gateway, llm.Request{
			UserMessage: solutionBuilderPrompt(question.Subject, question.QuestionText),
			Temperature: b.temperature,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("solution without similar questions for %s: %w", question.QuestionID, err)
		}
		without = append(without, domain.GeneratedSolutionRecord{
			QuestionID:                    question.QuestionID,
			Thoughts:                      plain.Thoughts,
			Solution:                      plain.Solution,
			WasSolvedWithSimilarQuestions: false,
		})

		guided, err := llm.Invoke[domain.GeneratedSolution](ctx, b.gateway, llm.Request{
			UserMessage: solutionBuilderWithSimilarPrompt(question.Subject, question.QuestionText, question.SimilarQuestions),
			Temperature: b.temperature,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("solution with similar questions for %s: %w", question.QuestionID, err)
		}
		with = append(with, domain.GeneratedSolutionRecord{
			QuestionID:                    question.QuestionID,
			Thoughts:                      guided.Thoughts,
			Solution:                      guided.Solution,
			WasSolvedWithSimilarQuestions: true,
		})
	}

	if err := b.artifacts.Save(store.SolutionsWithoutFile, without); err != nil {
		return nil, nil, fmt.Errorf("failed to persist solutions without similar questions: %w", err)
	}
	if err := b.artifacts.Save(store.SolutionsWithFile, with); err != nil {
		return nil, nil, fmt.Errorf("failed to persist solutions with similar questions: %w", err)
	}
	b.logger.Printf("solution generation complete: %d question pairs saved", len(questions))
	return without, with, nil
}
