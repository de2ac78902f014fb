package domain

import "strings"

// RelevanceEvaluationReport combines the two independent relevance checks
// for one question.
type RelevanceEvaluationReport struct {
	QuestionID string              `json:"question_id"`
	Similarity RelevanceSimilarity `json:"similarity"`
	Alignment  RelevanceAlignment  `json:"alignment"`
}

// GeneratedSolutionRecord tags a generated solution with the question it
// answers and whether similar questions were in context when it was
// produced. Never mutated after creation.
type GeneratedSolutionRecord struct {
	QuestionID                    string `json:"question_id"`
	Thoughts                      string `json:"thoughts"`
	Solution                      string `json:"generated_solution"`
	WasSolvedWithSimilarQuestions bool   `json:"was_solved_with_similar_questions"`
}

// Metric names one dimension of the pairwise solution comparison.
type Metric string

// The fixed metric set every question is judged on.
const (
	MetricCorrectness  Metric = "CORRECTNESS"
	MetricCompleteness Metric = "COMPLETENESS"
	MetricClarity      Metric = "CLARITY"
)

// ComparisonMetrics is the judging order; persisted output and score
// aggregation both follow it.
var ComparisonMetrics = []Metric{MetricCorrectness, MetricCompleteness, MetricClarity}

// MetricRubrics holds the judge-facing description of what each metric
// measures. Keyed separately from ComparisonMetrics so the set can be
// extended in one place.
var MetricRubrics = map[Metric]string{
	MetricCorrectness:  "- Is the final answer correct?\n- Is the application of formulas, principles, and calculations accurate?",
	MetricCompleteness: "- Are all necessary steps included to logically reach the conclusion?\n- Are there any 'magic steps' or unexplained logical jumps?",
	MetricClarity:      "- Is the explanation for each step clear, concise, and easy for a student to follow?\n- Is the overall structure logical?",
}

// MarshalText writes metrics as lowercase JSON keys, matching the report
// file format.
func (m Metric) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(string(m))), nil
}

// UnmarshalText accepts either case so persisted reports reload cleanly.
func (m *Metric) UnmarshalText(text []byte) error {
	*m = Metric(strings.ToUpper(string(text)))
	return nil
}

// ComparisonReport is the full judge output for one question: one
// MetricEvaluation per fixed metric. Created once by the analyze stage,
// persisted, and reloaded by insight generation.
type ComparisonReport struct {
	QuestionID string                      `json:"question_id"`
	Metrics    map[Metric]MetricEvaluation `json:"metrics"`
}

// ScoredComparison joins a comparison report with its signed average score
// and the originating question. Computed transiently during insight
// generation and persisted as the full analysis artifact.
type ScoredComparison struct {
	QuestionID           string           `json:"question_id"`
	AverageScore         float64          `json:"average_score"`
	FullAnalysis         ComparisonReport `json:"full_analysis"`
	OriginalQuestionData QuestionRecord   `json:"original_question_data"`
}

// Outcome labels a scored comparison after threshold classification.
type Outcome string

const (
	OutcomeWin          Outcome = "WIN"
	OutcomeLoss         Outcome = "LOSS"
	OutcomeInconclusive Outcome = "INCONCLUSIVE"
)

// PerformanceRecord is a persisted root-cause analysis tagged with the
// question and outcome it explains.
type PerformanceRecord struct {
	PerformanceAnalysis
	QuestionID string  `json:"question_id"`
	Outcome    Outcome `json:"outcome"`
}
