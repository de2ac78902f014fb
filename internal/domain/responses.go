package domain

// Alignment is a three-valued judgement used by the relevance alignment
// check: YES when the property holds, PARTIAL when some external
// information is needed, NO when it does not hold.
type Alignment string

const (
	AlignmentYes     Alignment = "YES"
	AlignmentPartial Alignment = "PARTIAL"
	AlignmentNo      Alignment = "NO"
)

// Winner identifies which of the two blindly compared solutions a judge
// preferred. SOLUTION_A is always the solution generated with similar
// questions and SOLUTION_B the one generated without; the mapping is fixed
// for every call.
type Winner string

const (
	WinnerSolutionA Winner = "SOLUTION_A"
	WinnerSolutionB Winner = "SOLUTION_B"
	WinnerTie       Winner = "TIE"
)

// Schema is the capability every structured model response implements.
// The gateway's generic call is constrained over it, so each concrete
// response shape is resolved at the call site rather than through runtime
// type inspection. SchemaName labels the response format requested from
// the provider and shows up in retry diagnostics.
type Schema interface {
	SchemaName() string
}

// RelevanceSimilarity scores how close the similar questions are to the
// main question on two dimensions, each in [0, 1].
type RelevanceSimilarity struct {
	ConceptualSimilarity float64 `json:"conceptual_similarity" validate:"gte=0,lte=1"`
	StructuralSimilarity float64 `json:"structural_similarity" validate:"gte=0,lte=1"`
	Reasoning            string  `json:"reasoning" validate:"required"`
}

func (RelevanceSimilarity) SchemaName() string { return "relevance_similarity" }

// RelevanceAlignment judges whether the similar questions are pitched at an
// appropriate difficulty and whether their solution approaches transfer to
// the main question.
type RelevanceAlignment struct {
	IsDifficultyAppropriate  Alignment `json:"is_difficulty_appropriate" validate:"required,oneof=YES PARTIAL NO"`
	IsSolutionApproachViable Alignment `json:"is_solution_approach_viable" validate:"required,oneof=YES PARTIAL NO"`
	Reasoning                string    `json:"reasoning" validate:"required"`
}

func (RelevanceAlignment) SchemaName() string { return "relevance_alignment" }

// GeneratedSolution is the tutor model's answer to a question: its
// approach outline plus the final step-by-step solution.
type GeneratedSolution struct {
	Thoughts string `json:"thoughts" validate:"required"`
	Solution string `json:"generated_solution" validate:"required"`
}

func (GeneratedSolution) SchemaName() string { return "generated_solution" }

// MetricEvaluation is a judge's verdict for one comparison metric:
// the winning solution and how decisively it won. A margin of 0 means no
// margin, 1 a complete win.
type MetricEvaluation struct {
	Winner          Winner  `json:"winner" validate:"required,oneof=SOLUTION_A SOLUTION_B TIE"`
	MarginOfWinning float64 `json:"margin_of_winning" validate:"gte=0,lte=1"`
	Reasoning       string  `json:"reasoning" validate:"required"`
}

func (MetricEvaluation) SchemaName() string { return "metric_evaluation" }

// PerformanceAnalysis is a root-cause hypothesis for why providing similar
// questions helped or hurt on a particular item, with the supporting
// evidence the model found in the judge reports.
type PerformanceAnalysis struct {
	Hypothesis string `json:"hypothesis" validate:"required"`
	Evidence   string `json:"evidence" validate:"required"`
}

func (PerformanceAnalysis) SchemaName() string { return "performance_analysis" }

// Insight is one actionable recommendation synthesized from the root-cause
// analyses.
type Insight struct {
	Recommendation string `json:"recommendation" validate:"required"`
	Reasoning      string `json:"reasoning" validate:"required"`
}

// InsightReport is the terminal artifact of the pipeline: ranked
// recommendations distilled from all win and loss analyses.
type InsightReport struct {
	Insights []Insight `json:"insights" validate:"required,min=1,dive"`
}

func (InsightReport) SchemaName() string { return "insight_report" }
