// Package domain defines the value types flowing through the experiment
// pipeline: the question dataset, the structured responses the model is
// asked to produce, and the per-stage report artifacts derived from them.
package domain

// Subject identifies the STEM subject a question belongs to.
// It selects the specialized instruction template used for every
// model call issued on behalf of that question.
type Subject string

// Supported subjects.
const (
	SubjectPhysics   Subject = "PHYSICS"
	SubjectMaths     Subject = "MATHS"
	SubjectChemistry Subject = "CHEMISTRY"
)

// SimilarQuestion is a previously solved question judged close to a main
// question, supplied as in-context guidance together with a summary of how
// it was solved. Immutable after loading.
type SimilarQuestion struct {
	SimilarQuestionText        string `json:"similar_question_text" validate:"required"`
	SummarizedSolutionApproach string `json:"summarized_solution_approach" validate:"required"`
}

// QuestionRecord is one item of the experiment dataset. Records are loaded
// once and referenced, not copied, by each pipeline stage. The two solution
// fields are the only mutation permitted after loading: the comparative
// analyzer fills them in when it joins the dataset with the generated
// solutions.
type QuestionRecord struct {
	QuestionID       string            `json:"question_id" validate:"required"`
	Subject          Subject           `json:"subject" validate:"required,oneof=PHYSICS MATHS CHEMISTRY"`
	QuestionText     string            `json:"question_text" validate:"required"`
	SimilarQuestions []SimilarQuestion `json:"similar_questions" validate:"dive"`

	// Enrichment, populated by the comparative analyzer join.
	SolutionWithSimilar    string `json:"solution_generated_with_similar,omitempty"`
	SolutionWithoutSimilar string `json:"solution_generated_without_similar,omitempty"`
}
