package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/akashg/simbench/internal/domain"
)

// Prompt templates for every call site, compiled once at init. Placeholders
// are substituted through text/template so prompt text stays data, never
// code.

var relevanceSimilaritySystemTmpl = template.Must(template.New("relevance_similarity_system").Parse(
	`You are an expert {{.Subject}} professor at Stanford and MIT. Your task is to assess the similarity of similar question(s) to the main question across 2 dimensions.

Evaluate on a scale of 0.0 to 1.0 for each dimension.
1. CONCEPTUAL SIMILARITY (0.0 - 1.0): Do the similar question(s) and the main question test the same underlying concepts, principles or theories?
2. STRUCTURAL SIMILARITY (0.0 - 1.0): Are the problem structures, setup, logical/mathematical frameworks analogous?

Think step-by-step before you assess the similarity. First, think about the concepts that each of the questions are referring to, then compare the concepts between questions to assess similarity. Second, comprehend the questions, and understand the structures of the problems.
You MUST return a single, valid JSON object for your Final Assessment. The structure MUST be as follows:
{
    "conceptual_similarity": 0.X,
    "structural_similarity": 0.X,
    "reasoning": "Justify your similarity scores, by referring to the exact formula/theory/principle found in the questions."
}`))

var relevanceAlignmentSystemTmpl = template.Must(template.New("relevance_alignment_system").Parse(
	`You are an expert {{.Subject}} professor at Stanford and MIT. Your task is to assess how well similar question(s) represent the main question across 2 dimensions:

1. DIFFICULTY LEVEL: Are the questions (both main and similar) appropriate for student level knowledge and not PhD level knowledge?
2. SOLUTION APPROACH VIABILITY: Can the solution method from the similar questions be meaningfully applied to solve the main question?

Think step-by-step before assessing the questions. First, comprehend the questions to understand what concepts/principles they are referring to, then assess if those concepts are higher level than a student's knowledge or not. Second, try to solve the MAIN QUESTION using the solution methods from the SIMILAR QUESTIONS. Assess how viable are the solution methods in solving the main question.
You MUST return a single, valid JSON object for your Final Assessment. The structure MUST be as follows:
{
    "is_difficulty_appropriate": "YES/PARTIAL/NO",
    "is_solution_approach_viable": "YES/PARTIAL/NO",
    "reasoning": "Justify your assessments, for difficulty and solution viability separately, by referencing formulae/theories/principles that support your claim and reasoning behind your decisions."
}`))

var relevanceUserTmpl = template.Must(template.New("relevance_user").Parse(
	`<MAIN_QUESTION>
{{.MainQuestion}}
</MAIN_QUESTION>

<SIMILAR_QUESTIONS>
{{.SimilarQuestions}}
</SIMILAR_QUESTIONS>
`))

var solutionBuilderTmpl = template.Must(template.New("solution_builder").Parse(
	`You are an expert {{.Subject}} tutor. Your task is to solve the given question step-by-step. Think clearly before solving.

<MAIN_QUESTION>
{{.MainQuestion}}
</MAIN_QUESTION>

<INSTRUCTIONS>
1. Write a clear outline of the solution approach of the given question.
2. Now proceed with solving the given question.
3. Explain reasoning behind each step.
4. Use appropriate {{.Subject}} terminologies and concepts.
5. Provide final answer clearly.

<OUTPUT_FORMAT>
You MUST return a single, valid JSON object for your solution. The structure MUST be as follows:
{
    "thoughts": "Your thinking process about the approach.",
    "generated_solution": "The final step-by-step solution for the problem."
}
</OUTPUT_FORMAT>

</INSTRUCTIONS>
`))

var solutionBuilderWithSimilarTmpl = template.Must(template.New("solution_builder_with_similar").Parse(
	`You are an expert {{.Subject}} tutor. Your task is to solve the given question step-by-step. Along with the question to solve, you will be given similar question(s) with their solution approaches. Use the solution approaches to guide your reasoning through problem solving.

<MAIN_QUESTION>
{{.MainQuestion}}
</MAIN_QUESTION>

<SIMILAR_QUESTIONS_WITH_SOLUTION_APPROACHES>
{{.SimilarQuestions}}
</SIMILAR_QUESTIONS_WITH_SOLUTION_APPROACHES>

<INSTRUCTIONS>
1. Write a clear outline of the solution approach of the given question.
2. Analyze the similar questions with their solution approaches, and compare it with YOUR approach.
3. Identify if any relevant insights from similar questions' solution approaches can be incorporated in your solution.
4. Solve the main problem now after consolidating all insights.
5. Explain reasoning behind each step.
6. Give reference to exact insights you used from similar questions' solution approaches in the thoughts ONLY, NEVER in the generated solution.
7. Use appropriate {{.Subject}} terminologies and concepts.
8. Provide final answer clearly.

<OUTPUT_FORMAT>
You MUST return a single, valid JSON object for your solution. The structure MUST be as follows:
{
    "thoughts": "Your thinking process about the approach and comparison with similar question approaches.",
    "generated_solution": "The final step-by-step solution for the problem."
}
</OUTPUT_FORMAT>

</INSTRUCTIONS>
`))

var solutionComparisonSystemTmpl = template.Must(template.New("solution_comparison_system").Parse(
	`You are an impartial and expert {{.Subject}} professor at Stanford and MIT, acting as a judge. Your task is to blindly compare two solutions, SOLUTION_A and SOLUTION_B, for the same problem (MAIN_PROBLEM) and assess which solution is better. You must be objective and provide a structured comparison based ONLY on the content provided.

<INSTRUCTIONS>
You will evaluate the two solutions across {{.Metric}} metric. You will decide on a winner, the margin of victory, and provide your reasoning. Think step-by-step before making a final decision.

<METRIC_FOR_EVAL>
{{.Metric}}:
{{.Rubric}}
</METRIC_FOR_EVAL>

<OUTPUT_FORMAT>
You MUST return a single, valid JSON object. The structure MUST be as follows:
{
    "winner": "SOLUTION_A" | "SOLUTION_B" | "TIE",
    "margin_of_winning": "A value between 0.0 and 1.0, with 0.0 meaning no margin and 1.0 meaning a complete win",
    "reasoning": "Your detailed reasoning here."
}
</OUTPUT_FORMAT>

</INSTRUCTIONS>
`))

var solutionComparisonUserTmpl = template.Must(template.New("solution_comparison_user").Parse(
	`<ORIGINAL_PROBLEM>
{{.MainQuestion}}
</ORIGINAL_PROBLEM>

<SOLUTION_A>
{{.SolutionA}}
</SOLUTION_A>

<SOLUTION_B>
{{.SolutionB}}
</SOLUTION_B>
`))

var performanceAnalysisTmpl = template.Must(template.New("performance_analysis").Parse(
	`You are a senior AI Prompt Engineer conducting a post mortem analysis. Your task is to deduce why providing SIMILAR QUESTIONS to the LLM while solving MAIN QUESTION resulted in a specific outcome.

<CONTEXT>
SUBJECT - {{.Subject}}
JUDGE EVALUATION - Solution A was generated with help of similar questions and Solution B was generated without. A Judge evaluated both the solutions and scored them justly.
OUTCOME - Solution Generated with Similar Questions resulted in {{.Outcome}}.
PERFORMANCE SCORE - {{.PerformanceScore}} (Value is between -1 and 1. Positive score means solution generated with help of similar questions won, Negative means it lost to the solution that was generated without help of similar questions.)
</CONTEXT>

<MAIN_QUESTION>
{{.MainQuestion}}
</MAIN_QUESTION>

<SIMILAR_QUESTIONS_PROVIDED_TO_LLM>
{{.SimilarQuestions}}
</SIMILAR_QUESTIONS_PROVIDED_TO_LLM>

<JUDGE_EVALUATION>
{{.JudgeEvaluation}}
</JUDGE_EVALUATION>

<INSTRUCTIONS>
Based on all the information, form a clear hypothesis explaining the root cause of the problem. Pinpoint the specific element in the "Similar Questions" that likely led to this success or failure.

<OUTPUT_FORMAT>
You MUST return a single, valid JSON object. The structure MUST be as follows:
{
    "hypothesis": "Your hypothesis",
    "evidence": "Evidence gathered that support your hypothesis"
}
</OUTPUT_FORMAT>

</INSTRUCTIONS>
`))

var insightGenerationTmpl = template.Must(template.New("insight_generation").Parse(
	`You are a Lead AI Strategist. You have been given a series of root cause analyses for cases where using "similar questions" to guide an LLM either helped (successes) or hurt (failures) its performance.

Your task is to synthesize these findings into a high level report with actionable recommendations. Look for recurring patterns in the analyses.

<ANALYSIS_OF_SUCCESSFUL_CASES>
{{.SuccessAnalysis}}
</ANALYSIS_OF_SUCCESSFUL_CASES>

<ANALYSIS_OF_FAILED_CASES>
{{.FailureAnalysis}}
</ANALYSIS_OF_FAILED_CASES>

<TASK>
Based on the patterns you observe, generate 3-5 concrete, actionable recommendations to improve our prompts.
</TASK>

<OUTPUT_FORMAT>
You MUST return a single, valid JSON object. The structure MUST be as follows:
{
    "insights": [
        {
            "recommendation": "...",
            "reasoning": "Justify why this should be improved"
        },
        {
            "recommendation": "...",
            "reasoning": "..."
        }
    ]
}
</OUTPUT_FORMAT>
`))

func render(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		// Templates are static and data is plain strings; a failure here is
		// a programming error.
		panic(fmt.Sprintf("prompt template %s: %v", tmpl.Name(), err))
	}
	return buf.String()
}

// formatSimilarQuestions renders the numbered similar-question blocks,
// optionally including each question's summarized solution approach.
func formatSimilarQuestions(similar []domain.SimilarQuestion, includeSolutions bool) string {
	blocks := make([]string, 0, len(similar))
	for i, sq := range similar {
		n := i + 1
		block := fmt.Sprintf("<SIMILAR_QUESTION_%d>\n%s\n</SIMILAR_QUESTION_%d>", n, sq.SimilarQuestionText, n)
		if includeSolutions {
			block += fmt.Sprintf("\n<SOLUTION_APPROACH_%d>\n%s\n</SOLUTION_APPROACH_%d>", n, sq.SummarizedSolutionApproach, n)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

func relevanceSimilaritySystemPrompt(subject domain.Subject) string {
	return render(relevanceSimilaritySystemTmpl, map[string]any{"Subject": subject})
}

func relevanceAlignmentSystemPrompt(subject domain.Subject) string {
	return render(relevanceAlignmentSystemTmpl, map[string]any{"Subject": subject})
}

func relevanceUserPrompt(mainQuestion string, similar []domain.SimilarQuestion, includeSolutions bool) string {
	return render(relevanceUserTmpl, map[string]any{
		"MainQuestion":     mainQuestion,
		"SimilarQuestions": formatSimilarQuestions(similar, includeSolutions),
	})
}

func solutionBuilderPrompt(subject domain.Subject, mainQuestion string) string {
	return render(solutionBuilderTmpl, map[string]any{
		"Subject":      subject,
		"MainQuestion": mainQuestion,
	})
}

func solutionBuilderWithSimilarPrompt(subject domain.Subject, mainQuestion string, similar []domain.SimilarQuestion) string {
	return render(solutionBuilderWithSimilarTmpl, map[string]any{
		"Subject":          subject,
		"MainQuestion":     mainQuestion,
		"SimilarQuestions": formatSimilarQuestions(similar, true),
	})
}

// comparisonSystemPrompts builds one judge instruction per metric in the
// fixed judging order.
func comparisonSystemPrompts(subject domain.Subject) map[domain.Metric]string {
	prompts := make(map[domain.Metric]string, len(domain.ComparisonMetrics))
	for _, metric := range domain.ComparisonMetrics {
		prompts[metric] = render(solutionComparisonSystemTmpl, map[string]any{
			"Subject": subject,
			"Metric":  string(metric),
			"Rubric":  domain.MetricRubrics[metric],
		})
	}
	return prompts
}

func comparisonUserPrompt(mainQuestion, solutionA, solutionB string) string {
	return render(solutionComparisonUserTmpl, map[string]any{
		"MainQuestion": mainQuestion,
		"SolutionA":    solutionA,
		"SolutionB":    solutionB,
	})
}

func performanceAnalysisPrompt(scored domain.ScoredComparison, outcome domain.Outcome) string {
	question := scored.OriginalQuestionData

	// The judge report goes in verbatim as JSON so the analyst model sees
	// the same artifact the pipeline persisted.
	judgeReport, err := json.MarshalIndent(scored.FullAnalysis, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("marshal comparison report: %v", err))
	}

	return render(performanceAnalysisTmpl, map[string]any{
		"Subject":          question.Subject,
		"Outcome":          outcome,
		"PerformanceScore": fmt.Sprintf("%.4f", scored.AverageScore),
		"MainQuestion":     question.QuestionText,
		"SimilarQuestions": formatSimilarQuestions(question.SimilarQuestions, true),
		"JudgeEvaluation":  string(judgeReport),
	})
}

func insightGenerationPrompt(wins, losses []domain.PerformanceRecord) string {
	formatHypotheses := func(records []domain.PerformanceRecord) string {
		lines := make([]string, 0, len(records))
		for _, r := range records {
			lines = append(lines, fmt.Sprintf("<analysis>%s</analysis>", r.Hypothesis))
		}
		return strings.Join(lines, "\n")
	}
	return render(insightGenerationTmpl, map[string]any{
		"SuccessAnalysis": formatHypotheses(wins),
		"FailureAnalysis": formatHypotheses(losses),
	})
}
