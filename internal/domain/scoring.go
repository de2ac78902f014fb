package domain

// StrongThreshold is the magnitude the signed average score must exceed
// (strictly) for a question to count as a strong win or strong loss.
const StrongThreshold = 0.2

// SignedScore maps a judge verdict onto a signed scalar: positive margin
// when the with-similar solution (SOLUTION_A) won, negative when the
// without-similar solution won, zero on a tie.
func (e MetricEvaluation) SignedScore() float64 {
	switch e.Winner {
	case WinnerSolutionA:
		return e.MarginOfWinning
	case WinnerSolutionB:
		return -e.MarginOfWinning
	default:
		return 0
	}
}

// AverageScore is the mean signed score over the fixed metric set.
func (r ComparisonReport) AverageScore() float64 {
	if len(ComparisonMetrics) == 0 {
		return 0
	}
	var sum float64
	for _, m := range ComparisonMetrics {
		sum += r.Metrics[m].SignedScore()
	}
	return sum / float64(len(ComparisonMetrics))
}

// Classify partitions an average score into strong win, strong loss, or
// inconclusive. Both boundaries are exclusive: a score of exactly
// ±StrongThreshold is inconclusive.
func Classify(averageScore float64) Outcome {
	switch {
	case averageScore > StrongThreshold:
		return OutcomeWin
	case averageScore < -StrongThreshold:
		return OutcomeLoss
	default:
		return OutcomeInconclusive
	}
}
