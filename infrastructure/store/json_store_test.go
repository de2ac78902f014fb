package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashg/simbench/internal/domain"
)

func TestSaveThenLoadRoundTrip(t *testing.T) {
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	saved := []domain.ComparisonReport{{
		QuestionID: "q1",
		Metrics: map[domain.Metric]domain.MetricEvaluation{
			domain.MetricCorrectness: {Winner: domain.WinnerSolutionA, MarginOfWinning: 0.4, Reasoning: "uses θ = 30° correctly"},
		},
	}}
	require.NoError(t, s.Save(ComparativeReportFile, saved))

	var loaded []domain.ComparisonReport
	require.NoError(t, s.Load(ComparativeReportFile, &loaded))
	assert.Equal(t, saved, loaded)
}

func TestSaveWritesReadableJSON(t *testing.T) {
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	report := domain.ComparisonReport{
		QuestionID: "q1",
		Metrics: map[domain.Metric]domain.MetricEvaluation{
			domain.MetricClarity: {Winner: domain.WinnerTie, Reasoning: "uses <sup> markup & θ"},
		},
	}
	require.NoError(t, s.Save(ComparativeReportFile, report))

	data, err := os.ReadFile(filepath.Join(s.Dir(), ComparativeReportFile))
	require.NoError(t, err)
	content := string(data)
	// Metric keys are lowercase, HTML and non-ASCII text stay unescaped.
	assert.Contains(t, content, `"clarity"`)
	assert.Contains(t, content, "<sup> markup & θ")
	assert.Contains(t, content, "\n  ")
}

func TestLoadMissingCheckpoint(t *testing.T) {
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	var into []domain.ComparisonReport
	err = s.Load(InsightReportFile, &into)
	require.Error(t, err)
	assert.ErrorContains(t, err, InsightReportFile)
}

func TestNewJSONStoreCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs", "2026-08-31")
	s, err := NewJSONStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
