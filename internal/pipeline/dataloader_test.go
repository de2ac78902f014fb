package pipeline

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleDataset = `[
  {
    "question_id": "phy-1",
    "subject": "PHYSICS",
    "question_text": "A ball is thrown at 20 m/s at 30 degrees. Find the range.",
    "similar_questions": [
      {
        "similar_question_text": "A stone is thrown at 15 m/s at 45 degrees. Find the range.",
        "summarized_solution_approach": "Use the range formula."
      }
    ]
  },
  {
    "question_id": "chem-1",
    "subject": "CHEMISTRY",
    "question_text": "Balance the combustion of methane.",
    "similar_questions": []
  }
]`

func TestLoadDataset(t *testing.T) {
	path := writeDataset(t, sampleDataset)
	ds, err := LoadDataset(path, quietLogger())
	require.NoError(t, err)
	require.Len(t, ds.Questions, 2)
	assert.Equal(t, "phy-1", ds.Questions[0].QuestionID)
	assert.Len(t, ds.Questions[0].SimilarQuestions, 1)
}

func TestLoadDatasetMissingFile(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "absent.json"), quietLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "absent.json")
}

func TestLoadDatasetRejectsEmpty(t *testing.T) {
	path := writeDataset(t, `[]`)
	_, err := LoadDataset(path, quietLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "no questions")
}

func TestLoadDatasetWarnsOnNearDuplicateSimilarQuestion(t *testing.T) {
	duplicated := `[
  {
    "question_id": "phy-1",
    "subject": "PHYSICS",
    "question_text": "A ball is thrown at 20 m/s at 30 degrees. Find the range.",
    "similar_questions": [
      {
        "similar_question_text": "A ball is thrown at 20 m/s at 30 degrees. Find the range!",
        "summarized_solution_approach": "Use the range formula."
      }
    ]
  }
]`
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	_, err := LoadDataset(writeDataset(t, duplicated), logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "near duplicate")
	assert.Contains(t, buf.String(), "phy-1")
}

func TestRandomSubset(t *testing.T) {
	path := writeDataset(t, sampleDataset)
	ds, err := LoadDataset(path, quietLogger())
	require.NoError(t, err)

	all := ds.RandomSubset(0)
	assert.Len(t, all, 2)

	over := ds.RandomSubset(10)
	assert.Len(t, over, 2)

	one := ds.RandomSubset(1)
	require.Len(t, one, 1)
	seen := map[string]bool{}
	for _, q := range ds.Questions {
		seen[q.QuestionID] = true
	}
	assert.True(t, seen[one[0].QuestionID])
}
