// Package pipeline implements the four experiment stages: relevance
// evaluation, solution generation, comparative judging, and insight
// synthesis. Each stage consumes the previous stage's checkpoint and
// persists its own, so stages can be rerun independently.
package pipeline

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/akashg/simbench/internal/domain"
)

// nearDuplicateThreshold is the normalized edit distance below which a
// similar question is flagged as a near copy of its main question.
const nearDuplicateThreshold = 0.1

// Dataset is the loaded experiment input: the question records in file
// order.
type Dataset struct {
	Questions []domain.QuestionRecord
}

// LoadDataset reads the question dataset from path. A missing or malformed
// file is fatal to the run, so the error carries the path.
func LoadDataset(path string, logger *log.Logger) (*Dataset, error) {
	if logger == nil {
		logger = log.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	var questions []domain.QuestionRecord
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("dataset %s contains no questions", path)
	}

	ds := &Dataset{Questions: questions}
	ds.warnNearDuplicates(logger)
	logger.Printf("loaded %d questions from %s", len(questions), path)
	return ds, nil
}

// warnNearDuplicates flags similar questions that are close to verbatim
// copies of their main question. Such items bias the experiment toward the
// with-context arm, so they are reported up front but not removed.
func (d *Dataset) warnNearDuplicates(logger *log.Logger) {
	folder := cases.Fold()
	for _, q := range d.Questions {
		main := folder.String(strings.Join(strings.Fields(q.QuestionText), " "))
		for i, sq := range q.SimilarQuestions {
			similar := folder.String(strings.Join(strings.Fields(sq.SimilarQuestionText), " "))
			longest := max(len(main), len(similar))
			if longest == 0 {
				continue
			}
			dist := levenshtein.ComputeDistance(main, similar)
			if float64(dist)/float64(longest) < nearDuplicateThreshold {
				logger.Printf("warning: question %s similar_question_%d is a near duplicate of the main question (edit distance %d)",
					q.QuestionID, i+1, dist)
			}
		}
	}
}

// RandomSubset returns n questions sampled without replacement, or all
// questions when n is zero, negative, or exceeds the dataset size. The
// returned slice is a fresh copy; records are shared.
func (d *Dataset) RandomSubset(n int) []domain.QuestionRecord {
	if n <= 0 || n >= len(d.Questions) {
		out := make([]domain.QuestionRecord, len(d.Questions))
		copy(out, d.Questions)
		return out
	}
	perm := rand.Perm(len(d.Questions))
	out := make([]domain.QuestionRecord, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, d.Questions[idx])
	}
	return out
}
