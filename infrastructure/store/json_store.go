// Package store persists pipeline checkpoint artifacts as JSON files in a
// reports directory, giving each stage a durable snapshot the next stage
// can reload independently of in-memory state.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akashg/simbench/internal/ports"
)

// Artifact names produced by the pipeline stages.
const (
	RelevanceReportFile    = "relevance_eval_report.json"
	SolutionsWithoutFile   = "generated_solutions_wo_similar.json"
	SolutionsWithFile      = "generated_solutions_w_similar.json"
	ComparativeReportFile  = "comparative_analysis_report.json"
	FullAnalysisReportFile = "full_analysis_report.json"
	InsightReportFile      = "insight_report.json"
)

// JSONStore writes artifacts as indented UTF-8 JSON with non-ASCII text
// preserved, so reports stay readable for subjects with symbol-heavy
// questions.
type JSONStore struct {
	dir string
}

var _ ports.ArtifactStore = (*JSONStore)(nil)

// NewJSONStore creates the reports directory if absent and returns a store
// rooted there.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory %s: %w", dir, err)
	}
	return &JSONStore{dir: dir}, nil
}

// Dir returns the reports directory path.
func (s *JSONStore) Dir() string { return s.dir }

// Save writes artifact to the named file, replacing any previous
// checkpoint of that name.
func (s *JSONStore) Save(name string, artifact any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(artifact); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads the named checkpoint into the value pointed to by into.
func (s *JSONStore) Load(name string, into any) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint %s: %w", path, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to decode checkpoint %s: %w", path, err)
	}
	return nil
}
