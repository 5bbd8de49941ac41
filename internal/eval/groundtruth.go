package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// NoGroundTruth fills the context and answer of an unmatched question.
const NoGroundTruth = "No ground truth available"

// Reference field names selectable through configuration.
const (
	ReferenceContext = "context"
	ReferenceAnswer  = "answer"
)

// GroundTruthEntry is one pre-authored question with its expected context and answer.
type GroundTruthEntry struct {
	Question string `json:"question" yaml:"question"`
	Context  string `json:"context" yaml:"context"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Reference returns the entry field used as the evaluator's reference text.
func (e GroundTruthEntry) Reference(field string) string {
	if field == ReferenceAnswer {
		return e.Answer
	}
	return e.Context
}

// GroundTruth is the ordered ground-truth set. It is loaded once and never mutated.
type GroundTruth []GroundTruthEntry

// Placeholder is returned for questions with no matching entry.
func Placeholder() GroundTruthEntry {
	return GroundTruthEntry{
		Context: NoGroundTruth,
		Answer:  NoGroundTruth,
	}
}

// Match finds the first entry whose question appears in question,
// ignoring case. Entries with a blank question never match.
func (g GroundTruth) Match(question string) (GroundTruthEntry, bool) {
	q := strings.ToLower(question)
	for _, entry := range g {
		needle := strings.ToLower(strings.TrimSpace(entry.Question))
		if needle == "" {
			continue
		}
		if strings.Contains(q, needle) {
			return entry, true
		}
	}
	return Placeholder(), false
}

// LoadGroundTruth reads a ground-truth set from a JSON array, or from YAML
// when the file has a .yaml or .yml extension.
func LoadGroundTruth(path string) (GroundTruth, error) {
	if path == "" {
		return nil, fmt.Errorf("ground truth path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ground truth: %w", err)
	}

	var set GroundTruth
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("parse ground truth: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("parse ground truth: %w", err)
		}
	}
	return set, nil
}
