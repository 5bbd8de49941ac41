// Package eval scores chat replies against a static ground-truth set.
package eval

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Check names a quality metric computed for a reply.
type Check string

const (
	ContextRelevance  Check = "context_relevance"
	FactualAccuracy   Check = "factual_accuracy"
	ResponseRelevance Check = "response_relevance"
	ToneCritique      Check = "tone_critique"
)

// DefaultChecks is the fixed set of checks run for every evaluated reply.
var DefaultChecks = []Check{ContextRelevance, FactualAccuracy, ResponseRelevance, ToneCritique}

// TonePersona is the persona the tone check compares a reply against.
const TonePersona = "a friendly and knowledgeable OSHA workplace safety expert"

// Request is a single evaluation call.
type Request struct {
	Question  string  `json:"question"`
	Reference string  `json:"reference"`
	Response  string  `json:"response"`
	Checks    []Check `json:"checks"`
	Persona   string  `json:"persona,omitempty"`
}

// NewRequest builds a request running DefaultChecks with TonePersona.
func NewRequest(question, reference, response string) Request {
	checks := make([]Check, len(DefaultChecks))
	copy(checks, DefaultChecks)
	return Request{
		Question:  question,
		Reference: reference,
		Response:  response,
		Checks:    checks,
		Persona:   TonePersona,
	}
}

// Metric is the outcome of one check. Score is nil when the evaluator
// returned only a critique.
type Metric struct {
	Score    *float64 `json:"score"`
	Critique string   `json:"critique,omitempty"`
}

// UnmarshalJSON accepts the object form as well as a bare critique string
// or a bare score number.
func (m *Metric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var critique string
		if err := json.Unmarshal(data, &critique); err != nil {
			return err
		}
		*m = Metric{Critique: critique}
		return nil
	case '{':
		type plain Metric
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*m = Metric(p)
		return nil
	default:
		var score float64
		if err := json.Unmarshal(data, &score); err != nil {
			return fmt.Errorf("unsupported metric value %s: %w", data, err)
		}
		*m = Metric{Score: &score}
		return nil
	}
}

// Result maps check names to their metric.
type Result map[string]Metric
