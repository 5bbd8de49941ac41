package storage

import (
	"time"

	"github.com/google/uuid"

	"safety-insight/internal/eval"
)

// EvalLogEntry records one evaluated chat exchange.
type EvalLogEntry struct {
	ID          string                `json:"id"` // UUID
	Timestamp   time.Time             `json:"timestamp"`
	Question    string                `json:"question"`
	GroundTruth eval.GroundTruthEntry `json:"ground_truth"`
	Response    string                `json:"ai_response"`
	Evaluation  eval.Result           `json:"evaluation"`
}

// NewEvalLogEntry creates an entry with a fresh ID stamped with the current UTC time.
func NewEvalLogEntry(question string, groundTruth eval.GroundTruthEntry, response string, result eval.Result) EvalLogEntry {
	if result == nil {
		result = eval.Result{}
	}
	return EvalLogEntry{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		Question:    question,
		GroundTruth: groundTruth,
		Response:    response,
		Evaluation:  result,
	}
}
