package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"safety-insight/internal/eval"
)

// EvalLog defines the interface for evaluation log storage.
type EvalLog interface {
	// Append adds an entry to the end of the log.
	Append(ctx context.Context, entry EvalLogEntry) error
	// List returns all entries in append order.
	List(ctx context.Context) ([]EvalLogEntry, error)
}

// FileEvalLog stores the log as a single JSON array.
// Every Append rewrites the whole file; appends are serialized by a mutex.
type FileEvalLog struct {
	path string
	mu   sync.Mutex
}

// NewFileEvalLog creates a file-backed log at path.
func NewFileEvalLog(path string) *FileEvalLog {
	return &FileEvalLog{path: path}
}

// Append reads the current log, appends entry and writes the log back.
func (l *FileEvalLog) Append(ctx context.Context, entry EvalLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	if err := WriteJSONFile(l.path, entries); err != nil {
		return fmt.Errorf("failed to write evaluation log: %w", err)
	}
	return nil
}

// List returns all entries in the log file.
func (l *FileEvalLog) List(ctx context.Context) ([]EvalLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.read()
}

func (l *FileEvalLog) read() ([]EvalLogEntry, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []EvalLogEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read evaluation log: %w", err)
	}
	if len(data) == 0 {
		return []EvalLogEntry{}, nil
	}

	var entries []EvalLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse evaluation log: %w", err)
	}
	if entries == nil {
		entries = []EvalLogEntry{}
	}
	return entries, nil
}

// WriteJSONFile writes v as indented JSON to path through a temporary file
// in the same directory, so readers never observe a partial file.
func WriteJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// SQLiteEvalLog stores the log in the eval_log table.
// It implements the EvalLog interface.
type SQLiteEvalLog struct {
	db *sql.DB
}

// NewSQLiteEvalLog creates a new SQLiteEvalLog. Migrate must have run on db.
func NewSQLiteEvalLog(db *sql.DB) *SQLiteEvalLog {
	return &SQLiteEvalLog{db: db}
}

// Append inserts entry as a new row.
func (l *SQLiteEvalLog) Append(ctx context.Context, entry EvalLogEntry) error {
	groundTruth, err := json.Marshal(entry.GroundTruth)
	if err != nil {
		return fmt.Errorf("failed to marshal ground truth: %w", err)
	}
	evaluation := entry.Evaluation
	if evaluation == nil {
		evaluation = eval.Result{}
	}
	result, err := json.Marshal(evaluation)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO eval_log (id, created_at, question, ground_truth, response, evaluation)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Question,
		string(groundTruth), entry.Response, string(result),
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation log entry: %w", err)
	}
	return nil
}

// List returns all rows ordered by insertion.
func (l *SQLiteEvalLog) List(ctx context.Context) ([]EvalLogEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT id, created_at, question, ground_truth, response, evaluation FROM eval_log ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluation log: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := []EvalLogEntry{}
	for rows.Next() {
		var entry EvalLogEntry
		var createdAt, groundTruth, evaluation string
		if err := rows.Scan(&entry.ID, &createdAt, &entry.Question, &groundTruth, &entry.Response, &evaluation); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation log entry: %w", err)
		}

		entry.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
		if err := json.Unmarshal([]byte(groundTruth), &entry.GroundTruth); err != nil {
			return nil, fmt.Errorf("failed to parse ground truth: %w", err)
		}
		if err := json.Unmarshal([]byte(evaluation), &entry.Evaluation); err != nil {
			return nil, fmt.Errorf("failed to parse evaluation: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluation log: %w", err)
	}
	return entries, nil
}
