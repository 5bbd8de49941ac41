package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadQuestions reads one question per row from a CSV file. Only the first
// column is used; values are trimmed and blank rows are skipped.
func ReadQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open questions file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return parseQuestions(f)
}

func parseQuestions(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var questions []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse questions: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		q := strings.TrimSpace(record[0])
		if q == "" {
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}
