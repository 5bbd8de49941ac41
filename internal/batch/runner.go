// Package batch replays a file of questions against the chat endpoint.
package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"safety-insight/internal/contextutil"
	"safety-insight/internal/storage"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResultEntry is one processed question in the results file.
type ResultEntry struct {
	Index      int            `json:"index"`
	Question   string         `json:"question"`
	BotReply   string         `json:"bot_reply"`
	Evaluation map[string]any `json:"evaluation"`
	Error      string         `json:"error,omitempty"`
}

// Runner posts each question to Endpoint in file order and checkpoints the
// accumulated results to Output after every question.
type Runner struct {
	Endpoint string
	Input    string
	Output   string
	// Delay is the pause between consecutive requests.
	Delay time.Duration
	// Timeout bounds each request.
	Timeout time.Duration
	Client  Doer
}

type chatRequest struct {
	UserMessage string `json:"user_message"`
}

type chatResponse struct {
	BotReply   string         `json:"bot_reply"`
	Evaluation map[string]any `json:"evaluation"`
}

// Run processes every question. A failed question is recorded and the run
// continues; only unreadable input, unwritable output or cancellation abort it.
// The results gathered so far are returned alongside any error.
func (r *Runner) Run(ctx context.Context) ([]ResultEntry, error) {
	logger := contextutil.LoggerFromContext(ctx)

	questions, err := ReadQuestions(r.Input)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "batch started", "questions", len(questions), "endpoint", r.Endpoint)

	results := make([]ResultEntry, 0, len(questions))
	for i, q := range questions {
		if i > 0 && r.Delay > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(r.Delay):
			}
		}

		entry := r.ask(ctx, q)
		entry.Index = i + 1
		results = append(results, entry)

		if entry.Error != "" {
			logger.WarnContext(ctx, "question failed", "index", entry.Index, "error", entry.Error)
		} else {
			logger.InfoContext(ctx, "question answered", "index", entry.Index, "total", len(questions))
		}

		if err := storage.WriteJSONFile(r.Output, results); err != nil {
			return results, fmt.Errorf("failed to write results: %w", err)
		}
	}

	logger.InfoContext(ctx, "batch completed", "output", r.Output, "results", len(results))
	return results, nil
}

// ask performs one chat call. Failures are reported in the entry, never returned.
func (r *Runner) ask(ctx context.Context, question string) ResultEntry {
	entry := ResultEntry{Question: question, Evaluation: map[string]any{}}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatRequest{UserMessage: question})
	if err != nil {
		entry.Error = fmt.Sprintf("failed to marshal request: %v", err)
		return entry
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		entry.Error = fmt.Sprintf("failed to create request: %v", err)
		return entry
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client().Do(req)
	if err != nil {
		entry.Error = fmt.Sprintf("request failed: %v", err)
		return entry
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		entry.Error = fmt.Sprintf("failed to read response: %v", err)
		return entry
	}

	var decoded chatResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		entry.Error = fmt.Sprintf("failed to decode response (status %d): %v", resp.StatusCode, err)
		return entry
	}

	entry.BotReply = decoded.BotReply
	if decoded.Evaluation != nil {
		entry.Evaluation = decoded.Evaluation
	}
	if resp.StatusCode != http.StatusOK {
		entry.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return entry
}

func (r *Runner) client() Doer {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}
