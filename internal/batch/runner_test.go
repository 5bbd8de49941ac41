package batch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeQuestions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readResults(t *testing.T, path string) []ResultEntry {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []ResultEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	return entries
}

// failingDoer fails the call whose 1-based position equals failOn and
// delegates every other call to next.
type failingDoer struct {
	next   Doer
	failOn int32
	calls  atomic.Int32
}

func (d *failingDoer) Do(req *http.Request) (*http.Response, error) {
	if d.calls.Add(1) == d.failOn {
		return nil, errors.New("connection reset")
	}
	return d.next.Do(req)
}

func chatServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"bot_reply":  "answer to " + req.UserMessage,
			"evaluation": map[string]any{"factual_accuracy": map[string]any{"score": 0.9}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunner_Run(t *testing.T) {
	srv := chatServer(t)
	input := writeQuestions(t, "What is PPE?,extra\n\n  Who enforces OSHA?  \n")
	output := filepath.Join(t.TempDir(), "results.json")

	runner := &Runner{
		Endpoint: srv.URL + "/chat",
		Input:    input,
		Output:   output,
		Timeout:  5 * time.Second,
		Client:   srv.Client(),
	}

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, "What is PPE?", results[0].Question)
	assert.Equal(t, "answer to What is PPE?", results[0].BotReply)
	assert.Contains(t, results[0].Evaluation, "factual_accuracy")
	assert.Empty(t, results[0].Error)

	assert.Equal(t, 2, results[1].Index)
	assert.Equal(t, "Who enforces OSHA?", results[1].Question)

	assert.Equal(t, results, readResults(t, output))
}

func TestRunner_Run_FailedQuestionContinues(t *testing.T) {
	srv := chatServer(t)
	input := writeQuestions(t, "first\nsecond\nthird\n")
	output := filepath.Join(t.TempDir(), "results.json")

	runner := &Runner{
		Endpoint: srv.URL,
		Input:    input,
		Output:   output,
		Client:   &failingDoer{next: srv.Client(), failOn: 2},
	}

	results, err := runner.Run(context.Background())
	require.NoError(t, err)

	entries := readResults(t, output)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Index)
	}
	assert.Equal(t, "second", entries[1].Question)
	assert.Contains(t, entries[1].Error, "connection reset")
	assert.Empty(t, entries[1].BotReply)
	assert.NotNil(t, entries[1].Evaluation)
	assert.Empty(t, entries[0].Error)
	assert.Equal(t, "answer to third", entries[2].BotReply)
	assert.Equal(t, results, entries)
}

func TestRunner_Run_CheckpointsAfterEachQuestion(t *testing.T) {
	output := filepath.Join(t.TempDir(), "results.json")

	var seen []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The file holds every earlier result by the time the next request arrives.
		if data, err := os.ReadFile(output); err == nil {
			var entries []ResultEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				t.Errorf("results file is not valid JSON: %v", err)
			}
			seen = append(seen, len(entries))
		} else {
			seen = append(seen, 0)
		}
		_, _ = w.Write([]byte(`{"bot_reply":"ok"}`))
	}))
	defer srv.Close()

	runner := &Runner{
		Endpoint: srv.URL,
		Input:    writeQuestions(t, "a\nb\nc\n"),
		Output:   output,
		Client:   srv.Client(),
	}

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestRunner_Run_ResponseVariants(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantReply string
		wantError string
	}{
		{
			name:      "missing evaluation defaults to empty object",
			status:    http.StatusOK,
			body:      `{"bot_reply":"hello"}`,
			wantReply: "hello",
		},
		{
			name:      "server error keeps reply and notes status",
			status:    http.StatusInternalServerError,
			body:      `{"bot_reply":"Error: boom"}`,
			wantReply: "Error: boom",
			wantError: "unexpected status 500",
		},
		{
			name:      "undecodable body",
			status:    http.StatusOK,
			body:      `not json`,
			wantError: "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			runner := &Runner{
				Endpoint: srv.URL,
				Input:    writeQuestions(t, "q\n"),
				Output:   filepath.Join(t.TempDir(), "results.json"),
				Client:   srv.Client(),
			}

			results, err := runner.Run(context.Background())
			require.NoError(t, err)
			require.Len(t, results, 1)

			assert.Equal(t, tt.wantReply, results[0].BotReply)
			assert.Equal(t, map[string]any{}, results[0].Evaluation)
			if tt.wantError == "" {
				assert.Empty(t, results[0].Error)
			} else {
				assert.Contains(t, results[0].Error, tt.wantError)
			}
		})
	}
}

func TestRunner_Run_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	runner := &Runner{
		Endpoint: srv.URL,
		Input:    writeQuestions(t, "slow\n"),
		Output:   filepath.Join(t.TempDir(), "results.json"),
		Timeout:  50 * time.Millisecond,
		Client:   srv.Client(),
	}

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "request failed")
}

func TestRunner_Run_Cancelled(t *testing.T) {
	srv := chatServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		cancel()
		return srv.Client().Do(req)
	})

	runner := &Runner{
		Endpoint: srv.URL,
		Input:    writeQuestions(t, "a\nb\n"),
		Output:   filepath.Join(t.TempDir(), "results.json"),
		Delay:    time.Hour,
		Client:   doer,
	}

	results, err := runner.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunner_Run_Errors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		runner := &Runner{
			Input:  filepath.Join(t.TempDir(), "missing.csv"),
			Output: filepath.Join(t.TempDir(), "results.json"),
		}
		_, err := runner.Run(context.Background())
		require.Error(t, err)
	})

	t.Run("unwritable output", func(t *testing.T) {
		srv := chatServer(t)
		runner := &Runner{
			Endpoint: srv.URL,
			Input:    writeQuestions(t, "q\n"),
			Output:   filepath.Join(t.TempDir(), "no-such-dir", "results.json"),
			Client:   srv.Client(),
		}
		results, err := runner.Run(context.Background())
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "failed to write results"))
		assert.Len(t, results, 1)
	})
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }
