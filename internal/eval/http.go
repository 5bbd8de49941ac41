package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPEvaluator calls an external scoring service.
// Request: {"question":"...","reference":"...","response":"...","checks":[...],"persona":"..."}
// Response: {"evaluation":{"<check>":{"score":0.9,"critique":"..."}}}
type HTTPEvaluator struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPEvaluator creates an evaluator posting to endpoint.
func NewHTTPEvaluator(endpoint, apiKey string) *HTTPEvaluator {
	return &HTTPEvaluator{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type httpEvalResponse struct {
	Evaluation Result `json:"evaluation"`
}

// Evaluate sends req to the scoring service and returns its result.
func (h *HTTPEvaluator) Evaluate(ctx context.Context, req Request) (Result, error) {
	if h.Endpoint == "" {
		return nil, fmt.Errorf("evaluator endpoint is not configured")
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal evaluation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.APIKey)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call evaluator: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("evaluator bad status %d: %s", resp.StatusCode, string(raw))
	}

	var out httpEvalResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation response: %w", err)
	}
	if out.Evaluation == nil {
		out.Evaluation = Result{}
	}
	return out.Evaluation, nil
}
