package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"safety-insight/internal/contextutil"
)

// AzureSearchIndex implements Index against the Azure AI Search REST API.
// The index is expected to expose a vector field named "embedding" and the
// retrievable fields document_name, page_number and sas_url.
type AzureSearchIndex struct {
	Endpoint   string
	IndexName  string
	APIKey     string
	APIVersion string
	client     *http.Client
}

// NewAzureSearchIndex creates a new Azure AI Search client.
func NewAzureSearchIndex(endpoint, indexName, apiKey, apiVersion string) *AzureSearchIndex {
	return &AzureSearchIndex{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		IndexName:  indexName,
		APIKey:     apiKey,
		APIVersion: apiVersion,
		client:     http.DefaultClient,
	}
}

type azureVectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

type azureSearchRequest struct {
	VectorQueries []azureVectorQuery `json:"vectorQueries"`
	Select        string             `json:"select"`
	Top           int                `json:"top"`
}

type azureSearchHit struct {
	Score        float64 `json:"@search.score"`
	DocumentName string  `json:"document_name"`
	PageNumber   any     `json:"page_number"`
	SASURL       string  `json:"sas_url"`
}

type azureSearchResponse struct {
	Value []azureSearchHit `json:"value"`
}

// Search runs a pure vector query (no search text) against the index.
func (s *AzureSearchIndex) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	payload := azureSearchRequest{
		VectorQueries: []azureVectorQuery{{
			Kind:   "vector",
			Vector: query,
			Fields: FieldEmbedding,
			K:      k,
		}},
		Select: strings.Join([]string{FieldDocumentName, FieldPageNumber, FieldSASURL}, ","),
		Top:    k,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url("docs/search"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send search request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure search bad status %d: %s", resp.StatusCode, string(raw))
	}

	var searchResp azureSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]SearchResult, 0, len(searchResp.Value))
	for _, hit := range searchResp.Value {
		results = append(results, SearchResult{
			Score:        hit.Score,
			DocumentName: hit.DocumentName,
			PageNumber:   pageNumber(hit.PageNumber),
			SASURL:       hit.SASURL,
		})
	}

	logger.DebugContext(ctx, "azure search completed", "index", s.IndexName, "k", k, "results", len(results))
	return results, nil
}

// Health fetches the index statistics.
func (s *AzureSearchIndex) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url("stats"), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("api-key", s.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach azure search: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("azure search bad status %d", resp.StatusCode)
	}
	return nil
}

func (s *AzureSearchIndex) url(suffix string) string {
	return fmt.Sprintf("%s/indexes/%s/%s?api-version=%s",
		s.Endpoint, url.PathEscape(s.IndexName), suffix, url.QueryEscape(s.APIVersion))
}
