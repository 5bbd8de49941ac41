package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks safety-insight/internal/vectorstore Index

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field names shared by every index backend.
const (
	FieldEmbedding    = "embedding"
	FieldDocumentName = "document_name"
	FieldPageNumber   = "page_number"
	FieldSASURL       = "sas_url"
)

// SearchResult represents a single nearest-neighbor hit.
type SearchResult struct {
	ID           string
	Score        float64
	DocumentName string
	PageNumber   int
	// SASURL is the signed access URL of the source document.
	SASURL string
}

// Index is a pre-built vector similarity index holding document chunks.
type Index interface {
	// Search returns up to k hits for the query vector, best first.
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)

	// Health reports whether the index is reachable.
	Health(ctx context.Context) error
}

// pageNumber converts a loosely typed page field into an int.
// Unparseable values map to 0.
func pageNumber(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float32:
		return int(math.Round(float64(n)))
	case float64:
		return int(math.Round(n))
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(math.Round(f))
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}
