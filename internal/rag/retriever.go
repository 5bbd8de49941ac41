package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks safety-insight/internal/rag Embedder

import (
	"context"

	"safety-insight/internal/contextutil"
	"safety-insight/internal/vectorstore"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever finds source documents relevant to a question.
type Retriever struct {
	embedder  Embedder
	index     vectorstore.Index
	topK      int
	threshold float64
}

// NewRetriever creates a retriever that keeps at most topK hits scoring at
// least threshold.
func NewRetriever(embedder Embedder, index vectorstore.Index, topK int, threshold float64) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		embedder:  embedder,
		index:     index,
		topK:      topK,
		threshold: threshold,
	}
}

// Retrieve embeds the question, searches the index and returns the hits
// above the threshold in index order. Failures are logged and yield an
// empty slice so the caller can still answer without references.
func (r *Retriever) Retrieve(ctx context.Context, question string) []DocumentReference {
	logger := contextutil.LoggerFromContext(ctx)

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return []DocumentReference{}
	}

	hits, err := r.index.Search(ctx, vector, r.topK)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search index", "k", r.topK, "error", err)
		return []DocumentReference{}
	}

	refs := make([]DocumentReference, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < r.threshold {
			continue
		}
		refs = append(refs, DocumentReference{
			Name: hit.DocumentName,
			Page: hit.PageNumber,
			URL:  hit.SASURL,
		})
	}

	logger.DebugContext(ctx, "retrieved documents",
		"hits", len(hits),
		"kept", len(refs),
		"threshold", r.threshold,
	)
	return refs
}
