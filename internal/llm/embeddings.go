package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingsClient creates embeddings through an Azure OpenAI embedding deployment.
type EmbeddingsClient struct {
	Deployment string
	client     *openai.Client
}

// NewEmbeddingsClient creates a new embeddings client for the given deployment.
func NewEmbeddingsClient(cfg Config, deployment string) *EmbeddingsClient {
	return &EmbeddingsClient{
		Deployment: deployment,
		client:     newAzureClient(cfg),
	}
}

// Embed returns the embedding vector for a single text.
func (c *EmbeddingsClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("empty input text")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.Deployment),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	if len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	return resp.Data[0].Embedding, nil
}
