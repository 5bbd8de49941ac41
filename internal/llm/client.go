package llm

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"safety-insight/internal/contextutil"
)

// Client sends chat completion requests to an Azure OpenAI chat deployment.
type Client struct {
	Deployment string
	client     *openai.Client
}

// NewClient creates a new chat completion client for the given deployment.
func NewClient(cfg Config, deployment string) *Client {
	return &Client{
		Deployment: deployment,
		client:     newAzureClient(cfg),
	}
}

// Complete sends a single non-streaming completion made of a system persona and
// a user prompt, and returns the text of the first choice.
// When the service returns no choices, NoResponsePlaceholder is returned.
func (c *Client) Complete(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	// go-openai omits a zero temperature, which leaves the service default (1.0) in effect.
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	req := openai.ChatCompletionRequest{
		Model: c.Deployment, // In Azure, this is the deployment name
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	}

	logger.DebugContext(ctx, "sending chat completion",
		"deployment", c.Deployment,
		"prompt_length", len(prompt),
		"temperature", temperature,
	)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		logger.WarnContext(ctx, "chat completion returned no choices", "deployment", c.Deployment)
		return NoResponsePlaceholder, nil
	}

	return resp.Choices[0].Message.Content, nil
}
