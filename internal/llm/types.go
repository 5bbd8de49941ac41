package llm

import (
	openai "github.com/sashabaranov/go-openai"
)

// NoResponsePlaceholder is returned by Complete when the service answers without choices.
const NoResponsePlaceholder = "No response from AI."

// Config holds the Azure OpenAI resource settings shared by the chat and embeddings clients.
type Config struct {
	// Endpoint is the resource endpoint, e.g. https://{resource}.openai.azure.com
	Endpoint   string
	APIKey     string
	APIVersion string
}

// newAzureClient builds a go-openai client configured for Azure deployments.
// An empty endpoint or key is accepted; calls will fail at request time.
func newAzureClient(cfg Config) *openai.Client {
	clientConfig := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	if cfg.APIVersion != "" {
		clientConfig.APIVersion = cfg.APIVersion
	}
	// Deployment names are used verbatim; the default mapper strips dots.
	clientConfig.AzureModelMapperFunc = func(model string) string {
		return model
	}
	return openai.NewClientWithConfig(clientConfig)
}
