package factory

import (
	"fmt"

	"memento-be/pkg/llm"
	"memento-be/pkg/llm/openai"
)

// NewLLMProvider builds the configured provider. "openai" talks to the
// hosted API; "openai-compatible" points the same client at a self-hosted
// endpoint (vLLM, LiteLLM, an Azure front) via baseURL.
func NewLLMProvider(providerType, modelName, apiKey, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "openai":
		return openai.NewOpenAIProvider(apiKey, modelName, ""), nil
	case "openai-compatible":
		if baseURL == "" {
			return nil, fmt.Errorf("openai-compatible provider requires a base URL")
		}
		return openai.NewOpenAIProvider(apiKey, modelName, baseURL), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
