package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/config"
)

// NewCompletionClient creates the completion client selected by config.
func NewCompletionClient(cfg *config.LLMConfig, logger *zap.Logger) (LLMClient, error) {
	switch cfg.Provider {
	case "anthropic":
		client, err := NewAnthropicClient(&Config{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil
	case "openai":
		client, err := NewClient(&Config{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}

// NewEmbeddingClient creates a client specifically for embeddings.
// Embeddings always go through an OpenAI-compatible endpoint, regardless of
// the completion provider.
func NewEmbeddingClient(cfg *config.LLMConfig, logger *zap.Logger) (LLMClient, error) {
	client, err := NewClient(&Config{
		Endpoint: cfg.EffectiveEmbeddingEndpoint(),
		Model:    cfg.EmbeddingModel,
		APIKey:   cfg.EffectiveEmbeddingAPIKey(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	return client, nil
}
