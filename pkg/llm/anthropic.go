package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/apperrors"
	"github.com/askdb-ai/askdb-engine/pkg/retry"
)

// defaultAnthropicMaxTokens is used when the caller does not bound the
// completion. The Anthropic API requires an explicit max_tokens.
const defaultAnthropicMaxTokens = 1024

// AnthropicClient provides access to the Anthropic Messages API behind the
// same LLMClient interface as the OpenAI-compatible client.
// Embeddings are not supported by this provider; the factory pairs it with
// an OpenAI-compatible embedding client.
type AnthropicClient struct {
	client   *anthropic.Client
	model    string
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewAnthropicClient creates a new Anthropic completion client.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.Endpoint))
	}

	return &AnthropicClient{
		client:   anthropic.NewClient(cfg.APIKey, opts...),
		model:    cfg.Model,
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("llm-anthropic"),
	}, nil
}

// GenerateResponse generates a chat completion response with usage stats.
func (c *AnthropicClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
	maxTokens int,
) (*GenerateResponseResult, error) {
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	temp := float32(temperature)

	start := time.Now()

	var resp anthropic.MessagesResponse
	err := retry.DoIfRetryable(ctx, c.retryCfg, func() error {
		r, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:       anthropic.Model(c.model),
			System:      systemMessage,
			Messages:    []anthropic.Message{anthropic.NewUserTextMessage(prompt)},
			MaxTokens:   maxTokens,
			Temperature: &temp,
		})
		if err != nil {
			return ClassifyError(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("no content in response")
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.InputTokens),
		zap.Int("completion_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResponseResult{
		Content:          resp.Content[0].GetText(),
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
		TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

// CreateEmbedding implements LLMClient. Anthropic has no embedding API.
func (c *AnthropicClient) CreateEmbedding(ctx context.Context, input string, model string) ([]float32, error) {
	return nil, apperrors.ErrEmbeddingsDisabled
}

// CreateEmbeddings implements LLMClient. Anthropic has no embedding API.
func (c *AnthropicClient) CreateEmbeddings(ctx context.Context, inputs []string, model string) ([][]float32, error) {
	return nil, apperrors.ErrEmbeddingsDisabled
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *AnthropicClient) GetEndpoint() string {
	return "https://api.anthropic.com"
}
