package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/siherrmann/techrag/core/pipeline"
	"github.com/siherrmann/techrag/helper"
)

// NewEmbedder builds the embedding function selected in the provider configuration.
// The local provider runs the bundled sentence transformer, dim must be its dimension.
func NewEmbedder(ctx context.Context, config *helper.ProviderConfiguration, dim int) (pipeline.EmbedFunc, error) {
	if config == nil {
		return nil, helper.NewError("new embedder", fmt.Errorf("provider configuration is nil"))
	}

	switch strings.ToLower(config.EmbeddingProvider) {
	case "openai":
		return NewOpenAIEmbedder(config.OpenAIAPIKey, config.EmbeddingModel, dim)
	case "gemini":
		client, err := NewGeminiClient(ctx, config.GeminiAPIKey, "")
		if err != nil {
			return nil, err
		}
		return NewGeminiEmbedder(client, config.EmbeddingModel, dim)
	case "local":
		if dim != pipeline.DefaultEmbeddingDim {
			return nil, helper.NewError("new embedder", fmt.Errorf("%w: local embedder produces %d dimensions, expected %d", pipeline.ErrDimensionMismatch, pipeline.DefaultEmbeddingDim, dim))
		}
		return pipeline.DefaultEmbedder()
	default:
		return nil, helper.NewError("new embedder", fmt.Errorf("unknown embedding provider %q", config.EmbeddingProvider))
	}
}

// NewGenerator builds the generation provider selected in the provider configuration.
func NewGenerator(ctx context.Context, config *helper.ProviderConfiguration) (Generator, error) {
	if config == nil {
		return nil, helper.NewError("new generator", fmt.Errorf("provider configuration is nil"))
	}

	switch strings.ToLower(config.GenerationProvider) {
	case "anthropic", "claude":
		return NewClaudeGenerator(config.AnthropicAPIKey, config.GenerationModel, 0)
	case "openai":
		return NewOpenAIGenerator(config.OpenAIAPIKey, config.GenerationModel)
	case "gemini":
		client, err := NewGeminiClient(ctx, config.GeminiAPIKey, "")
		if err != nil {
			return nil, err
		}
		return NewGeminiGenerator(client, config.GenerationModel)
	default:
		return nil, helper.NewError("new generator", fmt.Errorf("unknown generation provider %q", config.GenerationProvider))
	}
}
