package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/siherrmann/techrag/core/pipeline"
	"github.com/siherrmann/techrag/helper"
)

const (
	DefaultOpenAIModel          = "gpt-4o-mini"
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
)

// OpenAIGenerator generates answers with the OpenAI chat completions API
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator creates an OpenAI generator, an empty model uses the default.
func NewOpenAIGenerator(apiKey string, model string, opts ...option.RequestOption) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, helper.NewError("openai generator", fmt.Errorf("api key is empty"))
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Generate sends the messages as a chat completion request.
func (g *OpenAIGenerator) Generate(ctx context.Context, messages []Message) (*Completion, error) {
	chatMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			chatMessages = append(chatMessages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			chatMessages = append(chatMessages, openai.AssistantMessage(m.Content))
		default:
			chatMessages = append(chatMessages, openai.UserMessage(m.Content))
		}
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: chatMessages,
		Model:    openai.ChatModel(g.model),
	})
	if err != nil {
		return nil, helper.NewError("openai generate", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, helper.NewError("openai generate", ErrEmptyResponse)
	}

	return &Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
	}, nil
}

// NewOpenAIEmbedder returns an embedding function backed by the OpenAI embeddings API.
// A positive dim requests vectors of that size.
func NewOpenAIEmbedder(apiKey string, model string, dim int, opts ...option.RequestOption) (pipeline.EmbedFunc, error) {
	if apiKey == "" {
		return nil, helper.NewError("openai embedder", fmt.Errorf("api key is empty"))
	}
	if model == "" {
		model = DefaultOpenAIEmbeddingModel
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)

	return func(ctx context.Context, text string) ([]float32, error) {
		params := openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
			Model: openai.EmbeddingModel(model),
		}
		if dim > 0 {
			params.Dimensions = openai.Int(int64(dim))
		}

		resp, err := client.Embeddings.New(ctx, params)
		if err != nil {
			return nil, helper.NewError("openai embed", err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, helper.NewError("openai embed", ErrEmptyResponse)
		}

		embedding := make([]float32, len(resp.Data[0].Embedding))
		for i, v := range resp.Data[0].Embedding {
			embedding[i] = float32(v)
		}
		return embedding, nil
	}, nil
}
