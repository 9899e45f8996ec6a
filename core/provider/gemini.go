package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/siherrmann/techrag/core/pipeline"
	"github.com/siherrmann/techrag/helper"
	"google.golang.org/genai"
)

const (
	DefaultGeminiModel          = "gemini-2.5-flash"
	DefaultGeminiEmbeddingModel = "gemini-embedding-001"
)

// GeminiGenerator generates answers with the Gemini API
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini API client. A non-empty baseURL overrides the endpoint.
func NewGeminiClient(ctx context.Context, apiKey string, baseURL string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, helper.NewError("gemini client", fmt.Errorf("api key is empty"))
	}

	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, helper.NewError("gemini client", err)
	}
	return client, nil
}

// NewGeminiGenerator creates a Gemini generator, an empty model uses the default.
func NewGeminiGenerator(client *genai.Client, model string) (*GeminiGenerator, error) {
	if client == nil {
		return nil, helper.NewError("gemini generator", fmt.Errorf("client is nil"))
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiGenerator{
		client: client,
		model:  model,
	}, nil
}

// Generate sends the conversation with the system messages as system instruction.
func (g *GeminiGenerator) Generate(ctx context.Context, messages []Message) (*Completion, error) {
	system, conversation := splitSystem(messages)

	contents := make([]*genai.Content, 0, len(conversation))
	for _, m := range conversation {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, helper.NewError("gemini generate", err)
	}

	var text strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				text.WriteString(part.Text)
			}
			if text.Len() > 0 {
				break
			}
		}
	}
	if text.Len() == 0 {
		return nil, helper.NewError("gemini generate", ErrEmptyResponse)
	}

	model := g.model
	if resp.ModelVersion != "" {
		model = resp.ModelVersion
	}

	return &Completion{
		Text:  text.String(),
		Model: model,
	}, nil
}

// NewGeminiEmbedder returns an embedding function backed by the Gemini embedding model.
// A positive dim sets the output dimensionality.
func NewGeminiEmbedder(client *genai.Client, model string, dim int) (pipeline.EmbedFunc, error) {
	if client == nil {
		return nil, helper.NewError("gemini embedder", fmt.Errorf("client is nil"))
	}
	if model == "" {
		model = DefaultGeminiEmbeddingModel
	}

	return func(ctx context.Context, text string) ([]float32, error) {
		config := &genai.EmbedContentConfig{}
		if dim > 0 {
			outputDim := int32(dim)
			config.OutputDimensionality = &outputDim
		}

		result, err := client.Models.EmbedContent(ctx, model, []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, config)
		if err != nil {
			return nil, helper.NewError("gemini embed", err)
		}
		if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
			return nil, helper.NewError("gemini embed", ErrEmptyResponse)
		}

		return result.Embeddings[0].Values, nil
	}, nil
}
