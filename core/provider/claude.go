package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/siherrmann/techrag/helper"
)

const (
	DefaultClaudeModel     = "claude-sonnet-4-5"
	DefaultClaudeMaxTokens = 4096
)

// ClaudeGenerator generates answers with the Anthropic messages API
type ClaudeGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaudeGenerator creates a Claude generator. Empty model and non-positive
// maxTokens use the defaults. Extra options are passed to the client.
func NewClaudeGenerator(apiKey string, model string, maxTokens int, opts ...option.RequestOption) (*ClaudeGenerator, error) {
	if apiKey == "" {
		return nil, helper.NewError("claude generator", fmt.Errorf("api key is empty"))
	}
	if model == "" {
		model = DefaultClaudeModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultClaudeMaxTokens
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &ClaudeGenerator{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}, nil
}

// Generate sends the messages to Claude, system messages become the system prompt.
func (g *ClaudeGenerator) Generate(ctx context.Context, messages []Message) (*Completion, error) {
	system, conversation := splitSystem(messages)

	claudeMessages := make([]anthropic.MessageParam, 0, len(conversation))
	for _, m := range conversation {
		switch m.Role {
		case RoleAssistant:
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages:  claudeMessages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, helper.NewError("claude generate", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, helper.NewError("claude generate", ErrEmptyResponse)
	}

	return &Completion{
		Text:  text.String(),
		Model: string(resp.Model),
	}, nil
}
