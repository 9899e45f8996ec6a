package provider

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("provider returned an empty response")

// Role of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the ordered message list sent to a generation provider
type Message struct {
	Role    Role
	Content string
}

// Completion is the answer of a generation provider
type Completion struct {
	Text  string
	Model string
}

// Generator produces a completion for an ordered system and user message list
type Generator interface {
	Generate(ctx context.Context, messages []Message) (*Completion, error)
}

// splitSystem joins all system messages and returns the remaining conversation.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	conversation := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		conversation = append(conversation, m)
	}
	return strings.Join(system, "\n\n"), conversation
}
