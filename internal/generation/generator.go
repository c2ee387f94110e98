// Package generation adapts an eino ChatModel to the single-prompt
// Generator contract consumed by the dialogue synthesizer.
package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// systemPrompt frames every turn request. The per-turn persona, context, and
// history arrive in the user message built by the synthesizer.
const systemPrompt = `You are generating one turn of a podcast conversation.
Respond in the voice of the agent described in the request. Reply with the
spoken turn only — no stage directions, speaker labels, or markdown.`

// ChatGenerator produces dialogue turns from an eino ChatModel.
type ChatGenerator struct {
	// chatModel is the LLM backend constructed by the provider factory.
	chatModel model.ToolCallingChatModel
}

// NewChatGenerator wraps the given ChatModel.
func NewChatGenerator(chatModel model.ToolCallingChatModel) (*ChatGenerator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("generation: ChatModel must not be nil")
	}
	return &ChatGenerator{chatModel: chatModel}, nil
}

// Generate sends the prompt as a single user message and returns the model's
// completion text.
func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	}

	resp, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generation: model call failed: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("generation: model returned an empty response")
	}
	return resp.Content, nil
}
