package anthropic

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/fpt/klein-relay/pkg/message"
)

// Anthropic models
// https://docs.anthropic.com/en/docs/about-claude/models/overview

// getAnthropicModel maps common model names to Anthropic model constants.
// Explicit claude-* identifiers pass through unchanged.
func getAnthropicModel(model string) anthropic.Model {
	switch model {
	case "", "sonnet", "claude-sonnet":
		return anthropic.ModelClaudeSonnet4_5
	case "haiku", "claude-haiku":
		return anthropic.ModelClaudeHaiku4_5
	case "opus", "claude-opus":
		return anthropic.ModelClaudeOpus4_5
	}
	if strings.HasPrefix(model, "claude-") {
		return anthropic.Model(model)
	}
	return anthropic.ModelClaudeSonnet4_5
}

// toAnthropicMessages maps turns onto the messages list and appends the new user text
func toAnthropicMessages(conversation []message.Turn, newUserText string) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(conversation)+1)
	for _, turn := range conversation {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == message.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}
	return append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(newUserText)))
}
