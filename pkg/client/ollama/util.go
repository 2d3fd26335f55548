package ollama

import (
	"github.com/ollama/ollama/api"

	"github.com/fpt/klein-relay/pkg/message"
)

// toOllamaMessages maps turns onto Ollama chat messages, system prompt first
func toOllamaMessages(systemPrompt string, conversation []message.Turn, newUserText string) []api.Message {
	msgs := make([]api.Message, 0, len(conversation)+2)
	if systemPrompt != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: systemPrompt})
	}
	for _, turn := range conversation {
		role := "user"
		if turn.Role == message.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, api.Message{Role: role, Content: turn.Content})
	}
	return append(msgs, api.Message{Role: "user", Content: newUserText})
}
