package message

import "fmt"

// Role tags who contributed a turn to a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the wire name of the role
func (r Role) String() string {
	return string(r)
}

// Turn is one role-tagged text contribution to a conversation.
// Turns are plain values; copying one never aliases another.
type Turn struct {
	Role    Role
	Content string
}

// NewUserTurn creates a turn authored by the end user
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// NewAssistantTurn creates a turn authored by the AI provider
func NewAssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

func (t Turn) String() string {
	content := t.Content
	if runes := []rune(content); len(runes) > 80 {
		content = string(runes[:80]) + "..."
	}
	return fmt.Sprintf("Turn(%s: %q)", t.Role, content)
}
