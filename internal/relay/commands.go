package relay

import (
	"strings"
	"unicode"
)

// Command names recognized in message text
const (
	CommandStart = "start"
	CommandHelp  = "help"
	CommandAbout = "about"
	CommandReset = "reset"
	CommandImage = "image"
)

// parseCommand splits "/name@bot rest" into the lower-cased name and the
// trimmed rest. ok is false when text is not a command.
func parseCommand(text string) (name, arg string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	token, rest := text[1:], ""
	if i := strings.IndexFunc(token, unicode.IsSpace); i >= 0 {
		token, rest = token[:i], token[i:]
	}
	token, _, _ = strings.Cut(token, "@")
	if token == "" {
		return "", "", false
	}
	return strings.ToLower(token), strings.TrimSpace(rest), true
}
