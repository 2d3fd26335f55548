package message

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTurnString(t *testing.T) {
	assert.Equal(t, `Turn(user: "hi")`, NewUserTurn("hi").String())

	long := strings.Repeat("é", 100)
	s := NewAssistantTurn(long).String()
	assert.True(t, utf8.ValidString(s))
	assert.Contains(t, s, strings.Repeat("é", 80)+"...")
	assert.NotContains(t, s, strings.Repeat("é", 81))
}
