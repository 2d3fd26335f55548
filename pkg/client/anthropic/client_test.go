package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/klein-relay/pkg/domain"
	"github.com/fpt/klein-relay/pkg/message"
)

type messagesRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewAnthropicClient(domain.ClientConfig{
		APIKey:       "sk-ant-test",
		Model:        "haiku",
		BaseURL:      srv.URL,
		SystemPrompt: "You are a helpful Telegram bot.",
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestComplete_SendsMessagesAndJoinsText(t *testing.T) {
	var got messagesRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5",`+
			`"content":[{"type":"text","text":"Hello "},{"type":"text","text":"there."}],`+
			`"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":5,"output_tokens":3}}`)
	})

	answer, err := c.Complete(context.Background(), []message.Turn{
		message.NewUserTurn("hi"),
		message.NewAssistantTurn("hey"),
	}, "greet me")
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", answer)

	assert.Equal(t, "claude-haiku-4-5", got.Model)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	require.Len(t, got.System, 1)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "greet me", got.Messages[2].Content[0].Text)
}

func TestComplete_UpstreamStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(529)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	})

	_, err := c.Complete(context.Background(), nil, "hello")

	var aiErr *domain.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, domain.KindUpstream, aiErr.Kind)
	assert.Equal(t, 529, aiErr.StatusCode)
	assert.Contains(t, aiErr.Error(), "Overloaded")
}

func TestComplete_EmptyContentIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_2","type":"message","role":"assistant","model":"claude-haiku-4-5",`+
			`"content":[],"stop_reason":"max_tokens","stop_sequence":null,"usage":{"input_tokens":5,"output_tokens":0}}`)
	})

	_, err := c.Complete(context.Background(), nil, "hello")

	var aiErr *domain.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, domain.KindMalformed, aiErr.Kind)
}

func TestAnthropicClientHasNoImageCapability(t *testing.T) {
	c, err := NewAnthropicClient(domain.ClientConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Nil(t, domain.ImageGeneratorOf(c))
}

func TestGetAnthropicModel(t *testing.T) {
	assert.Equal(t, anthropic.ModelClaudeSonnet4_5, getAnthropicModel(""))
	assert.Equal(t, anthropic.ModelClaudeHaiku4_5, getAnthropicModel("haiku"))
	assert.Equal(t, anthropic.Model("claude-sonnet-4-5-20250929"), getAnthropicModel("claude-sonnet-4-5-20250929"))
	assert.Equal(t, anthropic.ModelClaudeSonnet4_5, getAnthropicModel("gpt-4o"))
}

func TestToAnthropicMessages(t *testing.T) {
	msgs := toAnthropicMessages(nil, "only")
	require.Len(t, msgs, 1)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
}
