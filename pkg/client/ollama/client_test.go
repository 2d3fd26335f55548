package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/klein-relay/pkg/domain"
	"github.com/fpt/klein-relay/pkg/message"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OllamaClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOllamaClient(domain.ClientConfig{
		Model:        "gemma3:latest",
		BaseURL:      srv.URL,
		SystemPrompt: "be kind",
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestComplete_NonStreamingChat(t *testing.T) {
	var got api.ChatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"gemma3:latest","message":{"role":"assistant","content":"Sure thing."},"done":true,"done_reason":"stop"}`)
	})

	answer, err := c.Complete(context.Background(), []message.Turn{
		message.NewUserTurn("hi"),
		message.NewAssistantTurn("hello"),
	}, "help me")
	require.NoError(t, err)
	assert.Equal(t, "Sure thing.", answer)

	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "help me", got.Messages[3].Content)
	assert.EqualValues(t, 8192, got.Options["num_ctx"])
}

func TestComplete_ModelNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model \"gemma3:latest\" not found, try pulling it first"}`)
	})

	_, err := c.Complete(context.Background(), nil, "hello")

	var aiErr *domain.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, domain.KindUpstream, aiErr.Kind)
	assert.Equal(t, http.StatusNotFound, aiErr.StatusCode)
	assert.Contains(t, aiErr.Error(), "not found")
}

func TestComplete_Unreachable(t *testing.T) {
	c, err := NewOllamaClient(domain.ClientConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), nil, "hello")

	var aiErr *domain.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, domain.KindTransport, aiErr.Kind)
	assert.Equal(t, defaultModel, c.ModelID())
}

func TestGetModelContextWindow(t *testing.T) {
	assert.Equal(t, 128000, GetModelContextWindow("gpt-oss:20b"))
	assert.Equal(t, 8192, GetModelContextWindow("gemma3"))
	assert.Equal(t, 40960, GetModelContextWindow("qwen3"))
	assert.Equal(t, 8192, GetModelContextWindow("mistral:7b"))
}
