package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/klein-relay/pkg/domain"
	"github.com/fpt/klein-relay/pkg/message"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxCompletionTokens int `json:"max_completion_tokens"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, image domain.ImageConfig) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClient(domain.ClientConfig{
		APIKey:       "sk-test",
		Model:        "gpt-4o-mini",
		BaseURL:      srv.URL + "/v1/",
		SystemPrompt: "be brief",
		Timeout:      5 * time.Second,
		Image:        image,
	})
	require.NoError(t, err)
	return c
}

func chatCompletionBody(content string) string {
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",` +
		`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` +
		mustJSON(content) + `,"refusal":""}}]}`
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestComplete_SendsHistoryAndReturnsContent(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionBody("  Paris.  "))
	}, domain.ImageConfig{})

	history := []message.Turn{
		message.NewUserTurn("hi"),
		message.NewAssistantTurn("hello!"),
	}
	answer, err := c.Complete(context.Background(), history, "capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", answer)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 4096, got.MaxCompletionTokens)
	require.Len(t, got.Messages, 4)
	roles := []string{got.Messages[0].Role, got.Messages[1].Role, got.Messages[2].Role, got.Messages[3].Role}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
	assert.Equal(t, "capital of France?", got.Messages[3].Content)

	// The caller's slice is untouched
	assert.Len(t, history, 2)
}

func TestComplete_UpstreamStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key","param":null}}`)
	}, domain.ImageConfig{})

	_, err := c.Complete(context.Background(), nil, "hello")
	require.Error(t, err)

	var aiErr *domain.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, domain.KindUpstream, aiErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, aiErr.StatusCode)
	assert.Equal(t, "openai", aiErr.Provider)
}

func TestComplete_NoChoicesIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`)
	}, domain.ImageConfig{})

	_, err := c.Complete(context.Background(), nil, "hello")

	var aiErr *domain.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, domain.KindMalformed, aiErr.Kind)
}

func TestComplete_TimeoutIsTransport(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}, domain.ImageConfig{})
	// Runs before the server's Close cleanup, so a stuck handler is released.
	t.Cleanup(func() { close(release) })
	c.timeout = 50 * time.Millisecond

	_, err := c.Complete(context.Background(), nil, "hello")

	var aiErr *domain.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, domain.KindTransport, aiErr.Kind)
}

func TestGenerateImage_DecodesBase64(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"created":1,"data":[{"b64_json":"`+base64.StdEncoding.EncodeToString(png)+`"}]}`)
	}, domain.ImageConfig{Enabled: true, Model: "dall-e-3", Timeout: 5 * time.Second})

	require.True(t, c.SupportsImages())
	img, err := c.GenerateImage(context.Background(), "sunset over mountains")
	require.NoError(t, err)
	assert.Equal(t, png, img)

	assert.Equal(t, "sunset over mountains", got["prompt"])
	assert.Equal(t, "dall-e-3", got["model"])
	assert.Equal(t, "1024x1024", got["size"])
	assert.Equal(t, "b64_json", got["response_format"])
}

func TestGenerateImage_EmptyDataIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"created":1,"data":[]}`)
	}, domain.ImageConfig{Enabled: true, Model: "gpt-image-1", Timeout: 5 * time.Second})

	_, err := c.GenerateImage(context.Background(), "cat")

	var aiErr *domain.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, domain.KindMalformed, aiErr.Kind)
}

func TestImageCapabilityFollowsConfig(t *testing.T) {
	c, err := NewOpenAIClient(domain.ClientConfig{APIKey: "sk", Model: "gpt-5-mini"})
	require.NoError(t, err)
	assert.Nil(t, domain.ImageGeneratorOf(c))

	c.image.Enabled = true
	assert.NotNil(t, domain.ImageGeneratorOf(c))
}

func TestNewOpenAIClient_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient(domain.ClientConfig{Model: "gpt-4o"})
	require.Error(t, err)
}

func TestGetOpenAIModel(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"gpt-4o", "gpt-4o"},
		{"gpt-4o-mini", "gpt-4o-mini"},
		{"gpt-5", "gpt-5"},
		{"gpt-5-mini", "gpt-5-mini"},
		{"gpt-4o-2024-08-06", "gpt-4o-2024-08-06"},
		{"gpt-4.1", "gpt-4.1"},
		{"o4-mini", "o4-mini"},
		{"llama-3.1-70b", "llama-3.1-70b"},
		{"", "gpt-5-mini"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, getOpenAIModel(tc.input), "getOpenAIModel(%q)", tc.input)
	}
}

func TestNewOpenAIClient_KeepsProxyModelName(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionBody("ok"))
	}))
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClient(domain.ClientConfig{APIKey: "sk", Model: "llama-3.1-70b", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "llama-3.1-70b", c.ModelID())

	_, err = c.Complete(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "llama-3.1-70b", got.Model)
	assert.Equal(t, 16384, got.MaxCompletionTokens)
}

func TestGetModelCapabilities(t *testing.T) {
	assert.Equal(t, 4096, getModelCapabilities("gpt-4o-mini").MaxTokens)
	assert.Equal(t, 4096, getModelCapabilities("gpt-4o-mini-2024-07-18").MaxTokens)
	assert.Equal(t, 8192, getModelCapabilities("gpt-4o-2024-08-06").MaxTokens)
	assert.Equal(t, 16384, getModelCapabilities("unknown").MaxTokens)
}
