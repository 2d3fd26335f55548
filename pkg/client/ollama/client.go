package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"

	"github.com/fpt/klein-relay/pkg/domain"
	"github.com/fpt/klein-relay/pkg/message"
)

const (
	providerName = "ollama"
	temperature  = 0.7 // conversational default
)

// OllamaClient implements domain.LLM against a local or remote Ollama server.
// Ollama has no image endpoint, so /image is disabled with this backend.
type OllamaClient struct {
	client       *api.Client
	model        string
	maxTokens    int
	systemPrompt string
	timeout      time.Duration
}

// NewOllamaClient creates a client for baseURL, or OLLAMA_HOST when baseURL is empty
func NewOllamaClient(cfg domain.ClientConfig) (*OllamaClient, error) {
	var client *api.Client
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid Ollama base URL %q: %w", cfg.BaseURL, err)
		}
		client = api.NewClient(base, http.DefaultClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096 // Default for Ollama models
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &OllamaClient{
		client:       client,
		model:        model,
		maxTokens:    maxTokens,
		systemPrompt: cfg.SystemPrompt,
		timeout:      timeout,
	}, nil
}

// Model returns the model name
func (c *OllamaClient) Model() string { return c.model }

func (c *OllamaClient) ModelID() string { return c.model }

// Complete runs a non-streaming chat and returns the assistant content
func (c *OllamaClient) Complete(ctx context.Context, conversation []message.Turn, newUserText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: toOllamaMessages(c.systemPrompt, conversation, newUserText),
		Stream:   &stream,
		Options: map[string]any{
			"temperature": temperature,
			"num_predict": c.maxTokens,
			"num_ctx":     GetModelContextWindow(c.model),
		},
	}

	var content strings.Builder
	done := false
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			done = true
		}
		return nil
	})
	if err != nil {
		return "", toAIError(errors.Wrap(err, "ollama chat error"))
	}

	text := strings.TrimSpace(content.String())
	if !done || text == "" {
		return "", domain.NewMalformedError(providerName, "chat response has no content")
	}
	return text, nil
}

// toAIError classifies Ollama errors; the api package returns StatusError by value
func toAIError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.ErrorMessage
		if msg == "" {
			msg = statusErr.Status
		}
		return domain.NewUpstreamError(providerName, statusErr.StatusCode, errors.New(msg))
	}
	return domain.ClassifyError(providerName, err)
}
