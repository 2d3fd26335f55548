package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/fpt/klein-relay/pkg/domain"
	"github.com/fpt/klein-relay/pkg/message"
)

const (
	providerName     = "anthropic"
	defaultMaxTokens = 8192
)

// AnthropicClient implements domain.LLM over the Messages API.
// Anthropic has no image generation endpoint, so /image is disabled with this backend.
type AnthropicClient struct {
	client       *anthropic.Client
	model        anthropic.Model
	maxTokens    int
	systemPrompt string
	timeout      time.Duration
}

// NewAnthropicClient creates a client with retries disabled
func NewAnthropicClient(cfg domain.ClientConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	// NOTE: Anthropic requires max_tokens on every request.
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &AnthropicClient{
		client:       &client,
		model:        getAnthropicModel(cfg.Model),
		maxTokens:    maxTokens,
		systemPrompt: cfg.SystemPrompt,
		timeout:      timeout,
	}, nil
}

func (c *AnthropicClient) ModelID() string { return string(c.model) }

// Complete sends the conversation plus the new user text and joins the text blocks of the reply
func (c *AnthropicClient) Complete(ctx context.Context, conversation []message.Turn, newUserText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(c.maxTokens),
		Messages:  toAnthropicMessages(conversation, newUserText),
	}
	if c.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: c.systemPrompt}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", toAIError(err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", domain.NewMalformedError(providerName, "response has no text content (stop reason %q)", resp.StopReason)
	}
	return text, nil
}

// toAIError classifies SDK errors by HTTP status when one is available
func toAIError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return domain.NewUpstreamError(providerName, apiErr.StatusCode, errors.New(apiErrorMessage(apiErr)))
	}
	return domain.ClassifyError(providerName, err)
}

// apiErrorMessage extracts error.message from the raw error body
func apiErrorMessage(apiErr *anthropic.Error) string {
	if msg := gjson.Get(apiErr.RawJSON(), "error.message").String(); msg != "" {
		return msg
	}
	return fmt.Sprintf("status %d", apiErr.StatusCode)
}
