package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/pkg/errors"

	"github.com/fpt/klein-relay/pkg/domain"
	"github.com/fpt/klein-relay/pkg/message"
)

const providerName = "openai"

// OpenAIClient implements domain.LLM and domain.ImageGenerator over the
// Chat Completions and Images APIs
type OpenAIClient struct {
	client       *openai.Client
	model        string
	maxTokens    int
	systemPrompt string
	timeout      time.Duration
	image        domain.ImageConfig
}

// NewOpenAIClient creates a client. Retries are disabled; a failed call is reported once.
func NewOpenAIClient(cfg domain.ClientConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	// Azure OpenAI and compatible proxies
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	model := getOpenAIModel(cfg.Model)
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = getModelCapabilities(model).MaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	image := cfg.Image
	if image.Model == "" {
		image.Model = defaultImageModel
	}
	if image.Timeout <= 0 {
		image.Timeout = 120 * time.Second
	}

	return &OpenAIClient{
		client:       &client,
		model:        model,
		maxTokens:    maxTokens,
		systemPrompt: cfg.SystemPrompt,
		timeout:      timeout,
		image:        image,
	}, nil
}

func (c *OpenAIClient) ModelID() string { return c.model }

// Complete sends the conversation plus the new user text as a chat completion
func (c *OpenAIClient) Complete(ctx context.Context, conversation []message.Turn, newUserText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: toChatMessages(c.systemPrompt, conversation, newUserText),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", toAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewMalformedError(providerName, "response has no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
			return refusal, nil
		}
		return "", domain.NewMalformedError(providerName, "choice has no message content (finish reason %q)", resp.Choices[0].FinishReason)
	}
	return content, nil
}

// toChatMessages maps turns onto the role/content list, system prompt first
func toChatMessages(systemPrompt string, conversation []message.Turn, newUserText string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(conversation)+2)
	if systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(systemPrompt))
	}
	for _, turn := range conversation {
		switch turn.Role {
		case message.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(turn.Content))
		default:
			msgs = append(msgs, openai.UserMessage(turn.Content))
		}
	}
	return append(msgs, openai.UserMessage(newUserText))
}

// toAIError classifies SDK errors by HTTP status when one is available
func toAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return domain.NewUpstreamError(providerName, apiErr.StatusCode, errors.New(apiErrorMessage(apiErr)))
	}
	return domain.ClassifyError(providerName, err)
}

func apiErrorMessage(apiErr *openai.Error) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return fmt.Sprintf("status %d", apiErr.StatusCode)
}
