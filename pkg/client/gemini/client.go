package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/fpt/klein-relay/pkg/domain"
	pkgLogger "github.com/fpt/klein-relay/pkg/logger"
	"github.com/fpt/klein-relay/pkg/message"
)

const providerName = "gemini"

var geminiLogger = pkgLogger.NewComponentLogger("gemini-client")

// GeminiClient implements domain.LLM over a chat session and
// domain.ImageGenerator over Imagen
type GeminiClient struct {
	client       *genai.Client
	model        string
	maxTokens    int
	systemPrompt string
	timeout      time.Duration
	image        domain.ImageConfig
}

// NewGeminiClient creates a Gemini API client
func NewGeminiClient(cfg domain.ClientConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := getGeminiModel(cfg.Model)
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

	return &GeminiClient{
		client:       client,
		model:        model,
		maxTokens:    maxTokens,
		systemPrompt: cfg.SystemPrompt,
		timeout:      timeout,
		image:        image,
	}, nil
}

func (c *GeminiClient) ModelID() string { return c.model }

// Complete opens a chat session seeded with the conversation and sends the new
// user text as a single flat prompt
func (c *GeminiClient) Complete(ctx context.Context, conversation []message.Turn, newUserText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(c.maxTokens),
	}
	if c.systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(c.systemPrompt, genai.RoleUser)
	}

	chat, err := c.client.Chats.Create(ctx, c.model, config, toHistory(conversation))
	if err != nil {
		return "", toAIError(err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: newUserText})
	if err != nil {
		return "", toAIError(err)
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", domain.NewMalformedError(providerName, "prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", domain.NewMalformedError(providerName, "response has no candidates")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		geminiLogger.Debug("Empty candidate text", "finish_reason", resp.Candidates[0].FinishReason)
		return "", domain.NewMalformedError(providerName, "candidate has no text (finish reason %q)", resp.Candidates[0].FinishReason)
	}
	return text, nil
}

// toHistory maps turns onto Gemini contents; assistant turns use the "model" role
func toHistory(conversation []message.Turn) []*genai.Content {
	history := make([]*genai.Content, 0, len(conversation))
	for _, turn := range conversation {
		role := genai.Role(genai.RoleUser)
		if turn.Role == message.RoleAssistant {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(turn.Content, role))
	}
	return history
}

// toAIError classifies SDK errors; genai returns APIError by value
func toAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Status
		}
		return domain.NewUpstreamError(providerName, apiErr.Code, errors.New(msg))
	}
	return domain.ClassifyError(providerName, err)
}
