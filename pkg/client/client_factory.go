package client

import (
	"fmt"

	"github.com/fpt/klein-relay/internal/config"
	"github.com/fpt/klein-relay/pkg/client/anthropic"
	"github.com/fpt/klein-relay/pkg/client/gemini"
	"github.com/fpt/klein-relay/pkg/client/ollama"
	"github.com/fpt/klein-relay/pkg/client/openai"
	"github.com/fpt/klein-relay/pkg/domain"
)

// NewLLMClient creates the completion client for the configured backend
func NewLLMClient(settings config.LLMSettings) (domain.LLM, error) {
	cfg := toClientConfig(settings)
	switch settings.Backend {
	case "openai":
		return openai.NewOpenAIClient(cfg)
	case "gemini":
		return gemini.NewGeminiClient(cfg)
	case "anthropic", "claude":
		return anthropic.NewAnthropicClient(cfg)
	case "ollama":
		return ollama.NewOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM backend: %s", settings.Backend)
	}
}

// NewImageGenerator returns the image capability of client, or nil when the
// backend has none or it is disabled
func NewImageGenerator(client domain.LLM) domain.ImageGenerator {
	return domain.ImageGeneratorOf(client)
}

func toClientConfig(s config.LLMSettings) domain.ClientConfig {
	return domain.ClientConfig{
		APIKey:       s.APIKey,
		Model:        s.Model,
		BaseURL:      s.BaseURL,
		MaxTokens:    s.MaxTokens,
		SystemPrompt: s.SystemPrompt,
		Timeout:      s.Timeout,
		Image: domain.ImageConfig{
			Enabled: s.Image.Enabled,
			Model:   s.Image.Model,
			Timeout: s.Image.Timeout,
		},
	}
}
