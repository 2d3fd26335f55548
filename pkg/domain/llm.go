package domain

import (
	"context"
	"time"

	"github.com/fpt/klein-relay/pkg/message"
)

// LLM is the completion capability every AI provider implements
type LLM interface {
	// Complete sends the prior conversation plus a new user turn upstream and
	// returns the generated text. It never mutates the caller's conversation.
	// Failures are reported as *AIError.
	Complete(ctx context.Context, conversation []message.Turn, newUserText string) (string, error)
	// ModelID returns a stable identifier for the underlying model
	ModelID() string
}

// ImageGenerator is the optional image generation capability
type ImageGenerator interface {
	// GenerateImage returns decoded image bytes for the prompt.
	// Failures are reported as *AIError.
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// ImageCapable is implemented by clients whose image support depends on configuration
type ImageCapable interface {
	SupportsImages() bool
}

// ImageGeneratorOf returns the client's image capability, or nil when it has none
func ImageGeneratorOf(llm LLM) ImageGenerator {
	gen, ok := llm.(ImageGenerator)
	if !ok {
		return nil
	}
	if capable, ok := llm.(ImageCapable); ok && !capable.SupportsImages() {
		return nil
	}
	return gen
}

// ClientConfig carries the provider-neutral settings every client constructor takes
type ClientConfig struct {
	APIKey       string
	Model        string
	BaseURL      string // endpoint override; empty uses the provider default
	MaxTokens    int    // 0 = provider default
	SystemPrompt string
	Timeout      time.Duration // per completion request
	Image        ImageConfig
}

// ImageConfig configures the optional image capability
type ImageConfig struct {
	Enabled bool
	Model   string
	Timeout time.Duration
}
