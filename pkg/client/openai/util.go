package openai

import (
	"strings"

	"github.com/openai/openai-go/v2/shared"
)

// Model constants
const (
	modelGPT5      = "gpt-5"
	modelGPT5Mini  = "gpt-5-mini"
	modelGPT5Nano  = "gpt-5-nano"
	modelGPT4o     = shared.ChatModelGPT4o
	modelGPT4oMini = shared.ChatModelGPT4oMini
	modelGPT35     = "gpt-3.5-turbo"

	defaultImageModel = "dall-e-3"
)

// getOpenAIModel returns the configured model, or gpt-5-mini when none is set.
// Unknown names pass through so compatible proxies can serve their own models.
func getOpenAIModel(model string) string {
	if model = strings.TrimSpace(model); model == "" {
		return modelGPT5Mini
	}
	return model
}

// ModelCapabilities describes per-model limits
type ModelCapabilities struct {
	// MaxTokens is the default per-generation output limit
	MaxTokens int
}

var modelCapabilities = map[string]ModelCapabilities{
	modelGPT5:      {MaxTokens: 16384},
	modelGPT5Mini:  {MaxTokens: 16384},
	modelGPT5Nano:  {MaxTokens: 8192},
	modelGPT4o:     {MaxTokens: 8192},
	modelGPT4oMini: {MaxTokens: 4096},
	modelGPT35:     {MaxTokens: 4096},
}

// getModelCapabilities returns the capabilities of a model, matching dated snapshots by prefix
func getModelCapabilities(model string) ModelCapabilities {
	if caps, ok := modelCapabilities[model]; ok {
		return caps
	}
	best := ""
	for known := range modelCapabilities {
		if strings.HasPrefix(model, known+"-") && len(known) > len(best) {
			best = known
		}
	}
	if best != "" {
		return modelCapabilities[best]
	}
	return modelCapabilities[modelGPT5Mini]
}

func isDallEModel(model string) bool {
	return strings.HasPrefix(model, "dall-e")
}
