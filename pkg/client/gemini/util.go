package gemini

// Google Gemini 2.5 Models
// https://ai.google.dev/gemini-api/docs/models

const (
	modelGemini25Pro       = "gemini-2.5-pro"
	modelGemini25Flash     = "gemini-2.5-flash"
	modelGemini25FlashLite = "gemini-2.5-flash-lite"

	defaultImageModel = "imagen-4.0-generate-001"
)

// getGeminiModel maps short names to Gemini 2.5 identifiers
func getGeminiModel(model string) string {
	switch model {
	case "gemini-2.5-pro", "gemini-pro", "pro":
		return modelGemini25Pro
	case "gemini-2.5-flash", "gemini-flash", "flash":
		return modelGemini25Flash
	case "gemini-2.5-flash-lite", "gemini-2.5-lite", "gemini-lite", "lite":
		return modelGemini25FlashLite
	default:
		// Default to Gemini 2.5 Flash for unknown models (most balanced)
		return modelGemini25Flash
	}
}

// ModelCapabilities represents the limits of a Gemini model
type ModelCapabilities struct {
	MaxTokens int
}

// getModelCapabilities returns the limits of a Gemini 2.5 model.
// All three share a 65,536 token output limit.
func getModelCapabilities(model string) ModelCapabilities {
	switch model {
	case modelGemini25Pro, modelGemini25Flash, modelGemini25FlashLite:
		return ModelCapabilities{MaxTokens: 65536}
	default:
		return ModelCapabilities{MaxTokens: 8192}
	}
}
