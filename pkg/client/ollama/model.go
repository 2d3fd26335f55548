package ollama

import "strings"

const defaultModel = "gpt-oss:latest"

type OllamaModel struct {
	Name string `json:"name"`

	// Context is the context length requested via num_ctx
	Context int `json:"context"`
}

// This is from https://ollama.com/search
// List must be kept in sync with the Ollama models by human.
var ollamaModels = []OllamaModel{
	{Name: "gpt-oss:latest", Context: 128000},
	{Name: "gpt-oss:20b", Context: 128000},
	{Name: "gpt-oss:120b", Context: 128000},
	{Name: "gemma3:latest", Context: 8192},
	{Name: "llama3.2:latest", Context: 128000},
	{Name: "qwen3:latest", Context: 40960},
}

// GetModelContextWindow returns the known context length, 8192 for unknown models
func GetModelContextWindow(model string) int {
	modelLower := strings.ToLower(model)
	for _, m := range ollamaModels {
		if strings.Contains(modelLower, strings.ToLower(m.Name)) {
			return m.Context
		}
	}
	// Bare names without a tag match the :latest entry
	if !strings.Contains(modelLower, ":") {
		return GetModelContextWindow(modelLower + ":latest")
	}
	return 8192
}
