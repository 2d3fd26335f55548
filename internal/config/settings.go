package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort         = 5000
	DefaultHistoryTurns = 10
	DefaultMaxUsers     = 10000
	DefaultDedupeTTL    = 10 * time.Minute
	DefaultLLMTimeout   = 60 * time.Second
	DefaultImageTimeout = 120 * time.Second
)

// Settings is the full relay configuration, read once at startup
type Settings struct {
	Telegram TelegramSettings `yaml:"telegram"`
	Server   ServerSettings   `yaml:"server"`
	LLM      LLMSettings      `yaml:"llm"`
	Relay    RelaySettings    `yaml:"relay"`
	LogLevel string           `yaml:"log_level"`
}

// TelegramSettings configures the bot transport
type TelegramSettings struct {
	Token           string `yaml:"token"`
	WebhookURL      string `yaml:"webhook_url"`      // public base URL, the secret path is appended
	RegisterWebhook bool   `yaml:"register_webhook"` // call setWebhook at startup
	APIEndpoint     string `yaml:"api_endpoint"`     // format string with %s for token and method
}

// WebhookPath is the route Telegram posts updates to. The token is the secret segment.
func (t TelegramSettings) WebhookPath() string {
	return "/webhook/" + t.Token
}

// WebhookEndpoint is the full URL registered with setWebhook
func (t TelegramSettings) WebhookEndpoint() string {
	return strings.TrimRight(t.WebhookURL, "/") + t.WebhookPath()
}

// ServerSettings configures the inbound HTTP listener
type ServerSettings struct {
	Port      int           `yaml:"port"`
	DedupeTTL time.Duration `yaml:"dedupe_ttl"` // how long update ids are remembered
}

// LLMSettings contains AI provider configuration
type LLMSettings struct {
	Backend      string        `yaml:"backend"` // "openai", "gemini", "anthropic" or "ollama"
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`   // provider endpoint override (Azure, proxies, ollama host)
	MaxTokens    int           `yaml:"max_tokens"` // 0 = provider default
	SystemPrompt string        `yaml:"system_prompt"`
	Timeout      time.Duration `yaml:"timeout"`
	Image        ImageSettings `yaml:"image"`
}

// ImageSettings configures the optional image generator
type ImageSettings struct {
	Enabled bool          `yaml:"enabled"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// RelaySettings configures the dispatcher and conversation store
type RelaySettings struct {
	HistoryTurns int            `yaml:"history_turns"`
	MaxUsers     int            `yaml:"max_users"`
	ExposeErrors bool           `yaml:"expose_errors"` // send provider error details to the chat
	Branding     BrandingConfig `yaml:"branding"`
}

// BrandingConfig fills the about and credits templates
type BrandingConfig struct {
	BotName   string `yaml:"bot_name"`
	Developer string `yaml:"developer"`
	PoweredBy string `yaml:"powered_by"`
}

// GetDefaultSettings returns default settings
func GetDefaultSettings() *Settings {
	return &Settings{
		Server: ServerSettings{
			Port:      DefaultPort,
			DedupeTTL: DefaultDedupeTTL,
		},
		LLM: GetDefaultLLMSettingsForBackend("openai"),
		Relay: RelaySettings{
			HistoryTurns: DefaultHistoryTurns,
			MaxUsers:     DefaultMaxUsers,
			ExposeErrors: true,
			Branding: BrandingConfig{
				BotName:   "Klein Relay",
				Developer: "the Klein Relay maintainers",
			},
		},
		LogLevel: "info",
	}
}

// GetDefaultLLMSettingsForBackend returns default LLM settings for a specific backend
func GetDefaultLLMSettingsForBackend(backend string) LLMSettings {
	s := LLMSettings{
		Backend: backend,
		Timeout: DefaultLLMTimeout,
		Image:   ImageSettings{Timeout: DefaultImageTimeout},
	}
	switch backend {
	case "anthropic", "claude":
		s.Backend = "anthropic"
		s.Model = "claude-sonnet-4-5-20250929"
	case "gemini":
		s.Model = "gemini-2.5-flash-lite"
		s.Image.Model = "imagen-4.0-generate-001"
	case "ollama":
		s.Model = "gpt-oss:latest"
		s.BaseURL = "http://localhost:11434"
	default:
		s.Backend = "openai"
		s.Model = "gpt-5-mini"
		s.Image.Model = "dall-e-3"
		s.Image.Enabled = true
	}
	return s
}

// LoadSettings reads an optional YAML file, then applies environment overrides.
// An empty path skips the file.
func LoadSettings(configPath string) (*Settings, error) {
	return loadSettings(configPath, os.LookupEnv)
}

func loadSettings(configPath string, lookup func(string) (string, bool)) (*Settings, error) {
	settings := GetDefaultSettings()

	// The backend decides the defaults the file is layered on
	backend := ""
	var raw []byte
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
		raw = data
		var probe struct {
			LLM struct {
				Backend string `yaml:"backend"`
			} `yaml:"llm"`
		}
		if err := yaml.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
		backend = probe.LLM.Backend
	}
	if v, ok := lookup("AI_BACKEND"); ok && v != "" {
		backend = v
	}
	if backend != "" {
		settings.LLM = GetDefaultLLMSettingsForBackend(strings.ToLower(backend))
	}

	if raw != nil {
		if err := yaml.Unmarshal(raw, settings); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
	}

	if err := applyEnv(settings, lookup); err != nil {
		return nil, err
	}
	applyDefaults(settings)
	return settings, nil
}

// applyEnv overrides file values with environment variables
func applyEnv(s *Settings, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = b
		return nil
	}

	str("BOT_TOKEN", &s.Telegram.Token)
	str("WEBHOOK_URL", &s.Telegram.WebhookURL)
	if err := boolean("REGISTER_WEBHOOK", &s.Telegram.RegisterWebhook); err != nil {
		return err
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		s.Server.Port = port
	}

	if v, ok := lookup("AI_BACKEND"); ok && v != "" {
		s.LLM.Backend = strings.ToLower(v)
	}
	str("AI_MODEL", &s.LLM.Model)
	if key := apiKeyEnvFor(s.LLM.Backend); key != "" {
		str(key, &s.LLM.APIKey)
	}
	if err := boolean("IMAGE_ENABLED", &s.LLM.Image.Enabled); err != nil {
		return err
	}
	str("LOG_LEVEL", &s.LogLevel)
	return nil
}

// apiKeyEnvFor names the environment variable holding the backend's key
func apiKeyEnvFor(backend string) string {
	switch backend {
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	case "anthropic", "claude":
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// applyDefaults fills zero values a partial file may have left
func applyDefaults(s *Settings) {
	if s.LLM.Backend == "claude" {
		s.LLM.Backend = "anthropic"
	}
	defaults := GetDefaultLLMSettingsForBackend(s.LLM.Backend)
	if s.LLM.Model == "" {
		s.LLM.Model = defaults.Model
	}
	if s.LLM.BaseURL == "" && s.LLM.Backend == "ollama" {
		s.LLM.BaseURL = defaults.BaseURL
	}
	if s.LLM.Timeout <= 0 {
		s.LLM.Timeout = DefaultLLMTimeout
	}
	if s.LLM.Image.Model == "" {
		s.LLM.Image.Model = defaults.Image.Model
	}
	if s.LLM.Image.Timeout <= 0 {
		s.LLM.Image.Timeout = DefaultImageTimeout
	}
	if s.Server.Port == 0 {
		s.Server.Port = DefaultPort
	}
	if s.Server.DedupeTTL <= 0 {
		s.Server.DedupeTTL = DefaultDedupeTTL
	}
	if s.Relay.HistoryTurns <= 0 {
		s.Relay.HistoryTurns = DefaultHistoryTurns
	}
	if s.Relay.MaxUsers <= 0 {
		s.Relay.MaxUsers = DefaultMaxUsers
	}
	if s.Relay.Branding.PoweredBy == "" {
		s.Relay.Branding.PoweredBy = poweredByFor(s.LLM.Backend)
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
}

func poweredByFor(backend string) string {
	switch backend {
	case "gemini":
		return "Google Gemini"
	case "anthropic":
		return "Anthropic Claude"
	case "ollama":
		return "Ollama"
	default:
		return "OpenAI"
	}
}

// ValidateSettings checks the settings needed to serve the webhook
func ValidateSettings(s *Settings) error {
	if err := ValidateLLMSettings(s.LLM); err != nil {
		return err
	}
	if s.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required (set BOT_TOKEN environment variable)")
	}
	if s.Telegram.RegisterWebhook && s.Telegram.WebhookURL == "" {
		return fmt.Errorf("telegram.webhook_url is required when register_webhook is set (set WEBHOOK_URL environment variable)")
	}
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Server.Port)
	}
	return nil
}

// ValidateLLMSettings checks the provider settings alone. The local console only needs these.
func ValidateLLMSettings(llm LLMSettings) error {
	switch llm.Backend {
	case "openai", "gemini", "anthropic", "ollama":
	default:
		return fmt.Errorf("unsupported LLM backend: %s (must be 'openai', 'gemini', 'anthropic', or 'ollama')", llm.Backend)
	}
	if llm.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if key := apiKeyEnvFor(llm.Backend); key != "" && llm.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for %s (set %s environment variable)", llm.Backend, key)
	}
	return nil
}
