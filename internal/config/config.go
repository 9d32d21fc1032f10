// Package config loads the service configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Channel adapter modes.
const (
	ModeWebhook = "webhook"
	ModeSession = "session"
)

// Supported LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config is the full service configuration.
type Config struct {
	Port        int
	Environment string

	Provider       string
	OpenAIAPIKey   string
	OpenAIModel    string
	AnthropicKey   string
	AnthropicModel string
	GeminiAPIKey   string
	GeminiModel    string

	WhatsAppMode   string
	AccessToken    string
	PhoneNumberID  string
	VerifyToken    string
	SessionDBPath  string
	TranscriptPath string

	AdminAPIKey string
}

// IsDevelopment reports whether the service runs in a development-like
// configuration (full error detail in logs).
func (c Config) IsDevelopment() bool {
	return c.Environment != "production"
}

// ProviderAPIKey returns the credential for the active provider.
func (c Config) ProviderAPIKey() string {
	switch c.Provider {
	case ProviderAnthropic:
		return c.AnthropicKey
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

// Load reads configuration from the environment. A .env file is applied
// first when present.
func Load() (Config, error) {
	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	c := Config{
		Port:        3000,
		Environment: getEnv("ENVIRONMENT", "development"),

		Provider:       getEnv("LLM_PROVIDER", ProviderOpenAI),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel: getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20240620"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		WhatsAppMode:   getEnv("WHATSAPP_MODE", ModeWebhook),
		AccessToken:    os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		PhoneNumberID:  os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		VerifyToken:    os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		SessionDBPath:  getEnv("SESSION_DB_PATH", "whatsbot-session.db"),
		TranscriptPath: os.Getenv("TRANSCRIPT_DB_PATH"),

		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Port = p
	}

	if c.AdminAPIKey == "" {
		return c, fmt.Errorf("ADMIN_API_KEY is required")
	}
	if c.WhatsAppMode != ModeWebhook && c.WhatsAppMode != ModeSession {
		return c, fmt.Errorf("WHATSAPP_MODE must be %q or %q", ModeWebhook, ModeSession)
	}
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return c, fmt.Errorf("unsupported LLM_PROVIDER %q", c.Provider)
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
