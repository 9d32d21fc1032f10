package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every config variable so ambient environment does not
// leak into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "ENVIRONMENT",
		"LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL",
		"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL",
		"GEMINI_API_KEY", "GEMINI_MODEL",
		"WHATSAPP_MODE", "WHATSAPP_ACCESS_TOKEN", "WHATSAPP_PHONE_NUMBER_ID",
		"WHATSAPP_VERIFY_TOKEN", "SESSION_DB_PATH", "TRANSCRIPT_DB_PATH",
		"ADMIN_API_KEY",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_API_KEY", "admin-secret")

	c, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 3000, c.Port)
	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, ProviderOpenAI, c.Provider)
	assert.Equal(t, "gpt-3.5-turbo", c.OpenAIModel)
	assert.Equal(t, ModeWebhook, c.WhatsAppMode)
	assert.Equal(t, "whatsbot-session.db", c.SessionDBPath)
	assert.True(t, c.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_API_KEY", "admin-secret")
	t.Setenv("PORT", "8080")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("WHATSAPP_MODE", "session")
	t.Setenv("SESSION_DB_PATH", "/tmp/session.db")

	c, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, c.Port)
	assert.False(t, c.IsDevelopment())
	assert.Equal(t, ProviderAnthropic, c.Provider)
	assert.Equal(t, ModeSession, c.WhatsAppMode)
	assert.Equal(t, "/tmp/session.db", c.SessionDBPath)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		expectedErr string
	}{
		{
			name:        "missing admin api key",
			env:         map[string]string{},
			expectedErr: "ADMIN_API_KEY is required",
		},
		{
			name: "invalid port",
			env: map[string]string{
				"ADMIN_API_KEY": "admin-secret",
				"PORT":          "not-a-number",
			},
			expectedErr: "invalid PORT",
		},
		{
			name: "invalid mode",
			env: map[string]string{
				"ADMIN_API_KEY": "admin-secret",
				"WHATSAPP_MODE": "carrier-pigeon",
			},
			expectedErr: "WHATSAPP_MODE",
		},
		{
			name: "invalid provider",
			env: map[string]string{
				"ADMIN_API_KEY": "admin-secret",
				"LLM_PROVIDER":  "skynet",
			},
			expectedErr: "unsupported LLM_PROVIDER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestProviderAPIKey(t *testing.T) {
	c := Config{
		Provider:     ProviderOpenAI,
		OpenAIAPIKey: "openai-key",
		AnthropicKey: "anthropic-key",
		GeminiAPIKey: "gemini-key",
	}

	assert.Equal(t, "openai-key", c.ProviderAPIKey())

	c.Provider = ProviderAnthropic
	assert.Equal(t, "anthropic-key", c.ProviderAPIKey())

	c.Provider = ProviderGemini
	assert.Equal(t, "gemini-key", c.ProviderAPIKey())
}
