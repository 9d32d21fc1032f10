package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudClient_Configured(t *testing.T) {
	tests := []struct {
		name     string
		config   CloudClientConfig
		expected bool
	}{
		{
			name:     "both credentials present",
			config:   CloudClientConfig{AccessToken: "token", PhoneNumberID: "12345"},
			expected: true,
		},
		{
			name:     "missing token",
			config:   CloudClientConfig{PhoneNumberID: "12345"},
			expected: false,
		},
		{
			name:     "missing phone number id",
			config:   CloudClientConfig{AccessToken: "token"},
			expected: false,
		},
		{
			name:     "missing both",
			config:   CloudClientConfig{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewCloudClient(tt.config)
			assert.Equal(t, tt.expected, client.Configured())
		})
	}
}

func TestCloudClient_SendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages": [{"id": "wamid.test"}]}`))
	}))
	defer server.Close()

	client := NewCloudClient(CloudClientConfig{
		AccessToken:   "secret-token",
		PhoneNumberID: "987654",
		BaseURL:       server.URL,
	})

	err := client.SendText(context.Background(), "15551234567", "hello")

	require.NoError(t, err)
	assert.Equal(t, "/987654/messages", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "whatsapp", gotPayload["messaging_product"])
	assert.Equal(t, "15551234567", gotPayload["to"])
	assert.Equal(t, "text", gotPayload["type"])
	assert.Equal(t, map[string]interface{}{"body": "hello"}, gotPayload["text"])
}

func TestCloudClient_SendText_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid OAuth access token"}}`))
	}))
	defer server.Close()

	client := NewCloudClient(CloudClientConfig{
		AccessToken:   "bad-token",
		PhoneNumberID: "987654",
		BaseURL:       server.URL,
	})

	err := client.SendText(context.Background(), "15551234567", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestCloudClient_SendText_NotConfigured(t *testing.T) {
	client := NewCloudClient(CloudClientConfig{})

	err := client.SendText(context.Background(), "15551234567", "hello")

	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCloudClient_SendTyping(t *testing.T) {
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewCloudClient(CloudClientConfig{
		AccessToken:   "secret-token",
		PhoneNumberID: "987654",
		BaseURL:       server.URL,
	})

	err := client.SendTyping(context.Background(), "15551234567")

	require.NoError(t, err)
	assert.Equal(t, "read", gotPayload["status"])
	assert.Equal(t, "individual", gotPayload["recipient_type"])
}
