package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAnthropicClient implements AnthropicClientProvider for testing.
type fakeAnthropicClient struct {
	message   *anthropic.Message
	err       error
	gotParams anthropic.MessageNewParams
}

func (f *fakeAnthropicClient) CreateMessage(_ context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	f.gotParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.message, nil
}

// messageFromJSON builds an anthropic.Message the same way the SDK does,
// through JSON unmarshalling, so the content block unions are populated.
func messageFromJSON(t *testing.T, raw string) *anthropic.Message {
	t.Helper()
	var message anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &message))
	return &message
}

func TestAnthropicProvider_GetResponse(t *testing.T) {
	client := &fakeAnthropicClient{
		message: messageFromJSON(t, `{
			"content": [{"type": "text", "text": "Hello, human!"}],
			"usage": {"input_tokens": 15, "output_tokens": 4}
		}`),
	}
	provider := NewAnthropicProvider(AnthropicProviderConfig{
		Client: client,
		Model:  "claude-3-5-sonnet-20240620",
	})

	messages := []Message{
		{Role: SystemRole, Text: "You are a friendly assistant"},
		{Role: UserRole, Text: "Say hello"},
	}

	response, err := provider.GetResponse(context.Background(), messages, NewRequestConfig())

	require.NoError(t, err)
	assert.Equal(t, "Hello, human!", response.Text)
	assert.Equal(t, 15, response.TotalInputToken)
	assert.Equal(t, 4, response.TotalOutputToken)

	// System messages are routed to the dedicated system parameter, not the
	// message list.
	assert.Len(t, client.gotParams.Messages.Value, 1)
	require.Len(t, client.gotParams.System.Value, 1)
}

func TestAnthropicProvider_GetResponse_ModelDefaultAndOverride(t *testing.T) {
	client := &fakeAnthropicClient{
		message: messageFromJSON(t, `{"content": [{"type": "text", "text": "ok"}], "usage": {}}`),
	}
	provider := NewAnthropicProvider(AnthropicProviderConfig{Client: client})

	_, err := provider.GetResponse(context.Background(), []Message{{Role: UserRole, Text: "hi"}}, NewRequestConfig())
	require.NoError(t, err)
	assert.Equal(t, anthropic.ModelClaude_3_5_Sonnet_20240620, client.gotParams.Model.Value)

	_, err = provider.GetResponse(context.Background(), []Message{{Role: UserRole, Text: "hi"}},
		NewRequestConfig(WithModel("claude-3-opus-20240229")))
	require.NoError(t, err)
	assert.Equal(t, anthropic.Model("claude-3-opus-20240229"), client.gotParams.Model.Value)
}

func TestAnthropicProvider_GetResponse_Errors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		client := &fakeAnthropicClient{err: errors.New("overloaded")}
		provider := NewAnthropicProvider(AnthropicProviderConfig{Client: client})

		_, err := provider.GetResponse(context.Background(), []Message{{Role: UserRole, Text: "hi"}}, NewRequestConfig())

		assert.EqualError(t, err, "overloaded")
	})

	t.Run("no text content", func(t *testing.T) {
		client := &fakeAnthropicClient{
			message: messageFromJSON(t, `{"content": [], "usage": {}}`),
		}
		provider := NewAnthropicProvider(AnthropicProviderConfig{Client: client})

		_, err := provider.GetResponse(context.Background(), []Message{{Role: UserRole, Text: "hi"}}, NewRequestConfig())

		assert.ErrorIs(t, err, ErrNoCompletion)
	})
}
