package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaharia-lab/whatsbot/internal/llm"
)

func newTestResponder(provider llm.Provider, configured bool) *Responder {
	return NewResponder(ResponderConfig{
		Provider:   provider,
		Configured: configured,
	})
}

func history(n int) []llm.Message {
	messages := make([]llm.Message, 0, n)
	for i := 0; i < n; i++ {
		role := llm.UserRole
		if i%2 == 1 {
			role = llm.AssistantRole
		}
		messages = append(messages, llm.Message{Role: role, Text: fmt.Sprintf("history %d", i)})
	}
	return messages
}

func TestResponder_AssembleContext_WindowSizes(t *testing.T) {
	tests := []struct {
		name        string
		historyLen  int
		wantEntries int
	}{
		{name: "empty history", historyLen: 0, wantEntries: 1 + 0 + 1},
		{name: "short history", historyLen: 4, wantEntries: 1 + 4 + 1},
		{name: "history at window", historyLen: 10, wantEntries: 1 + 10 + 1},
		{name: "history beyond window", historyLen: 18, wantEntries: 1 + 10 + 1},
	}

	responder := newTestResponder(llm.NewNoOpsProvider(), true)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := responder.assembleContext(history(tt.historyLen), "current message")
			assert.Len(t, messages, tt.wantEntries)
			assert.Equal(t, llm.SystemRole, messages[0].Role)
			assert.Equal(t, "current message", messages[len(messages)-1].Text)
		})
	}
}

func TestResponder_AssembleContext_KeepsMostRecentHistory(t *testing.T) {
	responder := newTestResponder(llm.NewNoOpsProvider(), true)

	messages := responder.assembleContext(history(18), "current message")

	// 1 system + 10 most recent + current.
	assert.Equal(t, "history 8", messages[1].Text)
	assert.Equal(t, "history 17", messages[10].Text)
}

func TestResponder_AssembleContext_DeduplicatesCurrentMessage(t *testing.T) {
	responder := newTestResponder(llm.NewNoOpsProvider(), true)

	h := history(6)
	h = append(h, llm.Message{Role: llm.UserRole, Text: "already stored"})

	messages := responder.assembleContext(h, "already stored")

	occurrences := 0
	for _, msg := range messages {
		if msg.Text == "already stored" {
			occurrences++
		}
	}
	assert.Equal(t, 1, occurrences)
	assert.Len(t, messages, 1+7)
}

func TestResponder_AssembleContext_DuplicateOutsideWindowIsAppended(t *testing.T) {
	responder := newTestResponder(llm.NewNoOpsProvider(), true)

	// The duplicate sits just beyond the 10-message window, so the current
	// message must still be appended.
	h := []llm.Message{{Role: llm.UserRole, Text: "repeated"}}
	h = append(h, history(10)...)

	messages := responder.assembleContext(h, "repeated")
	assert.Equal(t, "repeated", messages[len(messages)-1].Text)
	assert.Len(t, messages, 1+10+1)
}

func TestResponder_Respond_Success(t *testing.T) {
	provider := llm.NewNoOpsProvider(llm.WithResponse(llm.Response{Text: "generated reply"}))
	responder := newTestResponder(provider, true)

	reply := responder.Respond(context.Background(), history(3), "hello")

	assert.False(t, reply.Fallback)
	assert.NoError(t, reply.Reason)
	assert.Equal(t, "generated reply", reply.Text)
}

func TestResponder_Respond_FallbackCases(t *testing.T) {
	tests := []struct {
		name       string
		provider   llm.Provider
		configured bool
		wantReason error
	}{
		{
			name:       "missing credential",
			provider:   llm.NewNoOpsProvider(),
			configured: false,
			wantReason: ErrNotConfigured,
		},
		{
			name:       "provider error",
			provider:   llm.NewNoOpsProvider(llm.WithError(errors.New("api unavailable"))),
			configured: true,
		},
		{
			name:       "empty completion",
			provider:   llm.NewNoOpsProvider(llm.WithResponse(llm.Response{Text: ""})),
			configured: true,
			wantReason: llm.ErrNoCompletion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responder := newTestResponder(tt.provider, tt.configured)
			reply := responder.Respond(context.Background(), nil, "hello")

			assert.True(t, reply.Fallback)
			assert.Error(t, reply.Reason)
			if tt.wantReason != nil {
				assert.ErrorIs(t, reply.Reason, tt.wantReason)
			}
			assert.NotEmpty(t, reply.Text)
			assert.Contains(t, fallbackReplies, reply.Text)
		})
	}
}

func TestResponder_Config_Defaults(t *testing.T) {
	responder := newTestResponder(llm.NewNoOpsProvider(), true)

	config := responder.Config()
	assert.Equal(t, "gpt-3.5-turbo", config.Model)
	assert.Equal(t, int64(1000), config.MaxTokens)
	assert.Equal(t, 0.7, config.Temperature)
}

func TestResponder_UpdateConfig_PartialMerge(t *testing.T) {
	responder := newTestResponder(llm.NewNoOpsProvider(), true)

	model := "gpt-4o"
	updated := responder.UpdateConfig(ConfigUpdate{Model: &model})
	assert.Equal(t, "gpt-4o", updated.Model)
	assert.Equal(t, int64(1000), updated.MaxTokens)
	assert.Equal(t, 0.7, updated.Temperature)

	maxTokens := int64(2000)
	temperature := 0.2
	updated = responder.UpdateConfig(ConfigUpdate{MaxTokens: &maxTokens, Temperature: &temperature})
	assert.Equal(t, "gpt-4o", updated.Model)
	assert.Equal(t, int64(2000), updated.MaxTokens)
	assert.Equal(t, 0.2, updated.Temperature)

	// An empty update changes nothing.
	assert.Equal(t, updated, responder.UpdateConfig(ConfigUpdate{}))
}
