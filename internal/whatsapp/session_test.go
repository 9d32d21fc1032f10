package whatsapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types"
)

func TestNewSession_RequiresHandler(t *testing.T) {
	_, err := NewSession(SessionConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler is required")
}

func TestSession_SendText_NotReady(t *testing.T) {
	session := &Session{}

	err := session.SendText(context.Background(), "15551234567", "hello")

	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSession_SendTyping_NotReady(t *testing.T) {
	session := &Session{}

	err := session.SendTyping(context.Background(), "15551234567")

	assert.ErrorIs(t, err, ErrNotReady)
}

func TestParseRecipient(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected types.JID
		wantErr  bool
	}{
		{
			name:     "bare phone number",
			input:    "15551234567",
			expected: types.NewJID("15551234567", types.DefaultUserServer),
		},
		{
			name:     "full jid",
			input:    "15551234567@s.whatsapp.net",
			expected: types.NewJID("15551234567", types.DefaultUserServer),
		},
		{
			name:    "malformed device suffix",
			input:   "15551234567:abc@s.whatsapp.net",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jid, err := parseRecipient(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, jid)
		})
	}
}
