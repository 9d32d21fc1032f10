package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracingProvider_DelegatesToWrappedProvider(t *testing.T) {
	inner := NewNoOpsProvider(WithResponse(Response{Text: "traced", TotalInputToken: 5}))
	provider := NewTracingProvider(inner)

	response, err := provider.GetResponse(context.Background(), []Message{{Role: UserRole, Text: "hi"}}, NewRequestConfig())

	assert.NoError(t, err)
	assert.Equal(t, "traced", response.Text)
	assert.Equal(t, 5, response.TotalInputToken)
}

func TestTracingProvider_PropagatesError(t *testing.T) {
	inner := NewNoOpsProvider(WithError(errors.New("upstream failure")))
	provider := NewTracingProvider(inner)

	_, err := provider.GetResponse(context.Background(), nil, NewRequestConfig())

	assert.EqualError(t, err, "upstream failure")
}
