package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoOpsProvider_Defaults(t *testing.T) {
	provider := NewNoOpsProvider()

	response, err := provider.GetResponse(context.Background(), []Message{{Role: UserRole, Text: "hi"}}, NewRequestConfig())

	assert.NoError(t, err)
	assert.Equal(t, "Default NoOps response", response.Text)
	assert.Equal(t, 10, response.TotalInputToken)
}

func TestNoOpsProvider_Options(t *testing.T) {
	custom := Response{Text: "canned", TotalInputToken: 1, TotalOutputToken: 1}
	provider := NewNoOpsProvider(WithResponse(custom))

	response, err := provider.GetResponse(context.Background(), nil, NewRequestConfig())

	assert.NoError(t, err)
	assert.Equal(t, custom, response)

	failing := NewNoOpsProvider(WithError(errors.New("boom")))
	_, err = failing.GetResponse(context.Background(), nil, NewRequestConfig())
	assert.EqualError(t, err, "boom")
}
