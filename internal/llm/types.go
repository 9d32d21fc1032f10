// Package llm provides a flexible interface for interacting with various
// Large Language Model providers behind a single request/response contract.
package llm

import (
	"context"
	"errors"
)

// MessageRole represents the role of a participant in a conversation.
type MessageRole string

const (
	// UserRole represents the user in a conversation.
	UserRole MessageRole = "user"
	// AssistantRole represents the model in a conversation.
	AssistantRole MessageRole = "assistant"
	// SystemRole represents system-level instructions in a conversation.
	SystemRole MessageRole = "system"
)

// ErrNoCompletion is returned when the provider answered but produced no
// usable completion text.
var ErrNoCompletion = errors.New("llm: provider returned an empty completion")

// Message represents a single message in a conversation with a provider.
type Message struct {
	Role MessageRole `json:"role"`
	Text string      `json:"text"`
}

// Response encapsulates the result of a completed generation call.
type Response struct {
	// Text contains the generated response text
	Text string `json:"text"`
	// TotalInputToken is the number of tokens in the input messages
	TotalInputToken int `json:"total_input_token"`
	// TotalOutputToken is the number of tokens in the generated response
	TotalOutputToken int `json:"total_output_token"`
	// CompletionTime is the total time taken to generate the response, in seconds
	CompletionTime float64 `json:"completion_time"`
}

// RequestConfig holds the parameters sent with every generation call.
// Model may be left empty to use the provider's configured default.
type RequestConfig struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	TopP        float64
}

// RequestOption is a function that modifies the request configuration.
type RequestOption func(*RequestConfig)

// WithModel overrides the provider's default model for this request.
func WithModel(model string) RequestOption {
	return func(c *RequestConfig) {
		c.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int64) RequestOption {
	return func(c *RequestConfig) {
		c.MaxTokens = maxTokens
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) RequestOption {
	return func(c *RequestConfig) {
		c.Temperature = temperature
	}
}

// WithTopP sets the nucleus sampling parameter.
func WithTopP(topP float64) RequestOption {
	return func(c *RequestConfig) {
		c.TopP = topP
	}
}

// NewRequestConfig creates a new RequestConfig with the given options applied
// on top of sensible defaults.
func NewRequestConfig(opts ...RequestOption) RequestConfig {
	config := RequestConfig{
		MaxTokens:   1000,
		Temperature: 0.7,
		TopP:        1.0,
	}

	for _, opt := range opts {
		opt(&config)
	}

	return config
}

// Provider defines the contract for integrating language model backends.
// Implementations convert the message list to their native request format
// and return a normalized Response.
type Provider interface {
	// GetResponse generates a completion for the given messages and configuration.
	GetResponse(ctx context.Context, messages []Message, config RequestConfig) (Response, error)
}
