package llm

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicProvider implements the Provider interface using Anthropic's official Go SDK.
// It provides access to Claude models through Anthropic's API.
type AnthropicProvider struct {
	client AnthropicClientProvider
	model  anthropic.Model
}

// AnthropicProviderConfig holds the configuration options for creating an Anthropic provider.
type AnthropicProviderConfig struct {
	// Client is the AnthropicClientProvider implementation to use
	Client AnthropicClientProvider

	// Model specifies which Anthropic model to use by default
	// (e.g., "claude-3-opus-20240229", "claude-3-sonnet-20240229")
	Model string
}

// NewAnthropicProvider creates a new Anthropic provider with the specified configuration.
// If no model is specified, it defaults to Claude 3.5 Sonnet.
func NewAnthropicProvider(config AnthropicProviderConfig) *AnthropicProvider {
	model := anthropic.Model(config.Model)
	if model == "" {
		model = anthropic.ModelClaude_3_5_Sonnet_20240620
	}

	return &AnthropicProvider{
		client: config.Client,
		model:  model,
	}
}

// prepareMessageParams creates the Anthropic message parameters from messages and config.
// System messages are routed to Anthropic's dedicated system parameter.
func (p *AnthropicProvider) prepareMessageParams(messages []Message, config RequestConfig) anthropic.MessageNewParams {
	var anthropicMessages []anthropic.MessageParam
	var systemMessage string

	for _, msg := range messages {
		switch msg.Role {
		case SystemRole:
			systemMessage = msg.Text
		case UserRole:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text)))
		case AssistantRole:
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Text)))
		default:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text)))
		}
	}

	model := anthropic.Model(config.Model)
	if model == "" {
		model = p.model
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.F(model),
		Messages:    anthropic.F(anthropicMessages),
		MaxTokens:   anthropic.F(config.MaxTokens),
		TopP:        anthropic.Float(config.TopP),
		Temperature: anthropic.Float(config.Temperature),
	}

	if systemMessage != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(systemMessage),
		})
	}

	return params
}

// GetResponse generates a response using Anthropic's API for the given messages and configuration.
// It supports different message roles (user, assistant, system) and handles them appropriately.
func (p *AnthropicProvider) GetResponse(ctx context.Context, messages []Message, config RequestConfig) (Response, error) {
	startTime := time.Now()

	params := p.prepareMessageParams(messages, config)

	message, err := p.client.CreateMessage(ctx, params)
	if err != nil {
		return Response{}, err
	}

	var responseText string
	for _, block := range message.Content {
		switch block := block.AsUnion().(type) {
		case anthropic.TextBlock:
			responseText += block.Text + "\n"
		default:
		}
	}

	responseText = strings.TrimSpace(responseText)
	if responseText == "" {
		return Response{}, ErrNoCompletion
	}

	return Response{
		Text:             responseText,
		TotalInputToken:  int(message.Usage.InputTokens),
		TotalOutputToken: int(message.Usage.OutputTokens),
		CompletionTime:   time.Since(startTime).Seconds(),
	}, nil
}
