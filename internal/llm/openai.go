package llm

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

// OpenAIProvider implements the Provider interface using OpenAI's official SDK.
type OpenAIProvider struct {
	client OpenAIClientProvider
	model  string
}

// OpenAIProviderConfig holds configuration for OpenAI provider.
type OpenAIProviderConfig struct {
	// Client is the OpenAIClientProvider implementation to use
	Client OpenAIClientProvider
	// Model specifies which OpenAI model to use by default (e.g., "gpt-4o", "gpt-3.5-turbo")
	Model openai.ChatModel
}

// NewOpenAIProvider creates a new OpenAI provider with the specified configuration.
// If no model is specified, it defaults to GPT-3.5-turbo.
//
// Example usage:
//
//	// Create client
//	client := NewOpenAIClient("your-api-key")
//
//	// Create provider with default model
//	provider := NewOpenAIProvider(OpenAIProviderConfig{
//	    Client: client,
//	})
//
//	// Create provider with specific model
//	provider := NewOpenAIProvider(OpenAIProviderConfig{
//	    Client: client,
//	    Model:  "gpt-4o",
//	})
func NewOpenAIProvider(config OpenAIProviderConfig) *OpenAIProvider {
	if config.Model == "" {
		config.Model = string(openai.ChatModelGPT3_5Turbo)
	}

	return &OpenAIProvider{
		client: config.Client,
		model:  config.Model,
	}
}

// convertToOpenAIMessages converts internal message format to OpenAI's format
func (p *OpenAIProvider) convertToOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	var openAIMessages []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case UserRole:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Text))
		case AssistantRole:
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Text))
		case SystemRole:
			openAIMessages = append(openAIMessages, openai.SystemMessage(msg.Text))
		default:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Text))
		}
	}
	return openAIMessages
}

// createCompletionParams creates OpenAI API parameters from request config
func (p *OpenAIProvider) createCompletionParams(messages []openai.ChatCompletionMessageParamUnion, config RequestConfig) openai.ChatCompletionNewParams {
	model := config.Model
	if model == "" {
		model = p.model
	}

	return openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(model),
		MaxTokens:   openai.Int(config.MaxTokens),
		TopP:        openai.Float(config.TopP),
		Temperature: openai.Float(config.Temperature),
	}
}

// GetResponse generates a response using OpenAI's API for the given messages and configuration.
// It supports different message roles (user, assistant, system) and handles them appropriately.
func (p *OpenAIProvider) GetResponse(ctx context.Context, messages []Message, config RequestConfig) (Response, error) {
	startTime := time.Now()
	openAIMessages := p.convertToOpenAIMessages(messages)
	params := p.createCompletionParams(openAIMessages, config)

	completion, err := p.client.CreateCompletion(ctx, params)
	if err != nil {
		return Response{}, err
	}

	if len(completion.Choices) == 0 {
		return Response{}, ErrNoCompletion
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return Response{}, ErrNoCompletion
	}

	return Response{
		Text:             text,
		TotalInputToken:  int(completion.Usage.PromptTokens),
		TotalOutputToken: int(completion.Usage.CompletionTokens),
		CompletionTime:   time.Since(startTime).Seconds(),
	}, nil
}
