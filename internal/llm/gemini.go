package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/shaharia-lab/whatsbot/internal/observability"
)

// GeminiRole is the role name used by the Gemini API.
type GeminiRole = string

const (
	GeminiRoleUser  GeminiRole = "user"
	GeminiRoleModel GeminiRole = "model"
)

// GeminiModelService defines the interface for interacting with the Gemini model.
// ConfigureModel selects the model for the next chat; an empty model name
// selects the service's default.
type GeminiModelService interface {
	ConfigureModel(model string, config *genai.GenerationConfig) error
	StartChat(initialHistory []*genai.Content) ChatSessionService
}

// ChatSessionService defines the interface for chat session management.
type ChatSessionService interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GoogleGeminiService implements GeminiModelService using the genai client.
type GoogleGeminiService struct {
	client       *genai.Client
	defaultModel string
	model        *genai.GenerativeModel
}

// googleGeminiChatSession implements ChatSessionService using genai.ChatSession.
type googleGeminiChatSession struct {
	cs *genai.ChatSession
}

// NewGoogleGeminiService creates a new instance of GoogleGeminiService.
// modelName is the default model, used whenever a request does not name one.
func NewGoogleGeminiService(apiKey, modelName string) (GeminiModelService, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GoogleGeminiService{
		client:       client,
		defaultModel: modelName,
		model:        client.GenerativeModel(modelName),
	}, nil
}

// ConfigureModel selects the model to generate with and applies the provided
// generation config. An empty model name falls back to the service default.
func (g *GoogleGeminiService) ConfigureModel(model string, config *genai.GenerationConfig) error {
	name := model
	if name == "" {
		name = g.defaultModel
	}
	g.model = g.client.GenerativeModel(name)
	g.model.GenerationConfig = *config
	return nil
}

// StartChat initializes a new chat session with the provided initial history.
func (g *GoogleGeminiService) StartChat(initialHistory []*genai.Content) ChatSessionService {
	cs := g.model.StartChat()
	cs.History = initialHistory
	return &googleGeminiChatSession{cs: cs}
}

// SendMessage sends a message to the chat session and returns the response.
func (s *googleGeminiChatSession) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return s.cs.SendMessage(ctx, parts...)
}

// GeminiProvider implements the Provider interface on top of a GeminiModelService.
type GeminiProvider struct {
	service GeminiModelService
	log     observability.Logger
}

// NewGeminiProvider creates a Gemini provider around the given service.
func NewGeminiProvider(service GeminiModelService, log observability.Logger) (*GeminiProvider, error) {
	if service == nil {
		return nil, errors.New("GeminiModelService cannot be nil")
	}
	return &GeminiProvider{
		service: service,
		log:     log,
	}, nil
}

// GetResponse generates a response using Gemini's API for the given messages and configuration.
// The Gemini API has no system role, so system messages are mapped to user turns.
func (p *GeminiProvider) GetResponse(ctx context.Context, messages []Message, config RequestConfig) (Response, error) {
	startTime := time.Now()

	genaiConfig, err := mapRequestConfigToGenaiConfig(config)
	if err != nil {
		return Response{}, fmt.Errorf("failed to map request config: %w", err)
	}
	if err := p.service.ConfigureModel(config.Model, genaiConfig); err != nil {
		return Response{}, fmt.Errorf("failed to configure gemini model service: %w", err)
	}

	contents, err := p.mapMessagesToGenaiContent(messages)
	if err != nil {
		return Response{}, fmt.Errorf("failed to map messages: %w", err)
	}
	if len(contents) == 0 {
		return Response{}, errors.New("cannot start a gemini conversation with no messages")
	}

	// The chat session carries everything but the last turn; the last
	// turn's parts are what SendMessage submits.
	history := contents[:len(contents)-1]
	sendParts := contents[len(contents)-1].Parts

	session := p.service.StartChat(history)
	resp, err := session.SendMessage(ctx, sendParts...)
	if err != nil {
		return Response{}, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return Response{}, fmt.Errorf("request blocked by API: %s", resp.PromptFeedback.BlockReason.String())
		}
		return Response{}, ErrNoCompletion
	}

	text := strings.TrimSpace(extractTextFromParts(resp.Candidates[0].Content.Parts))
	if text == "" {
		return Response{}, ErrNoCompletion
	}

	response := Response{
		Text:           text,
		CompletionTime: time.Since(startTime).Seconds(),
	}
	if resp.UsageMetadata != nil {
		response.TotalInputToken = int(resp.UsageMetadata.PromptTokenCount)
		response.TotalOutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return response, nil
}

// mapMessagesToGenaiContent converts internal messages to genai content,
// merging consecutive turns with the same role as the API requires.
func (p *GeminiProvider) mapMessagesToGenaiContent(messages []Message) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		var role GeminiRole
		switch msg.Role {
		case UserRole:
			role = GeminiRoleUser
		case AssistantRole:
			role = GeminiRoleModel
		case SystemRole:
			role = GeminiRoleUser
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
		if len(contents) > 0 && contents[len(contents)-1].Role == role {
			last := contents[len(contents)-1]
			last.Parts = append(last.Parts, genai.Text(msg.Text))
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(msg.Text)}})
	}
	if len(contents) > 0 && contents[0].Role == GeminiRoleModel {
		return nil, errors.New("conversation history cannot start with an assistant/model message")
	}
	return contents, nil
}

func mapRequestConfigToGenaiConfig(config RequestConfig) (*genai.GenerationConfig, error) {
	genaiConfig := &genai.GenerationConfig{}
	if config.MaxTokens > 0 {
		if config.MaxTokens > int64(^uint32(0)>>1) {
			return nil, fmt.Errorf("MaxTokens %d exceeds int32 limit", config.MaxTokens)
		}
		maxTokens := int32(config.MaxTokens)
		genaiConfig.MaxOutputTokens = &maxTokens
	}
	if config.Temperature >= 0 {
		temp := float32(config.Temperature)
		genaiConfig.Temperature = &temp
	}
	if config.TopP > 0 {
		topP := float32(config.TopP)
		genaiConfig.TopP = &topP
	}
	return genaiConfig, nil
}

func extractTextFromParts(parts []genai.Part) string {
	var textContent string
	for _, part := range parts {
		if text, ok := part.(genai.Text); ok {
			textContent += string(text)
		}
	}
	return textContent
}
