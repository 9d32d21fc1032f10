// Package bot contains the channel-independent message handling pipeline:
// context assembly, reply generation with graceful degradation, and the
// mutable generation configuration.
package bot

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/shaharia-lab/whatsbot/internal/llm"
	"github.com/shaharia-lab/whatsbot/internal/observability"
)

// contextWindow is the number of recent history messages included in the
// outbound prompt. Independent of, and smaller than, the store's retention
// cap so the prompt stays bounded no matter how the store grows.
const contextWindow = 10

// ErrNotConfigured is returned internally when no API credential is set for
// the active provider. It is never surfaced to the channel; the caller falls
// through to a fallback reply.
var ErrNotConfigured = errors.New("bot: llm provider credential not configured")

// fallbackReplies is the fixed set of degraded replies used when the
// provider call cannot succeed.
var fallbackReplies = []string{
	"I'm having trouble processing your request right now. Could you try again in a moment?",
	"Sorry, I'm experiencing some technical difficulties. Please try again later.",
	"I'm not able to respond properly at the moment. Please try again.",
	"Something went wrong on my end. Could you rephrase your message?",
}

// GenerationConfig is the mutable process-wide generation configuration.
// It is read by every generation call and written only via admin action.
type GenerationConfig struct {
	Model       string  `json:"model"`
	MaxTokens   int64   `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

// ConfigUpdate carries a partial configuration change. Nil fields are left
// unchanged.
type ConfigUpdate struct {
	Model       *string  `json:"model,omitempty"`
	MaxTokens   *int64   `json:"maxTokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Reply is the typed result of a generation attempt. Fallback distinguishes
// "model succeeded" from "model failed, degraded" so callers keep the
// distinction for observability even though the user always gets text.
type Reply struct {
	Text     string
	Fallback bool
	Reason   error
}

// ResponderConfig holds construction options for a Responder.
type ResponderConfig struct {
	// Provider executes the generation calls. Required.
	Provider llm.Provider
	// Configured reports whether an API credential is present. When false,
	// every generation call degrades to a fallback reply without touching
	// the provider.
	Configured bool
	// Generation is the initial generation configuration.
	Generation GenerationConfig
	// SystemPrompt overrides the default persona instruction when non-empty.
	SystemPrompt string
	// Logger receives degraded-path diagnostics. Defaults to NullLogger.
	Logger observability.Logger
}

// Responder turns a conversation history plus a new inbound message into a
// reply, degrading to a fixed fallback string on any provider failure.
type Responder struct {
	provider     llm.Provider
	configured   bool
	systemPrompt string
	log          observability.Logger

	mu     sync.RWMutex
	config GenerationConfig
}

// NewResponder creates a Responder with the given configuration.
func NewResponder(cfg ResponderConfig) *Responder {
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gpt-3.5-turbo"
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 1000
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.7
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewNullLogger()
	}

	return &Responder{
		provider:     cfg.Provider,
		configured:   cfg.Configured,
		systemPrompt: cfg.SystemPrompt,
		log:          cfg.Logger,
		config:       cfg.Generation,
	}
}

// Config returns the current generation configuration.
func (r *Responder) Config() GenerationConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// UpdateConfig merges the non-nil fields of update into the current
// configuration and returns the result.
func (r *Responder) UpdateConfig(update ConfigUpdate) GenerationConfig {
	r.mu.Lock()
	defer r.mu.Unlock()

	if update.Model != nil {
		r.config.Model = *update.Model
	}
	if update.MaxTokens != nil {
		r.config.MaxTokens = *update.MaxTokens
	}
	if update.Temperature != nil {
		r.config.Temperature = *update.Temperature
	}
	return r.config
}

// assembleContext builds the ordered prompt: the system instruction first,
// then the most recent contextWindow history messages, then the current
// inbound message unless its content already appears in that window.
func (r *Responder) assembleContext(history []llm.Message, currentMessage string) []llm.Message {
	messages := []llm.Message{{Role: llm.SystemRole, Text: r.systemPrompt}}

	recent := history
	if len(recent) > contextWindow {
		recent = recent[len(recent)-contextWindow:]
	}
	messages = append(messages, recent...)

	if currentMessage == "" {
		return messages
	}
	// Content-only match: guards against double-appending the turn that was
	// just stored, at the cost of dropping a legitimately repeated message.
	for _, msg := range recent {
		if msg.Text == currentMessage {
			return messages
		}
	}
	return append(messages, llm.Message{Role: llm.UserRole, Text: currentMessage})
}

// Respond generates a reply for the given history and inbound message. It
// never returns an error and never returns empty text: on any failure the
// reply is a pseudo-randomly chosen member of the fixed fallback set with
// Fallback set and the cause in Reason.
func (r *Responder) Respond(ctx context.Context, history []llm.Message, currentMessage string) Reply {
	if !r.configured {
		return r.fallback(ErrNotConfigured)
	}

	messages := r.assembleContext(history, currentMessage)
	config := r.Config()

	response, err := r.provider.GetResponse(ctx, messages, llm.NewRequestConfig(
		llm.WithModel(config.Model),
		llm.WithMaxTokens(config.MaxTokens),
		llm.WithTemperature(config.Temperature),
	))
	if err != nil {
		return r.fallback(err)
	}
	if response.Text == "" {
		return r.fallback(llm.ErrNoCompletion)
	}

	return Reply{Text: response.Text}
}

func (r *Responder) fallback(reason error) Reply {
	r.log.WithErr(reason).Warn("using fallback reply")
	return Reply{
		Text:     fallbackReplies[rand.Intn(len(fallbackReplies))],
		Fallback: true,
		Reason:   reason,
	}
}
