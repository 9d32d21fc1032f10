package bot

import (
	"context"
	"fmt"

	"github.com/shaharia-lab/whatsbot/internal/conversation"
	"github.com/shaharia-lab/whatsbot/internal/llm"
	"github.com/shaharia-lab/whatsbot/internal/observability"
)

// apologyReply is sent when the inbound pipeline itself fails. The channel
// must always get some response.
const apologyReply = "I'm sorry, I encountered an error processing your message. Please try again."

// Sender delivers an outbound reply to the messaging channel.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// TypingNotifier is optionally implemented by senders that can show a
// typing indicator. Failures are logged and swallowed.
type TypingNotifier interface {
	SendTyping(ctx context.Context, to string) error
}

// Recorder archives relayed turns. Failures are logged and swallowed.
type Recorder interface {
	Record(ctx context.Context, conversationID string, role llm.MessageRole, content string) error
}

// Pipeline is the channel-independent inbound message flow shared by every
// adapter: store the user turn, assemble context, generate a reply, store
// the assistant turn, send the reply.
type Pipeline struct {
	store     *conversation.Store
	responder *Responder
	recorder  Recorder
	log       observability.Logger
	verbose   bool
}

// NewPipeline creates a Pipeline. recorder may be nil to disable archiving.
// verbose enables full error detail in logs (development configuration).
func NewPipeline(store *conversation.Store, responder *Responder, recorder Recorder, log observability.Logger, verbose bool) *Pipeline {
	return &Pipeline{
		store:     store,
		responder: responder,
		recorder:  recorder,
		log:       log,
		verbose:   verbose,
	}
}

// HandleInbound runs the full flow for one inbound text message. Errors
// never escape: on any failure past the point of receipt, a fixed apology
// is sent to the user and the cause is logged.
func (p *Pipeline) HandleInbound(ctx context.Context, sender Sender, from, text string) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logFailure(fmt.Errorf("panic in message pipeline: %v", rec), from)
			p.sendApology(ctx, sender, from)
		}
	}()

	log := p.log.WithFields(map[string]interface{}{"from": from})
	log.Info("received message")

	if notifier, ok := sender.(TypingNotifier); ok {
		if err := notifier.SendTyping(ctx, from); err != nil {
			log.WithErr(err).Warn("failed to send typing indicator")
		}
	}

	p.store.Append(from, llm.UserRole, text)
	p.record(ctx, from, llm.UserRole, text)

	reply := p.responder.Respond(ctx, p.store.History(from), text)
	if reply.Fallback {
		log.WithErr(reply.Reason).Warn("reply degraded to fallback")
	}

	p.store.Append(from, llm.AssistantRole, reply.Text)
	p.record(ctx, from, llm.AssistantRole, reply.Text)

	if err := sender.SendText(ctx, from, reply.Text); err != nil {
		p.logFailure(err, from)
		p.sendApology(ctx, sender, from)
		return
	}

	log.Info("sent response")
}

func (p *Pipeline) record(ctx context.Context, id string, role llm.MessageRole, content string) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, id, role, content); err != nil {
		p.log.WithErr(err).Warn("failed to archive turn")
	}
}

func (p *Pipeline) sendApology(ctx context.Context, sender Sender, to string) {
	if err := sender.SendText(ctx, to, apologyReply); err != nil {
		p.log.WithErr(err).Error("failed to send apology reply")
	}
}

// logFailure logs a pipeline error with full detail in development and a
// generic summary otherwise.
func (p *Pipeline) logFailure(err error, from string) {
	if p.verbose {
		p.log.WithFields(map[string]interface{}{"from": from}).WithErr(err).
			Error("error handling message")
		return
	}
	p.log.Error("error handling message")
}
