package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shaharia-lab/whatsbot/internal/observability"
)

// ErrNotReady is returned when a send is attempted before the session has
// finished connecting and authenticating.
var ErrNotReady = errors.New("whatsapp: session client not ready")

// InboundHandler receives every inbound text message from the session.
type InboundHandler func(ctx context.Context, from, text string)

// SessionConfig holds configuration for the session adapter.
type SessionConfig struct {
	// DBPath is the sqlite file holding the persisted session credential.
	DBPath string
	// Handler is invoked for every inbound text message. Required.
	Handler InboundHandler
	// QROutput is where the first-run pairing QR code is rendered.
	// Defaults to stdout.
	QROutput io.Writer
	// Logger receives connection diagnostics. Defaults to NullLogger.
	Logger observability.Logger
}

// Session maintains a persistent authenticated WhatsApp session through
// whatsmeow. Pairing happens via a QR code on first run; the credential is
// persisted in a local sqlite store thereafter.
type Session struct {
	client  *whatsmeow.Client
	handler InboundHandler
	qrOut   io.Writer
	log     observability.Logger
	ready   atomic.Bool

	// baseCtx is the lifecycle context captured by Run; whatsmeow event
	// callbacks do not carry one.
	baseCtx context.Context
}

// NewSession creates the session adapter and opens the credential store.
func NewSession(config SessionConfig) (*Session, error) {
	if config.Handler == nil {
		return nil, errors.New("whatsapp: session handler is required")
	}
	if config.QROutput == nil {
		config.QROutput = os.Stdout
	}
	if config.Logger == nil {
		config.Logger = observability.NewNullLogger()
	}
	if config.DBPath == "" {
		config.DBPath = "whatsbot-session.db"
	}

	container, err := sqlstore.New("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", config.DBPath), waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	device, err := container.GetFirstDevice()
	if err != nil {
		return nil, fmt.Errorf("failed to load session device: %w", err)
	}

	s := &Session{
		client:  whatsmeow.NewClient(device, waLog.Noop),
		handler: config.Handler,
		qrOut:   config.QROutput,
		log:     config.Logger,
		baseCtx: context.Background(),
	}
	s.client.AddEventHandler(s.handleEvent)
	return s, nil
}

// Ready reports whether the session is connected and able to send.
func (s *Session) Ready() bool {
	return s.ready.Load()
}

// Run connects the session, pairing via QR code when no credential is
// stored, and blocks until the context is cancelled.
func (s *Session) Run(ctx context.Context) error {
	s.baseCtx = ctx

	if s.client.Store.ID == nil {
		qrChan, err := s.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("failed to get QR channel: %w", err)
		}
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		for evt := range qrChan {
			if evt.Event == "code" {
				s.log.Info("scan the QR code with WhatsApp to pair")
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, s.qrOut)
				continue
			}
			s.log.WithFields(map[string]interface{}{"event": evt.Event}).Info("pairing event")
		}
	} else {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
	}

	<-ctx.Done()
	s.ready.Store(false)
	s.client.Disconnect()
	return ctx.Err()
}

// SendText sends a text message through the session. It fails with
// ErrNotReady before the session has connected.
func (s *Session) SendText(ctx context.Context, to, body string) error {
	if !s.Ready() {
		return ErrNotReady
	}

	jid, err := parseRecipient(to)
	if err != nil {
		return err
	}

	_, err = s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(body),
	})
	return err
}

// SendTyping shows a composing indicator in the target chat. Best effort.
func (s *Session) SendTyping(_ context.Context, to string) error {
	if !s.Ready() {
		return ErrNotReady
	}
	jid, err := parseRecipient(to)
	if err != nil {
		return err
	}
	return s.client.SendChatPresence(jid, types.ChatPresenceComposing, types.ChatPresenceMediaText)
}

func (s *Session) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		s.ready.Store(true)
		s.log.Info("whatsapp session ready")
	case *events.Disconnected:
		s.ready.Store(false)
		s.log.Warn("whatsapp session disconnected")
	case *events.LoggedOut:
		s.ready.Store(false)
		s.log.Warn("whatsapp session logged out, re-pairing required")
	case *events.Message:
		s.handleMessage(v)
	}
}

func (s *Session) handleMessage(evt *events.Message) {
	if evt.Info.IsFromMe {
		return
	}

	text := extractText(evt)
	if text == "" {
		return
	}

	s.handler(s.baseCtx, evt.Info.Chat.ToNonAD().String(), text)
}

// extractText pulls the body out of plain and extended (reply/link preview)
// text messages. Other message types yield an empty string.
func extractText(evt *events.Message) string {
	if text := evt.Message.GetConversation(); text != "" {
		return text
	}
	return evt.Message.GetExtendedTextMessage().GetText()
}

// parseRecipient accepts either a full JID or a bare phone number.
func parseRecipient(to string) (types.JID, error) {
	if !strings.ContainsRune(to, '@') {
		return types.NewJID(to, types.DefaultUserServer), nil
	}
	jid, err := types.ParseJID(to)
	if err != nil {
		return types.JID{}, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	return jid, nil
}
