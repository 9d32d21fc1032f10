// Package httpserver exposes the service's HTTP surface: the webhook
// endpoints of the Cloud API channel adapter, the shared-secret admin API,
// and unauthenticated health probes.
package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shaharia-lab/whatsbot/internal/bot"
	"github.com/shaharia-lab/whatsbot/internal/conversation"
	"github.com/shaharia-lab/whatsbot/internal/observability"
	"github.com/shaharia-lab/whatsbot/internal/transcript"
)

// TranscriptReader serves archived turns for admin inspection.
type TranscriptReader interface {
	Recent(ctx context.Context, conversationID string, limit int) ([]transcript.Turn, error)
}

// Config holds the collaborators and settings for the HTTP server.
type Config struct {
	// Store is the conversation store backing the admin API.
	Store *conversation.Store
	// Responder owns the generation configuration read and written by the
	// admin API.
	Responder *bot.Responder
	// Pipeline handles inbound webhook messages.
	Pipeline *bot.Pipeline
	// Sender delivers outbound replies and admin test messages.
	Sender bot.Sender
	// Transcript serves archived turns. Nil when archiving is disabled.
	Transcript TranscriptReader
	// Ready reports channel adapter readiness for status endpoints.
	Ready func() bool
	// Mode names the active channel adapter ("webhook" or "session").
	Mode string
	// VerifyToken is the webhook verification handshake secret.
	VerifyToken string
	// AdminAPIKey is the shared secret required on every admin route.
	AdminAPIKey string
	// Logger receives request diagnostics. Defaults to NullLogger.
	Logger observability.Logger
}

// Server owns the HTTP mux and its route handlers.
type Server struct {
	cfg       Config
	log       observability.Logger
	startedAt time.Time
}

// New creates a Server and registers all routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = observability.NewNullLogger()
	}
	if cfg.Ready == nil {
		cfg.Ready = func() bool { return false }
	}
	return &Server{
		cfg:       cfg,
		log:       cfg.Logger,
		startedAt: time.Now(),
	}
}

// Handler returns the fully routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /webhook", s.handleWebhookVerify)
	mux.HandleFunc("POST /webhook", s.handleWebhookEvent)
	mux.HandleFunc("GET /webhook/health", s.handleWebhookHealth)

	mux.HandleFunc("GET /admin/status", s.requireAdmin(s.handleAdminStatus))
	mux.HandleFunc("GET /admin/conversations", s.requireAdmin(s.handleAdminConversations))
	mux.HandleFunc("GET /admin/conversations/{id}", s.requireAdmin(s.handleAdminConversation))
	mux.HandleFunc("DELETE /admin/conversations/{id}", s.requireAdmin(s.handleAdminDeleteConversation))
	mux.HandleFunc("GET /admin/conversations/{id}/transcript", s.requireAdmin(s.handleAdminTranscript))
	mux.HandleFunc("GET /admin/config/llm", s.requireAdmin(s.handleAdminGetConfig))
	mux.HandleFunc("PUT /admin/config/llm", s.requireAdmin(s.handleAdminUpdateConfig))
	mux.HandleFunc("POST /admin/test-message", s.requireAdmin(s.handleAdminTestMessage))
	mux.HandleFunc("GET /admin/stats", s.requireAdmin(s.handleAdminStats))
	mux.HandleFunc("GET /admin/health", s.requireAdmin(s.handleAdminHealth))

	// Everything unmatched is an unknown resource.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "endpoint not found")
	})

	return s.logRequests(mux)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "WhatsApp Chatbot API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":  "/health",
			"webhook": "/webhook",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "OK",
		"message":   "WhatsApp Chatbot is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("http request")
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.WithErr(err).Error("failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
