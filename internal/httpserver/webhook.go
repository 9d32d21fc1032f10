package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shaharia-lab/whatsbot/internal/whatsapp"
)

// handleWebhookVerify implements the Cloud API verification handshake. The
// literal challenge is echoed back only when the mode is "subscribe" and the
// token matches.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode == "" || token == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if mode != "subscribe" || token != s.cfg.VerifyToken {
		s.log.Warn("webhook verification failed")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	s.log.Info("webhook verified successfully")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// handleWebhookEvent unpacks a delivery batch and dispatches every text
// message it contains. Each message is handled as an independent unit; the
// delivery is acknowledged regardless of handling outcome.
func (s *Server) handleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	var event whatsapp.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.respondError(w, http.StatusBadRequest, "malformed webhook payload")
		return
	}

	if event.Object == whatsapp.WebhookObject {
		for _, msg := range event.TextMessages() {
			go func(msg whatsapp.InboundMessage) {
				s.cfg.Pipeline.HandleInbound(context.WithoutCancel(r.Context()), s.cfg.Sender, msg.From, msg.Text.Body)
			}(msg)
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleWebhookHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "OK",
		"webhook":   "WhatsApp Business API Webhook",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"config": map[string]bool{
			"hasVerifyToken": s.cfg.VerifyToken != "",
		},
	})
}
