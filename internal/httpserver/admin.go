package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/shaharia-lab/whatsbot/internal/bot"
)

// llmConfigSchema validates partial generation-config updates. Omitted
// fields are left unchanged; unknown fields are rejected.
const llmConfigSchema = `{
	"type": "object",
	"properties": {
		"model": {"type": "string", "minLength": 1},
		"maxTokens": {"type": "integer", "minimum": 1},
		"temperature": {"type": "number", "minimum": 0, "maximum": 2}
	},
	"additionalProperties": false
}`

// requireAdmin gates a handler behind the shared-secret header.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" || apiKey != s.cfg.AdminAPIKey {
			s.respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleAdminStatus(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"bot": map[string]interface{}{
			"mode":    s.cfg.Mode,
			"isReady": s.cfg.Ready(),
		},
		"llm":        s.cfg.Responder.Config(),
		"statistics": s.cfg.Store.Stats(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAdminConversations(w http.ResponseWriter, _ *http.Request) {
	conversations := s.cfg.Store.List()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

func (s *Server) handleAdminConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	summary, exists := s.cfg.Store.Summary(id)
	if !exists {
		s.respondError(w, http.StatusNotFound, "conversation not found")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversation": summary,
		"messages":     s.cfg.Store.Get(id).Messages,
	})
}

func (s *Server) handleAdminDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.cfg.Store.Remove(id) {
		s.respondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "conversation cleared successfully"})
}

// handleAdminTranscript returns the archived turns for a conversation,
// newest first. The archive outlives the in-memory conversation, so this
// works even after the conversation itself has been swept or deleted.
func (s *Server) handleAdminTranscript(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Transcript == nil {
		s.respondError(w, http.StatusNotFound, "transcript archive not enabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	id := r.PathValue("id")
	turns, err := s.cfg.Transcript.Recent(r.Context(), id, limit)
	if err != nil {
		s.log.WithErr(err).Error("failed to read transcript")
		s.respondError(w, http.StatusInternalServerError, "failed to read transcript")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": id,
		"turns":           turns,
		"count":           len(turns),
	})
}

func (s *Server) handleAdminGetConfig(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.cfg.Responder.Config())
}

func (s *Server) handleAdminUpdateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(llmConfigSchema),
		gojsonschema.NewBytesLoader(body),
	)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "malformed configuration payload")
		return
	}
	if !result.Valid() {
		s.respondError(w, http.StatusBadRequest, "invalid configuration: "+result.Errors()[0].String())
		return
	}

	var update bot.ConfigUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		s.respondError(w, http.StatusBadRequest, "malformed configuration payload")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "LLM configuration updated successfully",
		"config":  s.cfg.Responder.UpdateConfig(update),
	})
}

type testMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *Server) handleAdminTestMessage(w http.ResponseWriter, r *http.Request) {
	var req testMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.To == "" || req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "missing required fields: to, message")
		return
	}

	if err := s.cfg.Sender.SendText(r.Context(), req.To, req.Message); err != nil {
		s.log.WithErr(err).Error("failed to send test message")
		s.respondError(w, http.StatusInternalServerError, "failed to send test message")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "test message sent successfully"})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": s.cfg.Store.Stats(),
		"bot": map[string]interface{}{
			"mode":    s.cfg.Mode,
			"isReady": s.cfg.Ready(),
		},
		"system": map[string]interface{}{
			"uptime":     time.Since(s.startedAt).String(),
			"goroutines": runtime.NumGoroutine(),
			"allocBytes": mem.Alloc,
			"goVersion":  runtime.Version(),
			"platform":   runtime.GOOS,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAdminHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "OK",
		"admin":     "Admin API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
