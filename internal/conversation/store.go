// Package conversation implements the in-memory per-user conversation store.
// Conversations are created lazily on first message, keep a bounded sliding
// window of recent turns, and are evicted when stale. State lives only for
// the lifetime of the process.
package conversation

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaharia-lab/whatsbot/internal/llm"
)

// MaxHistoryLength is the maximum number of messages retained per
// conversation. Older messages are dropped FIFO once the cap is exceeded.
const MaxHistoryLength = 20

// Message is a single turn in a conversation. Immutable once created.
type Message struct {
	ID        uuid.UUID       `json:"id"`
	Role      llm.MessageRole `json:"role"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
}

// Conversation holds the bounded message history for one channel identity.
type Conversation struct {
	ID             string    `json:"id"`
	Messages       []Message `json:"messages"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Summary is the admin-facing view of a conversation without its messages.
type Summary struct {
	ID                string    `json:"id"`
	TotalMessages     int       `json:"total_messages"`
	UserMessages      int       `json:"user_messages"`
	AssistantMessages int       `json:"assistant_messages"`
	CreatedAt         time.Time `json:"created_at"`
	LastActivityAt    time.Time `json:"last_activity_at"`
}

// Stats aggregates store-wide counters.
type Stats struct {
	TotalConversations             int     `json:"total_conversations"`
	TotalMessages                  int     `json:"total_messages"`
	AverageMessagesPerConversation float64 `json:"average_messages_per_conversation"`
}

// Store is a process-wide conversation registry keyed by the channel-specific
// user identifier. All methods are safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	now           func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*Conversation),
		now:           time.Now,
	}
}

// getLocked returns the conversation for id, creating it if absent.
// Callers must hold the write lock.
func (s *Store) getLocked(id string) *Conversation {
	conv, exists := s.conversations[id]
	if !exists {
		now := s.now()
		conv = &Conversation{
			ID:             id,
			Messages:       []Message{},
			CreatedAt:      now,
			LastActivityAt: now,
		}
		s.conversations[id] = conv
	}
	return conv
}

// Get returns a copy of the conversation for id, creating an empty one if it
// does not exist yet. It never fails.
func (s *Store) Get(id string) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getLocked(id)
	return copyConversation(conv)
}

// History returns the messages of the conversation for id in insertion
// order, creating the conversation if absent.
func (s *Store) History(id string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getLocked(id)
	history := make([]llm.Message, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		history = append(history, llm.Message{Role: msg.Role, Text: msg.Content})
	}
	return history
}

// Append creates a message with the given role and content, appends it to
// the conversation for id, refreshes the activity timestamp, and truncates
// the history to the most recent MaxHistoryLength messages.
func (s *Store) Append(id string, role llm.MessageRole, content string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getLocked(id)
	msg := Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}

	conv.Messages = append(conv.Messages, msg)
	conv.LastActivityAt = msg.Timestamp

	if len(conv.Messages) > MaxHistoryLength {
		trimmed := make([]Message, MaxHistoryLength)
		copy(trimmed, conv.Messages[len(conv.Messages)-MaxHistoryLength:])
		conv.Messages = trimmed
	}

	return msg
}

// Remove deletes the conversation for id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[id]; !exists {
		return false
	}
	delete(s.conversations, id)
	return true
}

// SweepStale removes every conversation whose last activity is older than
// the given age and returns the number of conversations removed.
func (s *Store) SweepStale(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	removed := 0
	for id, conv := range s.conversations {
		if conv.LastActivityAt.Before(cutoff) {
			delete(s.conversations, id)
			removed++
		}
	}
	return removed
}

// List returns a summary of every stored conversation.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, len(s.conversations))
	for _, conv := range s.conversations {
		summaries = append(summaries, summarize(conv))
	}
	return summaries
}

// Summary returns the summary for a single conversation and whether it exists.
func (s *Store) Summary(id string) (Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, exists := s.conversations[id]
	if !exists {
		return Summary{}, false
	}
	return summarize(conv), true
}

// Stats returns store-wide counters. The average is rounded to the nearest
// whole message and is 0 when the store is empty.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalConversations: len(s.conversations)}
	for _, conv := range s.conversations {
		stats.TotalMessages += len(conv.Messages)
	}
	if stats.TotalConversations > 0 {
		stats.AverageMessagesPerConversation = math.Round(float64(stats.TotalMessages) / float64(stats.TotalConversations))
	}
	return stats
}

func summarize(conv *Conversation) Summary {
	summary := Summary{
		ID:             conv.ID,
		TotalMessages:  len(conv.Messages),
		CreatedAt:      conv.CreatedAt,
		LastActivityAt: conv.LastActivityAt,
	}
	for _, msg := range conv.Messages {
		switch msg.Role {
		case llm.UserRole:
			summary.UserMessages++
		case llm.AssistantRole:
			summary.AssistantMessages++
		}
	}
	return summary
}

func copyConversation(conv *Conversation) Conversation {
	messages := make([]Message, len(conv.Messages))
	copy(messages, conv.Messages)
	return Conversation{
		ID:             conv.ID,
		Messages:       messages,
		CreatedAt:      conv.CreatedAt,
		LastActivityAt: conv.LastActivityAt,
	}
}
