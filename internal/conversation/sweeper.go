package conversation

import (
	"context"
	"time"

	"github.com/shaharia-lab/whatsbot/internal/observability"
)

const (
	// DefaultSweepInterval is how often the background sweep runs.
	DefaultSweepInterval = time.Hour
	// DefaultStaleAge is the inactivity age after which a conversation is evicted.
	DefaultStaleAge = 24 * time.Hour
)

// Sweeper periodically evicts stale conversations from a Store.
type Sweeper struct {
	store    *Store
	interval time.Duration
	staleAge time.Duration
	log      observability.Logger
}

// NewSweeper creates a Sweeper with the default interval and staleness age.
func NewSweeper(store *Store, log observability.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: DefaultSweepInterval,
		staleAge: DefaultStaleAge,
		log:      log,
	}
}

// Run blocks, sweeping on every tick until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := s.store.SweepStale(s.staleAge); removed > 0 {
				s.log.WithFields(map[string]interface{}{"removed": removed}).
					Info("cleaned up stale conversations")
			}
		}
	}
}
