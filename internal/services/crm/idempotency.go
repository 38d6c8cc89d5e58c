package crm

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/interfaces"
	"github.com/ternarybob/livewire/internal/models"
)

// MemoryStore is the single-process idempotency model: a TTL map of
// dedupe keys. Expired entries are swept on every check. State does not
// survive a restart; crash-recoverable deployments use the persisted
// Tracker instead.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.IdempotencyStore = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory TTL dedupe store
func NewMemoryStore(ttl time.Duration, logger arbor.ILogger) *MemoryStore {
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
		logger:  logger,
	}
}

// CheckAndMark returns (true, key) when the key was recorded within the
// TTL, without touching any side effect; otherwise it records the key
// with the current timestamp and returns false.
func (s *MemoryStore) CheckAndMark(sessionID string, artifactType models.ArtifactType, payload map[string]any) (bool, string, error) {
	payloadHash, err := hashPayload(payload)
	if err != nil {
		return false, "", err
	}
	key := dedupeKey(sessionID, artifactType, payloadHash)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	if _, ok := s.entries[key]; ok {
		s.logger.Info().Str("dedupe_key", key).Msg("Duplicate CRM write detected")
		return true, key, nil
	}

	s.entries[key] = now
	s.logger.Debug().Str("dedupe_key", key).Msg("Recorded new CRM write")
	return false, key, nil
}

// MarkCompleted is a no-op for the in-memory model; presence of the key
// already encodes completion.
func (s *MemoryStore) MarkCompleted(dedupeKey string) error { return nil }

// MarkFailed is a no-op for the in-memory model.
func (s *MemoryStore) MarkFailed(dedupeKey string) error { return nil }

// Sweep removes expired entries.
func (s *MemoryStore) Sweep() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now()), nil
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for key, ts := range s.entries {
		if now.Sub(ts) > s.ttl {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries (diagnostic).
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
