package crm

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/interfaces"
	"github.com/ternarybob/livewire/internal/models"
)

// trackerRetention is how long persisted push records are kept before the
// sweep removes them.
const trackerRetention = 30 * 24 * time.Hour

// Tracker is the crash-recoverable idempotency model: a persisted status
// table keyed by dedupe key. A completed record with an unchanged payload
// is a true duplicate; a changed payload or an in_progress/failed record
// allows a retry as a new attempt.
type Tracker struct {
	// mu serializes every store mutation. The check-then-upsert in
	// CheckAndMark is a read-modify-write: without the lock two racing
	// pushes of the same artifact both see the absent record and one
	// attempt increment is lost.
	mu      sync.Mutex
	storage interfaces.DedupeStorage
	now     func() time.Time
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.IdempotencyStore = (*Tracker)(nil)

// NewTracker creates a persisted idempotency tracker
func NewTracker(storage interfaces.DedupeStorage, logger arbor.ILogger) *Tracker {
	return &Tracker{
		storage: storage,
		now:     time.Now,
		logger:  logger,
	}
}

func (t *Tracker) CheckAndMark(sessionID string, artifactType models.ArtifactType, payload map[string]any) (bool, string, error) {
	payloadHash, err := hashPayload(payload)
	if err != nil {
		return false, "", err
	}
	key := dedupeKey(sessionID, artifactType, payloadHash)

	t.mu.Lock()
	defer t.mu.Unlock()

	record, err := t.storage.Get(key)
	if err != nil {
		return false, "", err
	}

	if record == nil {
		record = &models.DedupeRecord{
			DedupeKey:    key,
			SessionID:    sessionID,
			ArtifactType: artifactType,
			PayloadHash:  payloadHash,
			Status:       models.DedupeInProgress,
			Attempts:     1,
			CreatedAt:    t.now(),
		}
		if err := t.storage.Upsert(record); err != nil {
			return false, "", err
		}
		t.logger.Debug().Str("dedupe_key", key).Msg("Recorded new CRM push attempt")
		return false, key, nil
	}

	switch {
	case record.PayloadHash != payloadHash:
		// Payload changed under the same key components: allow as a fresh
		// attempt. (Unreachable while the hash is part of the key, kept
		// for key schemes that dedupe on artifact identity alone.)
		record.PayloadHash = payloadHash
		record.Status = models.DedupeInProgress
		record.Attempts++
	case record.Status == models.DedupeCompleted:
		t.logger.Info().Str("dedupe_key", key).Msg("Duplicate CRM write detected (already completed)")
		return true, key, nil
	default:
		// in_progress or failed: the previous attempt never completed.
		record.Status = models.DedupeInProgress
		record.Attempts++
	}

	if err := t.storage.Upsert(record); err != nil {
		return false, "", err
	}
	t.logger.Debug().
		Str("dedupe_key", key).
		Int("attempts", record.Attempts).
		Msg("Allowing CRM push retry")
	return false, key, nil
}

func (t *Tracker) MarkCompleted(dedupeKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.storage.MarkCompleted(dedupeKey)
}

func (t *Tracker) MarkFailed(dedupeKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.storage.MarkFailed(dedupeKey)
}

// Sweep removes records older than the retention horizon.
func (t *Tracker) Sweep() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.storage.DeleteOlderThan(t.now().Add(-trackerRetention))
}
