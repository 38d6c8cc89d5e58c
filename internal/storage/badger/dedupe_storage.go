package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/interfaces"
	"github.com/ternarybob/livewire/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// DedupeStorage implements the persisted idempotency record store.
type DedupeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDedupeStorage creates a new DedupeStorage instance
func NewDedupeStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DedupeStorage {
	return &DedupeStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DedupeStorage) Get(dedupeKey string) (*models.DedupeRecord, error) {
	var record models.DedupeRecord
	if err := s.db.Store().Get(dedupeKey, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dedupe record: %w", err)
	}
	return &record, nil
}

func (s *DedupeStorage) Upsert(record *models.DedupeRecord) error {
	if record.DedupeKey == "" {
		return fmt.Errorf("dedupe key is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if err := s.db.Store().Upsert(record.DedupeKey, record); err != nil {
		return fmt.Errorf("failed to save dedupe record: %w", err)
	}
	return nil
}

func (s *DedupeStorage) MarkCompleted(dedupeKey string) error {
	return s.setStatus(dedupeKey, models.DedupeCompleted, true)
}

func (s *DedupeStorage) MarkFailed(dedupeKey string) error {
	return s.setStatus(dedupeKey, models.DedupeFailed, false)
}

func (s *DedupeStorage) setStatus(dedupeKey string, status models.DedupeStatus, completed bool) error {
	record, err := s.Get(dedupeKey)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("dedupe record not found: %s", dedupeKey)
	}

	record.Status = status
	if completed {
		record.CompletedAt = time.Now()
	}
	return s.Upsert(record)
}

func (s *DedupeStorage) DeleteOlderThan(cutoff time.Time) (int, error) {
	var stale []models.DedupeRecord
	err := s.db.Store().Find(&stale, badgerhold.Where("CreatedAt").Lt(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to find stale dedupe records: %w", err)
	}

	for i := range stale {
		if err := s.db.Store().Delete(stale[i].DedupeKey, &models.DedupeRecord{}); err != nil && err != badgerhold.ErrNotFound {
			return 0, fmt.Errorf("failed to delete dedupe record: %w", err)
		}
	}

	if len(stale) > 0 {
		s.logger.Debug().Int("removed", len(stale)).Msg("Swept stale dedupe records")
	}
	return len(stale), nil
}
