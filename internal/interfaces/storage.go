package interfaces

import (
	"time"

	"github.com/ternarybob/livewire/internal/models"
)

// CorpusStorage persists chunk records and their vectors as atomically
// paired generations. A re-ingestion writes a complete new generation and
// flips the current-generation pointer; the two are never updated apart.
type CorpusStorage interface {
	// SaveGeneration writes all chunks for a new corpus generation.
	SaveGeneration(generation string, chunks []*models.Chunk) error

	// CurrentGeneration returns the active generation id, or "" when no
	// corpus has been ingested yet.
	CurrentGeneration() (string, error)

	// SetCurrentGeneration flips the active generation pointer.
	SetCurrentGeneration(generation string) error

	// LoadChunks returns the chunks of a generation in insertion order.
	LoadChunks(generation string) ([]*models.Chunk, error)

	// DeleteGeneration removes all chunks of a superseded generation.
	DeleteGeneration(generation string) error
}

// DedupeStorage is the persisted idempotency record store used by
// crash-recoverable deployments.
type DedupeStorage interface {
	Get(dedupeKey string) (*models.DedupeRecord, error)
	Upsert(record *models.DedupeRecord) error
	MarkCompleted(dedupeKey string) error
	MarkFailed(dedupeKey string) error

	// DeleteOlderThan sweeps records created before the cutoff.
	DeleteOlderThan(cutoff time.Time) (int, error)
}

// StorageManager provides access to all storage implementations
type StorageManager interface {
	CorpusStorage() CorpusStorage
	DedupeStorage() DedupeStorage

	// RunValueLogGC triggers badger value log garbage collection.
	RunValueLogGC() error

	Close() error
}
