package badger

import (
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/interfaces"
	"github.com/ternarybob/livewire/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// corpusPointer records which generation is live. Chunk records and the
// pointer are the atomically-paired corpus artifacts: a re-ingestion
// writes a full new generation first and flips the pointer last.
type corpusPointer struct {
	ID         string `badgerhold:"key"`
	Generation string
}

const corpusPointerKey = "current"

// CorpusStorage implements the CorpusStorage interface for Badger
type CorpusStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCorpusStorage creates a new CorpusStorage instance
func NewCorpusStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CorpusStorage {
	return &CorpusStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CorpusStorage) SaveGeneration(generation string, chunks []*models.Chunk) error {
	if generation == "" {
		return fmt.Errorf("generation is required")
	}

	for _, chunk := range chunks {
		if chunk.ChunkID == "" {
			return fmt.Errorf("chunk ID is required")
		}
		chunk.Generation = generation
		if err := s.db.Store().Upsert(chunk.ChunkID, chunk); err != nil {
			return fmt.Errorf("failed to save chunk %s: %w", chunk.ChunkID, err)
		}
	}

	s.logger.Debug().
		Str("generation", generation).
		Int("chunks", len(chunks)).
		Msg("Saved corpus generation")

	return nil
}

func (s *CorpusStorage) CurrentGeneration() (string, error) {
	var ptr corpusPointer
	if err := s.db.Store().Get(corpusPointerKey, &ptr); err != nil {
		if err == badgerhold.ErrNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to read corpus pointer: %w", err)
	}
	return ptr.Generation, nil
}

func (s *CorpusStorage) SetCurrentGeneration(generation string) error {
	ptr := corpusPointer{ID: corpusPointerKey, Generation: generation}
	if err := s.db.Store().Upsert(corpusPointerKey, &ptr); err != nil {
		return fmt.Errorf("failed to update corpus pointer: %w", err)
	}

	s.logger.Info().Str("generation", generation).Msg("Corpus generation activated")
	return nil
}

func (s *CorpusStorage) LoadChunks(generation string) ([]*models.Chunk, error) {
	var chunks []models.Chunk
	err := s.db.Store().Find(&chunks, badgerhold.Where("Generation").Eq(generation).Index("Generation"))
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks for generation %s: %w", generation, err)
	}

	// Badger iteration order is key order; restore corpus insertion order.
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Position < chunks[j].Position
	})

	result := make([]*models.Chunk, len(chunks))
	for i := range chunks {
		result[i] = &chunks[i]
	}
	return result, nil
}

func (s *CorpusStorage) DeleteGeneration(generation string) error {
	if generation == "" {
		return nil
	}

	err := s.db.Store().DeleteMatching(&models.Chunk{}, badgerhold.Where("Generation").Eq(generation).Index("Generation"))
	if err != nil {
		return fmt.Errorf("failed to delete generation %s: %w", generation, err)
	}

	s.logger.Debug().Str("generation", generation).Msg("Deleted superseded corpus generation")
	return nil
}
