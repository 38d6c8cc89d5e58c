package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/common"
	"github.com/ternarybob/livewire/internal/interfaces"
	"github.com/ternarybob/livewire/internal/models"
)

// Service implements the IngestService interface. It owns corpus
// construction exclusively: chunk records and vectors are produced
// together and swapped in as a complete generation, never merged
// incrementally.
type Service struct {
	config   *common.IngestConfig
	embedder interfaces.EmbeddingService
	corpus   interfaces.CorpusStorage
	chunker  *chunker
	logger   arbor.ILogger
}

// NewService creates a new ingest service
func NewService(config *common.IngestConfig, embedder interfaces.EmbeddingService, corpus interfaces.CorpusStorage, logger arbor.ILogger) interfaces.IngestService {
	return &Service{
		config:   config,
		embedder: embedder,
		corpus:   corpus,
		chunker:  newChunker(config),
		logger:   logger,
	}
}

// IngestFile chunks, embeds and persists a source document as a full
// corpus replacement. Any failure leaves the prior corpus intact.
func (s *Service) IngestFile(ctx context.Context, path string) (*models.IngestResult, error) {
	start := time.Now()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("source document not found: %s", path)
	}

	sourceFile := filepath.Base(path)
	s.logger.Info().Str("source", sourceFile).Msg("Starting corpus ingestion")

	pages, err := readDocument(path, s.logger)
	if err != nil {
		return nil, err
	}

	units := s.chunker.split(pages)
	if len(units) == 0 {
		return nil, fmt.Errorf("source document yielded no valid chunks: %s", sourceFile)
	}

	ingestedAt := time.Now()
	chunks := make([]*models.Chunk, 0, len(units))
	for i, u := range units {
		embedding, err := s.embedder.GenerateEmbedding(ctx, u.text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}

		chunks = append(chunks, &models.Chunk{
			ChunkID:     common.NewChunkID(),
			Position:    i,
			TextContent: u.text,
			Embedding:   embedding,
			Metadata: models.ChunkMetadata{
				SourceFile: sourceFile,
				Page:       u.page,
				Section:    u.section,
				IngestedAt: ingestedAt,
			},
		})
	}

	previous, err := s.corpus.CurrentGeneration()
	if err != nil {
		return nil, err
	}

	// Write the complete new generation before flipping the pointer so a
	// failure mid-write never leaves a partial corpus live.
	generation := common.NewGenerationID()
	if err := s.corpus.SaveGeneration(generation, chunks); err != nil {
		// Chunks written before the failure belong to a generation that
		// will never activate; remove them rather than orphan them.
		if delErr := s.corpus.DeleteGeneration(generation); delErr != nil {
			s.logger.Warn().Err(delErr).Str("generation", generation).Msg("Failed to remove partially written generation")
		}
		return nil, fmt.Errorf("failed to persist corpus generation: %w", err)
	}
	if err := s.corpus.SetCurrentGeneration(generation); err != nil {
		return nil, fmt.Errorf("failed to activate corpus generation: %w", err)
	}

	if previous != "" {
		if err := s.corpus.DeleteGeneration(previous); err != nil {
			s.logger.Warn().Err(err).Str("generation", previous).Msg("Failed to delete superseded generation")
		}
	}

	result := &models.IngestResult{
		Generation: generation,
		SourceFile: sourceFile,
		ChunkCount: len(chunks),
		Duration:   time.Since(start),
	}

	s.logger.Info().
		Str("generation", generation).
		Int("chunks", result.ChunkCount).
		Dur("duration", result.Duration).
		Msg("Corpus ingestion complete")

	return result, nil
}
