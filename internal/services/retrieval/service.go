package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/common"
	"github.com/ternarybob/livewire/internal/interfaces"
	"github.com/ternarybob/livewire/internal/models"
)

// Service implements grounded nearest-neighbor retrieval over an
// in-memory corpus snapshot. The snapshot is read-only between reloads
// and may be searched concurrently; Reload swaps it wholesale.
type Service struct {
	config   *common.RetrievalConfig
	embedder interfaces.EmbeddingService
	corpus   interfaces.CorpusStorage
	cache    *queryCache
	logger   arbor.ILogger

	mu       sync.RWMutex
	snapshot []*models.Chunk
}

// NewService creates a new retrieval service. Call Reload to pull in the
// active corpus generation.
func NewService(config *common.RetrievalConfig, embedder interfaces.EmbeddingService, corpus interfaces.CorpusStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:   config,
		embedder: embedder,
		corpus:   corpus,
		cache:    newQueryCache(config.CacheSize),
		logger:   logger,
	}
}

// Retrieve embeds the query and runs exact k-NN by squared Euclidean
// distance, dropping anything at or above the grounding threshold.
// Degraded states (no corpus, embedding failure) return an empty slice so
// downstream treats them identically to below-threshold retrieval.
func (s *Service) Retrieve(ctx context.Context, query string, k int) []models.RetrievalResult {
	if k <= 0 {
		k = s.config.TopK
	}

	cacheKey := fmt.Sprintf("%s|%d", query, k)
	if cached, ok := s.cache.get(cacheKey); ok {
		return cached
	}

	s.mu.RLock()
	snapshot := s.snapshot
	s.mu.RUnlock()

	if len(snapshot) == 0 {
		s.logger.Warn().Msg("Search aborted: corpus not loaded")
		return []models.RetrievalResult{}
	}

	start := time.Now()

	queryVec, err := s.embedder.GenerateQueryEmbedding(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Query embedding failed")
		return []models.RetrievalResult{}
	}

	threshold := s.config.DistanceThreshold
	results := make([]models.RetrievalResult, 0, k)
	for _, chunk := range snapshot {
		if len(chunk.Embedding) != len(queryVec) {
			continue
		}

		score := squaredL2(queryVec, chunk.Embedding)
		if score >= threshold {
			continue
		}

		results = append(results, models.RetrievalResult{
			ChunkID:     chunk.ChunkID,
			Score:       score,
			Confidence:  confidence(score, threshold),
			TextContent: chunk.TextContent,
			Metadata:    chunk.Metadata,
		})
	}

	// Ascending by distance; snapshot order already reflects corpus
	// insertion order, so a stable sort breaks ties correctly.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}

	s.cache.put(cacheKey, results)

	s.logger.Debug().
		Int("results", len(results)).
		Dur("latency", time.Since(start)).
		Msg("Retrieval complete")

	return results
}

// Reload loads the current corpus generation into the snapshot and
// invalidates the query cache wholesale.
func (s *Service) Reload() error {
	generation, err := s.corpus.CurrentGeneration()
	if err != nil {
		return err
	}

	var chunks []*models.Chunk
	if generation != "" {
		chunks, err = s.corpus.LoadChunks(generation)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.snapshot = chunks
	s.mu.Unlock()
	s.cache.purge()

	s.logger.Info().
		Str("generation", generation).
		Int("chunks", len(chunks)).
		Msg("Corpus snapshot reloaded")

	return nil
}

// ChunkCount reports the size of the loaded corpus snapshot.
func (s *Service) ChunkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot)
}

// squaredL2 computes squared Euclidean distance (lower = closer).
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// confidence normalizes a raw distance against the grounding threshold:
// clamp(1 - distance/threshold, 0, 1). The threshold here is the same
// constant used for the retrieval cutoff.
func confidence(score, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	c := 1 - score/threshold
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
