package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/interfaces"
)

// LocalService is a deterministic offline embedder: a hashed bag-of-words
// vectorizer with L2 normalization. It has no semantic power comparable to
// a real model, but it is stable across runs, needs no credentials, and
// preserves the distance contract (identical text embeds to distance 0,
// disjoint vocabulary embeds far apart), which is what the retrieval and
// test layers depend on.
type LocalService struct {
	dimension int
	logger    arbor.ILogger
}

// NewLocalService creates a new offline embedding service
func NewLocalService(dimension int, logger arbor.ILogger) interfaces.EmbeddingService {
	if dimension <= 0 {
		dimension = 256
	}
	return &LocalService{
		dimension: dimension,
		logger:    logger,
	}
}

// GenerateEmbedding creates a vector embedding for text
func (s *LocalService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	vec := make([]float32, s.dimension)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%s.dimension]++
	}

	// L2-normalize so squared Euclidean distances fall in [0, 2] like the
	// cosine-normalized output of a sentence embedding model.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec, nil
}

// GenerateQueryEmbedding generates embedding for a search query
func (s *LocalService) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	return s.GenerateEmbedding(ctx, query)
}

// ModelName returns the model name
func (s *LocalService) ModelName() string {
	return "local-hash"
}

// Dimension returns the embedding dimension
func (s *LocalService) Dimension() int {
	return s.dimension
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
