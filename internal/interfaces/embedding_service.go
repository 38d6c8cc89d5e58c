package interfaces

import "context"

// EmbeddingService generates vector embeddings. The same implementation
// must be used at ingestion and query time so distances stay comparable.
type EmbeddingService interface {
	// Generate embedding for raw chunk text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// Generate query embedding (may have different prompt than document embedding)
	GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error)

	// Get model information
	ModelName() string
	Dimension() int
}
