package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/common"
	"github.com/ternarybob/livewire/internal/interfaces"
	"google.golang.org/genai"
)

const geminiEmbedTimeout = 30 * time.Second

// GeminiService generates embeddings via the Google GenAI API.
type GeminiService struct {
	client    *genai.Client
	model     string
	dimension int
	logger    arbor.ILogger
}

// NewGeminiService creates a Gemini-backed embedding service
func NewGeminiService(ctx context.Context, config *common.EmbeddingConfig, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini embedding provider requires an API key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger.Info().
		Str("model", config.Model).
		Int("dimension", config.Dimension).
		Msg("Gemini embedding service initialized")

	return &GeminiService{
		client:    client,
		model:     config.Model,
		dimension: config.Dimension,
		logger:    logger,
	}, nil
}

// GenerateEmbedding creates a vector embedding for text
func (s *GeminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, geminiEmbedTimeout)
	defer cancel()

	outputDim := int32(s.dimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	start := time.Now()
	result, err := s.client.Models.EmbedContent(timeoutCtx, s.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embeddingConfig)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	var vec []float32
	if result != nil && len(result.Embeddings) > 0 {
		vec = result.Embeddings[0].Values
	}
	if vec == nil {
		return nil, fmt.Errorf("no embedding returned from API")
	}
	if len(vec) != s.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(vec))
	}

	s.logger.Debug().
		Int("text_length", len(text)).
		Int("embedding_dim", len(vec)).
		Dur("duration", time.Since(start)).
		Msg("Generated embedding")

	return vec, nil
}

// GenerateQueryEmbedding generates embedding for a search query
func (s *GeminiService) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	return s.GenerateEmbedding(ctx, query)
}

// ModelName returns the model name
func (s *GeminiService) ModelName() string {
	return s.model
}

// Dimension returns the embedding dimension
func (s *GeminiService) Dimension() int {
	return s.dimension
}
