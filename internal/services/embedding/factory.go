package embedding

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/common"
	"github.com/ternarybob/livewire/internal/interfaces"
)

// NewService creates the configured embedding provider. The same provider
// must serve both ingestion and queries; mixing providers invalidates the
// stored vectors.
func NewService(ctx context.Context, config *common.EmbeddingConfig, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	switch config.Provider {
	case "", "local":
		return NewLocalService(config.Dimension, logger), nil
	case "gemini":
		return NewGeminiService(ctx, config, logger)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", config.Provider)
	}
}
