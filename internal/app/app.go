package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/common"
	"github.com/ternarybob/livewire/internal/interfaces"
	"github.com/ternarybob/livewire/internal/services/cards"
	"github.com/ternarybob/livewire/internal/services/crm"
	"github.com/ternarybob/livewire/internal/services/embedding"
	"github.com/ternarybob/livewire/internal/services/ingest"
	"github.com/ternarybob/livewire/internal/services/retrieval"
	"github.com/ternarybob/livewire/internal/services/suppression"
	"github.com/ternarybob/livewire/internal/storage/badger"
)

// App holds all application components and dependencies. Every shared
// store (suppression state, dedupe records, retry counters, query cache)
// lives behind a service owned here - no ambient package-level state, so
// tests and concurrent sessions get clean isolation.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	EmbeddingService   interfaces.EmbeddingService
	IngestService      interfaces.IngestService
	RetrievalService   interfaces.RetrievalService
	CardService        interfaces.CardService
	SuppressionService interfaces.SuppressionService
	IdempotencyStore   interfaces.IdempotencyStore
	DeliveryService    interfaces.DeliveryService

	maintenance *cron.Cron
}

// New creates and wires all application components
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, err := embedding.NewService(ctx, &config.Embedding, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize embedding service: %w", err)
	}

	ingestService := ingest.NewService(&config.Ingest, embedder, storageManager.CorpusStorage(), logger)

	retrievalService := retrieval.NewService(&config.Retrieval, embedder, storageManager.CorpusStorage(), logger)
	if err := retrievalService.Reload(); err != nil {
		// Queries degrade to empty results until a corpus is ingested.
		logger.Warn().Err(err).Msg("Corpus snapshot unavailable at startup")
	}

	cardService := cards.NewService(logger)
	suppressionService := suppression.NewManager(&config.Suppression, logger)

	idempotencyStore, err := newIdempotencyStore(config, storageManager, logger)
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	crmClient := crm.NewClient(config.CRM.APIKey,
		crm.WithBaseURL(config.CRM.BaseURL),
		crm.WithTimeout(config.CRM.RequestTimeout),
		crm.WithRateLimit(config.CRM.RequestsPerSecond),
		crm.WithLogger(logger),
	)
	retryHandler := crm.NewRetryHandler(config.CRM.MaxRetries, config.CRM.BaseDelay, logger)
	deliveryService := crm.NewService(crmClient, idempotencyStore, retryHandler, logger)

	a := &App{
		Config:             config,
		Logger:             logger,
		StorageManager:     storageManager,
		EmbeddingService:   embedder,
		IngestService:      ingestService,
		RetrievalService:   retrievalService,
		CardService:        cardService,
		SuppressionService: suppressionService,
		IdempotencyStore:   idempotencyStore,
		DeliveryService:    deliveryService,
	}

	if err := a.startMaintenance(); err != nil {
		storageManager.Close()
		return nil, err
	}

	logger.Info().
		Str("embedding_provider", config.Embedding.Provider).
		Str("idempotency", config.CRM.Idempotency).
		Int("corpus_chunks", retrievalService.ChunkCount()).
		Msg("Application initialized")

	return a, nil
}

// newIdempotencyStore selects the deployment's idempotency model. The
// two models are never mixed: memory for single-process, persisted for
// crash-recoverable deployments.
func newIdempotencyStore(config *common.Config, storage interfaces.StorageManager, logger arbor.ILogger) (interfaces.IdempotencyStore, error) {
	switch config.CRM.Idempotency {
	case "", "memory":
		return crm.NewMemoryStore(config.CRM.DedupeTTL, logger), nil
	case "persisted":
		return crm.NewTracker(storage.DedupeStorage(), logger), nil
	default:
		return nil, fmt.Errorf("unknown idempotency mode: %s", config.CRM.Idempotency)
	}
}

// startMaintenance schedules the periodic sweeps: suppression cleanup,
// dedupe expiry, and badger value-log GC.
func (a *App) startMaintenance() error {
	c := cron.New()

	_, err := c.AddFunc(a.Config.Maintenance.Schedule, func() {
		removed := a.SuppressionService.Cleanup()
		swept, err := a.IdempotencyStore.Sweep()
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Dedupe sweep failed")
		}
		if err := a.StorageManager.RunValueLogGC(); err != nil {
			a.Logger.Warn().Err(err).Msg("Value log GC failed")
		}

		a.Logger.Debug().
			Int("suppression_removed", removed).
			Int("dedupe_swept", swept).
			Msg("Maintenance sweep complete")
	})
	if err != nil {
		return fmt.Errorf("invalid maintenance schedule %q: %w", a.Config.Maintenance.Schedule, err)
	}

	c.Start()
	a.maintenance = c
	return nil
}

// Close stops background maintenance and releases storage.
func (a *App) Close() error {
	if a.maintenance != nil {
		a.maintenance.Stop()
	}
	if a.StorageManager != nil {
		return a.StorageManager.Close()
	}
	return nil
}
