package interfaces

import (
	"context"

	"github.com/ternarybob/livewire/internal/models"
)

// IngestService builds the searchable corpus from a playbook document.
type IngestService interface {
	// IngestFile chunks, embeds and persists a source document as a full
	// corpus replacement. The prior corpus stays intact on any failure.
	IngestFile(ctx context.Context, path string) (*models.IngestResult, error)
}

// RetrievalService performs grounded nearest-neighbor search over the
// active corpus generation.
type RetrievalService interface {
	// Retrieve returns at most k results under the grounding threshold,
	// ascending by distance. It returns an empty slice - never an error -
	// when nothing qualifies or the corpus is unavailable.
	Retrieve(ctx context.Context, query string, k int) []models.RetrievalResult

	// Reload swaps in the current corpus generation and invalidates the
	// query cache.
	Reload() error

	// ChunkCount reports the size of the loaded corpus snapshot.
	ChunkCount() int
}

// CardService converts retrieval results into UI-ready cards.
type CardService interface {
	// GenerateCards is a pure transform: at most 3 grounded cards in
	// retrieval order, or exactly one generic fallback for empty input.
	// The transcript window is reserved for future use.
	GenerateCards(transcriptWindow string, results []models.RetrievalResult) []models.Card
}

// SuppressionService is the per-session guardrail policy machine, keyed
// by session id over a shared process-wide store.
type SuppressionService interface {
	ShouldShowCard(sessionID, cardType, evidenceSpan string) models.SuppressionDecision
	MarkHandled(sessionID, cardType, evidenceSpan string)
	GetSuppressionStatus(sessionID string) models.SuppressionStatus

	// Reset clears all state for a session at its boundary.
	Reset(sessionID string)

	// Cleanup purges stale entries across all sessions; returns the number
	// of entries removed.
	Cleanup() int
}

// IdempotencyStore guards outgoing CRM writes against duplicates and
// retries. Implementations: in-memory TTL map (single process) or a
// persisted status table (crash-recoverable deployments).
type IdempotencyStore interface {
	// CheckAndMark returns (true, key) for an unexpired duplicate without
	// re-invoking any side effect, else records the key and returns false.
	CheckAndMark(sessionID string, artifactType models.ArtifactType, payload map[string]any) (bool, string, error)

	// MarkCompleted / MarkFailed transition a persisted record; no-ops for
	// the in-memory model.
	MarkCompleted(dedupeKey string) error
	MarkFailed(dedupeKey string) error

	// Sweep removes expired entries; returns the number removed.
	Sweep() (int, error)
}

// CrmClient is the outbound transport to the external CRM notes endpoint.
// Failures are reported as typed errors (models.RateLimitError,
// models.TransientError) so the retry layer can classify without probing.
type CrmClient interface {
	PushNote(ctx context.Context, note *models.CrmNote) (*models.CrmNoteResult, error)
}

// DeliveryService executes idempotent, rate-limited CRM pushes at
// session end.
type DeliveryService interface {
	PushSessionArtifacts(ctx context.Context, req *models.PushRequest) *models.CrmPushResult
	GetRateLimitStatus() models.RateLimitStatus
}
