package cards

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/interfaces"
	"github.com/ternarybob/livewire/internal/models"
)

const (
	// MaxBodyLength keeps cards readable and UI-safe.
	MaxBodyLength = 300

	// TruncationMarker is appended when a body is cut at the length cap.
	TruncationMarker = "..."

	// FallbackCardID is the fixed sentinel for the no-source card.
	FallbackCardID = "generic-fallback"

	maxCards = 3
)

// Service converts retrieval results directly into cards. Direct
// pass-through of source text is what enforces zero hallucination: a
// grounded card's body is always a prefix of its chunk, never paraphrased.
type Service struct {
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.CardService = (*Service)(nil)

// NewService creates a new card generator
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// GenerateCards emits at most 3 grounded cards in retrieval order, or
// exactly one generic fallback when retrieval came back empty. The
// transcript window is accepted for interface consistency but unused in
// deterministic, source-backed generation.
func (s *Service) GenerateCards(transcriptWindow string, results []models.RetrievalResult) []models.Card {
	if len(results) == 0 {
		s.logger.Info().Msg("Low confidence retrieval, returning generic fallback card")
		return []models.Card{fallbackCard()}
	}

	if len(results) > maxCards {
		results = results[:maxCards]
	}

	generated := make([]models.Card, 0, len(results))
	for i, result := range results {
		body := truncateBody(result.TextContent)

		generated = append(generated, models.Card{
			// Deterministic ID prevents frontend flicker across re-generations
			CardID:          "grounded-" + shortChunkID(result.ChunkID),
			Title:           cardTitle(result, i),
			Body:            body,
			Type:            models.CardTypeCoaching,
			Grounded:        true,
			ConfidenceScore: result.Confidence,
			SourceChunkIDs:  []string{result.ChunkID},
		})
	}

	s.logger.Info().Int("cards", len(generated)).Msg("Generated grounded cards")
	return generated
}

// cardTitle prefers the chunk's section heading, then its source
// filename, then a positional label.
func cardTitle(result models.RetrievalResult, index int) string {
	if result.Metadata.Section != "" {
		return result.Metadata.Section
	}
	if result.Metadata.SourceFile != "" {
		return result.Metadata.SourceFile
	}
	return fmt.Sprintf("Insight #%d", index+1)
}

// fallbackCard is the no-source condition: never a fabricated answer,
// just a prompt to draw the customer out.
func fallbackCard() models.Card {
	return models.Card{
		CardID:          FallbackCardID,
		Title:           "Active Listening",
		Body:            "Could you ask them to say more about what they're looking for?",
		Type:            models.CardTypeGeneric,
		Grounded:        false,
		ConfidenceScore: 0,
		SourceChunkIDs:  []string{},
	}
}

// truncateBody cuts at the length cap without splitting a multi-byte
// rune, so truncated bodies stay valid UTF-8.
func truncateBody(body string) string {
	if len(body) <= MaxBodyLength {
		return body
	}
	cut := MaxBodyLength
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + TruncationMarker
}

func shortChunkID(chunkID string) string {
	id := strings.TrimPrefix(chunkID, "chunk_")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
