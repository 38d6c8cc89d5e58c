package models

// CardType distinguishes source-backed coaching cards from the generic
// fallback shown when retrieval comes back empty.
type CardType string

const (
	CardTypeCoaching CardType = "coaching"
	CardTypeGeneric  CardType = "generic"
)

// Card is a UI-ready coaching card. A grounded card's body is always a
// (possibly truncated) prefix of its source chunk's text, never synthesized.
type Card struct {
	CardID          string   `json:"card_id"`
	Title           string   `json:"title"`
	Body            string   `json:"body"`
	Type            CardType `json:"type"`
	Grounded        bool     `json:"grounded"`
	ConfidenceScore float64  `json:"confidence_score"`
	SourceChunkIDs  []string `json:"source_chunk_ids"`
}
