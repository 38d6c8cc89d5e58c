package common

import (
	"github.com/google/uuid"
)

// NewChunkID generates a unique chunk ID with the "chunk_" prefix.
// IDs are globally unique but not deterministic across ingestion runs.
func NewChunkID() string {
	return "chunk_" + uuid.New().String()
}

// NewGenerationID generates a corpus generation ID with the "gen_" prefix
func NewGenerationID() string {
	return "gen_" + uuid.New().String()
}

// NewSessionID generates a coaching session ID with the "session_" prefix
func NewSessionID() string {
	return "session_" + uuid.New().String()
}
