package models

import "time"

// ChunkMetadata describes where a chunk came from in the source document.
type ChunkMetadata struct {
	SourceFile string    `json:"source_file"`
	Page       int       `json:"page,omitempty"`
	Section    string    `json:"section,omitempty"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Chunk is a bounded unit of playbook text with its embedding vector.
// Chunks are immutable once written; their lifetime is the corpus lifetime.
type Chunk struct {
	ChunkID     string        `json:"chunk_id" badgerhold:"key"`
	Generation  string        `json:"generation" badgerholdIndex:"Generation"`
	Position    int           `json:"position"` // insertion order within the corpus
	TextContent string        `json:"text_content"`
	Embedding   []float32     `json:"embedding"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// RetrievalResult is a per-query, ephemeral view of a chunk that cleared
// the grounding threshold. Score is raw squared L2 distance (lower = closer).
type RetrievalResult struct {
	ChunkID     string        `json:"chunk_id"`
	Score       float64       `json:"score"`
	Confidence  float64       `json:"confidence"`
	TextContent string        `json:"text_content"`
	Metadata    ChunkMetadata `json:"metadata"`
}
