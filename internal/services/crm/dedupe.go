package crm

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/livewire/internal/models"
)

// hashPayload creates a deterministic content hash of a payload.
// encoding/json marshals map keys in sorted order, so equivalent payloads
// always hash identically.
func hashPayload(payload map[string]any) (string, error) {
	normalized, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}
	sum := sha256.Sum256(normalized)
	return hex.EncodeToString(sum[:]), nil
}

// dedupeKey builds the duplicate-detection identifier for one CRM write.
func dedupeKey(sessionID string, artifactType models.ArtifactType, payloadHash string) string {
	return fmt.Sprintf("%s:%s:%s", sessionID, artifactType, payloadHash)
}
