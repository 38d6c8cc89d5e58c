package models

import "time"

// PushRequest carries one session artifact bound for the CRM. Validation
// failures are fatal and name the first offending field.
type PushRequest struct {
	SessionID    string       `json:"session_id" validate:"required"`
	ArtifactType ArtifactType `json:"artifact_type" validate:"required,oneof=call_summary tasks tags"`
	Summary      string       `json:"summary"`
	Tasks        []string     `json:"tasks"`
	Tags         []string     `json:"tags"`
	ContactID    string       `json:"contact_id" validate:"required"`
}

// Payload returns the canonical dedupe payload for this request. The map
// is hashed with sorted keys so equivalent payloads always collide.
func (r *PushRequest) Payload() map[string]any {
	return map[string]any{
		"summary": r.Summary,
		"tasks":   r.Tasks,
		"tags":    r.Tags,
	}
}

// CrmNote is the JSON body posted to the CRM notes endpoint.
type CrmNote struct {
	Note        string   `json:"note"`
	ActionItems []string `json:"action_items"`
	Categories  []string `json:"categories"`
	Timestamp   string   `json:"timestamp"`
	Source      string   `json:"source"`
	ContactID   string   `json:"contact_id"`
}

// CrmNoteResult is the transport-level outcome of a single accepted push.
type CrmNoteResult struct {
	CrmID string `json:"crm_id,omitempty"`
	Mock  bool   `json:"mock,omitempty"`
}

// IngestResult summarizes a completed corpus replacement.
type IngestResult struct {
	Generation string        `json:"generation"`
	SourceFile string        `json:"source_file"`
	ChunkCount int           `json:"chunk_count"`
	Duration   time.Duration `json:"duration"`
}
