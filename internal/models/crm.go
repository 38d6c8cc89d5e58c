package models

import "time"

// ArtifactType enumerates the session artifacts pushed to the CRM at
// session end.
type ArtifactType string

const (
	ArtifactCallSummary ArtifactType = "call_summary"
	ArtifactTasks       ArtifactType = "tasks"
	ArtifactTags        ArtifactType = "tags"
)

// DedupeStatus tracks the lifecycle of a persisted CRM push record.
type DedupeStatus string

const (
	DedupeInProgress DedupeStatus = "in_progress"
	DedupeCompleted  DedupeStatus = "completed"
	DedupeFailed     DedupeStatus = "failed"
)

// DedupeRecord is the persisted idempotency record for one CRM write.
// The dedupe key is session_id + artifact_type + payload hash, so an
// identical retry maps onto the same record.
type DedupeRecord struct {
	DedupeKey    string       `json:"dedupe_key" badgerhold:"key"`
	SessionID    string       `json:"session_id" badgerholdIndex:"SessionID"`
	ArtifactType ArtifactType `json:"artifact_type"`
	PayloadHash  string       `json:"payload_hash"`
	Status       DedupeStatus `json:"status"`
	Attempts     int          `json:"attempts"`
	CreatedAt    time.Time    `json:"created_at"`
	CompletedAt  time.Time    `json:"completed_at,omitempty"`
}

// PushStatus classifies the terminal outcome of a delivery attempt sequence.
type PushStatus string

const (
	PushSuccess           PushStatus = "success"
	PushError             PushStatus = "error"
	PushRateLimitExceeded PushStatus = "rate_limit_exceeded"
	PushSkipped           PushStatus = "skipped"
)

// CrmPushResult is the structured outcome returned to callers of the
// delivery layer. UserMessage is populated only for retryable outcomes.
type CrmPushResult struct {
	Status      PushStatus `json:"status"`
	Attempts    int        `json:"attempts"`
	ArtifactIDs []string   `json:"artifact_ids,omitempty"`
	DedupeKey   string     `json:"dedupe_key,omitempty"`
	Retryable   bool       `json:"retryable"`
	LastError   string     `json:"last_error,omitempty"`
	UserMessage string     `json:"user_message,omitempty"`
	Mock        bool       `json:"mock,omitempty"`
}

// RateLimitState is the operator-facing projection of recent rate-limit
// pressure on the CRM connection.
type RateLimitState string

const (
	RateLimitNormal     RateLimitState = "normal"
	RateLimitBackingOff RateLimitState = "backing_off"
	RateLimitActive     RateLimitState = "rate_limited"
)

// RateLimitStatus is derived read-only from the trailing hit window and
// current backoff; it never influences delivery behavior.
type RateLimitStatus struct {
	Status         RateLimitState `json:"status"`
	RecentHits     int            `json:"recent_hits"`
	CurrentBackoff float64        `json:"current_backoff"`
	Message        string         `json:"message"`
}

// RateLimitHit records one 429 observed during a backoff sequence.
type RateLimitHit struct {
	Timestamp time.Time     `json:"timestamp"`
	Attempt   int           `json:"attempt"`
	Delay     time.Duration `json:"delay"`
}
