package models

// SuppressionReason identifies which guardrail rule blocked (or allowed)
// a card. Rules are evaluated in a fixed order; first match wins.
type SuppressionReason string

const (
	ReasonAllowed           SuppressionReason = "allowed"
	ReasonRecentlyHandled   SuppressionReason = "recently_handled"
	ReasonCooldownActive    SuppressionReason = "cooldown_active"
	ReasonDebounceActive    SuppressionReason = "debounce_active"
	ReasonDuplicateType     SuppressionReason = "duplicate_type"
	ReasonRateLimit         SuppressionReason = "rate_limit"
	ReasonDuplicateEvidence SuppressionReason = "duplicate_evidence"
)

// SuppressionDecision is the structured outcome of a should-show check.
// The engine never returns an error; a blocked card is a decision, not a fault.
type SuppressionDecision struct {
	Show             bool              `json:"show"`
	Reason           SuppressionReason `json:"reason"`
	Message          string            `json:"message"`
	RemainingSeconds float64           `json:"remaining_seconds,omitempty"`
}

// ActiveSuppression reports one (type:evidence) pair still inside the
// handled window.
type ActiveSuppression struct {
	Key              string  `json:"key"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}

// ActiveCooldown reports one card category still inside its cooldown.
type ActiveCooldown struct {
	CardType         string  `json:"type"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}

// SuppressionStatus is a read-only diagnostic snapshot of the engine state.
type SuppressionStatus struct {
	ActiveSuppressions  []ActiveSuppression `json:"active_suppressions"`
	ActiveCooldowns     []ActiveCooldown    `json:"active_cooldowns"`
	EvidenceHistorySize int                 `json:"evidence_history_size"`
	CardsShownLast5Min  int                 `json:"cards_shown_last_5min"`
}
