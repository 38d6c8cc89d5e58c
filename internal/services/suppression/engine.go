package suppression

import (
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/livewire/internal/common"
	"github.com/ternarybob/livewire/internal/models"
)

const (
	// SuppressionWindow is how long a handled (type, evidence) pair stays
	// suppressed.
	SuppressionWindow = 120 * time.Second

	// duplicateEvidenceWindow rejects the same evidence span re-triggering
	// a card in quick succession.
	duplicateEvidenceWindow = 30 * time.Second

	// rateCapWindow is the trailing window for the shown-cards rate cap.
	rateCapWindow = 5 * time.Minute

	// cleanupHorizon is the age past which bookkeeping entries are purged.
	cleanupHorizon = 600 * time.Second

	// evidenceCapacity bounds the evidence ring buffer.
	evidenceCapacity = 100

	defaultCooldown = 180 * time.Second
)

// cooldownWindows is the per-category minimum gap between handled cards.
// Unknown categories use defaultCooldown.
var cooldownWindows = map[string]time.Duration{
	"price":      300 * time.Second,
	"timing":     180 * time.Second,
	"features":   240 * time.Second,
	"competitor": 300 * time.Second,
	"authority":  180 * time.Second,
	"trust":      240 * time.Second,
}

type evidenceEntry struct {
	span     string
	cardType string
	seenAt   time.Time
}

// Engine is the per-session suppression state machine. Rules are checked
// in a fixed order and the first match wins; the output is always a
// structured decision, never an error.
type Engine struct {
	mu sync.Mutex

	debounce time.Duration
	rateCap  int
	now      func() time.Time

	handled      map[string]time.Time // "type:evidence" -> handled at
	cooldowns    map[string]time.Time // card type -> last handled at
	evidence     []evidenceEntry      // bounded ring, oldest first
	lastCardTime time.Time
	lastCardType string
	shownTimes   []time.Time
}

// NewEngine creates a suppression engine for one session.
func NewEngine(config *common.SuppressionConfig) *Engine {
	return &Engine{
		debounce:  time.Duration(config.DebounceSeconds * float64(time.Second)),
		rateCap:   config.MaxCardsPerWindow,
		now:       time.Now,
		handled:   make(map[string]time.Time),
		cooldowns: make(map[string]time.Time),
	}
}

// ShouldShowCard evaluates the guardrail rules for a candidate card and,
// on acceptance, records the evidence span and show time.
func (e *Engine) ShouldShowCard(cardType, evidenceSpan string) models.SuppressionDecision {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	// a. Evidence-handled window
	handledKey := cardType + ":" + evidenceSpan
	if handledAt, ok := e.handled[handledKey]; ok {
		since := now.Sub(handledAt)
		if since < SuppressionWindow {
			return models.SuppressionDecision{
				Show:             false,
				Reason:           models.ReasonRecentlyHandled,
				Message:          fmt.Sprintf("Card for '%s' already handled %.0fs ago", cardType, since.Seconds()),
				RemainingSeconds: (SuppressionWindow - since).Seconds(),
			}
		}
	}

	// b. Category cooldown
	if lastHandled, ok := e.cooldowns[cardType]; ok {
		cooldown := cooldownFor(cardType)
		since := now.Sub(lastHandled)
		if since < cooldown {
			remaining := cooldown - since
			return models.SuppressionDecision{
				Show:             false,
				Reason:           models.ReasonCooldownActive,
				Message:          fmt.Sprintf("Cooldown active for '%s' (%.0fs remaining)", cardType, remaining.Seconds()),
				RemainingSeconds: remaining.Seconds(),
			}
		}
	}

	// c. Debounce between any two shown cards
	if e.debounce > 0 && !e.lastCardTime.IsZero() {
		since := now.Sub(e.lastCardTime)
		if since < e.debounce {
			remaining := e.debounce - since
			return models.SuppressionDecision{
				Show:             false,
				Reason:           models.ReasonDebounceActive,
				Message:          fmt.Sprintf("Debounce active (%.1fs since last card)", since.Seconds()),
				RemainingSeconds: remaining.Seconds(),
			}
		}
	}

	// d. Repeat-type guard
	if e.lastCardType != "" && e.lastCardType == cardType {
		return models.SuppressionDecision{
			Show:    false,
			Reason:  models.ReasonDuplicateType,
			Message: fmt.Sprintf("Immediately preceding card was also '%s'", cardType),
		}
	}

	// e. Rate cap over the trailing window
	if e.recentShownLocked(now) >= e.rateCap {
		return models.SuppressionDecision{
			Show:    false,
			Reason:  models.ReasonRateLimit,
			Message: fmt.Sprintf("Rate limit: %d cards shown in the last 5 minutes", e.rateCap),
		}
	}

	// f. Duplicate-evidence guard
	for _, entry := range e.evidence {
		if entry.span == evidenceSpan && now.Sub(entry.seenAt) < duplicateEvidenceWindow {
			return models.SuppressionDecision{
				Show:    false,
				Reason:  models.ReasonDuplicateEvidence,
				Message: "Same evidence span triggered multiple cards",
			}
		}
	}

	e.evidence = append(e.evidence, evidenceEntry{span: evidenceSpan, cardType: cardType, seenAt: now})
	if len(e.evidence) > evidenceCapacity {
		e.evidence = e.evidence[len(e.evidence)-evidenceCapacity:]
	}
	e.lastCardTime = now
	e.lastCardType = cardType
	e.shownTimes = append(e.shownTimes, now)

	return models.SuppressionDecision{
		Show:    true,
		Reason:  models.ReasonAllowed,
		Message: "Card passes all suppression checks",
	}
}

// MarkHandled records that the rep acted on a card; it starts both the
// evidence-handled window and the category cooldown.
func (e *Engine) MarkHandled(cardType, evidenceSpan string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.handled[cardType+":"+evidenceSpan] = now
	e.cooldowns[cardType] = now
	e.cleanupLocked(now)
}

// Cleanup purges entries older than the fixed horizon. Returns the number
// of entries removed.
func (e *Engine) Cleanup() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cleanupLocked(e.now())
}

func (e *Engine) cleanupLocked(now time.Time) int {
	removed := 0

	for key, ts := range e.handled {
		if now.Sub(ts) >= cleanupHorizon {
			delete(e.handled, key)
			removed++
		}
	}
	for cardType, ts := range e.cooldowns {
		if now.Sub(ts) >= cooldownFor(cardType) {
			delete(e.cooldowns, cardType)
			removed++
		}
	}

	kept := e.evidence[:0]
	for _, entry := range e.evidence {
		if now.Sub(entry.seenAt) < cleanupHorizon {
			kept = append(kept, entry)
		} else {
			removed++
		}
	}
	e.evidence = kept

	times := e.shownTimes[:0]
	for _, ts := range e.shownTimes {
		if now.Sub(ts) < rateCapWindow {
			times = append(times, ts)
		}
	}
	e.shownTimes = times

	return removed
}

// Reset clears all state at a session boundary.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.handled = make(map[string]time.Time)
	e.cooldowns = make(map[string]time.Time)
	e.evidence = nil
	e.lastCardTime = time.Time{}
	e.lastCardType = ""
	e.shownTimes = nil
}

// Status returns a read-only diagnostic snapshot.
func (e *Engine) Status() models.SuppressionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	status := models.SuppressionStatus{
		ActiveSuppressions:  []models.ActiveSuppression{},
		ActiveCooldowns:     []models.ActiveCooldown{},
		EvidenceHistorySize: len(e.evidence),
		CardsShownLast5Min:  e.recentShownLocked(now),
	}

	for key, ts := range e.handled {
		if remaining := SuppressionWindow - now.Sub(ts); remaining > 0 {
			status.ActiveSuppressions = append(status.ActiveSuppressions, models.ActiveSuppression{
				Key:              key,
				RemainingSeconds: remaining.Seconds(),
			})
		}
	}
	for cardType, ts := range e.cooldowns {
		if remaining := cooldownFor(cardType) - now.Sub(ts); remaining > 0 {
			status.ActiveCooldowns = append(status.ActiveCooldowns, models.ActiveCooldown{
				CardType:         cardType,
				RemainingSeconds: remaining.Seconds(),
			})
		}
	}

	return status
}

func (e *Engine) recentShownLocked(now time.Time) int {
	count := 0
	for _, ts := range e.shownTimes {
		if now.Sub(ts) < rateCapWindow {
			count++
		}
	}
	return count
}

func cooldownFor(cardType string) time.Duration {
	if window, ok := cooldownWindows[cardType]; ok {
		return window
	}
	return defaultCooldown
}
