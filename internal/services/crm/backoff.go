package crm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/models"
)

const (
	// maxBackoffDelay caps the exponential delay between retries.
	maxBackoffDelay = 60 * time.Second

	// hitLogCapacity bounds the trailing rate-limit hit log.
	hitLogCapacity = 100

	// recentHitWindow is the trailing window for operator status.
	recentHitWindow = 5 * time.Minute
)

// ExecuteResult is the terminal outcome of a backoff-managed operation.
type ExecuteResult struct {
	Status    models.PushStatus
	Result    *models.CrmNoteResult
	Attempts  int
	LastError error
}

// RetryStats is a read-only snapshot of rate-limit pressure.
type RetryStats struct {
	TotalHits      int
	RecentHits5Min int
	CurrentBackoff time.Duration
	LastRateLimit  time.Time
	IsBackingOff   bool
}

// RetryHandler executes CRM operations with exponential backoff. Rate
// limits and transient errors share one bounded retry budget; retries are
// never unbounded, which is what prevents request storms against an
// already-limited provider.
type RetryHandler struct {
	maxRetries int
	baseDelay  time.Duration
	logger     arbor.ILogger

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)

	mu             sync.Mutex
	hits           []models.RateLimitHit
	currentBackoff time.Duration
	lastRateLimit  time.Time
}

// NewRetryHandler creates a retry handler with the given budget
func NewRetryHandler(maxRetries int, baseDelay time.Duration, logger arbor.ILogger) *RetryHandler {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return &RetryHandler{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Execute invokes the operation, classifying each attempt via the typed
// error kinds and retrying with exponential backoff. The operation is
// invoked at most maxRetries times.
func (h *RetryHandler) Execute(ctx context.Context, op func(ctx context.Context) (*models.CrmNoteResult, error)) ExecuteResult {
	var lastErr error

	for attempt := 1; attempt <= h.maxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			h.setBackoff(0)
			h.logger.Info().Int("attempt", attempt).Msg("CRM request successful")
			return ExecuteResult{Status: models.PushSuccess, Result: result, Attempts: attempt}
		}
		lastErr = err

		delay := h.backoffDelay(attempt)

		var rateLimited *models.RateLimitError
		if errors.As(err, &rateLimited) {
			h.recordHit(attempt, delay)

			if attempt < h.maxRetries {
				h.logger.Warn().
					Int("attempt", attempt).
					Dur("delay", delay).
					Msg("Rate limited, backing off before retry")
				h.wait(ctx, delay)
				continue
			}

			h.logger.Error().Int("attempts", attempt).Msg("Rate limit retries exhausted")
			return ExecuteResult{Status: models.PushRateLimitExceeded, Attempts: attempt, LastError: lastErr}
		}

		// Anything else - typed transient errors and unexpected failures
		// alike - folds into the same retry budget.
		if attempt < h.maxRetries {
			h.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("CRM request failed, retrying")
			h.wait(ctx, delay)
			continue
		}

		h.logger.Error().Err(err).Int("attempts", attempt).Msg("CRM retries exhausted")
		return ExecuteResult{Status: models.PushError, Attempts: attempt, LastError: lastErr}
	}

	return ExecuteResult{Status: models.PushError, Attempts: h.maxRetries, LastError: lastErr}
}

// backoffDelay returns min(base * 2^(attempt-1), cap). Delays are
// non-decreasing across consecutive retries until the cap.
func (h *RetryHandler) backoffDelay(attempt int) time.Duration {
	delay := h.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoffDelay {
			return maxBackoffDelay
		}
	}
	if delay > maxBackoffDelay {
		return maxBackoffDelay
	}
	return delay
}

func (h *RetryHandler) wait(ctx context.Context, delay time.Duration) {
	h.setBackoff(delay)
	h.sleep(ctx, delay)
	h.setBackoff(0)
}

func (h *RetryHandler) setBackoff(delay time.Duration) {
	h.mu.Lock()
	h.currentBackoff = delay
	h.mu.Unlock()
}

func (h *RetryHandler) recordHit(attempt int, delay time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastRateLimit = h.now()
	h.hits = append(h.hits, models.RateLimitHit{Timestamp: h.lastRateLimit, Attempt: attempt, Delay: delay})
	if len(h.hits) > hitLogCapacity {
		h.hits = h.hits[len(h.hits)-hitLogCapacity:]
	}
}

// Stats returns rate limiting statistics.
func (h *RetryHandler) Stats() RetryStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	recent := 0
	for _, hit := range h.hits {
		if now.Sub(hit.Timestamp) < recentHitWindow {
			recent++
		}
	}

	return RetryStats{
		TotalHits:      len(h.hits),
		RecentHits5Min: recent,
		CurrentBackoff: h.currentBackoff,
		LastRateLimit:  h.lastRateLimit,
		IsBackingOff:   h.currentBackoff > 0,
	}
}

// Reset clears rate limit tracking.
func (h *RetryHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hits = nil
	h.currentBackoff = 0
	h.lastRateLimit = time.Time{}
}

// sleepContext blocks for the delay; the observable contract is only that
// no further attempt starts before the delay elapses.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
