package crm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/models"
)

// instantRetryHandler replaces the real sleep with a recorder so retry
// sequences run instantly while the requested delays stay observable.
func instantRetryHandler(maxRetries int, baseDelay time.Duration) (*RetryHandler, *[]time.Duration) {
	h := NewRetryHandler(maxRetries, baseDelay, arbor.NewLogger())
	delays := &[]time.Duration{}
	h.sleep = func(ctx context.Context, d time.Duration) {
		*delays = append(*delays, d)
	}
	return h, delays
}

func TestRetryHandler_Execute(t *testing.T) {
	t.Run("Success on first attempt", func(t *testing.T) {
		h, delays := instantRetryHandler(5, 2*time.Second)

		calls := 0
		outcome := h.Execute(context.Background(), func(ctx context.Context) (*models.CrmNoteResult, error) {
			calls++
			return &models.CrmNoteResult{CrmID: "note_1"}, nil
		})

		assert.Equal(t, models.PushSuccess, outcome.Status)
		assert.Equal(t, 1, outcome.Attempts)
		assert.Equal(t, 1, calls)
		assert.Empty(t, *delays)
	})

	t.Run("Rate limit retries then succeeds", func(t *testing.T) {
		h, delays := instantRetryHandler(5, 2*time.Second)

		calls := 0
		outcome := h.Execute(context.Background(), func(ctx context.Context) (*models.CrmNoteResult, error) {
			calls++
			if calls < 3 {
				return nil, &models.RateLimitError{StatusCode: 429}
			}
			return &models.CrmNoteResult{}, nil
		})

		assert.Equal(t, models.PushSuccess, outcome.Status)
		assert.Equal(t, 3, outcome.Attempts)
		require.Len(t, *delays, 2)
		assert.Equal(t, 2*time.Second, (*delays)[0])
		assert.Equal(t, 4*time.Second, (*delays)[1])
	})

	t.Run("Rate limit budget exhaustion", func(t *testing.T) {
		h, _ := instantRetryHandler(3, time.Second)

		calls := 0
		outcome := h.Execute(context.Background(), func(ctx context.Context) (*models.CrmNoteResult, error) {
			calls++
			return nil, &models.RateLimitError{StatusCode: 429}
		})

		assert.Equal(t, models.PushRateLimitExceeded, outcome.Status)
		assert.Equal(t, 3, outcome.Attempts)
		assert.Equal(t, 3, calls, "Operation must be invoked at most maxRetries times")

		var rateLimited *models.RateLimitError
		assert.ErrorAs(t, outcome.LastError, &rateLimited)
	})

	t.Run("Transient errors share the same budget", func(t *testing.T) {
		h, _ := instantRetryHandler(2, time.Second)

		calls := 0
		outcome := h.Execute(context.Background(), func(ctx context.Context) (*models.CrmNoteResult, error) {
			calls++
			return nil, &models.TransientError{Cause: "request timeout"}
		})

		assert.Equal(t, models.PushError, outcome.Status)
		assert.Equal(t, 2, outcome.Attempts)
		assert.Equal(t, 2, calls)
	})

	t.Run("Delays are non-decreasing and capped", func(t *testing.T) {
		h, delays := instantRetryHandler(8, 2*time.Second)

		h.Execute(context.Background(), func(ctx context.Context) (*models.CrmNoteResult, error) {
			return nil, &models.RateLimitError{StatusCode: 429}
		})

		require.Len(t, *delays, 7)
		for i := 1; i < len(*delays); i++ {
			assert.GreaterOrEqual(t, (*delays)[i], (*delays)[i-1], "Delay %d decreased", i)
		}
		assert.Equal(t, maxBackoffDelay, (*delays)[len(*delays)-1])
	})
}

func TestRetryHandler_Stats(t *testing.T) {
	t.Run("Hits are recorded with a trailing window", func(t *testing.T) {
		h, _ := instantRetryHandler(3, time.Second)
		clock := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
		h.now = func() time.Time { return clock }

		h.Execute(context.Background(), func(ctx context.Context) (*models.CrmNoteResult, error) {
			return nil, &models.RateLimitError{StatusCode: 429}
		})

		stats := h.Stats()
		assert.Equal(t, 3, stats.TotalHits)
		assert.Equal(t, 3, stats.RecentHits5Min)
		assert.False(t, stats.IsBackingOff, "Backoff clears once the sequence terminates")

		clock = clock.Add(10 * time.Minute)
		stats = h.Stats()
		assert.Equal(t, 3, stats.TotalHits)
		assert.Equal(t, 0, stats.RecentHits5Min)
	})

	t.Run("Reset clears tracking", func(t *testing.T) {
		h, _ := instantRetryHandler(2, time.Second)

		h.Execute(context.Background(), func(ctx context.Context) (*models.CrmNoteResult, error) {
			return nil, &models.RateLimitError{StatusCode: 429}
		})
		require.NotZero(t, h.Stats().TotalHits)

		h.Reset()

		stats := h.Stats()
		assert.Zero(t, stats.TotalHits)
		assert.True(t, stats.LastRateLimit.IsZero())
	})
}

func TestBackoffDelay(t *testing.T) {
	h := NewRetryHandler(10, 2*time.Second, arbor.NewLogger())

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second},
		{7, 60 * time.Second},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, h.backoffDelay(tc.attempt), "attempt %d", tc.attempt)
	}
}
