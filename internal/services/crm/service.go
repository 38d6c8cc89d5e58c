package crm

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/interfaces"
	"github.com/ternarybob/livewire/internal/models"
)

// crmSource identifies this system in pushed notes.
const crmSource = "livewire"

// Service is the session-end delivery pipeline: validate the artifact,
// short-circuit duplicates before any network call, then push under the
// bounded backoff budget.
type Service struct {
	client      interfaces.CrmClient
	idempotency interfaces.IdempotencyStore
	retry       *RetryHandler
	validate    *validator.Validate
	logger      arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.DeliveryService = (*Service)(nil)

// NewService creates the CRM delivery service
func NewService(client interfaces.CrmClient, idempotency interfaces.IdempotencyStore, retry *RetryHandler, logger arbor.ILogger) *Service {
	v := validator.New()

	// Report violations by JSON field name so callers see the wire name,
	// not the Go struct field.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		client:      client,
		idempotency: idempotency,
		retry:       retry,
		validate:    v,
		logger:      logger,
	}
}

// Validate checks required-field presence and type on a push request.
// Failures are fatal and never retried.
func (s *Service) Validate(req *models.PushRequest) *models.ValidationError {
	if err := s.validate.Struct(req); err != nil {
		if violations, ok := err.(validator.ValidationErrors); ok && len(violations) > 0 {
			first := violations[0]
			return &models.ValidationError{
				Field:   first.Field(),
				Message: fmt.Sprintf("failed '%s' constraint", first.Tag()),
			}
		}
		return &models.ValidationError{Field: "request", Message: err.Error()}
	}
	return nil
}

// PushSessionArtifacts pushes one session artifact to the CRM with
// idempotency and rate-limit handling. The returned result is always
// structured; no error escapes this boundary.
func (s *Service) PushSessionArtifacts(ctx context.Context, req *models.PushRequest) *models.CrmPushResult {
	if vErr := s.Validate(req); vErr != nil {
		s.logger.Error().Str("field", vErr.Field).Msg("Push request validation failed")
		return &models.CrmPushResult{
			Status:    models.PushError,
			Retryable: false,
			LastError: vErr.Error(),
		}
	}

	isDuplicate, key, err := s.idempotency.CheckAndMark(req.SessionID, req.ArtifactType, req.Payload())
	if err != nil {
		return &models.CrmPushResult{
			Status:    models.PushError,
			Retryable: false,
			LastError: err.Error(),
		}
	}
	if isDuplicate {
		s.logger.Info().
			Str("session_id", req.SessionID).
			Str("dedupe_key", key).
			Msg("Skipping duplicate CRM push")
		return &models.CrmPushResult{
			Status:    models.PushSkipped,
			DedupeKey: key,
			Retryable: false,
		}
	}

	note := &models.CrmNote{
		Note:        req.Summary,
		ActionItems: NormalizeTasks(req.Tasks),
		Categories:  NormalizeTags(req.Tags),
		Timestamp:   time.Now().Format(time.RFC3339),
		Source:      crmSource,
		ContactID:   req.ContactID,
	}

	outcome := s.retry.Execute(ctx, func(ctx context.Context) (*models.CrmNoteResult, error) {
		return s.client.PushNote(ctx, note)
	})

	switch outcome.Status {
	case models.PushSuccess:
		if err := s.idempotency.MarkCompleted(key); err != nil {
			s.logger.Warn().Err(err).Str("dedupe_key", key).Msg("Failed to mark push completed")
		}
		result := &models.CrmPushResult{
			Status:      models.PushSuccess,
			Attempts:    outcome.Attempts,
			ArtifactIDs: artifactIDs(req.ArtifactType, key),
			DedupeKey:   key,
			Retryable:   false,
		}
		if outcome.Result != nil {
			result.Mock = outcome.Result.Mock
		}
		return result

	case models.PushRateLimitExceeded:
		s.markFailed(key)
		return &models.CrmPushResult{
			Status:      models.PushRateLimitExceeded,
			Attempts:    outcome.Attempts,
			DedupeKey:   key,
			Retryable:   true,
			LastError:   errString(outcome.LastError),
			UserMessage: "CRM is rate limiting - will retry automatically",
		}

	default:
		s.markFailed(key)
		return &models.CrmPushResult{
			Status:      models.PushError,
			Attempts:    outcome.Attempts,
			DedupeKey:   key,
			Retryable:   true,
			LastError:   errString(outcome.LastError),
			UserMessage: "Failed to update CRM - please try again",
		}
	}
}

// GetRateLimitStatus derives the operator-facing projection from the
// trailing hit window and current backoff state.
func (s *Service) GetRateLimitStatus() models.RateLimitStatus {
	stats := s.retry.Stats()

	state := models.RateLimitNormal
	message := "CRM connection normal"
	switch {
	case stats.IsBackingOff:
		state = models.RateLimitBackingOff
		message = fmt.Sprintf("Waiting %.0fs due to rate limit", stats.CurrentBackoff.Seconds())
	case stats.RecentHits5Min > 3:
		state = models.RateLimitActive
		message = "CRM rate limit active - requests may be delayed"
	}

	return models.RateLimitStatus{
		Status:         state,
		RecentHits:     stats.RecentHits5Min,
		CurrentBackoff: stats.CurrentBackoff.Seconds(),
		Message:        message,
	}
}

func (s *Service) markFailed(key string) {
	if err := s.idempotency.MarkFailed(key); err != nil {
		s.logger.Warn().Err(err).Str("dedupe_key", key).Msg("Failed to mark push failed")
	}
}

// artifactIDs synthesizes deterministic identifiers for created records
// from the dedupe key, so a re-push of identical content yields identical
// ids.
func artifactIDs(artifactType models.ArtifactType, dedupeKey string) []string {
	parts := strings.Split(dedupeKey, ":")
	hash := parts[len(parts)-1]
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return []string{fmt.Sprintf("%s_%s", artifactType, hash)}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
