package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/interfaces"
	"github.com/ternarybob/livewire/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the CRM API.
	DefaultBaseURL = "https://api.ghl.com"

	// DefaultTimeout bounds each request independently of the backoff loop.
	DefaultTimeout = 10 * time.Second

	// DefaultRateLimit is the client-side pacing (requests per second).
	DefaultRateLimit = 10
)

// Client posts session notes to the CRM. Failures surface as typed
// errors: *models.RateLimitError for HTTP 429, *models.TransientError for
// timeouts and other failures. Absence of a configured credential
// degrades every push to a recorded mock success - a deliberate
// fail-open contract outside production.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.CrmClient = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets a custom request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets a custom client-side rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new CRM API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  arbor.NewLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// PushNote posts one note to the CRM contact notes endpoint.
func (c *Client) PushNote(ctx context.Context, note *models.CrmNote) (*models.CrmNoteResult, error) {
	if c.apiKey == "" {
		c.logger.Info().
			Str("contact_id", note.ContactID).
			Msg("No CRM API key configured, recording mock success")
		return &models.CrmNoteResult{Mock: true}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &models.TransientError{Cause: fmt.Sprintf("rate limiter wait aborted: %v", err)}
	}

	body, err := json.Marshal(note)
	if err != nil {
		return nil, &models.TransientError{Cause: fmt.Sprintf("failed to encode note: %v", err)}
	}

	endpoint := fmt.Sprintf("%s/contacts/%s/notes", c.baseURL, url.PathEscape(note.ContactID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &models.TransientError{Cause: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A timeout is a retryable transient failure, distinct from the
		// rate-limit class.
		if isTimeout(err) {
			return nil, &models.TransientError{Cause: "request timeout"}
		}
		return nil, &models.TransientError{Cause: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &models.RateLimitError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		return nil, &models.TransientError{Cause: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))}
	}

	result := &models.CrmNoteResult{}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err == nil {
		result.CrmID = parsed.ID
	}

	c.logger.Debug().
		Str("contact_id", note.ContactID).
		Int("status", resp.StatusCode).
		Msg("CRM note pushed")

	return result, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
