package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/livewire/internal/models"
)

func testNote() *models.CrmNote {
	return &models.CrmNote{
		Note:        "SUMMARY\nDiscussed pricing and timeline",
		ActionItems: []string{"Send proposal by Friday"},
		Categories:  []string{"objection_price"},
		Timestamp:   time.Now().Format(time.RFC3339),
		Source:      "livewire",
		ContactID:   "contact_42",
	}
}

func TestClient_PushNote(t *testing.T) {
	t.Run("Successful push parses the note id", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody models.CrmNote
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"note_abc"}`))
		}))
		defer server.Close()

		client := NewClient("test-key", WithBaseURL(server.URL))
		result, err := client.PushNote(context.Background(), testNote())

		require.NoError(t, err)
		assert.Equal(t, "note_abc", result.CrmID)
		assert.False(t, result.Mock)
		assert.Equal(t, "/contacts/contact_42/notes", gotPath)
		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, "contact_42", gotBody.ContactID)
		assert.Equal(t, "livewire", gotBody.Source)
	})

	t.Run("HTTP 429 surfaces as a rate limit error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient("test-key", WithBaseURL(server.URL))
		_, err := client.PushNote(context.Background(), testNote())

		var rateLimited *models.RateLimitError
		require.ErrorAs(t, err, &rateLimited)
		assert.Equal(t, http.StatusTooManyRequests, rateLimited.StatusCode)
	})

	t.Run("HTTP 5xx surfaces as a transient error with the body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("upstream exploded"))
		}))
		defer server.Close()

		client := NewClient("test-key", WithBaseURL(server.URL))
		_, err := client.PushNote(context.Background(), testNote())

		var transient *models.TransientError
		require.ErrorAs(t, err, &transient)
		assert.Contains(t, transient.Error(), "HTTP 500")
		assert.Contains(t, transient.Error(), "upstream exploded")
	})

	t.Run("Timeout surfaces as a transient error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := NewClient("test-key", WithBaseURL(server.URL), WithTimeout(20*time.Millisecond))
		_, err := client.PushNote(context.Background(), testNote())

		var transient *models.TransientError
		require.ErrorAs(t, err, &transient)
		assert.Contains(t, transient.Error(), "timeout")
	})

	t.Run("Missing API key records a mock success without touching the network", func(t *testing.T) {
		hits := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
		}))
		defer server.Close()

		client := NewClient("", WithBaseURL(server.URL))
		result, err := client.PushNote(context.Background(), testNote())

		require.NoError(t, err)
		assert.True(t, result.Mock)
		assert.Zero(t, hits)
	})
}
