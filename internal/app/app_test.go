package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/common"
	"github.com/ternarybob/livewire/internal/models"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	config := common.DefaultConfig()
	config.Storage.Badger.Path = filepath.Join(t.TempDir(), "livewire-test")
	config.Embedding.Provider = "local"
	config.CRM.APIKey = "" // mock transport

	application, err := New(context.Background(), config, arbor.NewLogger())
	if err != nil {
		t.Fatalf("Failed to initialize application: %v", err)
	}
	t.Cleanup(func() { application.Close() })
	return application
}

func ingestPlaybook(t *testing.T, application *App, content string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "playbook.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write playbook: %v", err)
	}
	if _, err := application.IngestService.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if err := application.RetrievalService.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
}

// End-to-end: ingest -> retrieve -> cards, covering the grounded and
// fallback paths through the real wiring.
func TestApp_CoachingPipeline(t *testing.T) {
	application := newTestApp(t)
	ingestPlaybook(t, application, "Pricing starts at $99/mo for the Standard plan.\n")

	t.Run("On-topic query yields one grounded card with the exact source text", func(t *testing.T) {
		results := application.RetrievalService.Retrieve(context.Background(),
			"Pricing starts at what for the Standard plan?", 3)
		if len(results) != 1 {
			t.Fatalf("Expected 1 grounded result, got %d", len(results))
		}

		generated := application.CardService.GenerateCards("", results)
		if len(generated) != 1 {
			t.Fatalf("Expected 1 card, got %d", len(generated))
		}
		card := generated[0]
		if !card.Grounded {
			t.Error("Expected grounded card")
		}
		if card.Body != "Pricing starts at $99/mo for the Standard plan." {
			t.Errorf("Card body must equal the source chunk text, got %q", card.Body)
		}
	})

	t.Run("Off-topic query falls back to the generic card", func(t *testing.T) {
		results := application.RetrievalService.Retrieve(context.Background(),
			"What is the weather in Tokyo?", 3)
		if len(results) != 0 {
			t.Fatalf("Expected no grounded results, got %d", len(results))
		}

		generated := application.CardService.GenerateCards("", results)
		if len(generated) != 1 || generated[0].Grounded {
			t.Fatalf("Expected exactly one ungrounded fallback, got %+v", generated)
		}
	})

	t.Run("Suppression gates a generated card before display", func(t *testing.T) {
		sessionID := common.NewSessionID()

		decision := application.SuppressionService.ShouldShowCard(sessionID, "price", "how much does it cost")
		if !decision.Show {
			t.Fatalf("First card should show, got %+v", decision)
		}

		application.SuppressionService.MarkHandled(sessionID, "price", "how much does it cost")
		decision = application.SuppressionService.ShouldShowCard(sessionID, "price", "how much does it cost")
		if decision.Show || decision.Reason != models.ReasonRecentlyHandled {
			t.Errorf("Expected recently_handled, got %+v", decision)
		}

		application.SuppressionService.Reset(sessionID)
	})
}

func TestApp_SessionEndDelivery(t *testing.T) {
	application := newTestApp(t)

	req := &models.PushRequest{
		SessionID:    "session_e2e",
		ArtifactType: models.ArtifactCallSummary,
		Summary:      "Discussed Standard plan pricing and the rollout timeline",
		Tasks:        []string{"Send the Standard plan pricing sheet", "Schedule the rollout planning call"},
		Tags:         []string{"price", "demo"},
		ContactID:    "contact_e2e",
	}

	result := application.DeliveryService.PushSessionArtifacts(context.Background(), req)
	if result.Status != models.PushSuccess {
		t.Fatalf("Expected success, got %+v", result)
	}
	if !result.Mock {
		t.Error("Expected mock success without a CRM credential")
	}

	repeat := application.DeliveryService.PushSessionArtifacts(context.Background(), req)
	if repeat.Status != models.PushSkipped {
		t.Errorf("Expected duplicate skipped, got %+v", repeat)
	}

	status := application.DeliveryService.GetRateLimitStatus()
	if status.Status != models.RateLimitNormal {
		t.Errorf("Expected normal rate limit status, got %+v", status)
	}
}

func TestApp_RejectsUnknownIdempotencyMode(t *testing.T) {
	config := common.DefaultConfig()
	config.Storage.Badger.Path = filepath.Join(t.TempDir(), "livewire-test")
	config.CRM.Idempotency = "hybrid"

	if _, err := New(context.Background(), config, arbor.NewLogger()); err == nil {
		t.Fatal("Expected error for unknown idempotency mode")
	}
}
