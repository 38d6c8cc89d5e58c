package suppression

import (
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/common"
)

func newTestManager() *Manager {
	return NewManager(&common.SuppressionConfig{
		DebounceSeconds:   0,
		MaxCardsPerWindow: 3,
	}, arbor.NewLogger())
}

func TestManager_SessionIsolation(t *testing.T) {
	m := newTestManager()

	m.MarkHandled("session_a", "price", "it's too expensive")

	// Another session is untouched by session_a's handled state.
	decision := m.ShouldShowCard("session_b", "price", "it's too expensive")
	if !decision.Show {
		t.Errorf("Expected session_b unaffected by session_a, got %+v", decision)
	}

	decision = m.ShouldShowCard("session_a", "price", "it's too expensive")
	if decision.Show {
		t.Errorf("Expected session_a still suppressed, got %+v", decision)
	}
}

func TestManager_Reset(t *testing.T) {
	m := newTestManager()

	m.MarkHandled("session_a", "price", "evidence")
	m.Reset("session_a")

	decision := m.ShouldShowCard("session_a", "price", "evidence")
	if !decision.Show {
		t.Errorf("Expected clean engine after reset, got %+v", decision)
	}

	// Resetting an unknown session is a no-op, not a fault.
	m.Reset("session_never_seen")
}

func TestManager_Cleanup(t *testing.T) {
	m := newTestManager()

	m.ShouldShowCard("session_a", "price", "evidence a")
	m.ShouldShowCard("session_b", "timing", "evidence b")

	// Nothing is stale yet; cleanup must not disturb live state.
	m.Cleanup()

	if m.GetSuppressionStatus("session_a").EvidenceHistorySize != 1 {
		t.Error("Cleanup removed live evidence for session_a")
	}
	if m.GetSuppressionStatus("session_b").EvidenceHistorySize != 1 {
		t.Error("Cleanup removed live evidence for session_b")
	}
}
