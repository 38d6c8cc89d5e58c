package suppression

import (
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/common"
	"github.com/ternarybob/livewire/internal/interfaces"
	"github.com/ternarybob/livewire/internal/models"
)

// Manager implements the SuppressionService interface over a process-wide
// store of per-session engines. Sessions are logically independent; only
// the session map itself is shared.
type Manager struct {
	mu      sync.Mutex
	config  *common.SuppressionConfig
	engines map[string]*Engine
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.SuppressionService = (*Manager)(nil)

// NewManager creates a new suppression manager
func NewManager(config *common.SuppressionConfig, logger arbor.ILogger) *Manager {
	return &Manager{
		config:  config,
		engines: make(map[string]*Engine),
		logger:  logger,
	}
}

// engine returns the session's engine, creating it on first use.
func (m *Manager) engine(sessionID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.engines[sessionID]; ok {
		return e
	}
	e := NewEngine(m.config)
	m.engines[sessionID] = e
	return e
}

func (m *Manager) ShouldShowCard(sessionID, cardType, evidenceSpan string) models.SuppressionDecision {
	decision := m.engine(sessionID).ShouldShowCard(cardType, evidenceSpan)

	if !decision.Show {
		m.logger.Info().
			Str("session_id", sessionID).
			Str("card_type", cardType).
			Str("reason", string(decision.Reason)).
			Msg("Card blocked")
	} else {
		m.logger.Debug().
			Str("session_id", sessionID).
			Str("card_type", cardType).
			Msg("Card allowed")
	}

	return decision
}

func (m *Manager) MarkHandled(sessionID, cardType, evidenceSpan string) {
	m.engine(sessionID).MarkHandled(cardType, evidenceSpan)
}

func (m *Manager) GetSuppressionStatus(sessionID string) models.SuppressionStatus {
	return m.engine(sessionID).Status()
}

// Reset clears state for a session at its boundary and drops the engine.
func (m *Manager) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.engines[sessionID]; ok {
		e.Reset()
		delete(m.engines, sessionID)
	}
	m.logger.Info().Str("session_id", sessionID).Msg("Suppression state reset")
}

// Cleanup purges stale entries across all sessions.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, e := range m.engines {
		engines = append(engines, e)
	}
	m.mu.Unlock()

	removed := 0
	for _, e := range engines {
		removed += e.Cleanup()
	}
	return removed
}
