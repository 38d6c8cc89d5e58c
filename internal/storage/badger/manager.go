package badger

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/common"
	"github.com/ternarybob/livewire/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	corpus interfaces.CorpusStorage
	dedupe interfaces.DedupeStorage
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		corpus: NewCorpusStorage(db, logger),
		dedupe: NewDedupeStorage(db, logger),
		logger: logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// CorpusStorage returns the corpus storage interface
func (m *Manager) CorpusStorage() interfaces.CorpusStorage {
	return m.corpus
}

// DedupeStorage returns the dedupe record storage interface
func (m *Manager) DedupeStorage() interfaces.DedupeStorage {
	return m.dedupe
}

// RunValueLogGC triggers badger value log garbage collection. Badger
// returns ErrNoRewrite when there is nothing to collect; that is not
// an error for callers.
func (m *Manager) RunValueLogGC() error {
	err := m.db.Store().Badger().RunValueLogGC(0.5)
	if err == badger.ErrNoRewrite {
		return nil
	}
	return err
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
