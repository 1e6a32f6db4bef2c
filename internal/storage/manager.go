// Package storage provides the top-level StorageManager for Tally.
package storage

import (
	"fmt"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/storage/ledgerdb"
)

// Manager implements interfaces.StorageManager. Tally keeps everything the
// core writes (accounts, holdings, records, outbox) in the single ledger
// area so business operations commit atomically.
type Manager struct {
	ledger *ledgerdb.Store
	logger *common.Logger
}

// NewManager creates a StorageManager from config.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ledgerStore, err := ledgerdb.NewStore(logger, config.Storage.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger store: %w", err)
	}

	logger.Info().
		Str("ledger", config.Storage.Ledger.Path).
		Msg("Storage manager initialized")

	return &Manager{ledger: ledgerStore, logger: logger}, nil
}

func (m *Manager) LedgerStore() interfaces.LedgerStore {
	return m.ledger
}

func (m *Manager) Close() error {
	return m.ledger.Close()
}

var _ interfaces.StorageManager = (*Manager)(nil)
