// Package ledgerdb implements interfaces.LedgerStore using BadgerHold.
// It holds accounts, holdings, transaction and trade records, and the
// notification outbox in one database so that every business operation can
// commit as a single Badger transaction.
package ledgerdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
)

// maxUpdateRetries bounds retries of a transaction that lost a write
// conflict. Badger detects conflicts at commit (SSI), so a retry re-reads
// current state before re-applying.
const maxUpdateRetries = 8

// Store implements interfaces.LedgerStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	seq    *badger.Sequence
	logger *common.Logger
}

// NewStore opens (or creates) the ledger database at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledgerdb path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledgerdb at %s: %w", path, err)
	}

	// Record sequence: preserves insertion order across records that share
	// a timestamp. Allocated in bands; gaps from aborted transactions are
	// acceptable, ordering is not affected.
	seq, err := db.Badger().GetSequence([]byte("!record-seq"), 128)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open record sequence: %w", err)
	}

	logger.Info().Str("path", path).Msg("LedgerDB opened")
	return &Store{db: db, seq: seq, logger: logger}, nil
}

// nextSeq returns the next record sequence number, starting at 1.
func (s *Store) nextSeq() (uint64, error) {
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to advance record sequence: %w", err)
	}
	return n + 1, nil
}

// keySep is the composite key separator. Using a null byte prevents
// collisions when a key part contains ":" characters.
const keySep = "\x00"

// Update runs fn in a read-write transaction. Badger write conflicts are
// retried with a short backoff; any other error, in particular the domain
// errors raised by fn, aborts the transaction and propagates unchanged.
func (s *Store) Update(ctx context.Context, fn func(tx interfaces.LedgerTx) error) error {
	for attempt := 0; ; attempt++ {
		err := s.db.Badger().Update(func(btx *badger.Txn) error {
			return fn(&Tx{store: s, btx: btx})
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxUpdateRetries {
			return err
		}
		s.logger.Debug().Int("attempt", attempt+1).Msg("LedgerDB write conflict, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * time.Millisecond):
		}
	}
}

// View runs fn against a consistent read-only snapshot.
func (s *Store) View(ctx context.Context, fn func(tx interfaces.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Badger().View(func(btx *badger.Txn) error {
		return fn(&Tx{store: s, btx: btx})
	})
}

// Close releases the record sequence and closes the database.
func (s *Store) Close() error {
	if s.seq != nil {
		s.seq.Release()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ interfaces.LedgerStore = (*Store)(nil)
