// Package badger implements filetree.Store on top of BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// defaultMaxRetries bounds how often Update re-runs a transaction that lost
// an optimistic concurrency race.
const defaultMaxRetries = 16

// BadgerStore implements filetree.Store using BadgerDB for persistence.
//
// Key Features:
//   - Persistent storage with crash recovery (WAL-based)
//   - Serializable snapshot transactions (MVCC)
//   - Range scans over a scope's path index
//
// Concurrency:
// BadgerDB detects read/write conflicts at commit time. Update transparently
// re-runs the callback on badger.ErrConflict, so two transactions racing to
// insert the same (scope, path) converge: the loser re-reads, finds the
// winner's object and reports ErrAlreadyExists.
//
// Storage Model:
// See keys.go for the key namespace layout.
type BadgerStore struct {
	db         *badger.DB
	maxRetries int
}

// BadgerStoreConfig contains configuration for creating a BadgerDB store.
type BadgerStoreConfig struct {
	// DBPath is the directory where BadgerDB stores its files
	DBPath string `mapstructure:"db_path" validate:"required_without=InMemory"`

	// InMemory keeps everything in RAM (tests, scratch deployments)
	InMemory bool `mapstructure:"in_memory"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`

	// MaxRetries bounds conflict retries of Update (default: 16)
	MaxRetries int `mapstructure:"max_retries"`
}

// NewBadgerStore opens (or creates) a BadgerDB store.
//
// Parameters:
//   - ctx: Context for cancellation during initialization
//   - config: Database location and tuning
//
// Returns:
//   - *BadgerStore: A store ready for concurrent use
//   - error: Error if the database cannot be opened or ctx is cancelled
func NewBadgerStore(ctx context.Context, config BadgerStoreConfig) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(config.DBPath)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}

	// Entries are small JSON documents; compression is not worth it.
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &BadgerStore{db: db, maxRetries: maxRetries}, nil
}

// View runs fn in a read-only BadgerDB transaction.
func (s *BadgerStore) View(ctx context.Context, fn func(tx filetree.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

// Update runs fn in a read-write transaction, retrying on commit conflicts.
func (s *BadgerStore) Update(ctx context.Context, fn func(tx filetree.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err = s.db.Update(func(txn *badger.Txn) error {
			return fn(&badgerTx{txn: txn})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}

		logger.Debug("badger: transaction conflict, retrying (attempt %d/%d)", attempt, s.maxRetries)
	}

	return fmt.Errorf("transaction gave up after %d conflicts: %w", s.maxRetries, err)
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
