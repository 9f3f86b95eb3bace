// Package bolt implements filetree.Store on top of bbolt.
//
// Each entity type has its own bucket keyed by ID; the (scope, path) and
// (node, path) uniqueness constraints are index buckets mapping the composite
// key to the entity ID. bbolt allows a single writer at a time, so Update
// never conflicts.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

var (
	bucketScopes    = []byte("scopes")
	bucketObjects   = []byte("objects")
	bucketPaths     = []byte("object_paths")
	bucketVersions  = []byte("versions")
	bucketGuids     = []byte("guid_files")
	bucketGuidPaths = []byte("guid_paths")

	allBuckets = [][]byte{
		bucketScopes,
		bucketObjects,
		bucketPaths,
		bucketVersions,
		bucketGuids,
		bucketGuidPaths,
	}
)

// BoltStoreConfig contains configuration for creating a bbolt store.
type BoltStoreConfig struct {
	// Path is the database file
	Path string `mapstructure:"path" validate:"required"`

	// Timeout bounds how long Open waits for the file lock (default: 1s)
	Timeout time.Duration `mapstructure:"timeout"`
}

// BoltStore implements filetree.Store in a single bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database file and its buckets.
func NewBoltStore(ctx context.Context, config BoltStoreConfig) (*BoltStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", config.Path, err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = time.Second
	}

	db, err := bolt.Open(config.Path, 0600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database at %s: %w", config.Path, err)
	}

	err = db.Update(func(btx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := btx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) View(ctx context.Context, fn func(tx filetree.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&boltTx{tx: btx})
	})
}

func (s *BoltStore) Update(ctx context.Context, fn func(tx filetree.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&boltTx{tx: btx})
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
