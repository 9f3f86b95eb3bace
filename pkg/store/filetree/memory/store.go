// Package memory implements filetree.Store with in-process maps.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// pathKey identifies an entry of a (owner, path) uniqueness index.
type pathKey struct {
	owner string
	path  string
}

// tables is one full set of entity maps. The store keeps the committed set;
// every write transaction stages its changes in a second set that is merged
// on commit.
type tables struct {
	scopes    map[string]*filetree.Scope
	objects   map[string]*filetree.Object
	paths     map[pathKey]string
	versions  map[string]*filetree.FileVersion
	guids     map[string]*filetree.GuidFile
	guidPaths map[pathKey]string
}

func newTables() *tables {
	return &tables{
		scopes:    make(map[string]*filetree.Scope),
		objects:   make(map[string]*filetree.Object),
		paths:     make(map[pathKey]string),
		versions:  make(map[string]*filetree.FileVersion),
		guids:     make(map[string]*filetree.GuidFile),
		guidPaths: make(map[pathKey]string),
	}
}

// MemoryStore implements filetree.Store using in-memory storage.
//
// It is suitable for tests, development and ephemeral deployments. Data is
// lost when the process exits.
//
// Thread Safety:
// A single read-write mutex serializes write transactions and lets read
// transactions run concurrently. Entities are copied on the way in and out,
// so callers never share memory with the store.
//
// Atomicity:
// Writes made inside Update are staged and only merged into the committed
// tables when the callback returns nil. A failing callback leaves the store
// exactly as it was.
type MemoryStore struct {
	mu     sync.RWMutex
	data   *tables
	closed bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newTables()}
}

var errClosed = errors.New("memory store is closed")

// View runs fn against a read-only snapshot of the committed tables.
func (s *MemoryStore) View(ctx context.Context, fn func(tx filetree.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return errClosed
	}

	return fn(&memoryTx{base: s.data})
}

// Update runs fn with staged writes and merges them on success.
func (s *MemoryStore) Update(ctx context.Context, fn func(tx filetree.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}

	tx := &memoryTx{base: s.data, staged: newTables()}
	if err := fn(tx); err != nil {
		return err
	}

	tx.commit()
	return nil
}

// Close drops all data. Further transactions fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.data = newTables()
	return nil
}
