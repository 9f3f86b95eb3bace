// Package filetree defines the versioned file tree domain: scopes, tree and
// record objects, file versions and their upload lifecycle, plus the
// persistence contract every storage backend implements.
//
// Backends live in subpackages (memory, badger, bolt) and are verified by the
// shared conformance suite in filetree/testing.
package filetree

import (
	"context"
)

// Store is a transactional repository for file tree entities.
//
// All reads and writes happen inside View or Update. Update is atomic: when fn
// returns an error nothing it wrote is visible afterwards. Backends with
// optimistic concurrency may run fn more than once, so fn must not have side
// effects outside the transaction.
//
// Entities returned by a Tx are copies; mutate them and write them back with
// the matching Put method.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Update runs fn in a read-write transaction and commits when fn
	// returns nil.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Close releases backend resources.
	Close() error
}

// Tx is the set of operations available inside a transaction.
//
// Lookups of missing entities return a StoreError with ErrNotFound. Write
// methods called from a View transaction fail.
type Tx interface {
	// ========================================================================
	// Scopes
	// ========================================================================

	GetScope(id string) (*Scope, error)

	// PutScope inserts or replaces a scope.
	PutScope(scope *Scope) error

	// ========================================================================
	// Objects
	// ========================================================================

	GetObject(id string) (*Object, error)

	// FindObject looks an object up by its unique (scope, path) pair.
	FindObject(scopeID, path string) (*Object, error)

	// InsertObject stores a new object.
	//
	// Returns ErrAlreadyExists when another object already occupies
	// (ScopeID, Path) or the ID is taken. This is the uniqueness constraint
	// concurrent path materialization relies on.
	InsertObject(obj *Object) error

	// PutObject replaces an existing object. ScopeID and Path must not
	// change. Returns ErrNotFound when the object was never inserted.
	PutObject(obj *Object) error

	// ForEachObject calls fn for every object of scopeID, or of every scope
	// when scopeID is empty. Iteration order is unspecified. Returning an
	// error from fn stops iteration and is returned as is.
	ForEachObject(scopeID string, fn func(obj *Object) error) error

	// ========================================================================
	// Versions
	// ========================================================================

	GetVersion(id string) (*FileVersion, error)

	// PutVersion inserts or replaces a version.
	PutVersion(v *FileVersion) error

	// ========================================================================
	// GUID files
	// ========================================================================

	// FindGuidFile looks a GUID file up by (node, path).
	FindGuidFile(nodeID, path string) (*GuidFile, error)

	// InsertGuidFile stores a new GUID file. Returns ErrAlreadyExists when
	// (NodeID, Path) is taken.
	InsertGuidFile(g *GuidFile) error
}
