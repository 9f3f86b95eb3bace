package memory

import (
	"maps"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// memoryTx reads through staged writes to the committed tables.
// staged is nil for read-only transactions.
type memoryTx struct {
	base   *tables
	staged *tables
}

func (tx *memoryTx) writable() error {
	if tx.staged == nil {
		return filetree.NewError(filetree.ErrInvalidArgument, "", "write in read-only transaction")
	}
	return nil
}

func (tx *memoryTx) commit() {
	maps.Copy(tx.base.scopes, tx.staged.scopes)
	maps.Copy(tx.base.objects, tx.staged.objects)
	maps.Copy(tx.base.paths, tx.staged.paths)
	maps.Copy(tx.base.versions, tx.staged.versions)
	maps.Copy(tx.base.guids, tx.staged.guids)
	maps.Copy(tx.base.guidPaths, tx.staged.guidPaths)
}

// lookup returns the staged value for key if any, else the committed one.
func lookup[K comparable, V any](tx *memoryTx, pick func(*tables) map[K]V, key K) (V, bool) {
	if tx.staged != nil {
		if v, ok := pick(tx.staged)[key]; ok {
			return v, true
		}
	}
	v, ok := pick(tx.base)[key]
	return v, ok
}

// ============================================================================
// Scopes
// ============================================================================

func (tx *memoryTx) GetScope(id string) (*filetree.Scope, error) {
	s, ok := lookup(tx, func(t *tables) map[string]*filetree.Scope { return t.scopes }, id)
	if !ok {
		return nil, filetree.NewError(filetree.ErrNotFound, "", "scope %s not found", id)
	}
	c := *s
	return &c, nil
}

func (tx *memoryTx) PutScope(scope *filetree.Scope) error {
	if err := tx.writable(); err != nil {
		return err
	}
	c := *scope
	tx.staged.scopes[scope.ID] = &c
	return nil
}

// ============================================================================
// Objects
// ============================================================================

func (tx *memoryTx) GetObject(id string) (*filetree.Object, error) {
	obj, ok := lookup(tx, func(t *tables) map[string]*filetree.Object { return t.objects }, id)
	if !ok {
		return nil, filetree.NewError(filetree.ErrNotFound, "", "object %s not found", id)
	}
	return obj.Clone(), nil
}

func (tx *memoryTx) FindObject(scopeID, path string) (*filetree.Object, error) {
	id, ok := lookup(tx, func(t *tables) map[pathKey]string { return t.paths }, pathKey{scopeID, path})
	if !ok {
		return nil, filetree.NewError(filetree.ErrNotFound, path, "no object at path")
	}
	return tx.GetObject(id)
}

func (tx *memoryTx) InsertObject(obj *filetree.Object) error {
	if err := tx.writable(); err != nil {
		return err
	}

	key := pathKey{obj.ScopeID, obj.Path}
	if _, ok := lookup(tx, func(t *tables) map[pathKey]string { return t.paths }, key); ok {
		return filetree.NewError(filetree.ErrAlreadyExists, obj.Path, "object already exists")
	}
	if _, ok := lookup(tx, func(t *tables) map[string]*filetree.Object { return t.objects }, obj.ID); ok {
		return filetree.NewError(filetree.ErrAlreadyExists, obj.Path, "object id %s already exists", obj.ID)
	}

	tx.staged.objects[obj.ID] = obj.Clone()
	tx.staged.paths[key] = obj.ID
	return nil
}

func (tx *memoryTx) PutObject(obj *filetree.Object) error {
	if err := tx.writable(); err != nil {
		return err
	}

	existing, ok := lookup(tx, func(t *tables) map[string]*filetree.Object { return t.objects }, obj.ID)
	if !ok {
		return filetree.NewError(filetree.ErrNotFound, obj.Path, "object %s not found", obj.ID)
	}
	if existing.ScopeID != obj.ScopeID || existing.Path != obj.Path {
		return filetree.NewError(filetree.ErrInvalidArgument, obj.Path, "object %s cannot move", obj.ID)
	}

	tx.staged.objects[obj.ID] = obj.Clone()
	return nil
}

func (tx *memoryTx) ForEachObject(scopeID string, fn func(obj *filetree.Object) error) error {
	visit := func(obj *filetree.Object) error {
		if scopeID != "" && obj.ScopeID != scopeID {
			return nil
		}
		return fn(obj.Clone())
	}

	for id, obj := range tx.base.objects {
		if tx.staged != nil {
			if newer, ok := tx.staged.objects[id]; ok {
				obj = newer
			}
		}
		if err := visit(obj); err != nil {
			return err
		}
	}

	if tx.staged != nil {
		for id, obj := range tx.staged.objects {
			if _, ok := tx.base.objects[id]; ok {
				continue
			}
			if err := visit(obj); err != nil {
				return err
			}
		}
	}
	return nil
}

// ============================================================================
// Versions
// ============================================================================

func (tx *memoryTx) GetVersion(id string) (*filetree.FileVersion, error) {
	v, ok := lookup(tx, func(t *tables) map[string]*filetree.FileVersion { return t.versions }, id)
	if !ok {
		return nil, filetree.NewError(filetree.ErrNotFound, "", "version %s not found", id)
	}
	return v.Clone(), nil
}

func (tx *memoryTx) PutVersion(v *filetree.FileVersion) error {
	if err := tx.writable(); err != nil {
		return err
	}
	tx.staged.versions[v.ID] = v.Clone()
	return nil
}

// ============================================================================
// GUID files
// ============================================================================

func (tx *memoryTx) FindGuidFile(nodeID, path string) (*filetree.GuidFile, error) {
	id, ok := lookup(tx, func(t *tables) map[pathKey]string { return t.guidPaths }, pathKey{nodeID, path})
	if !ok {
		return nil, filetree.NewError(filetree.ErrNotFound, path, "no guid file for node %s", nodeID)
	}
	g, _ := lookup(tx, func(t *tables) map[string]*filetree.GuidFile { return t.guids }, id)
	c := *g
	return &c, nil
}

func (tx *memoryTx) InsertGuidFile(g *filetree.GuidFile) error {
	if err := tx.writable(); err != nil {
		return err
	}

	key := pathKey{g.NodeID, g.Path}
	if _, ok := lookup(tx, func(t *tables) map[pathKey]string { return t.guidPaths }, key); ok {
		return filetree.NewError(filetree.ErrAlreadyExists, g.Path, "guid file already exists for node %s", g.NodeID)
	}

	c := *g
	tx.staged.guids[g.ID] = &c
	tx.staged.guidPaths[key] = g.ID
	return nil
}
