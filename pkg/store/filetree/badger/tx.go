package badger

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

type badgerTx struct {
	txn *badger.Txn
}

func (tx *badgerTx) set(key []byte, kind string, v any) error {
	data, err := encode(kind, v)
	if err != nil {
		return err
	}
	if err := tx.txn.Set(key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", kind, err)
	}
	return nil
}

// ============================================================================
// Scopes
// ============================================================================

func (tx *badgerTx) GetScope(id string) (*filetree.Scope, error) {
	var scope filetree.Scope
	if err := getJSON(tx.txn, keyScope(id), &scope, "scope %s not found", id); err != nil {
		return nil, err
	}
	return &scope, nil
}

func (tx *badgerTx) PutScope(scope *filetree.Scope) error {
	return tx.set(keyScope(scope.ID), "scope", scope)
}

// ============================================================================
// Objects
// ============================================================================

func (tx *badgerTx) GetObject(id string) (*filetree.Object, error) {
	var obj filetree.Object
	if err := getJSON(tx.txn, keyObject(id), &obj, "object %s not found", id); err != nil {
		return nil, err
	}
	return &obj, nil
}

func (tx *badgerTx) FindObject(scopeID, path string) (*filetree.Object, error) {
	id, ok, err := getString(tx.txn, keyPath(scopeID, path))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, filetree.NewError(filetree.ErrNotFound, path, "no object at path")
	}
	return tx.GetObject(id)
}

func (tx *badgerTx) InsertObject(obj *filetree.Object) error {
	pathKey := keyPath(obj.ScopeID, obj.Path)

	taken, err := exists(tx.txn, pathKey)
	if err != nil {
		return err
	}
	if taken {
		return filetree.NewError(filetree.ErrAlreadyExists, obj.Path, "object already exists")
	}

	taken, err = exists(tx.txn, keyObject(obj.ID))
	if err != nil {
		return err
	}
	if taken {
		return filetree.NewError(filetree.ErrAlreadyExists, obj.Path, "object id %s already exists", obj.ID)
	}

	if err := tx.set(keyObject(obj.ID), "object", obj); err != nil {
		return err
	}
	if err := tx.txn.Set(pathKey, []byte(obj.ID)); err != nil {
		return fmt.Errorf("failed to write path index: %w", err)
	}
	return nil
}

func (tx *badgerTx) PutObject(obj *filetree.Object) error {
	existing, err := tx.GetObject(obj.ID)
	if err != nil {
		return err
	}
	if existing.ScopeID != obj.ScopeID || existing.Path != obj.Path {
		return filetree.NewError(filetree.ErrInvalidArgument, obj.Path, "object %s cannot move", obj.ID)
	}
	return tx.set(keyObject(obj.ID), "object", obj)
}

func (tx *badgerTx) ForEachObject(scopeID string, fn func(obj *filetree.Object) error) error {
	var (
		objs []*filetree.Object
		err  error
	)
	if scopeID == "" {
		objs, err = tx.scanObjects()
	} else {
		objs, err = tx.scanScope(scopeID)
	}
	if err != nil {
		return err
	}

	for _, obj := range objs {
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}

// scanScope resolves every path index entry of a scope.
func (tx *badgerTx) scanScope(scopeID string) ([]*filetree.Object, error) {
	prefix := keyPathScopePrefix(scopeID)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := tx.txn.NewIterator(opts)
	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			it.Close()
			return nil, fmt.Errorf("failed to read path index: %w", err)
		}
		ids = append(ids, string(val))
	}
	it.Close()

	objs := make([]*filetree.Object, 0, len(ids))
	for _, id := range ids {
		obj, err := tx.GetObject(id)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func (tx *badgerTx) scanObjects() ([]*filetree.Object, error) {
	prefix := []byte(prefixObject)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := tx.txn.NewIterator(opts)
	defer it.Close()

	var objs []*filetree.Object
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var obj filetree.Object
		err := it.Item().Value(func(val []byte) error {
			return decode(val, "object", &obj)
		})
		if err != nil {
			return nil, err
		}
		objs = append(objs, &obj)
	}
	return objs, nil
}

// ============================================================================
// Versions
// ============================================================================

func (tx *badgerTx) GetVersion(id string) (*filetree.FileVersion, error) {
	var v filetree.FileVersion
	if err := getJSON(tx.txn, keyVersion(id), &v, "version %s not found", id); err != nil {
		return nil, err
	}
	return &v, nil
}

func (tx *badgerTx) PutVersion(v *filetree.FileVersion) error {
	return tx.set(keyVersion(v.ID), "version", v)
}

// ============================================================================
// GUID files
// ============================================================================

func (tx *badgerTx) FindGuidFile(nodeID, path string) (*filetree.GuidFile, error) {
	id, ok, err := getString(tx.txn, keyGuidPath(nodeID, path))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, filetree.NewError(filetree.ErrNotFound, path, "no guid file for node %s", nodeID)
	}

	var g filetree.GuidFile
	if err := getJSON(tx.txn, keyGuid(id), &g, "guid file %s not found", id); err != nil {
		return nil, err
	}
	return &g, nil
}

func (tx *badgerTx) InsertGuidFile(g *filetree.GuidFile) error {
	pathKey := keyGuidPath(g.NodeID, g.Path)

	taken, err := exists(tx.txn, pathKey)
	if err != nil {
		return err
	}
	if taken {
		return filetree.NewError(filetree.ErrAlreadyExists, g.Path, "guid file already exists for node %s", g.NodeID)
	}

	if err := tx.set(keyGuid(g.ID), "guid file", g); err != nil {
		return err
	}
	if err := tx.txn.Set(pathKey, []byte(g.ID)); err != nil {
		return fmt.Errorf("failed to write guid path index: %w", err)
	}
	return nil
}
