package bolt

import (
	"bytes"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

type boltTx struct {
	tx *bolt.Tx
}

func indexKey(owner, path string) []byte {
	return []byte(owner + "\x00" + path)
}

func (t *boltTx) get(bucket, key []byte, out any, msg string, args ...any) error {
	data := t.tx.Bucket(bucket).Get(key)
	if data == nil {
		return filetree.NewError(filetree.ErrNotFound, "", msg, args...)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (t *boltTx) put(bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", bucket, key, err)
	}
	if err := t.tx.Bucket(bucket).Put(key, data); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (t *boltTx) putIndex(bucket, key []byte, id string) error {
	if err := t.tx.Bucket(bucket).Put(key, []byte(id)); err != nil {
		return fmt.Errorf("failed to write index %s: %w", bucket, err)
	}
	return nil
}

func (t *boltTx) GetScope(id string) (*filetree.Scope, error) {
	var scope filetree.Scope
	if err := t.get(bucketScopes, []byte(id), &scope, "scope %s not found", id); err != nil {
		return nil, err
	}
	return &scope, nil
}

func (t *boltTx) PutScope(scope *filetree.Scope) error {
	return t.put(bucketScopes, []byte(scope.ID), scope)
}

func (t *boltTx) GetObject(id string) (*filetree.Object, error) {
	var obj filetree.Object
	if err := t.get(bucketObjects, []byte(id), &obj, "object %s not found", id); err != nil {
		return nil, err
	}
	return &obj, nil
}

func (t *boltTx) FindObject(scopeID, path string) (*filetree.Object, error) {
	id := t.tx.Bucket(bucketPaths).Get(indexKey(scopeID, path))
	if id == nil {
		return nil, filetree.NewError(filetree.ErrNotFound, path, "no object at path")
	}
	return t.GetObject(string(id))
}

func (t *boltTx) InsertObject(obj *filetree.Object) error {
	key := indexKey(obj.ScopeID, obj.Path)
	if t.tx.Bucket(bucketPaths).Get(key) != nil {
		return filetree.NewError(filetree.ErrAlreadyExists, obj.Path, "object already exists")
	}
	if t.tx.Bucket(bucketObjects).Get([]byte(obj.ID)) != nil {
		return filetree.NewError(filetree.ErrAlreadyExists, obj.Path, "object id %s already exists", obj.ID)
	}

	if err := t.put(bucketObjects, []byte(obj.ID), obj); err != nil {
		return err
	}
	return t.putIndex(bucketPaths, key, obj.ID)
}

func (t *boltTx) PutObject(obj *filetree.Object) error {
	existing, err := t.GetObject(obj.ID)
	if err != nil {
		return err
	}
	if existing.ScopeID != obj.ScopeID || existing.Path != obj.Path {
		return filetree.NewError(filetree.ErrInvalidArgument, obj.Path, "object %s cannot move", obj.ID)
	}
	return t.put(bucketObjects, []byte(obj.ID), obj)
}

// ForEachObject collects before calling fn: bbolt forbids mutating a bucket
// while a cursor walks it.
func (t *boltTx) ForEachObject(scopeID string, fn func(obj *filetree.Object) error) error {
	var objs []*filetree.Object

	if scopeID == "" {
		err := t.tx.Bucket(bucketObjects).ForEach(func(k, v []byte) error {
			var obj filetree.Object
			if err := json.Unmarshal(v, &obj); err != nil {
				return fmt.Errorf("failed to unmarshal object %s: %w", k, err)
			}
			objs = append(objs, &obj)
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		prefix := indexKey(scopeID, "")
		c := t.tx.Bucket(bucketPaths).Cursor()

		var ids []string
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			ids = append(ids, string(v))
		}
		for _, id := range ids {
			obj, err := t.GetObject(id)
			if err != nil {
				return err
			}
			objs = append(objs, obj)
		}
	}

	for _, obj := range objs {
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}

func (t *boltTx) GetVersion(id string) (*filetree.FileVersion, error) {
	var v filetree.FileVersion
	if err := t.get(bucketVersions, []byte(id), &v, "version %s not found", id); err != nil {
		return nil, err
	}
	return &v, nil
}

func (t *boltTx) PutVersion(v *filetree.FileVersion) error {
	return t.put(bucketVersions, []byte(v.ID), v)
}

func (t *boltTx) FindGuidFile(nodeID, path string) (*filetree.GuidFile, error) {
	id := t.tx.Bucket(bucketGuidPaths).Get(indexKey(nodeID, path))
	if id == nil {
		return nil, filetree.NewError(filetree.ErrNotFound, path, "no guid file for node %s", nodeID)
	}

	var g filetree.GuidFile
	if err := t.get(bucketGuids, id, &g, "guid file %s not found", id); err != nil {
		return nil, err
	}
	return &g, nil
}

func (t *boltTx) InsertGuidFile(g *filetree.GuidFile) error {
	key := indexKey(g.NodeID, g.Path)
	if t.tx.Bucket(bucketGuidPaths).Get(key) != nil {
		return filetree.NewError(filetree.ErrAlreadyExists, g.Path, "guid file already exists for node %s", g.NodeID)
	}

	if err := t.put(bucketGuids, []byte(g.ID), g); err != nil {
		return err
	}
	return t.putIndex(bucketGuidPaths, key, g.ID)
}
