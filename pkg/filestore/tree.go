package filestore

import (
	"context"
	"strings"
	"time"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// CreateScope creates the scope owned by node ownerNodeID. The scope starts
// without a root tree.
func (s *Service) CreateScope(ctx context.Context, ownerNodeID string) (scope *filetree.Scope, err error) {
	defer s.observe("CreateScope", time.Now(), &err)

	if ownerNodeID == "" || strings.ContainsRune(ownerNodeID, 0) {
		return nil, filetree.NewError(filetree.ErrInvalidArgument, "", "invalid owner node id %q", ownerNodeID)
	}

	scope = filetree.NewScope(ownerNodeID)
	err = s.store.Update(ctx, func(tx filetree.Tx) error {
		return tx.PutScope(scope)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("filestore: created scope %s for node %s", scope.ID, ownerNodeID)
	return scope, nil
}

// GetScope returns a scope by ID.
func (s *Service) GetScope(ctx context.Context, scopeID string) (scope *filetree.Scope, err error) {
	err = s.store.View(ctx, func(tx filetree.Tx) error {
		scope, err = tx.GetScope(scopeID)
		return err
	})
	return scope, err
}

// GetOrCreate returns the object at path in scope, creating it (and every
// missing ancestor tree) when absent.
//
// The call is idempotent: repeating it returns the same object and creates
// no further ancestors. kind decides the variant of a new object; an existing
// object of the other kind fails with ErrIsDirectory (tree found where a
// record was asked for) or ErrNotDirectory (the reverse).
//
// The whole chain is created in one transaction. Concurrent first creation
// of the same path converges on a single object through the store's unique
// (scope, path) index.
func (s *Service) GetOrCreate(ctx context.Context, scopeID, path string, kind filetree.Kind) (obj *filetree.Object, err error) {
	defer s.observe("GetOrCreate", time.Now(), &err)

	if !kind.Valid() {
		return nil, filetree.NewError(filetree.ErrInvalidArgument, path, "invalid object kind %q", kind)
	}
	p, err := filetree.NormalizePath(path)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(tx filetree.Tx) error {
		if _, err := tx.GetScope(scopeID); err != nil {
			return err
		}
		obj, err = getOrCreate(tx, scopeID, p, kind)
		return err
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func getOrCreate(tx filetree.Tx, scopeID, p string, kind filetree.Kind) (*filetree.Object, error) {
	existing, err := tx.FindObject(scopeID, p)
	if err == nil {
		return existing, checkKind(existing, kind)
	}
	if !filetree.IsCode(err, filetree.ErrNotFound) {
		return nil, err
	}

	if p == filetree.RootPath && kind != filetree.KindTree {
		return nil, filetree.NewError(filetree.ErrIsDirectory, p, "the root of a scope is a tree")
	}

	obj := filetree.NewObject(kind, scopeID, p)
	if err := tx.InsertObject(obj); err != nil {
		return nil, err
	}

	if p == filetree.RootPath {
		scope, err := tx.GetScope(scopeID)
		if err != nil {
			return nil, err
		}
		if scope.HasRoot() {
			return nil, filetree.NewError(filetree.ErrAlreadyExists, p, "scope %s already has root %s", scopeID, scope.RootID)
		}
		scope.RootID = obj.ID
		return obj, tx.PutScope(scope)
	}

	parentPath, _ := filetree.SplitPath(p)
	parent, err := getOrCreate(tx, scopeID, parentPath, filetree.KindTree)
	if err != nil {
		return nil, err
	}
	parent.AppendChild(obj.ID)
	if err := tx.PutObject(parent); err != nil {
		return nil, err
	}
	return obj, nil
}

func checkKind(obj *filetree.Object, want filetree.Kind) error {
	switch {
	case obj.Kind == want:
		return nil
	case obj.IsTree():
		return filetree.NewError(filetree.ErrIsDirectory, obj.Path, "path is a directory")
	default:
		return filetree.NewError(filetree.ErrNotDirectory, obj.Path, "path is a file")
	}
}

// FindByPath returns the object at path in scope, or ErrNotFound.
func (s *Service) FindByPath(ctx context.Context, scopeID, path string) (obj *filetree.Object, err error) {
	p, err := filetree.NormalizePath(path)
	if err != nil {
		return nil, err
	}

	err = s.store.View(ctx, func(tx filetree.Tx) error {
		obj, err = tx.FindObject(scopeID, p)
		return err
	})
	return obj, err
}

// GetObject returns an object of any kind by ID.
func (s *Service) GetObject(ctx context.Context, id string) (obj *filetree.Object, err error) {
	err = s.store.View(ctx, func(tx filetree.Tx) error {
		obj, err = tx.GetObject(id)
		return err
	})
	return obj, err
}

// ListChildren returns the children of a tree in insertion order.
func (s *Service) ListChildren(ctx context.Context, treeID string) (children []*filetree.Object, err error) {
	err = s.store.View(ctx, func(tx filetree.Tx) error {
		tree, err := tx.GetObject(treeID)
		if err != nil {
			return err
		}
		if !tree.IsTree() {
			return filetree.NewError(filetree.ErrNotDirectory, tree.Path, "path is a file")
		}

		children = make([]*filetree.Object, 0, len(tree.Children))
		for _, id := range tree.Children {
			child, err := tx.GetObject(id)
			if err != nil {
				return err
			}
			children = append(children, child)
		}
		return nil
	})
	return children, err
}

// WalkFunc is called for every object of a walk. depth is 0 for the root.
type WalkFunc func(obj *filetree.Object, depth int) error

// Walk visits the scope's tree depth-first from the root, children in order.
// A scope without root visits nothing. An error from fn stops the walk.
func (s *Service) Walk(ctx context.Context, scopeID string, fn WalkFunc) error {
	return s.store.View(ctx, func(tx filetree.Tx) error {
		scope, err := tx.GetScope(scopeID)
		if err != nil {
			return err
		}
		if !scope.HasRoot() {
			return nil
		}
		return walk(ctx, tx, scope.RootID, 0, fn)
	})
}

func walk(ctx context.Context, tx filetree.Tx, id string, depth int, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	obj, err := tx.GetObject(id)
	if err != nil {
		return err
	}
	if err := fn(obj, depth); err != nil {
		return err
	}
	for _, child := range obj.Children {
		if err := walk(ctx, tx, child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}
