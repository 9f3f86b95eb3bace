package filestore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/store/filetree"
)

type copyStats struct {
	copied  int
	dropped int
}

// copyFilesStable deep-copies obj into destScopeID.
//
// Trees are cloned with the copies of their children; a tree whose children
// all vanish is still copied. Records keep only their complete versions,
// shared by ID with the source, and are dropped (nil result) when none
// remain. Source objects are never modified.
func copyFilesStable(ctx context.Context, tx filetree.Tx, obj *filetree.Object, destScopeID string, stats *copyStats) (*filetree.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clone := &filetree.Object{
		ID:      uuid.NewString(),
		Kind:    obj.Kind,
		Path:    obj.Path,
		ScopeID: destScopeID,
		Created: time.Now().UTC(),
	}

	switch obj.Kind {
	case filetree.KindTree:
		for _, childID := range obj.Children {
			child, err := tx.GetObject(childID)
			if err != nil {
				return nil, err
			}
			copied, err := copyFilesStable(ctx, tx, child, destScopeID, stats)
			if err != nil {
				return nil, err
			}
			if copied != nil {
				clone.Children = append(clone.Children, copied.ID)
			}
		}

	case filetree.KindRecord:
		versions := make([]*filetree.FileVersion, 0, len(obj.Versions))
		for _, id := range obj.Versions {
			v, err := tx.GetVersion(id)
			if err != nil {
				return nil, err
			}
			versions = append(versions, v)
		}

		complete := lo.Filter(versions, func(v *filetree.FileVersion, _ int) bool {
			return v.IsComplete()
		})
		if len(complete) == 0 {
			stats.dropped++
			logger.Debug("filestore: copy dropped %s, no complete version", obj.Path)
			return nil, nil
		}

		clone.Versions = lo.Map(complete, func(v *filetree.FileVersion, _ int) string {
			return v.ID
		})
		clone.IsDeleted = obj.IsDeleted

	default:
		return nil, filetree.NewError(filetree.ErrInvalidKind, obj.Path, "cannot copy object of kind %q", obj.Kind)
	}

	if err := tx.InsertObject(clone); err != nil {
		return nil, err
	}
	stats.copied++
	return clone, nil
}

// CopyContentsTo copies the file tree of srcScopeID into dest.
//
// dest is persisted first and must not own a root yet (ErrAlreadyExists).
// The copy runs in one transaction, so either the whole tree lands in dest
// or nothing does. A source scope without root only persists dest.
func (s *Service) CopyContentsTo(ctx context.Context, srcScopeID string, dest *filetree.Scope) (err error) {
	defer s.observe("CopyContentsTo", time.Now(), &err)

	if dest == nil || dest.ID == "" || dest.ID == srcScopeID {
		return filetree.NewError(filetree.ErrInvalidArgument, "", "invalid destination scope")
	}
	if dest.HasRoot() {
		return filetree.NewError(filetree.ErrAlreadyExists, "", "destination scope %s already has root %s", dest.ID, dest.RootID)
	}

	var stats copyStats
	err = s.store.Update(ctx, func(tx filetree.Tx) error {
		src, err := tx.GetScope(srcScopeID)
		if err != nil {
			return err
		}

		existing, err := tx.GetScope(dest.ID)
		switch {
		case err == nil && existing.HasRoot():
			return filetree.NewError(filetree.ErrAlreadyExists, "", "destination scope %s already has root %s", dest.ID, existing.RootID)
		case err != nil && !filetree.IsCode(err, filetree.ErrNotFound):
			return err
		}

		target := *dest
		if err := tx.PutScope(&target); err != nil {
			return err
		}
		if !src.HasRoot() {
			return nil
		}

		root, err := tx.GetObject(src.RootID)
		if err != nil {
			return err
		}
		copied, err := copyFilesStable(ctx, tx, root, target.ID, &stats)
		if err != nil {
			return err
		}

		target.RootID = copied.ID
		return tx.PutScope(&target)
	})
	if err != nil {
		return err
	}

	// Reload so the caller sees the root assigned inside the transaction.
	stored, err := s.GetScope(ctx, dest.ID)
	if err != nil {
		return err
	}
	*dest = *stored

	s.metrics.RecordCopy(stats.copied, stats.dropped)
	logger.Info("filestore: copied scope %s to %s (%d objects, %d records dropped)",
		srcScopeID, dest.ID, stats.copied, stats.dropped)
	return nil
}

// AfterFork creates the scope of a forked node and copies the contents of
// srcScopeID into it.
func (s *Service) AfterFork(ctx context.Context, srcScopeID, forkedNodeID, user string) (*filetree.Scope, error) {
	logger.Info("filestore: forking scope %s into node %s for %s", srcScopeID, forkedNodeID, user)
	return s.cloneInto(ctx, srcScopeID, forkedNodeID)
}

// AfterRegister creates the scope of a registration and copies the contents
// of srcScopeID into it.
func (s *Service) AfterRegister(ctx context.Context, srcScopeID, registrationNodeID, user string) (*filetree.Scope, error) {
	logger.Info("filestore: registering scope %s as node %s for %s", srcScopeID, registrationNodeID, user)
	return s.cloneInto(ctx, srcScopeID, registrationNodeID)
}

func (s *Service) cloneInto(ctx context.Context, srcScopeID, nodeID string) (*filetree.Scope, error) {
	if nodeID == "" {
		return nil, filetree.NewError(filetree.ErrInvalidArgument, "", "node id is required")
	}

	dest := filetree.NewScope(nodeID)
	if err := s.CopyContentsTo(ctx, srcScopeID, dest); err != nil {
		return nil, err
	}
	return dest, nil
}
