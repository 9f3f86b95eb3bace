package filestore

import (
	"context"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// StalePending describes a record whose latest version is an upload that
// never finished.
type StalePending struct {
	RecordID  string
	ScopeID   string
	Path      string
	VersionID string
	Signature string
	Creator   string
	Created   time.Time
}

// FindStalePending lists records whose latest version is pending and was
// created before olderThan, oldest first. limit <= 0 returns all of them.
func (s *Service) FindStalePending(ctx context.Context, olderThan time.Time, limit int) (stale []StalePending, err error) {
	var pending []StalePending

	err = s.store.View(ctx, func(tx filetree.Tx) error {
		return tx.ForEachObject("", func(obj *filetree.Object) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !obj.IsRecord() || obj.LatestVersionID() == "" {
				return nil
			}

			v, err := tx.GetVersion(obj.LatestVersionID())
			if err != nil {
				return err
			}
			if !v.IsPending() {
				return nil
			}
			pending = append(pending, StalePending{
				RecordID:  obj.ID,
				ScopeID:   obj.ScopeID,
				Path:      obj.Path,
				VersionID: v.ID,
				Signature: v.Signature,
				Creator:   v.Creator,
				Created:   v.Created,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	stale = lo.Filter(pending, func(p StalePending, _ int) bool {
		return p.Created.Before(olderThan)
	})
	slices.SortFunc(stale, func(a, b StalePending) int {
		return a.Created.Compare(b.Created)
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}
