package filestore

import (
	"context"
	"time"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// GetLatestVersion returns the newest version of a record. A record without
// versions yields nil, or ErrNoVersions when required is set.
func (s *Service) GetLatestVersion(ctx context.Context, recordID string, required bool) (v *filetree.FileVersion, err error) {
	err = s.store.View(ctx, func(tx filetree.Tx) error {
		_, v, err = loadLatest(tx, recordID, required)
		return err
	})
	return v, err
}

// VersionPage is one newest-first page of a record's history.
type VersionPage struct {
	// Indices are the 1-based positions of Versions in the history
	Indices  []int
	Versions []*filetree.FileVersion

	// More reports whether older versions remain
	More bool
}

// GetVersions returns a page of versions, newest first. Pages start at 1;
// size 0 selects the configured default page size.
func (s *Service) GetVersions(ctx context.Context, recordID string, page, size int) (result *VersionPage, err error) {
	defer s.observe("GetVersions", time.Now(), &err)

	if size == 0 {
		size = s.pageSize
	}

	err = s.store.View(ctx, func(tx filetree.Tx) error {
		rec, err := loadRecord(tx, recordID)
		if err != nil {
			return err
		}

		positions, more, err := filetree.VersionWindow(len(rec.Versions), page, size)
		if err != nil {
			return err
		}

		result = &VersionPage{
			Indices:  positions,
			Versions: make([]*filetree.FileVersion, 0, len(positions)),
			More:     more,
		}
		for _, pos := range positions {
			v, err := tx.GetVersion(rec.Versions[pos-1])
			if err != nil {
				return err
			}
			result.Versions = append(result.Versions, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
