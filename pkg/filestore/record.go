package filestore

import (
	"context"
	"time"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/audit"
	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// loadRecord fetches id and checks that it is a record.
func loadRecord(tx filetree.Tx, id string) (*filetree.Object, error) {
	obj, err := tx.GetObject(id)
	if err != nil {
		return nil, err
	}
	if !obj.IsRecord() {
		return nil, filetree.NewError(filetree.ErrIsDirectory, obj.Path, "path is a directory")
	}
	return obj, nil
}

// loadLatest fetches a record and its latest version. The version is nil when
// the record has none, unless required, which turns that case into
// ErrNoVersions.
func loadLatest(tx filetree.Tx, id string, required bool) (*filetree.Object, *filetree.FileVersion, error) {
	rec, err := loadRecord(tx, id)
	if err != nil {
		return nil, nil, err
	}

	latestID := rec.LatestVersionID()
	if latestID == "" {
		if required {
			return rec, nil, filetree.NewError(filetree.ErrNoVersions, rec.Path, "file has no versions")
		}
		return rec, nil, nil
	}

	v, err := tx.GetVersion(latestID)
	if err != nil {
		return nil, nil, err
	}
	return rec, v, nil
}

// CreatePendingVersion opens an upload on a record.
//
// Fails with ErrPathLocked when the latest version is still pending and with
// ErrSignatureConsumed when the latest version was created with signature,
// checked in that order.
func (s *Service) CreatePendingVersion(ctx context.Context, recordID, creator, signature string) (v *filetree.FileVersion, err error) {
	defer s.observe("CreatePendingVersion", time.Now(), &err)

	if signature == "" {
		return nil, filetree.NewError(filetree.ErrInvalidArgument, "", "signature is required")
	}

	unlock, err := s.lockRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.store.Update(ctx, func(tx filetree.Tx) error {
		rec, latest, err := loadLatest(tx, recordID, false)
		if err != nil {
			return err
		}
		if err := filetree.CheckPendingSlot(latest, signature); err != nil {
			return err
		}

		v = filetree.NewPendingVersion(creator, signature)
		if err := tx.PutVersion(v); err != nil {
			return err
		}
		rec.Versions = append(rec.Versions, v.ID)
		return tx.PutObject(rec)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordVersionTransition(string(filetree.StatusPending))
	logger.Debug("filestore: opened pending version %s on record %s", v.ID, recordID)
	return v, nil
}

// ResolvePendingVersion completes the pending upload of a record.
//
// The state checks run first. When a verifier is configured the location is
// then checked against the blob service; a failure there returns
// ErrLocationUnavailable and persists nothing. On success FILE_ADDED is
// emitted for the first version of a record and FILE_UPDATED otherwise, with
// the version creator as actor.
func (s *Service) ResolvePendingVersion(ctx context.Context, recordID, signature string, location map[string]string, metadata map[string]any, opts ...MutationOption) (v *filetree.FileVersion, err error) {
	defer s.observe("ResolvePendingVersion", time.Now(), &err)
	mo := applyMutationOptions(opts)

	unlock, err := s.lockRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if s.verifier != nil {
		var candidate *filetree.FileVersion
		err = s.store.View(ctx, func(tx filetree.Tx) error {
			_, latest, err := loadLatest(tx, recordID, true)
			if err != nil {
				return err
			}
			candidate = latest
			return candidate.Resolve(signature, location, metadata, s.parsers)
		})
		if err != nil {
			return nil, err
		}

		if err := s.verifier.Verify(ctx, candidate.Location); err != nil {
			return nil, filetree.NewError(filetree.ErrLocationUnavailable, "", "upload location unavailable: %v", err)
		}
	}

	var event audit.Event
	err = s.store.Update(ctx, func(tx filetree.Tx) error {
		rec, latest, err := loadLatest(tx, recordID, true)
		if err != nil {
			return err
		}
		if err := latest.Resolve(signature, location, metadata, s.parsers); err != nil {
			return err
		}
		if err := tx.PutVersion(latest); err != nil {
			return err
		}

		action := audit.FileUpdated
		if len(rec.Versions) == 1 {
			action = audit.FileAdded
		}
		event, err = newEvent(tx, rec, action, latest.Creator)
		v = latest
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordVersionTransition(string(filetree.StatusComplete))
	s.emit(ctx, event, mo)
	return v, nil
}

// CancelPendingVersion marks the pending upload of a record as failed and
// emits UPLOAD_FAILED.
func (s *Service) CancelPendingVersion(ctx context.Context, recordID, signature string, opts ...MutationOption) (v *filetree.FileVersion, err error) {
	defer s.observe("CancelPendingVersion", time.Now(), &err)
	mo := applyMutationOptions(opts)

	unlock, err := s.lockRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var event audit.Event
	err = s.store.Update(ctx, func(tx filetree.Tx) error {
		rec, latest, err := loadLatest(tx, recordID, true)
		if err != nil {
			return err
		}
		if err := latest.Cancel(signature); err != nil {
			return err
		}
		if err := tx.PutVersion(latest); err != nil {
			return err
		}

		event, err = newEvent(tx, rec, audit.UploadFailed, latest.Creator)
		v = latest
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordVersionTransition(string(filetree.StatusFailed))
	s.emit(ctx, event, mo)
	return v, nil
}

// Delete soft-deletes a record and emits FILE_REMOVED.
func (s *Service) Delete(ctx context.Context, recordID, actor string, opts ...MutationOption) (err error) {
	defer s.observe("Delete", time.Now(), &err)
	return s.setDeleted(ctx, recordID, actor, true, applyMutationOptions(opts))
}

// Undelete restores a soft-deleted record and emits FILE_RESTORED.
func (s *Service) Undelete(ctx context.Context, recordID, actor string, opts ...MutationOption) (err error) {
	defer s.observe("Undelete", time.Now(), &err)
	return s.setDeleted(ctx, recordID, actor, false, applyMutationOptions(opts))
}

func (s *Service) setDeleted(ctx context.Context, recordID, actor string, deleted bool, mo mutationOptions) error {
	unlock, err := s.lockRecord(ctx, recordID)
	if err != nil {
		return err
	}
	defer unlock()

	var event audit.Event
	err = s.store.Update(ctx, func(tx filetree.Tx) error {
		rec, err := loadRecord(tx, recordID)
		if err != nil {
			return err
		}

		action := audit.FileRemoved
		if deleted {
			err = rec.MarkDeleted()
		} else {
			action = audit.FileRestored
			err = rec.MarkRestored()
		}
		if err != nil {
			return err
		}
		if err := tx.PutObject(rec); err != nil {
			return err
		}

		event, err = newEvent(tx, rec, action, actor)
		return err
	})
	if err != nil {
		return err
	}

	s.emit(ctx, event, mo)
	return nil
}
