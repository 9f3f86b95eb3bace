package filestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/pkg/audit"
	"github.com/marmos91/dittostore/pkg/blob"
	"github.com/marmos91/dittostore/pkg/store/filetree"
)

func TestPendingVersionLocksPath(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	rec := newRecord(t, svc, scope, "a.txt")
	ctx := context.Background()

	v, err := svc.CreatePendingVersion(ctx, rec.ID, "user-1", "sig-1")
	require.NoError(t, err)
	assert.True(t, v.IsPending())
	assert.Equal(t, "user-1", v.Creator)

	for _, sig := range []string{"sig-2", "sig-1"} {
		_, err = svc.CreatePendingVersion(ctx, rec.ID, "user-1", sig)
		requireCode(t, err, filetree.ErrPathLocked)
	}

	_, err = svc.ResolvePendingVersion(ctx, rec.ID, "sig-1", location("obj"), nil)
	require.NoError(t, err)

	_, err = svc.CreatePendingVersion(ctx, rec.ID, "user-1", "sig-2")
	require.NoError(t, err)
}

func TestSignatureConsumed(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	rec := newRecord(t, svc, scope, "a.txt")
	ctx := context.Background()

	upload(t, svc, rec.ID, "sig-1")

	_, err := svc.CreatePendingVersion(ctx, rec.ID, "user-1", "sig-1")
	requireCode(t, err, filetree.ErrSignatureConsumed)

	_, err = svc.CreatePendingVersion(ctx, rec.ID, "user-1", "")
	requireCode(t, err, filetree.ErrInvalidArgument)
}

func TestCreatePendingVersionOnTree(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	newRecord(t, svc, scope, "dir/a.txt")

	dir, err := svc.FindByPath(context.Background(), scope.ID, "dir")
	require.NoError(t, err)

	_, err = svc.CreatePendingVersion(context.Background(), dir.ID, "user-1", "sig")
	requireCode(t, err, filetree.ErrIsDirectory)
}

func TestConcurrentPendingVersions(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	rec := newRecord(t, svc, scope, "a.txt")
	ctx := context.Background()

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.CreatePendingVersion(ctx, rec.ID, "user-1", fmt.Sprintf("sig-%d", i))
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireCode(t, err, filetree.ErrPathLocked)
	}
	assert.Equal(t, 1, succeeded)

	got, err := svc.GetObject(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, got.Versions, 1)
}

func TestResolvePendingVersion(t *testing.T) {
	svc, recorder := newService(t)
	scope := newScope(t, svc)
	rec := newRecord(t, svc, scope, "docs/report.pdf")
	ctx := context.Background()

	_, err := svc.CreatePendingVersion(ctx, rec.ID, "user-1", "sig-1")
	require.NoError(t, err)

	v, err := svc.ResolvePendingVersion(ctx, rec.ID, "sig-1", location("abc123"), map[string]any{
		filetree.MetaSize:         "2048",
		filetree.MetaContentType:  "application/pdf",
		filetree.MetaDateModified: "2024-03-01T10:00:00Z",
		"md5":                     "d41d8cd9",
	})
	require.NoError(t, err)

	assert.True(t, v.IsComplete())
	assert.Equal(t, "abc123", v.LocationHash())
	assert.Equal(t, int64(2048), v.Size)
	assert.Equal(t, "application/pdf", v.ContentType)
	require.NotNil(t, v.DateModified)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *v.DateModified)
	assert.Equal(t, "d41d8cd9", v.Extra["md5"])

	stored, err := svc.GetLatestVersion(ctx, rec.ID, true)
	require.NoError(t, err)
	assert.True(t, stored.IsComplete())

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.FileAdded, events[0].Action)
	assert.Equal(t, "user-1", events[0].Actor)
	assert.Equal(t, "node-1", events[0].NodeID)
	assert.Equal(t, "docs/report.pdf", events[0].Path)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestResolveEmitsUpdatedForLaterVersions(t *testing.T) {
	svc, recorder := newService(t)
	scope := newScope(t, svc)
	rec := newRecord(t, svc, scope, "a.txt")

	upload(t, svc, rec.ID, "sig-1")
	upload(t, svc, rec.ID, "sig-2")

	assert.Equal(t, []audit.Action{audit.FileAdded, audit.FileUpdated}, recorder.Actions())
}

func TestResolveRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("no versions", func(t *testing.T) {
		svc, _ := newService(t)
		rec := newRecord(t, svc, newScope(t, svc), "a.txt")

		_, err := svc.ResolvePendingVersion(ctx, rec.ID, "sig", location("obj"), nil)
		requireCode(t, err, filetree.ErrNoVersions)
		_, err = svc.CancelPendingVersion(ctx, rec.ID, "sig")
		requireCode(t, err, filetree.ErrNoVersions)
	})

	t.Run("wrong signature leaves version pending", func(t *testing.T) {
		svc, recorder := newService(t)
		rec := newRecord(t, svc, newScope(t, svc), "a.txt")
		_, err := svc.CreatePendingVersion(ctx, rec.ID, "user-1", "sig")
		require.NoError(t, err)

		_, err = svc.ResolvePendingVersion(ctx, rec.ID, "other", location("obj"), nil)
		requireCode(t, err, filetree.ErrPendingSignatureMismatch)
		_, err = svc.CancelPendingVersion(ctx, rec.ID, "other")
		requireCode(t, err, filetree.ErrPendingSignatureMismatch)

		v, err := svc.GetLatestVersion(ctx, rec.ID, true)
		require.NoError(t, err)
		assert.True(t, v.IsPending())
		assert.Empty(t, recorder.Events())
	})

	t.Run("already resolved", func(t *testing.T) {
		svc, _ := newService(t)
		rec := newRecord(t, svc, newScope(t, svc), "a.txt")
		upload(t, svc, rec.ID, "sig")

		_, err := svc.ResolvePendingVersion(ctx, rec.ID, "sig", location("obj"), nil)
		requireCode(t, err, filetree.ErrVersionNotPending)
	})

	t.Run("location missing object is not persisted", func(t *testing.T) {
		svc, recorder := newService(t)
		rec := newRecord(t, svc, newScope(t, svc), "a.txt")
		_, err := svc.CreatePendingVersion(ctx, rec.ID, "user-1", "sig")
		require.NoError(t, err)

		loc := location("obj")
		delete(loc, filetree.LocationObject)
		_, err = svc.ResolvePendingVersion(ctx, rec.ID, "sig", loc, nil)
		requireCode(t, err, filetree.ErrValidation)

		v, err := svc.GetLatestVersion(ctx, rec.ID, true)
		require.NoError(t, err)
		assert.True(t, v.IsPending())
		assert.Empty(t, v.Location)
		assert.Empty(t, recorder.Events())
	})
}

type fakeVerifier struct {
	err   error
	calls []map[string]string
}

func (f *fakeVerifier) Verify(_ context.Context, loc map[string]string) error {
	f.calls = append(f.calls, loc)
	return f.err
}

func TestResolveVerifiesLocation(t *testing.T) {
	ctx := context.Background()

	t.Run("available", func(t *testing.T) {
		verifier := &fakeVerifier{}
		svc, _ := newService(t, WithVerifier(verifier))
		rec := newRecord(t, svc, newScope(t, svc), "a.txt")

		upload(t, svc, rec.ID, "sig")
		require.Len(t, verifier.calls, 1)
		assert.Equal(t, "obj-sig", verifier.calls[0][filetree.LocationObject])
	})

	t.Run("unavailable", func(t *testing.T) {
		verifier := &fakeVerifier{err: blob.ErrLocationUnavailable}
		svc, recorder := newService(t, WithVerifier(verifier))
		rec := newRecord(t, svc, newScope(t, svc), "a.txt")
		_, err := svc.CreatePendingVersion(ctx, rec.ID, "user-1", "sig")
		require.NoError(t, err)

		_, err = svc.ResolvePendingVersion(ctx, rec.ID, "sig", location("obj"), nil)
		requireCode(t, err, filetree.ErrLocationUnavailable)

		v, err := svc.GetLatestVersion(ctx, rec.ID, true)
		require.NoError(t, err)
		assert.True(t, v.IsPending())
		assert.Empty(t, recorder.Events())
	})

	t.Run("state checks run before verification", func(t *testing.T) {
		verifier := &fakeVerifier{err: errors.New("unreachable")}
		svc, _ := newService(t, WithVerifier(verifier))
		rec := newRecord(t, svc, newScope(t, svc), "a.txt")
		_, err := svc.CreatePendingVersion(ctx, rec.ID, "user-1", "sig")
		require.NoError(t, err)

		_, err = svc.ResolvePendingVersion(ctx, rec.ID, "wrong", location("obj"), nil)
		requireCode(t, err, filetree.ErrPendingSignatureMismatch)
		assert.Empty(t, verifier.calls)
	})
}

func TestCancelPendingVersion(t *testing.T) {
	svc, recorder := newService(t)
	scope := newScope(t, svc)
	rec := newRecord(t, svc, scope, "a.txt")
	ctx := context.Background()

	_, err := svc.CreatePendingVersion(ctx, rec.ID, "user-1", "sig-1")
	require.NoError(t, err)

	v, err := svc.CancelPendingVersion(ctx, rec.ID, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, filetree.StatusFailed, v.Status)

	_, err = svc.CancelPendingVersion(ctx, rec.ID, "sig-1")
	requireCode(t, err, filetree.ErrVersionNotPending)

	// a failed upload frees the path
	_, err = svc.CreatePendingVersion(ctx, rec.ID, "user-1", "sig-2")
	require.NoError(t, err)

	assert.Equal(t, []audit.Action{audit.UploadFailed}, recorder.Actions())
}

func TestSoftDelete(t *testing.T) {
	svc, recorder := newService(t)
	scope := newScope(t, svc)
	rec := newRecord(t, svc, scope, "a.txt")
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, rec.ID, "user-1"))
	requireCode(t, svc.Delete(ctx, rec.ID, "user-1"), filetree.ErrDelete)

	got, err := svc.GetObject(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)

	require.NoError(t, svc.Undelete(ctx, rec.ID, "user-2"))
	requireCode(t, svc.Undelete(ctx, rec.ID, "user-2"), filetree.ErrUndelete)

	events := recorder.Events()
	require.Len(t, events, 2)
	assert.Equal(t, audit.FileRemoved, events[0].Action)
	assert.Equal(t, "user-1", events[0].Actor)
	assert.Equal(t, audit.FileRestored, events[1].Action)
	assert.Equal(t, "user-2", events[1].Actor)
}

func TestSkipAudit(t *testing.T) {
	svc, recorder := newService(t)
	scope := newScope(t, svc)
	rec := newRecord(t, svc, scope, "a.txt")
	ctx := context.Background()

	_, err := svc.CreatePendingVersion(ctx, rec.ID, "user-1", "sig")
	require.NoError(t, err)
	_, err = svc.ResolvePendingVersion(ctx, rec.ID, "sig", location("obj"), nil, SkipAudit())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, rec.ID, "user-1", SkipAudit()))
	require.NoError(t, svc.Undelete(ctx, rec.ID, "user-1", SkipAudit()))

	assert.Empty(t, recorder.Events())
}
