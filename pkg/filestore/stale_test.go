package filestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindStalePending(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	ctx := context.Background()

	done := newRecord(t, svc, scope, "done.txt")
	upload(t, svc, done.ID, "sig")

	first := newRecord(t, svc, scope, "first.txt")
	_, err := svc.CreatePendingVersion(ctx, first.ID, "user-1", "sig-a")
	require.NoError(t, err)

	second := newRecord(t, svc, scope, "dir/second.txt")
	_, err = svc.CreatePendingVersion(ctx, second.ID, "user-2", "sig-b")
	require.NoError(t, err)

	stale, err := svc.FindStalePending(ctx, time.Now().Add(time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.False(t, stale[1].Created.Before(stale[0].Created))

	byRecord := map[string]StalePending{}
	for _, p := range stale {
		byRecord[p.RecordID] = p
	}
	require.Contains(t, byRecord, first.ID)
	require.Contains(t, byRecord, second.ID)
	assert.Equal(t, "sig-a", byRecord[first.ID].Signature)
	assert.Equal(t, "user-1", byRecord[first.ID].Creator)
	assert.Equal(t, "dir/second.txt", byRecord[second.ID].Path)
	assert.Equal(t, scope.ID, byRecord[second.ID].ScopeID)

	limited, err := svc.FindStalePending(ctx, time.Now().Add(time.Minute), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	fresh, err := svc.FindStalePending(ctx, time.Now().Add(-time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}
