package filestore

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

func TestGetOrCreateMaterializesAncestors(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	ctx := context.Background()

	rec, err := svc.GetOrCreate(ctx, scope.ID, "/a/b/c.txt", filetree.KindRecord)
	require.NoError(t, err)
	assert.Equal(t, "a/b/c.txt", rec.Path)
	assert.Equal(t, "c.txt", rec.Name())
	assert.Equal(t, ".txt", rec.Extension())

	scope, err = svc.GetScope(ctx, scope.ID)
	require.NoError(t, err)
	require.True(t, scope.HasRoot())

	root, err := svc.GetObject(ctx, scope.RootID)
	require.NoError(t, err)
	assert.True(t, root.IsTree())
	assert.Equal(t, filetree.RootPath, root.Path)

	b, err := svc.FindByPath(ctx, scope.ID, "a/b")
	require.NoError(t, err)
	assert.True(t, b.IsTree())
	assert.Equal(t, []string{rec.ID}, b.Children)

	a, err := svc.FindByPath(ctx, scope.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, a.Children)
	assert.Equal(t, []string{a.ID}, root.Children)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, scope.ID, "a/b.txt", filetree.KindRecord)
	require.NoError(t, err)
	second, err := svc.GetOrCreate(ctx, scope.ID, "a/b.txt", filetree.KindRecord)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var paths []string
	err = svc.Walk(ctx, scope.ID, func(obj *filetree.Object, _ int) error {
		paths = append(paths, obj.Path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "a", "a/b.txt"}, paths)
}

func TestGetOrCreateSiblingsShareParent(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	ctx := context.Background()

	x := newRecord(t, svc, scope, "dir/x")
	y := newRecord(t, svc, scope, "dir/y")

	dir, err := svc.FindByPath(ctx, scope.ID, "dir")
	require.NoError(t, err)

	children, err := svc.ListChildren(ctx, dir.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, x.ID, children[0].ID)
	assert.Equal(t, y.ID, children[1].ID)
}

func TestGetOrCreateKindMismatch(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	ctx := context.Background()

	newRecord(t, svc, scope, "a/file")

	tests := []struct {
		name string
		path string
		kind filetree.Kind
		code filetree.ErrorCode
	}{
		{"tree asked as record", "a", filetree.KindRecord, filetree.ErrIsDirectory},
		{"record asked as tree", "a/file", filetree.KindTree, filetree.ErrNotDirectory},
		{"record used as parent", "a/file/child", filetree.KindRecord, filetree.ErrNotDirectory},
		{"root asked as record", "/", filetree.KindRecord, filetree.ErrIsDirectory},
		{"parent segment", "a/../b", filetree.KindRecord, filetree.ErrInvalidArgument},
		{"invalid kind", "a/x", filetree.Kind("link"), filetree.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetOrCreate(ctx, scope.ID, tt.path, tt.kind)
			requireCode(t, err, tt.code)
		})
	}
}

func TestGetOrCreateUnknownScope(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.GetOrCreate(context.Background(), "missing", "a.txt", filetree.KindRecord)
	requireCode(t, err, filetree.ErrNotFound)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	ctx := context.Background()

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obj, err := svc.GetOrCreate(ctx, scope.ID, "shared/dir/file.txt", filetree.KindRecord)
			if assert.NoError(t, err) {
				ids[i] = obj.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	dir, err := svc.FindByPath(ctx, scope.ID, "shared/dir")
	require.NoError(t, err)
	assert.Len(t, dir.Children, 1)
}

func TestListChildrenOfRecord(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	rec := newRecord(t, svc, scope, "a.txt")

	_, err := svc.ListChildren(context.Background(), rec.ID)
	requireCode(t, err, filetree.ErrNotDirectory)
}

func TestWalkDepths(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)
	ctx := context.Background()

	newRecord(t, svc, scope, "a/b/c.txt")
	newRecord(t, svc, scope, "d.txt")

	var lines []string
	err := svc.Walk(ctx, scope.ID, func(obj *filetree.Object, depth int) error {
		lines = append(lines, strings.Repeat("  ", depth)+obj.Name())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "  a", "    b", "      c.txt", "  d.txt"}, lines)
}

func TestWalkEmptyScope(t *testing.T) {
	svc, _ := newService(t)
	scope := newScope(t, svc)

	called := false
	err := svc.Walk(context.Background(), scope.ID, func(*filetree.Object, int) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}
