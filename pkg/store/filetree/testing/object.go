package testing

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

func (suite *StoreTestSuite) RunObjectTests(test *testing.T) {
	test.Run("InsertObject_RoundTrip", suite.TestInsertObject_RoundTrip)
	test.Run("InsertObject_DuplicatePath", suite.TestInsertObject_DuplicatePath)
	test.Run("InsertObject_SamePathOtherScope", suite.TestInsertObject_SamePathOtherScope)
	test.Run("FindObject_NotFound", suite.TestFindObject_NotFound)
	test.Run("PutObject_Update", suite.TestPutObject_Update)
	test.Run("PutObject_NotInserted", suite.TestPutObject_NotInserted)
	test.Run("ForEachObject_FiltersScope", suite.TestForEachObject_FiltersScope)
	test.Run("ReturnedObjectsAreCopies", suite.TestReturnedObjectsAreCopies)
}

func (suite *StoreTestSuite) TestInsertObject_RoundTrip(test *testing.T) {
	store := suite.newStore(test)

	tree := filetree.NewObject(filetree.KindTree, "scope-1", "docs")
	tree.Children = []string{"c1", "c2"}
	rec := filetree.NewObject(filetree.KindRecord, "scope-1", "docs/a.txt")
	rec.Versions = []string{"v1"}
	rec.IsDeleted = true

	update(test, store, func(tx filetree.Tx) error {
		require.NoError(test, tx.InsertObject(tree))
		return tx.InsertObject(rec)
	})

	view(test, store, func(tx filetree.Tx) error {
		got, err := tx.GetObject(tree.ID)
		require.NoError(test, err)
		assert.Equal(test, filetree.KindTree, got.Kind)
		assert.Equal(test, []string{"c1", "c2"}, got.Children)

		got, err = tx.FindObject("scope-1", "docs/a.txt")
		require.NoError(test, err)
		assert.Equal(test, rec.ID, got.ID)
		assert.Equal(test, filetree.KindRecord, got.Kind)
		assert.Equal(test, []string{"v1"}, got.Versions)
		assert.True(test, got.IsDeleted)
		return nil
	})
}

func (suite *StoreTestSuite) TestInsertObject_DuplicatePath(test *testing.T) {
	store := suite.newStore(test)

	first := filetree.NewObject(filetree.KindRecord, "scope-1", "a.txt")
	update(test, store, func(tx filetree.Tx) error {
		return tx.InsertObject(first)
	})

	second := filetree.NewObject(filetree.KindRecord, "scope-1", "a.txt")
	err := store.Update(test.Context(), func(tx filetree.Tx) error {
		return tx.InsertObject(second)
	})
	requireCode(test, err, filetree.ErrAlreadyExists)

	view(test, store, func(tx filetree.Tx) error {
		got, err := tx.FindObject("scope-1", "a.txt")
		require.NoError(test, err)
		assert.Equal(test, first.ID, got.ID)

		_, err = tx.GetObject(second.ID)
		requireCode(test, err, filetree.ErrNotFound)
		return nil
	})
}

func (suite *StoreTestSuite) TestInsertObject_SamePathOtherScope(test *testing.T) {
	store := suite.newStore(test)

	update(test, store, func(tx filetree.Tx) error {
		require.NoError(test, tx.InsertObject(filetree.NewObject(filetree.KindRecord, "scope-1", "a.txt")))
		return tx.InsertObject(filetree.NewObject(filetree.KindRecord, "scope-2", "a.txt"))
	})
}

func (suite *StoreTestSuite) TestFindObject_NotFound(test *testing.T) {
	store := suite.newStore(test)

	view(test, store, func(tx filetree.Tx) error {
		_, err := tx.FindObject("scope-1", "missing")
		requireCode(test, err, filetree.ErrNotFound)

		_, err = tx.GetObject("missing")
		requireCode(test, err, filetree.ErrNotFound)
		return nil
	})
}

func (suite *StoreTestSuite) TestPutObject_Update(test *testing.T) {
	store := suite.newStore(test)
	tree := filetree.NewObject(filetree.KindTree, "scope-1", filetree.RootPath)

	update(test, store, func(tx filetree.Tx) error {
		return tx.InsertObject(tree)
	})

	update(test, store, func(tx filetree.Tx) error {
		got, err := tx.GetObject(tree.ID)
		require.NoError(test, err)
		got.AppendChild("child-1")
		return tx.PutObject(got)
	})

	view(test, store, func(tx filetree.Tx) error {
		got, err := tx.FindObject("scope-1", filetree.RootPath)
		require.NoError(test, err)
		assert.Equal(test, []string{"child-1"}, got.Children)
		return nil
	})
}

func (suite *StoreTestSuite) TestPutObject_NotInserted(test *testing.T) {
	store := suite.newStore(test)

	err := store.Update(test.Context(), func(tx filetree.Tx) error {
		return tx.PutObject(filetree.NewObject(filetree.KindTree, "scope-1", "x"))
	})
	requireCode(test, err, filetree.ErrNotFound)
}

func (suite *StoreTestSuite) TestForEachObject_FiltersScope(test *testing.T) {
	store := suite.newStore(test)

	update(test, store, func(tx filetree.Tx) error {
		for _, p := range []string{"a", "b", "c"} {
			require.NoError(test, tx.InsertObject(filetree.NewObject(filetree.KindRecord, "scope-1", p)))
		}
		return tx.InsertObject(filetree.NewObject(filetree.KindRecord, "scope-2", "z"))
	})

	view(test, store, func(tx filetree.Tx) error {
		var paths []string
		require.NoError(test, tx.ForEachObject("scope-1", func(obj *filetree.Object) error {
			paths = append(paths, obj.Path)
			return nil
		}))
		sort.Strings(paths)
		assert.Equal(test, []string{"a", "b", "c"}, paths)

		count := 0
		require.NoError(test, tx.ForEachObject("", func(obj *filetree.Object) error {
			count++
			return nil
		}))
		assert.Equal(test, 4, count)
		return nil
	})
}

func (suite *StoreTestSuite) TestReturnedObjectsAreCopies(test *testing.T) {
	store := suite.newStore(test)
	tree := filetree.NewObject(filetree.KindTree, "scope-1", "dir")

	update(test, store, func(tx filetree.Tx) error {
		return tx.InsertObject(tree)
	})
	tree.Children = append(tree.Children, "leaked")

	view(test, store, func(tx filetree.Tx) error {
		got, err := tx.GetObject(tree.ID)
		require.NoError(test, err)
		assert.Empty(test, got.Children)
		got.Children = append(got.Children, "leaked")
		return nil
	})

	view(test, store, func(tx filetree.Tx) error {
		got, err := tx.GetObject(tree.ID)
		require.NoError(test, err)
		assert.Empty(test, got.Children)
		return nil
	})
}
