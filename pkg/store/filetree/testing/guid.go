package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

func (suite *StoreTestSuite) RunGuidFileTests(test *testing.T) {
	test.Run("InsertGuidFile_RoundTrip", suite.TestInsertGuidFile_RoundTrip)
	test.Run("InsertGuidFile_Duplicate", suite.TestInsertGuidFile_Duplicate)
	test.Run("FindGuidFile_NotFound", suite.TestFindGuidFile_NotFound)
}

func (suite *StoreTestSuite) TestInsertGuidFile_RoundTrip(test *testing.T) {
	store := suite.newStore(test)
	g := filetree.NewGuidFile("node-1", "data/x.csv")

	update(test, store, func(tx filetree.Tx) error {
		return tx.InsertGuidFile(g)
	})

	view(test, store, func(tx filetree.Tx) error {
		got, err := tx.FindGuidFile("node-1", "data/x.csv")
		require.NoError(test, err)
		assert.Equal(test, *g, *got)
		return nil
	})
}

func (suite *StoreTestSuite) TestInsertGuidFile_Duplicate(test *testing.T) {
	store := suite.newStore(test)

	update(test, store, func(tx filetree.Tx) error {
		return tx.InsertGuidFile(filetree.NewGuidFile("node-1", "a"))
	})

	err := store.Update(test.Context(), func(tx filetree.Tx) error {
		return tx.InsertGuidFile(filetree.NewGuidFile("node-1", "a"))
	})
	requireCode(test, err, filetree.ErrAlreadyExists)

	update(test, store, func(tx filetree.Tx) error {
		return tx.InsertGuidFile(filetree.NewGuidFile("node-2", "a"))
	})
}

func (suite *StoreTestSuite) TestFindGuidFile_NotFound(test *testing.T) {
	store := suite.newStore(test)

	view(test, store, func(tx filetree.Tx) error {
		_, err := tx.FindGuidFile("node-1", "missing")
		requireCode(test, err, filetree.ErrNotFound)
		return nil
	})
}
