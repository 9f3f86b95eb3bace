package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

func (suite *StoreTestSuite) RunScopeTests(test *testing.T) {
	test.Run("PutScope_RoundTrip", suite.TestPutScope_RoundTrip)
	test.Run("PutScope_Replace", suite.TestPutScope_Replace)
	test.Run("GetScope_NotFound", suite.TestGetScope_NotFound)
}

func (suite *StoreTestSuite) TestPutScope_RoundTrip(test *testing.T) {
	store := suite.newStore(test)
	scope := filetree.NewScope("node-1")

	update(test, store, func(tx filetree.Tx) error {
		return tx.PutScope(scope)
	})

	view(test, store, func(tx filetree.Tx) error {
		got, err := tx.GetScope(scope.ID)
		require.NoError(test, err)
		assert.Equal(test, scope.ID, got.ID)
		assert.Equal(test, "node-1", got.OwnerNodeID)
		assert.False(test, got.HasRoot())
		assert.True(test, scope.Created.Equal(got.Created))
		return nil
	})
}

func (suite *StoreTestSuite) TestPutScope_Replace(test *testing.T) {
	store := suite.newStore(test)
	scope := filetree.NewScope("node-1")

	update(test, store, func(tx filetree.Tx) error {
		return tx.PutScope(scope)
	})

	scope.RootID = "root-id"
	update(test, store, func(tx filetree.Tx) error {
		return tx.PutScope(scope)
	})

	view(test, store, func(tx filetree.Tx) error {
		got, err := tx.GetScope(scope.ID)
		require.NoError(test, err)
		assert.Equal(test, "root-id", got.RootID)
		return nil
	})
}

func (suite *StoreTestSuite) TestGetScope_NotFound(test *testing.T) {
	store := suite.newStore(test)

	view(test, store, func(tx filetree.Tx) error {
		_, err := tx.GetScope("missing")
		requireCode(test, err, filetree.ErrNotFound)
		return nil
	})
}
