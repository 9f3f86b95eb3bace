// Package testing provides the conformance suite for filetree.Store backends.
package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// StoreTestSuite is a test suite for filetree.Store implementations.
// It tests the interface contract, not implementation details, making it
// reusable across backends (memory, badger, bolt).
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test. Backends needing a
	// directory use test.TempDir(); the suite closes the store on cleanup.
	NewStore func(test *testing.T) filetree.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("Scope", suite.RunScopeTests)
	test.Run("Object", suite.RunObjectTests)
	test.Run("Version", suite.RunVersionTests)
	test.Run("GuidFile", suite.RunGuidFileTests)
	test.Run("Transaction", suite.RunTransactionTests)
}

func (suite *StoreTestSuite) newStore(test *testing.T) filetree.Store {
	test.Helper()

	store := suite.NewStore(test)
	test.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func update(test *testing.T, store filetree.Store, fn func(tx filetree.Tx) error) {
	test.Helper()
	require.NoError(test, store.Update(context.Background(), fn))
}

func view(test *testing.T, store filetree.Store, fn func(tx filetree.Tx) error) {
	test.Helper()
	require.NoError(test, store.View(context.Background(), fn))
}

func requireCode(test *testing.T, err error, code filetree.ErrorCode) {
	test.Helper()

	got, ok := filetree.CodeOf(err)
	require.True(test, ok, "expected StoreError with code %s, got %v", code, err)
	require.Equal(test, code, got)
}
