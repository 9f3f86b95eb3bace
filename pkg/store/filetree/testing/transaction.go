package testing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

func (suite *StoreTestSuite) RunTransactionTests(test *testing.T) {
	test.Run("Update_RollbackOnError", suite.TestUpdate_RollbackOnError)
	test.Run("Update_ReadsOwnWrites", suite.TestUpdate_ReadsOwnWrites)
	test.Run("Update_CancelledContext", suite.TestUpdate_CancelledContext)
	test.Run("View_RejectsWrites", suite.TestView_RejectsWrites)
	test.Run("ConcurrentInsert_SinglePathWinner", suite.TestConcurrentInsert_SinglePathWinner)
}

func (suite *StoreTestSuite) TestUpdate_RollbackOnError(test *testing.T) {
	store := suite.newStore(test)
	scope := filetree.NewScope("node-1")
	obj := filetree.NewObject(filetree.KindTree, scope.ID, filetree.RootPath)
	boom := errors.New("boom")

	err := store.Update(test.Context(), func(tx filetree.Tx) error {
		require.NoError(test, tx.PutScope(scope))
		require.NoError(test, tx.InsertObject(obj))
		require.NoError(test, tx.PutVersion(filetree.NewPendingVersion("u", "s")))
		return boom
	})
	require.ErrorIs(test, err, boom)

	view(test, store, func(tx filetree.Tx) error {
		_, err := tx.GetScope(scope.ID)
		requireCode(test, err, filetree.ErrNotFound)

		_, err = tx.FindObject(scope.ID, filetree.RootPath)
		requireCode(test, err, filetree.ErrNotFound)
		return nil
	})

	// The path slot must still be free after the rollback.
	update(test, store, func(tx filetree.Tx) error {
		return tx.InsertObject(filetree.NewObject(filetree.KindTree, scope.ID, filetree.RootPath))
	})
}

func (suite *StoreTestSuite) TestUpdate_ReadsOwnWrites(test *testing.T) {
	store := suite.newStore(test)

	update(test, store, func(tx filetree.Tx) error {
		scope := filetree.NewScope("node-1")
		require.NoError(test, tx.PutScope(scope))

		got, err := tx.GetScope(scope.ID)
		require.NoError(test, err)
		assert.Equal(test, scope.ID, got.ID)

		obj := filetree.NewObject(filetree.KindRecord, scope.ID, "f")
		require.NoError(test, tx.InsertObject(obj))

		found, err := tx.FindObject(scope.ID, "f")
		require.NoError(test, err)
		assert.Equal(test, obj.ID, found.ID)

		count := 0
		require.NoError(test, tx.ForEachObject(scope.ID, func(*filetree.Object) error {
			count++
			return nil
		}))
		assert.Equal(test, 1, count)
		return nil
	})
}

func (suite *StoreTestSuite) TestUpdate_CancelledContext(test *testing.T) {
	store := suite.newStore(test)

	ctx, cancel := context.WithCancel(test.Context())
	cancel()

	called := false
	err := store.Update(ctx, func(tx filetree.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(test, err, context.Canceled)
	assert.False(test, called)
}

func (suite *StoreTestSuite) TestView_RejectsWrites(test *testing.T) {
	store := suite.newStore(test)

	err := store.View(test.Context(), func(tx filetree.Tx) error {
		return tx.PutScope(filetree.NewScope("node-1"))
	})
	require.Error(test, err)

	view(test, store, func(tx filetree.Tx) error {
		count := 0
		require.NoError(test, tx.ForEachObject("", func(*filetree.Object) error {
			count++
			return nil
		}))
		assert.Zero(test, count)
		return nil
	})
}

func (suite *StoreTestSuite) TestConcurrentInsert_SinglePathWinner(test *testing.T) {
	store := suite.newStore(test)

	const workers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(context.Background(), func(tx filetree.Tx) error {
				if _, err := tx.FindObject("scope-1", "race"); err == nil {
					return filetree.NewError(filetree.ErrAlreadyExists, "race", "exists")
				}
				return tx.InsertObject(filetree.NewObject(filetree.KindRecord, "scope-1", "race"))
			})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if filetree.IsCode(err, filetree.ErrAlreadyExists) {
				losses++
			}
		}()
	}
	wg.Wait()

	assert.Equal(test, 1, wins)
	assert.Equal(test, workers-1, losses)
}
