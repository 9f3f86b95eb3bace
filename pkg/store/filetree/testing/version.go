package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

func (suite *StoreTestSuite) RunVersionTests(test *testing.T) {
	test.Run("PutVersion_Pending", suite.TestPutVersion_Pending)
	test.Run("PutVersion_Complete", suite.TestPutVersion_Complete)
	test.Run("GetVersion_NotFound", suite.TestGetVersion_NotFound)
}

func (suite *StoreTestSuite) TestPutVersion_Pending(test *testing.T) {
	store := suite.newStore(test)
	v := filetree.NewPendingVersion("user-1", "sig-1")

	update(test, store, func(tx filetree.Tx) error {
		return tx.PutVersion(v)
	})

	view(test, store, func(tx filetree.Tx) error {
		got, err := tx.GetVersion(v.ID)
		require.NoError(test, err)
		assert.Equal(test, filetree.StatusPending, got.Status)
		assert.Equal(test, "user-1", got.Creator)
		assert.Equal(test, "sig-1", got.Signature)
		assert.Nil(test, got.DateModified)
		return nil
	})
}

func (suite *StoreTestSuite) TestPutVersion_Complete(test *testing.T) {
	store := suite.newStore(test)
	v := filetree.NewPendingVersion("user-1", "sig-1")
	require.NoError(test, v.Resolve("sig-1", map[string]string{
		filetree.LocationService:   "s3",
		filetree.LocationContainer: "bucket",
		filetree.LocationObject:    "key",
	}, map[string]any{
		"size":          512,
		"content_type":  "image/png",
		"date_modified": "2021-06-01T12:00:00Z",
		"etag":          "xyz",
	}, filetree.DefaultParsers()))

	update(test, store, func(tx filetree.Tx) error {
		return tx.PutVersion(v)
	})

	view(test, store, func(tx filetree.Tx) error {
		got, err := tx.GetVersion(v.ID)
		require.NoError(test, err)
		assert.Equal(test, filetree.StatusComplete, got.Status)
		assert.Equal(test, v.Location, got.Location)
		assert.Equal(test, int64(512), got.Size)
		assert.Equal(test, "image/png", got.ContentType)
		require.NotNil(test, got.DateModified)
		assert.True(test, v.DateModified.Equal(*got.DateModified))
		assert.Equal(test, "xyz", got.Extra["etag"])
		return nil
	})
}

func (suite *StoreTestSuite) TestGetVersion_NotFound(test *testing.T) {
	store := suite.newStore(test)

	view(test, store, func(tx filetree.Tx) error {
		_, err := tx.GetVersion("missing")
		requireCode(test, err, filetree.ErrNotFound)
		return nil
	})
}
