//go:build integration

package s3_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/pkg/blob"
	blobs3 "github.com/marmos91/dittostore/pkg/blob/s3"
	"github.com/marmos91/dittostore/pkg/config"
	"github.com/marmos91/dittostore/pkg/filestore"
	"github.com/marmos91/dittostore/pkg/store/filetree"
	"github.com/marmos91/dittostore/pkg/store/filetree/memory"
)

// setupTestS3 connects to Localstack (or another S3-compatible endpoint) and
// creates bucketName. The bucket and its objects are removed on cleanup.
func setupTestS3(t *testing.T, bucketName string) *s3.Client {
	t.Helper()
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	client, err := config.NewS3Client(ctx, config.S3Options{
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.NoError(t, err)

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucketName)})
	require.NoError(t, err)

	t.Cleanup(func() {
		list, _ := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucketName)})
		if list != nil {
			for _, obj := range list.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucketName), Key: obj.Key})
			}
		}
		_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucketName)})
	})

	return client
}

// TestS3Verifier_Integration completes uploads against a real S3-compatible
// service.
//
// Prerequisites:
//   - Localstack running on localhost:4566
//   - Run with: go test -tags=integration ./test/integration/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3Verifier_Integration(t *testing.T) {
	ctx := context.Background()

	bucketName := "dittostore-test-bucket"
	client := setupTestS3(t, bucketName)

	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String("uploads/report.pdf"),
		Body:   strings.NewReader("%PDF-1.7"),
	})
	require.NoError(t, err)

	verifier, err := blobs3.NewVerifier(blobs3.Config{Client: client})
	require.NoError(t, err)

	t.Run("HeadExistingObject", func(t *testing.T) {
		err := verifier.Verify(ctx, map[string]string{
			"service": "s3", "container": bucketName, "object": "uploads/report.pdf",
		})
		require.NoError(t, err)
	})

	t.Run("HeadMissingObject", func(t *testing.T) {
		err := verifier.Verify(ctx, map[string]string{
			"service": "s3", "container": bucketName, "object": "uploads/missing.pdf",
		})
		require.ErrorIs(t, err, blob.ErrLocationUnavailable)
	})

	t.Run("HeadMissingBucket", func(t *testing.T) {
		err := verifier.Verify(ctx, map[string]string{
			"service": "s3", "container": "dittostore-no-such-bucket", "object": "a",
		})
		require.ErrorIs(t, err, blob.ErrLocationUnavailable)
	})

	t.Run("ResolveThroughService", func(t *testing.T) {
		svc := filestore.New(memory.NewMemoryStore(), filestore.WithVerifier(blob.Router{blobs3.ServiceName: verifier}))

		scope, err := svc.CreateScope(ctx, "node-1")
		require.NoError(t, err)
		rec, err := svc.GetOrCreate(ctx, scope.ID, "report.pdf", filetree.KindRecord)
		require.NoError(t, err)

		_, err = svc.CreatePendingVersion(ctx, rec.ID, "alice", "sig-missing")
		require.NoError(t, err)
		_, err = svc.ResolvePendingVersion(ctx, rec.ID, "sig-missing", map[string]string{
			"service": "s3", "container": bucketName, "object": "uploads/missing.pdf",
		}, nil)
		code, ok := filetree.CodeOf(err)
		require.True(t, ok, "expected StoreError, got %v", err)
		require.Equal(t, filetree.ErrLocationUnavailable, code)

		// the version stays pending, so the same signature can still finish
		v, err := svc.ResolvePendingVersion(ctx, rec.ID, "sig-missing", map[string]string{
			"service": "s3", "container": bucketName, "object": "uploads/report.pdf",
		}, map[string]any{"size": 8})
		require.NoError(t, err)
		require.Equal(t, filetree.StatusComplete, v.Status)
		require.EqualValues(t, 8, v.Size)
	})
}
