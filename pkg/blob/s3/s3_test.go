package s3

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/internal/ratelimiter"
	"github.com/marmos91/dittostore/pkg/blob"
)

// fakeS3 answers HeadObject from a set of "bucket/key" entries.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]bool
	calls   []string
	err     error
}

func (f *fakeS3) HeadObject(_ context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.calls = append(f.calls, name)

	if f.err != nil {
		return nil, f.err
	}
	if !f.objects[name] {
		return nil, &types.NotFound{}
	}
	return &awss3.HeadObjectOutput{ContentLength: aws.Int64(3)}, nil
}

func location(service, bucket, key string) map[string]string {
	return map[string]string{"service": service, "container": bucket, "object": key}
}

func TestVerify(t *testing.T) {
	client := &fakeS3{objects: map[string]bool{"bucket/uploads/abc": true}}
	v, err := NewVerifier(Config{Client: client, KeyPrefix: "uploads/"})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		assert.NoError(t, v.Verify(ctx, location("s3", "bucket", "abc")))
	})

	t.Run("MissingObject", func(t *testing.T) {
		err := v.Verify(ctx, location("s3", "bucket", "nope"))
		assert.ErrorIs(t, err, blob.ErrLocationUnavailable)
	})

	t.Run("OtherService", func(t *testing.T) {
		err := v.Verify(ctx, location("gcs", "bucket", "abc"))
		assert.ErrorIs(t, err, blob.ErrUnsupportedService)
	})

	t.Run("EmptyKey", func(t *testing.T) {
		err := v.Verify(ctx, location("s3", "bucket", ""))
		assert.ErrorIs(t, err, blob.ErrLocationUnavailable)
	})

	assert.Equal(t, []string{"bucket/uploads/abc", "bucket/uploads/nope"}, client.calls)
}

func TestVerify_TransportError(t *testing.T) {
	boom := errors.New("connection reset")
	v, err := NewVerifier(Config{Client: &fakeS3{err: boom}})
	require.NoError(t, err)

	err = v.Verify(context.Background(), location("s3", "bucket", "abc"))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, blob.ErrLocationUnavailable)
}

func TestVerify_RateLimited(t *testing.T) {
	client := &fakeS3{objects: map[string]bool{"bucket/abc": true}}
	v, err := NewVerifier(Config{
		Client:    client,
		RateLimit: ratelimiter.Config{RequestsPerSecond: 1, Burst: 1},
	})
	require.NoError(t, err)

	require.NoError(t, v.Verify(context.Background(), location("s3", "bucket", "abc")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = v.Verify(ctx, location("s3", "bucket", "abc"))
	assert.Error(t, err)
	assert.Len(t, client.calls, 1)
}

func TestNewVerifier_RequiresClient(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	client := &fakeS3{objects: map[string]bool{"bucket/abc": true}}
	v, err := NewVerifier(Config{Client: client})
	require.NoError(t, err)

	router := blob.Router{ServiceName: v}
	assert.NoError(t, router.Verify(context.Background(), location("s3", "bucket", "abc")))
	assert.ErrorIs(t, router.Verify(context.Background(), location("osf", "bucket", "abc")), blob.ErrUnsupportedService)
}
