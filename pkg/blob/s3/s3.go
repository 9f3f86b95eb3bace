// Package s3 verifies upload locations stored in Amazon S3 or an
// S3-compatible service.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/internal/ratelimiter"
	"github.com/marmos91/dittostore/pkg/blob"
)

// ServiceName is the location "service" value handled by Verifier.
const ServiceName = "s3"

// HeadObjectAPI is the subset of the S3 client Verifier needs.
type HeadObjectAPI interface {
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
}

// Verifier checks locations with a HEAD request per object.
//
// Location mapping:
//   - service must be "s3"
//   - container is the bucket
//   - object is the key (optionally under KeyPrefix)
//
// Requests go through a token bucket so a burst of completing uploads cannot
// exhaust the S3 request quota.
//
// Thread Safety:
// Safe for concurrent use.
type Verifier struct {
	client    HeadObjectAPI
	keyPrefix string
	limiter   *ratelimiter.RateLimiter
}

// Config contains configuration for the S3 verifier.
type Config struct {
	// Client performs the HEAD requests
	Client HeadObjectAPI

	// KeyPrefix is prepended to every object key
	KeyPrefix string

	// RateLimit throttles HEAD requests (zero value: unlimited)
	RateLimit ratelimiter.Config
}

// NewVerifier creates an S3 location verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}

	return &Verifier{
		client:    cfg.Client,
		keyPrefix: cfg.KeyPrefix,
		limiter:   ratelimiter.New(cfg.RateLimit),
	}, nil
}

// Verify issues HeadObject for the location's bucket and key.
//
// Returns:
//   - nil when the object exists
//   - blob.ErrUnsupportedService for non-S3 locations
//   - blob.ErrLocationUnavailable when the bucket or key is missing
//   - a wrapped error for throttling waits or transport failures
func (v *Verifier) Verify(ctx context.Context, location map[string]string) error {
	if service := location["service"]; service != ServiceName {
		return fmt.Errorf("%w: %q", blob.ErrUnsupportedService, service)
	}

	bucket := location["container"]
	key := location["object"]
	if bucket == "" || key == "" {
		return fmt.Errorf("%w: bucket and key are required", blob.ErrLocationUnavailable)
	}
	key = v.keyPrefix + key

	if err := v.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, err := v.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return nil
	}

	if isNotFound(err) {
		logger.Debug("s3: object s3://%s/%s not found", bucket, key)
		return fmt.Errorf("%w: s3://%s/%s", blob.ErrLocationUnavailable, bucket, key)
	}
	return fmt.Errorf("failed to head s3://%s/%s: %w", bucket, key, err)
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}
