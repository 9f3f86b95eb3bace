package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/audit"
	"github.com/marmos91/dittostore/pkg/blob"
	blobS3 "github.com/marmos91/dittostore/pkg/blob/s3"
	"github.com/marmos91/dittostore/pkg/filestore"
	"github.com/marmos91/dittostore/pkg/metrics"
	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// S3Options is the blob.s3 section.
type S3Options struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// CreateVerifier creates the upload location verifier selected by cfg.
//
// Returns a nil verifier for type "none": locations are then trusted as
// reported by the client.
func CreateVerifier(ctx context.Context, cfg *BlobConfig) (blob.LocationVerifier, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "s3":
		return createS3Verifier(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob type: %q (supported: none, s3)", cfg.Type)
	}
}

func createS3Verifier(ctx context.Context, cfg *BlobConfig) (blob.LocationVerifier, error) {
	var opts S3Options
	if err := decodeOptions(cfg.S3, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 options: %w", err)
	}

	client, err := NewS3Client(ctx, opts)
	if err != nil {
		return nil, err
	}

	verifier, err := blobS3.NewVerifier(blobS3.Config{
		Client:    client,
		KeyPrefix: opts.KeyPrefix,
		RateLimit: cfg.RateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 verifier: %w", err)
	}

	logger.Info("S3 location verifier initialized: region=%s, prefix=%s, rate=%.1f/s",
		opts.Region, opts.KeyPrefix, cfg.RateLimit.RequestsPerSecond)

	// Locations from other services are rejected by the router.
	return blob.Router{blobS3.ServiceName: verifier}, nil
}

// NewS3Client builds an S3 client from opts.
//
// Static credentials are used when both keys are set, otherwise the default
// AWS credential chain applies. A custom endpoint (MinIO, Localstack)
// switches to path-style addressing.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	if opts.Region == "" {
		return nil, fmt.Errorf("S3: region is required")
	}

	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(opts.Region),
	}

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ServiceResult contains the file store service and the resources it owns.
type ServiceResult struct {
	Service *filestore.Service

	// Store must be closed on shutdown
	Store filetree.Store
}

// CreateService wires the configured store, verifier and metrics into a
// file store service. Audit events go to the structured log.
func CreateService(ctx context.Context, cfg *Config, fileStoreMetrics metrics.FileStoreMetrics) (*ServiceResult, error) {
	store, err := CreateStore(ctx, &cfg.Store)
	if err != nil {
		return nil, err
	}

	verifier, err := CreateVerifier(ctx, &cfg.Blob)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	opts := []filestore.Option{
		filestore.WithAuditSink(audit.NewLoggerSink()),
		filestore.WithPageSize(cfg.Versions.PageSize),
	}
	if verifier != nil {
		opts = append(opts, filestore.WithVerifier(verifier))
	}
	if fileStoreMetrics != nil {
		opts = append(opts, filestore.WithMetrics(fileStoreMetrics))
	}

	return &ServiceResult{
		Service: filestore.New(store, opts...),
		Store:   store,
	}, nil
}
