package storage

import (
	"context"

	"github.com/imedwei/audio-url-extractor/internal/config"
	"github.com/imedwei/audio-url-extractor/internal/errs"
)

// Factory creates the backend for a source type bound to one container or
// bucket. Credentials are checked before any client is created.
type Factory func(ctx context.Context, source SourceType, container string) (Backend, error)

// ParseSourceType validates a source type from a request.
func ParseSourceType(s string) (SourceType, error) {
	switch st := SourceType(s); st {
	case SourceAzure, SourceS3, SourceGCS:
		return st, nil
	default:
		return "", errs.New(errs.KindInvalidInput, "Invalid source_type")
	}
}

// NewFactory returns a Factory that builds backends from process-wide
// credentials in cfg.
func NewFactory(cfg *config.Config) Factory {
	return func(ctx context.Context, source SourceType, container string) (Backend, error) {
		return NewBackend(ctx, cfg, source, container)
	}
}

// NewBackend creates a storage backend based on configuration.
func NewBackend(ctx context.Context, cfg *config.Config, source SourceType, container string) (Backend, error) {
	switch source {
	case SourceAzure:
		if !cfg.AzureConfigured() {
			return nil, errs.New(errs.KindConfiguration, "Azure credentials not set")
		}
		backend, err := NewAzureBackend(AzureConfig{
			ConnectionString: cfg.AzureConnectionString,
			AccountKey:       cfg.AzureAccountKey,
			Container:        container,
		})
		if err != nil {
			return nil, errs.Wrap(errs.KindConfiguration, "invalid Azure credentials", err)
		}
		return backend, nil

	case SourceS3:
		if !cfg.S3Configured() {
			return nil, errs.New(errs.KindConfiguration,
				"AWS credentials not set. Please define AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.")
		}
		backend, err := NewS3Backend(ctx, S3Config{
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Region:          cfg.AWSRegion,
			Bucket:          container,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3Endpoint != "", // Use path style for custom endpoints
		})
		if err != nil {
			return nil, errs.Wrap(errs.KindConfiguration, "invalid AWS configuration", err)
		}
		return backend, nil

	case SourceGCS:
		if !cfg.GCSConfigured() {
			return nil, errs.New(errs.KindConfiguration, "GCS credentials not set")
		}
		backend, err := NewGCSBackend(ctx, GCSConfig{
			Bucket:             container,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			return nil, errs.Wrap(errs.KindConfiguration, "invalid GCS service account", err)
		}
		return backend, nil

	default:
		return nil, errs.New(errs.KindInvalidInput, "Invalid source_type")
	}
}
