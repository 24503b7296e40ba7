package storage

import (
	"context"
	"io"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/imedwei/audio-url-extractor/internal/errs"
)

// S3Backend implements Backend for one S3 bucket.
type S3Backend struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	downloader *manager.Downloader
	bucket     string
}

// S3Config holds S3-specific configuration.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string // Optional custom endpoint
	UsePathStyle    bool   // For S3-compatible services
}

// NewS3Backend creates a new S3 backend. No network call is made.
func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	// Create AWS config
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, "failed to load AWS config", err)
	}

	// Create S3 client options
	clientOpts := []func(*s3.Options){
		func(o *s3.Options) {
			o.UsePathStyle = cfg.UsePathStyle
		},
	}

	// Add custom endpoint if provided
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)

	return &S3Backend{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		downloader: manager.NewDownloader(client),
		bucket:     cfg.Bucket,
	}, nil
}

// Provider implements Backend.Provider.
func (s *S3Backend) Provider() string {
	return string(SourceS3)
}

// List implements Backend.List.
func (s *S3Backend) List(ctx context.Context, prefix string) iter.Seq2[ObjectRef, error] {
	return func(yield func(ObjectRef, error) bool) {
		paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		})

		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(ObjectRef{}, errs.Wrap(errs.KindBackendIO, "failed to list S3 objects", err))
				return
			}

			for _, obj := range page.Contents {
				ref := ObjectRef{
					Key:  aws.ToString(obj.Key),
					Size: aws.ToInt64(obj.Size),
				}
				if !yield(ref, nil) {
					return
				}
			}
		}
	}
}

// Sign implements Backend.Sign. Presigning is local; the URL lifetime is
// expiry.TTL from the signing instant.
func (s *S3Backend) Sign(ctx context.Context, key string, expiry Expiry) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry.TTL))
	if err != nil {
		return "", errs.Wrap(errs.KindBackendIO, "failed to presign S3 URL", err)
	}

	return req.URL, nil
}

// Download implements Backend.Download.
func (s *S3Backend) Download(ctx context.Context, key string, w io.WriterAt) (int64, error) {
	n, err := s.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return n, errs.Wrap(errs.KindBackendIO, "failed to download from S3", err)
	}

	return n, nil
}
