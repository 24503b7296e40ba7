package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/imedwei/audio-url-extractor/internal/errs"
	"github.com/imedwei/audio-url-extractor/internal/utils"
)

// GCSBackend implements Backend for one Google Cloud Storage bucket.
type GCSBackend struct {
	client     *storage.Client
	bucket     string
	accessID   string
	privateKey []byte
}

// GCSConfig holds GCS-specific configuration.
type GCSConfig struct {
	Bucket             string
	ServiceAccountJSON string
}

// ServiceAccount holds the service account fields needed for URL signing.
type ServiceAccount struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// NewGCSBackend creates a new GCS backend.
func NewGCSBackend(ctx context.Context, cfg GCSConfig) (*GCSBackend, error) {
	sa, err := ParseServiceAccountJSON(cfg.ServiceAccountJSON)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return newGCSBackend(client, cfg.Bucket, sa), nil
}

func newGCSBackend(client *storage.Client, bucket string, sa ServiceAccount) *GCSBackend {
	return &GCSBackend{
		client:     client,
		bucket:     bucket,
		accessID:   sa.ClientEmail,
		privateKey: []byte(sa.PrivateKey),
	}
}

// Provider implements Backend.Provider.
func (g *GCSBackend) Provider() string {
	return string(SourceGCS)
}

// List implements Backend.List.
func (g *GCSBackend) List(ctx context.Context, prefix string) iter.Seq2[ObjectRef, error] {
	return func(yield func(ObjectRef, error) bool) {
		it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				yield(ObjectRef{}, errs.Wrap(errs.KindBackendIO, "failed to list GCS objects", err))
				return
			}

			if !yield(ObjectRef{Key: attrs.Name, Size: attrs.Size}, nil) {
				return
			}
		}
	}
}

// Sign implements Backend.Sign with a V4 signed URL expiring at expiry.At.
func (g *GCSBackend) Sign(_ context.Context, key string, expiry Expiry) (string, error) {
	url, err := g.client.Bucket(g.bucket).SignedURL(key, &storage.SignedURLOptions{
		GoogleAccessID: g.accessID,
		PrivateKey:     g.privateKey,
		Method:         http.MethodGet,
		Expires:        expiry.At,
		Scheme:         storage.SigningSchemeV4,
	})
	if err != nil {
		return "", errs.Wrap(errs.KindBackendIO, "failed to sign GCS URL", err)
	}

	return url, nil
}

// Download implements Backend.Download.
func (g *GCSBackend) Download(ctx context.Context, key string, w io.WriterAt) (int64, error) {
	r, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return 0, errs.Wrap(errs.KindBackendIO, "failed to download from GCS", err)
	}
	defer r.Close()

	n, err := utils.CopyBuffered(io.NewOffsetWriter(w, 0), r)
	if err != nil {
		return n, errs.Wrap(errs.KindBackendIO, "failed to read GCS object", err)
	}

	return n, nil
}

// Close closes the GCS client connection.
func (g *GCSBackend) Close() error {
	return g.client.Close()
}

// ParseServiceAccountJSON validates a service account JSON string and
// returns the fields used for signing.
func ParseServiceAccountJSON(jsonStr string) (ServiceAccount, error) {
	var sa ServiceAccount

	if err := json.Unmarshal([]byte(jsonStr), &sa); err != nil {
		return ServiceAccount{}, fmt.Errorf("invalid service account JSON: %w", err)
	}

	if sa.Type != "service_account" {
		return ServiceAccount{}, fmt.Errorf("invalid service account type: %s", sa.Type)
	}

	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return ServiceAccount{}, fmt.Errorf("service account must include client_email and private_key")
	}

	return sa, nil
}
