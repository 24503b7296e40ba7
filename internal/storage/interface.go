// Package storage defines the object storage backends audio files are
// listed, signed and downloaded from.
package storage

import (
	"context"
	"io"
	"iter"
)

// SourceType selects a storage backend.
type SourceType string

const (
	// SourceAzure is Azure Blob Storage: containers of blobs, SAS-signed URLs.
	SourceAzure SourceType = "azure"
	// SourceS3 is Amazon S3 or an S3-compatible service: presigned URLs.
	SourceS3 SourceType = "s3"
	// SourceGCS is Google Cloud Storage: V4 signed URLs.
	SourceGCS SourceType = "gcs"
)

// Backend is the capability set the extraction pipeline needs from a
// storage provider. A Backend is bound to one container or bucket.
type Backend interface {
	// Provider returns the backend name used in logs and metrics.
	Provider() string

	// List yields every object whose key starts with prefix, in provider
	// order, fetching further pages as the sequence is consumed. A listing
	// failure is yielded once as a non-nil error and ends the sequence.
	List(ctx context.Context, prefix string) iter.Seq2[ObjectRef, error]

	// Sign returns a read-only URL for key that is valid until expiry.
	Sign(ctx context.Context, key string, expiry Expiry) (string, error)

	// Download writes the full content of key to w and returns the number
	// of bytes written.
	Download(ctx context.Context, key string, w io.WriterAt) (int64, error)
}

// ObjectRef identifies a stored object by its backend-native key.
type ObjectRef struct {
	Key  string
	Size int64
}
