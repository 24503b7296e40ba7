package extract

import (
	"context"

	"github.com/imedwei/audio-url-extractor/internal/errs"
	"github.com/imedwei/audio-url-extractor/internal/storage"
)

// Request describes one extraction.
type Request struct {
	SourceType storage.SourceType
	Container  string
	Prefix     string // Literal key prefix; empty matches every object
	ExpiryDays int

	// IncludeDuration downloads each matched object to decode its duration.
	IncludeDuration bool
}

// Validate checks the request before any backend is created.
func (r Request) Validate() error {
	if _, err := storage.ParseSourceType(string(r.SourceType)); err != nil {
		return err
	}
	if r.Container == "" {
		return errs.New(errs.KindInvalidInput, "container_or_bucket is required")
	}
	if r.ExpiryDays < 1 {
		return errs.New(errs.KindInvalidInput, "expiry_days must be at least 1")
	}
	return nil
}

// FileRecord is one matched audio object.
type FileRecord struct {
	FileName        string   `json:"file_name"`
	Path            string   `json:"path"`
	URL             string   `json:"url"`
	DurationSeconds *float64 `json:"duration_seconds"` // nil when not probed or not decodable
}

type requestIDKey struct{}

// WithRequestID returns a context carrying the request id used in logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
