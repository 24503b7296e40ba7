package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestS3Backend(t *testing.T, cfg S3Config) *S3Backend {
	t.Helper()
	t.Setenv("AWS_PROFILE", "")

	backend, err := NewS3Backend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewS3Backend() error = %v", err)
	}
	return backend
}

func TestS3Backend_Sign(t *testing.T) {
	backend := newTestS3Backend(t, S3Config{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		Bucket:          "media",
	})

	tests := []struct {
		name        string
		days        int
		wantExpires string
	}{
		{"one day", 1, "86400"},
		{"seven days", 7, "604800"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expiry := NewExpiry(time.Now(), tt.days)

			signed, err := backend.Sign(context.Background(), "songs/a.mp3", expiry)
			if err != nil {
				t.Fatalf("Sign() error = %v", err)
			}

			u, err := url.Parse(signed)
			if err != nil {
				t.Fatalf("Sign() returned unparsable URL: %v", err)
			}

			if !strings.Contains(u.Host, "media") {
				t.Errorf("host %q does not reference the bucket", u.Host)
			}
			if !strings.HasSuffix(u.Path, "/songs/a.mp3") {
				t.Errorf("path = %q, want key suffix", u.Path)
			}

			q := u.Query()
			if got := q.Get("X-Amz-Expires"); got != tt.wantExpires {
				t.Errorf("X-Amz-Expires = %q, want %q", got, tt.wantExpires)
			}
			if q.Get("X-Amz-Signature") == "" {
				t.Errorf("missing signature")
			}
			if !strings.HasPrefix(q.Get("X-Amz-Credential"), "AKIDEXAMPLE/") {
				t.Errorf("X-Amz-Credential = %q", q.Get("X-Amz-Credential"))
			}
		})
	}
}

func TestS3Backend_SignCustomEndpoint(t *testing.T) {
	backend := newTestS3Backend(t, S3Config{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		Bucket:          "media",
		Endpoint:        "https://minio.internal:9000",
		UsePathStyle:    true,
	})

	signed, err := backend.Sign(context.Background(), "a.wav", NewExpiry(time.Now(), 1))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if !strings.HasPrefix(signed, "https://minio.internal:9000/media/a.wav?") {
		t.Errorf("unexpected path-style URL: %v", signed)
	}
}

func TestS3Backend_Provider(t *testing.T) {
	backend := newTestS3Backend(t, S3Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Region:          "eu-west-1",
		Bucket:          "media",
	})

	if got := backend.Provider(); got != "s3" {
		t.Errorf("Provider() = %v, want s3", got)
	}
}
