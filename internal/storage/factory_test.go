package storage

import (
	"context"
	"testing"

	"github.com/imedwei/audio-url-extractor/internal/config"
	"github.com/imedwei/audio-url-extractor/internal/errs"
)

const testAzureConnectionString = "DefaultEndpointsProtocol=https;AccountName=devacct;AccountKey=c2VjcmV0LWtleQ==;EndpointSuffix=core.windows.net"

func TestParseSourceType(t *testing.T) {
	tests := []struct {
		input   string
		want    SourceType
		wantErr bool
	}{
		{"azure", SourceAzure, false},
		{"s3", SourceS3, false},
		{"gcs", SourceGCS, false},
		{"AZURE", "", true},
		{"ftp", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSourceType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSourceType() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errs.IsInvalidInput(err) {
				t.Errorf("expected invalid input error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseSourceType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewBackend(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")

	tests := []struct {
		name       string
		config     config.Config
		source     SourceType
		wantKind   errs.Kind
		wantErr    bool
		wantProvID string
	}{
		{
			name:     "azure without credentials",
			config:   config.Config{},
			source:   SourceAzure,
			wantErr:  true,
			wantKind: errs.KindConfiguration,
		},
		{
			name: "azure without account key",
			config: config.Config{
				AzureConnectionString: testAzureConnectionString,
			},
			source:   SourceAzure,
			wantErr:  true,
			wantKind: errs.KindConfiguration,
		},
		{
			name: "azure with credentials",
			config: config.Config{
				AzureConnectionString: testAzureConnectionString,
				AzureAccountKey:       "c2VjcmV0LWtleQ==",
			},
			source:     SourceAzure,
			wantProvID: "azure",
		},
		{
			name: "azure with malformed connection string",
			config: config.Config{
				AzureConnectionString: "not a connection string",
				AzureAccountKey:       "c2VjcmV0LWtleQ==",
			},
			source:   SourceAzure,
			wantErr:  true,
			wantKind: errs.KindConfiguration,
		},
		{
			name: "s3 without secret",
			config: config.Config{
				AWSAccessKeyID: "key",
			},
			source:   SourceS3,
			wantErr:  true,
			wantKind: errs.KindConfiguration,
		},
		{
			name: "s3 with credentials",
			config: config.Config{
				AWSAccessKeyID:     "key",
				AWSSecretAccessKey: "secret",
				AWSRegion:          "us-east-1",
			},
			source:     SourceS3,
			wantProvID: "s3",
		},
		{
			name:     "gcs without service account",
			config:   config.Config{},
			source:   SourceGCS,
			wantErr:  true,
			wantKind: errs.KindConfiguration,
		},
		{
			name: "gcs with invalid service account",
			config: config.Config{
				GoogleServiceAccountJSON: `{"type": "authorized_user"}`,
			},
			source:   SourceGCS,
			wantErr:  true,
			wantKind: errs.KindConfiguration,
		},
		{
			name:     "unknown source",
			config:   config.Config{AWSAccessKeyID: "key", AWSSecretAccessKey: "secret"},
			source:   SourceType("ftp"),
			wantErr:  true,
			wantKind: errs.KindInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := NewBackend(context.Background(), &tt.config, tt.source, "media")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if got := errs.KindOf(err); got != tt.wantKind {
					t.Errorf("NewBackend() error kind = %v, want %v", got, tt.wantKind)
				}
				return
			}
			if got := backend.Provider(); got != tt.wantProvID {
				t.Errorf("Provider() = %v, want %v", got, tt.wantProvID)
			}
		})
	}
}

func TestNewFactory(t *testing.T) {
	factory := NewFactory(&config.Config{})

	_, err := factory(context.Background(), SourceS3, "bucket")
	if !errs.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
