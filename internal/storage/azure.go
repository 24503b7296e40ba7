package storage

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/imedwei/audio-url-extractor/internal/errs"
	"github.com/imedwei/audio-url-extractor/internal/utils"
)

// AzureBackend implements Backend for one Azure Blob Storage container.
type AzureBackend struct {
	client     *azblob.Client
	credential *azblob.SharedKeyCredential
	serviceURL string
	container  string
}

// AzureConfig holds Azure-specific configuration.
type AzureConfig struct {
	ConnectionString string
	AccountKey       string // Signs SAS tokens; must match the connection string's account
	Container        string
}

// NewAzureBackend creates a new Azure Blob Storage backend. No network call
// is made.
func NewAzureBackend(cfg AzureConfig) (*AzureBackend, error) {
	conn, err := parseConnectionString(cfg.ConnectionString)
	if err != nil {
		return nil, err
	}

	credential, err := azblob.NewSharedKeyCredential(conn.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid Azure account key: %w", err)
	}

	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	return &AzureBackend{
		client:     client,
		credential: credential,
		serviceURL: conn.ServiceURL,
		container:  cfg.Container,
	}, nil
}

// Provider implements Backend.Provider.
func (a *AzureBackend) Provider() string {
	return string(SourceAzure)
}

// List implements Backend.List.
func (a *AzureBackend) List(ctx context.Context, prefix string) iter.Seq2[ObjectRef, error] {
	return func(yield func(ObjectRef, error) bool) {
		opts := &azblob.ListBlobsFlatOptions{}
		if prefix != "" {
			opts.Prefix = to.Ptr(prefix)
		}

		pager := a.client.NewListBlobsFlatPager(a.container, opts)
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				yield(ObjectRef{}, errs.Wrap(errs.KindBackendIO, "failed to list Azure blobs", err))
				return
			}
			if page.Segment == nil {
				continue
			}

			for _, item := range page.Segment.BlobItems {
				if item == nil || item.Name == nil {
					continue
				}
				ref := ObjectRef{Key: *item.Name}
				if item.Properties != nil && item.Properties.ContentLength != nil {
					ref.Size = *item.Properties.ContentLength
				}
				if !yield(ref, nil) {
					return
				}
			}
		}
	}
}

// Sign implements Backend.Sign. The SAS token is computed locally from the
// account key and expires at expiry.At.
func (a *AzureBackend) Sign(_ context.Context, key string, expiry Expiry) (string, error) {
	values := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		ExpiryTime:    expiry.At,
		Permissions:   to.Ptr(sas.BlobPermissions{Read: true}).String(),
		ContainerName: a.container,
		BlobName:      key,
	}

	params, err := values.SignWithSharedKey(a.credential)
	if err != nil {
		return "", errs.Wrap(errs.KindBackendIO, "failed to sign Azure blob URL", err)
	}

	return a.blobURL(key) + "?" + params.Encode(), nil
}

// Download implements Backend.Download.
func (a *AzureBackend) Download(ctx context.Context, key string, w io.WriterAt) (int64, error) {
	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		return 0, errs.Wrap(errs.KindBackendIO, "failed to download Azure blob", err)
	}
	defer resp.Body.Close()

	n, err := utils.CopyBuffered(io.NewOffsetWriter(w, 0), resp.Body)
	if err != nil {
		return n, errs.Wrap(errs.KindBackendIO, "failed to read Azure blob", err)
	}

	return n, nil
}

// blobURL returns the unsigned URL of a blob in the container.
func (a *AzureBackend) blobURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", a.serviceURL, url.PathEscape(a.container), strings.Join(segments, "/"))
}

// connectionString holds the parts of an Azure storage connection string
// needed to build blob URLs.
type connectionString struct {
	AccountName string
	ServiceURL  string // Without trailing slash
}

// parseConnectionString extracts the account name and blob service URL
// from an Azure storage connection string.
func parseConnectionString(raw string) (connectionString, error) {
	fields := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return connectionString{}, fmt.Errorf("invalid Azure connection string segment: %q", k)
		}
		fields[strings.ToLower(k)] = v
	}

	var cs connectionString
	cs.AccountName = fields["accountname"]

	if endpoint := fields["blobendpoint"]; endpoint != "" {
		cs.ServiceURL = strings.TrimSuffix(endpoint, "/")
		if cs.AccountName == "" {
			// https://<account>.blob.core.windows.net
			u, err := url.Parse(endpoint)
			if err != nil {
				return connectionString{}, fmt.Errorf("invalid Azure BlobEndpoint: %w", err)
			}
			cs.AccountName, _, _ = strings.Cut(u.Hostname(), ".")
		}
	}

	if cs.AccountName == "" {
		return connectionString{}, fmt.Errorf("Azure connection string has no AccountName")
	}

	if cs.ServiceURL == "" {
		protocol := fields["defaultendpointsprotocol"]
		if protocol == "" {
			protocol = "https"
		}
		suffix := fields["endpointsuffix"]
		if suffix == "" {
			suffix = "core.windows.net"
		}
		cs.ServiceURL = fmt.Sprintf("%s://%s.blob.%s", protocol, cs.AccountName, suffix)
	}

	return cs, nil
}
