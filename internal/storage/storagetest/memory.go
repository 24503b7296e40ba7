// Package storagetest provides an in-memory storage.Backend for tests.
package storagetest

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/imedwei/audio-url-extractor/internal/errs"
	"github.com/imedwei/audio-url-extractor/internal/storage"
)

// Object is a stored object.
type Object struct {
	Key  string
	Data []byte
}

// MemoryBackend is a storage.Backend over a fixed, ordered object list.
// Listing is served in pages of PageSize to exercise pagination.
type MemoryBackend struct {
	Objects  []Object
	PageSize int

	// ListErrAfter, when positive, fails listing after that many objects.
	ListErrAfter int
	// DownloadErr fails downloads of the named keys.
	DownloadErr map[string]error
	// SignErr fails every Sign call.
	SignErr error

	ListCalls     atomic.Int32
	PagesServed   atomic.Int32
	SignCalls     atomic.Int32
	DownloadCalls atomic.Int32

	mu       sync.Mutex
	expiries []storage.Expiry
}

// Provider implements storage.Backend.
func (m *MemoryBackend) Provider() string {
	return "memory"
}

// List implements storage.Backend.
func (m *MemoryBackend) List(ctx context.Context, prefix string) iter.Seq2[storage.ObjectRef, error] {
	m.ListCalls.Add(1)

	return func(yield func(storage.ObjectRef, error) bool) {
		pageSize := m.PageSize
		if pageSize <= 0 {
			pageSize = 1000
		}

		var matched []storage.ObjectRef
		for _, obj := range m.Objects {
			if strings.HasPrefix(obj.Key, prefix) {
				matched = append(matched, storage.ObjectRef{Key: obj.Key, Size: int64(len(obj.Data))})
			}
		}

		served := 0
		for start := 0; start < len(matched) || start == 0; start += pageSize {
			if err := ctx.Err(); err != nil {
				yield(storage.ObjectRef{}, errs.Wrap(errs.KindBackendIO, "list canceled", err))
				return
			}
			m.PagesServed.Add(1)

			end := min(start+pageSize, len(matched))
			for _, ref := range matched[start:end] {
				if m.ListErrAfter > 0 && served == m.ListErrAfter {
					yield(storage.ObjectRef{}, errs.New(errs.KindBackendIO, "listing failed"))
					return
				}
				served++
				if !yield(ref, nil) {
					return
				}
			}
			if end >= len(matched) {
				return
			}
		}
	}
}

// Sign implements storage.Backend. The URL embeds the expiry instant.
func (m *MemoryBackend) Sign(_ context.Context, key string, expiry storage.Expiry) (string, error) {
	m.SignCalls.Add(1)
	if m.SignErr != nil {
		return "", m.SignErr
	}

	m.mu.Lock()
	m.expiries = append(m.expiries, expiry)
	m.mu.Unlock()

	return fmt.Sprintf("https://memory.test/%s?se=%d", url.PathEscape(key), expiry.At.Unix()), nil
}

// Download implements storage.Backend.
func (m *MemoryBackend) Download(ctx context.Context, key string, w io.WriterAt) (int64, error) {
	m.DownloadCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(errs.KindBackendIO, "download canceled", err)
	}
	if err, ok := m.DownloadErr[key]; ok {
		return 0, err
	}

	for _, obj := range m.Objects {
		if obj.Key == key {
			n, err := w.WriteAt(obj.Data, 0)
			return int64(n), err
		}
	}
	return 0, errs.Newf(errs.KindBackendIO, "object %q not found", key)
}

// Expiries returns the expiry passed to every successful Sign call.
func (m *MemoryBackend) Expiries() []storage.Expiry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.Expiry(nil), m.expiries...)
}

// TotalCalls returns the number of list, sign and download calls made.
func (m *MemoryBackend) TotalCalls() int {
	return int(m.ListCalls.Load() + m.SignCalls.Load() + m.DownloadCalls.Load())
}
