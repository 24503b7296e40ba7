package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/imedwei/audio-url-extractor/internal/errs"
	"github.com/imedwei/audio-url-extractor/internal/extract"
	"github.com/imedwei/audio-url-extractor/internal/health"
	"github.com/imedwei/audio-url-extractor/internal/storage"
	"github.com/imedwei/audio-url-extractor/internal/storage/storagetest"
)

type fakeExtractor struct {
	mu        sync.Mutex
	requests  []extract.Request
	requestID string

	records []extract.FileRecord
	err     error
	block   bool
}

func (f *fakeExtractor) Extract(ctx context.Context, req extract.Request) ([]extract.FileRecord, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.requestID = extract.RequestID(ctx)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, errs.Wrap(errs.KindBackendIO, "list canceled", ctx.Err())
	}
	return f.records, f.err
}

func (f *fakeExtractor) lastRequest(t *testing.T) extract.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatalf("extractor was not called")
	}
	return f.requests[len(f.requests)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(extractor Extractor) *Server {
	cfg := DefaultConfig()
	cfg.RequestTimeout = 5 * time.Second
	return New(cfg, extractor, testLogger())
}

func post(t *testing.T, h http.Handler, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/extract-audio-urls", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeDetail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp.Detail
}

func TestHandleExtract_Defaults(t *testing.T) {
	duration := 12.5
	fake := &fakeExtractor{records: []extract.FileRecord{
		{FileName: "a.mp3", Path: "songs/a.mp3", URL: "https://example.test/a", DurationSeconds: &duration},
		{FileName: "c.WAV", Path: "songs/c.WAV", URL: "https://example.test/c"},
	}}
	s := newTestServer(fake)

	rr := post(t, s.Handler(), `{"source_type":"s3","container_or_bucket":"media","prefix":"songs/"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Errorf("expected X-Request-Id header")
	}

	want := extract.Request{
		SourceType:      storage.SourceS3,
		Container:       "media",
		Prefix:          "songs/",
		ExpiryDays:      7,
		IncludeDuration: true,
	}
	if got := fake.lastRequest(t); got != want {
		t.Errorf("request = %+v, want %+v", got, want)
	}

	var got []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0]["file_name"] != "a.mp3" || got[0]["path"] != "songs/a.mp3" || got[0]["duration_seconds"] != 12.5 {
		t.Errorf("record 0 = %v", got[0])
	}
	if v, ok := got[1]["duration_seconds"]; !ok || v != nil {
		t.Errorf("record 1 duration_seconds = %v (present %v), want null", v, ok)
	}
}

func TestHandleExtract_ExplicitFields(t *testing.T) {
	fake := &fakeExtractor{}
	s := newTestServer(fake)

	rr := post(t, s.Handler(),
		`{"source_type":"azure","container_or_bucket":"c","prefix":"","expiry_days":3,"include_duration":false,"extra":"ignored"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}

	got := fake.lastRequest(t)
	if got.ExpiryDays != 3 || got.IncludeDuration || got.SourceType != storage.SourceAzure {
		t.Errorf("request = %+v", got)
	}
}

func TestHandleExtract_RequestID(t *testing.T) {
	fake := &fakeExtractor{}
	s := newTestServer(fake)

	rr := post(t, s.Handler(), `{"source_type":"gcs","container_or_bucket":"b"}`, "X-Request-Id", "abc-123")

	if got := rr.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q, want abc-123", got)
	}
	if fake.requestID != "abc-123" {
		t.Errorf("extractor saw request id %q, want abc-123", fake.requestID)
	}
}

func TestHandleExtract_BadRequests(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{"malformed json", `{"source_type":`, "Invalid JSON body"},
		{"wrong type", `{"source_type":"s3","container_or_bucket":"b","expiry_days":"7"}`, "Invalid JSON body"},
		{"missing container", `{"source_type":"s3"}`, "container_or_bucket is required"},
		{"missing source", `{"container_or_bucket":"b"}`, "source_type is required"},
		{"zero expiry", `{"source_type":"s3","container_or_bucket":"b","expiry_days":0}`, "expiry_days must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeExtractor{}
			s := newTestServer(fake)

			rr := post(t, s.Handler(), tt.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if got := decodeDetail(t, rr); got != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got, tt.wantDetail)
			}
			if len(fake.requests) != 0 {
				t.Errorf("extractor should not be called for a malformed request")
			}
		})
	}
}

func TestHandleExtract_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantDetail string
	}{
		{
			name:       "invalid source",
			err:        errs.New(errs.KindInvalidInput, "Invalid source_type"),
			wantCode:   http.StatusBadRequest,
			wantDetail: "Invalid source_type",
		},
		{
			name:       "missing credentials",
			err:        errs.New(errs.KindConfiguration, "Azure credentials not set"),
			wantCode:   http.StatusInternalServerError,
			wantDetail: "Azure credentials not set",
		},
		{
			name:       "backend failure hides cause",
			err:        errs.Wrap(errs.KindBackendIO, "failed to list objects", errors.New("secret provider body")),
			wantCode:   http.StatusInternalServerError,
			wantDetail: "Storage backend error: failed to list objects",
		},
		{
			name:       "deadline",
			err:        errs.Wrap(errs.KindBackendIO, "download failed", context.DeadlineExceeded),
			wantCode:   http.StatusGatewayTimeout,
			wantDetail: "Request timed out",
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantCode:   http.StatusInternalServerError,
			wantDetail: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeExtractor{err: tt.err})

			rr := post(t, s.Handler(), `{"source_type":"azure","container_or_bucket":"c"}`)

			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if got := decodeDetail(t, rr); got != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got, tt.wantDetail)
			}
		})
	}
}

func TestHandleExtract_Timeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestTimeout = 20 * time.Millisecond
	s := New(cfg, &fakeExtractor{block: true}, testLogger())

	rr := post(t, s.Handler(), `{"source_type":"s3","container_or_bucket":"b"}`)

	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rr.Code)
	}
}

func TestHandleExtract_MethodNotAllowed(t *testing.T) {
	s := newTestServer(&fakeExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/extract-audio-urls", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

func TestHandleExtract_EndToEnd(t *testing.T) {
	backend := &storagetest.MemoryBackend{
		Objects: []storagetest.Object{
			{Key: "songs/a.mp3"},
			{Key: "songs/b.txt"},
			{Key: "songs/c.WAV"},
		},
	}
	factory := func(ctx context.Context, source storage.SourceType, container string) (storage.Backend, error) {
		return backend, nil
	}
	extractor := extract.NewExtractor(factory, nil, 1, testLogger())
	s := newTestServer(extractor)

	rr := post(t, s.Handler(),
		`{"source_type":"s3","container_or_bucket":"media","prefix":"songs/","expiry_days":1,"include_duration":false}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	var got []extract.FileRecord
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(got) != 2 || got[0].Path != "songs/a.mp3" || got[1].Path != "songs/c.WAV" {
		t.Fatalf("records = %+v", got)
	}
	for _, rec := range got {
		if rec.DurationSeconds != nil {
			t.Errorf("%s duration = %v, want null", rec.Path, *rec.DurationSeconds)
		}
		if !strings.HasPrefix(rec.URL, "https://memory.test/") {
			t.Errorf("unexpected URL %s", rec.URL)
		}
	}
	if backend.DownloadCalls.Load() != 0 {
		t.Errorf("expected no downloads")
	}
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(&fakeExtractor{})
	s.RegisterHealthCheck("s3", health.CredentialCheck("s3", false))

	tests := []struct {
		path     string
		wantCode int
		contains string
	}{
		{"/healthz/live", http.StatusOK, "alive"},
		{"/healthz/ready", http.StatusOK, "ready"},
		{"/health", http.StatusOK, `"degraded"`},
		{"/metrics", http.StatusOK, "go_goroutines"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}
