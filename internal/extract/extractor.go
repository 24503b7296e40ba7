// Package extract enumerates audio objects in a storage backend, signs a
// read URL for each, and optionally probes their duration.
package extract

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/imedwei/audio-url-extractor/internal/audio"
	"github.com/imedwei/audio-url-extractor/internal/metrics"
	"github.com/imedwei/audio-url-extractor/internal/probe"
	"github.com/imedwei/audio-url-extractor/internal/storage"
	"github.com/imedwei/audio-url-extractor/internal/utils"
)

// Extractor coordinates listing, filtering, signing and probing.
type Extractor struct {
	backends    storage.Factory
	prober      probe.Prober
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// NewExtractor creates a new Extractor. At most concurrency probes run at
// once; 1 processes objects strictly one after another.
func NewExtractor(backends storage.Factory, prober probe.Prober, concurrency int, logger *slog.Logger) *Extractor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Extractor{
		backends:    backends,
		prober:      prober,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Extract returns one FileRecord per audio object under req.Prefix, in
// backend listing order. Any listing, signing or download failure fails
// the whole request; decode failures only leave DurationSeconds nil.
func (e *Extractor) Extract(ctx context.Context, req Request) ([]FileRecord, error) {
	start := e.now()
	source := string(req.SourceType)

	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := e.logger.With(
		"request_id", requestID,
		"source", source,
		"container", req.Container,
		"prefix", req.Prefix,
	)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	backend, err := e.backends(ctx, req.SourceType, req.Container)
	if err != nil {
		metrics.RecordRequest(source, false)
		logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if closer, ok := backend.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Warn("Failed to close storage backend", "error", err)
			}
		}()
	}

	// One expiry for every URL in the response
	expiry := storage.NewExpiry(start, req.ExpiryDays)

	records, listed, err := e.collect(ctx, backend, req, expiry)

	metrics.ObjectsListed.WithLabelValues(source).Add(float64(listed))
	metrics.ExtractDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RecordRequest(source, false)
		logger.Error("Extraction failed", "listed", listed, "error", err)
		return nil, err
	}

	metrics.ObjectsMatched.WithLabelValues(source).Add(float64(len(records)))
	metrics.RecordRequest(source, true)

	logger.Info("Extraction completed",
		"listed", listed,
		"matched", len(records),
		"include_duration", req.IncludeDuration,
		"expires_at", expiry.At,
		"elapsed", time.Since(start),
	)

	return records, nil
}

// collect drives the listing. Signing happens inline so records keep
// listing order; probes run on the errgroup and each writes only its own
// record.
func (e *Extractor) collect(ctx context.Context, backend storage.Backend, req Request, expiry storage.Expiry) ([]FileRecord, int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	var (
		matched []*FileRecord
		listed  int
		loopErr error
	)

	for ref, err := range backend.List(gctx, req.Prefix) {
		if err != nil {
			metrics.RecordStorageOperation("list", backend.Provider(), false)
			loopErr = err
			break
		}
		if gctx.Err() != nil {
			break
		}
		listed++

		if !audio.Matches(ref.Key) {
			continue
		}

		url, err := backend.Sign(gctx, ref.Key, expiry)
		if err != nil {
			metrics.RecordStorageOperation("sign", backend.Provider(), false)
			loopErr = err
			break
		}
		metrics.RecordStorageOperation("sign", backend.Provider(), true)

		rec := &FileRecord{
			FileName: utils.FileNameFromKey(ref.Key),
			Path:     ref.Key,
			URL:      url,
		}
		matched = append(matched, rec)

		if !req.IncludeDuration {
			metrics.RecordProbe(metrics.ProbeSkipped)
			continue
		}

		key := ref.Key
		g.Go(func() error {
			duration, err := e.prober.Probe(gctx, backend, key)
			if err != nil {
				return err
			}
			rec.DurationSeconds = duration
			return nil
		})
	}

	// A probe failure cancels gctx, which in turn ends the listing; report
	// the probe failure as the cause.
	if err := g.Wait(); err != nil {
		return nil, listed, err
	}
	if loopErr != nil {
		return nil, listed, loopErr
	}
	if err := ctx.Err(); err != nil {
		return nil, listed, err
	}
	metrics.RecordStorageOperation("list", backend.Provider(), true)

	records := make([]FileRecord, len(matched))
	for i, rec := range matched {
		records[i] = *rec
	}
	return records, listed, nil
}
