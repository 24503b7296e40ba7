// Package probe downloads stored audio objects to transient local files and
// decodes their playback duration.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/imedwei/audio-url-extractor/internal/audio"
	"github.com/imedwei/audio-url-extractor/internal/metrics"
	"github.com/imedwei/audio-url-extractor/internal/storage"
	"github.com/imedwei/audio-url-extractor/internal/utils"
)

// Prober determines the duration of one stored object.
type Prober interface {
	// Probe returns the duration in seconds, or nil when it could not be
	// decoded. A non-nil error means the object could not be fetched.
	Probe(ctx context.Context, backend storage.Backend, key string) (*float64, error)
}

// DurationProbe implements Prober with one temporary directory per call.
type DurationProbe struct {
	tempDir string
	decoder audio.Decoder
	logger  *slog.Logger
}

// New creates a DurationProbe. An empty tempDir means os.TempDir().
func New(tempDir string, decoder audio.Decoder, logger *slog.Logger) *DurationProbe {
	return &DurationProbe{
		tempDir: tempDir,
		decoder: decoder,
		logger:  logger,
	}
}

// Probe implements Prober. The temporary directory is removed on every
// return path.
func (p *DurationProbe) Probe(ctx context.Context, backend storage.Backend, key string) (*float64, error) {
	dir, err := os.MkdirTemp(p.tempDir, "audio-probe-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create probe directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			p.logger.Warn("Failed to remove probe directory", "dir", dir, "error", rmErr)
		}
	}()

	localPath := filepath.Join(dir, utils.LocalFileName(key))
	if err := p.fetch(ctx, backend, key, localPath); err != nil {
		return nil, err
	}

	duration, err := p.decoder.Duration(localPath)
	if err != nil {
		metrics.RecordProbe(metrics.ProbeDecodeFailed)
		p.logger.Warn("Failed to decode audio duration", "key", key, "error", err)
		return nil, nil
	}

	metrics.RecordProbe(metrics.ProbeOK)
	seconds := duration.Seconds()
	return &seconds, nil
}

// fetch downloads key into a new file at localPath.
func (p *DurationProbe) fetch(ctx context.Context, backend storage.Backend, key, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create probe file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	w := utils.NewCountingWriterAt(f)
	if _, err := backend.Download(ctx, key, w); err != nil {
		metrics.RecordStorageOperation("download", backend.Provider(), false)
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	metrics.RecordStorageOperation("download", backend.Provider(), true)
	metrics.BytesDownloaded.WithLabelValues(backend.Provider()).Add(float64(w.BytesWritten()))

	p.logger.Debug("Downloaded object for probing",
		"key", key,
		"size", utils.FormatBytes(w.BytesWritten()),
		"elapsed", time.Since(start),
	)

	return nil
}
