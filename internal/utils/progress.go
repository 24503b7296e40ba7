package utils

import (
	"fmt"
	"io"
	"sync/atomic"
)

// CountingWriterAt wraps an io.WriterAt and tracks bytes written. It is
// safe for the concurrent WriteAt calls made by multi-part downloaders.
type CountingWriterAt struct {
	w            io.WriterAt
	bytesWritten atomic.Int64
}

// NewCountingWriterAt creates a new byte-counting writer.
func NewCountingWriterAt(w io.WriterAt) *CountingWriterAt {
	return &CountingWriterAt{w: w}
}

// WriteAt implements io.WriterAt.
func (c *CountingWriterAt) WriteAt(p []byte, off int64) (int, error) {
	n, err := c.w.WriteAt(p, off)
	if n > 0 {
		c.bytesWritten.Add(int64(n))
	}
	return n, err
}

// BytesWritten returns the total number of bytes written.
func (c *CountingWriterAt) BytesWritten() int64 {
	return c.bytesWritten.Load()
}

// FormatBytes formats bytes in human-readable format.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
