package utils

import (
	"io"
	"sync"
)

// BufferPool provides a pool of reusable copy buffers.
type BufferPool struct {
	pool sync.Pool
	size int
}

// NewBufferPool creates a new buffer pool with buffers of the specified size.
func NewBufferPool(bufferSize int) *BufferPool {
	return &BufferPool{
		size: bufferSize,
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, bufferSize)
				return &b
			},
		},
	}
}

// Get retrieves a buffer from the pool.
func (p *BufferPool) Get() *[]byte {
	return p.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool.
func (p *BufferPool) Put(buf *[]byte) {
	// Only return buffers of the expected size
	if buf != nil && cap(*buf) == p.size {
		*buf = (*buf)[:p.size]
		p.pool.Put(buf)
	}
}

// Copy copies src to dst using a pooled buffer.
func (p *BufferPool) Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := p.Get()
	defer p.Put(buf)
	return io.CopyBuffer(dst, src, *buf)
}

// DefaultBufferPool is a default buffer pool with 32KB buffers.
var DefaultBufferPool = NewBufferPool(32 * 1024)

// CopyBuffered copies src to dst using DefaultBufferPool.
func CopyBuffered(dst io.Writer, src io.Reader) (int64, error) {
	return DefaultBufferPool.Copy(dst, src)
}
