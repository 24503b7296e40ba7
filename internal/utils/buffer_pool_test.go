package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestBufferPool_Copy(t *testing.T) {
	pool := NewBufferPool(16)
	src := strings.Repeat("audio-bytes-", 100)

	var dst bytes.Buffer
	n, err := pool.Copy(&dst, strings.NewReader(src))
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if n != int64(len(src)) {
		t.Errorf("Copy() = %d, want %d", n, len(src))
	}
	if dst.String() != src {
		t.Errorf("copied content mismatch")
	}
}

func TestBufferPool_PutRejectsForeignBuffers(t *testing.T) {
	pool := NewBufferPool(16)

	foreign := make([]byte, 8)
	pool.Put(&foreign)
	pool.Put(nil)

	buf := pool.Get()
	if len(*buf) != 16 {
		t.Errorf("Get() returned buffer of len %d, want 16", len(*buf))
	}
}
