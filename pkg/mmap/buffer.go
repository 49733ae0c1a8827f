// Package mmap provides memory-mapped file I/O and resizable byte buffers
// for zero-copy high-performance reading and columnar storage.
package mmap

import (
	"fmt"
	"os"
)

// Buffer is a resizable byte buffer backing a column or a string arena.
// Implementations are either heap-allocated or memory-mapped onto a file.
type Buffer interface {
	// Bytes returns the current backing bytes. The slice is invalidated by
	// Resize and Release.
	Bytes() []byte
	// Resize grows or shrinks the buffer to n bytes, preserving the common
	// prefix.
	Resize(n int) error
	// Release frees the backing storage. Safe to call more than once.
	Release() error
}

// MemBuffer is a heap-backed Buffer.
type MemBuffer struct {
	data []byte
}

// NewMemBuffer allocates a heap buffer of n bytes.
func NewMemBuffer(n int) *MemBuffer {
	return &MemBuffer{data: make([]byte, n)}
}

// Bytes returns the backing bytes.
func (b *MemBuffer) Bytes() []byte { return b.data }

// Resize grows or shrinks the buffer to n bytes.
func (b *MemBuffer) Resize(n int) error {
	switch {
	case n <= cap(b.data):
		b.data = b.data[:n]
	default:
		grown := make([]byte, n)
		copy(grown, b.data)
		b.data = grown
	}
	return nil
}

// Release drops the backing slice.
func (b *MemBuffer) Release() error {
	b.data = nil
	return nil
}

// FileBuffer is a Buffer memory-mapped read-write onto a file. It backs
// on-disk columns: the file is created at the requested size, grown or
// shrunk with ftruncate+remap, and trimmed to its exact final size before
// release.
type FileBuffer struct {
	file *os.File
	data []byte
	size int
}

// NewFileBuffer creates (or truncates) the file at path and maps it
// read-write at n bytes.
func NewFileBuffer(path string, n int) (*FileBuffer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create column file: %w", err)
	}
	fb := &FileBuffer{file: f}
	if err := fb.Resize(n); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return fb, nil
}

// OpenFileBuffer maps an existing file read-write at its current size.
func OpenFileBuffer(path string) (*FileBuffer, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open column file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat column file: %w", err)
	}
	fb := &FileBuffer{file: f}
	n := int(st.Size())
	if n > 0 {
		fb.data, err = mmap(int(f.Fd()), 0, n, ProtRead|ProtWrite, MapShared)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to mmap column file: %w", err)
		}
	}
	fb.size = n
	return fb, nil
}

// Bytes returns the mapped bytes.
func (b *FileBuffer) Bytes() []byte { return b.data }

// Resize truncates the file to n bytes and remaps it. A zero-length file is
// kept unmapped.
func (b *FileBuffer) Resize(n int) error {
	if n == b.size && b.data != nil {
		return nil
	}
	if b.data != nil {
		if err := munmap(b.data); err != nil {
			return fmt.Errorf("failed to unmap column file: %w", err)
		}
		b.data = nil
	}
	if err := b.file.Truncate(int64(n)); err != nil {
		return fmt.Errorf("failed to resize column file: %w", err)
	}
	if n > 0 {
		data, err := mmap(int(b.file.Fd()), 0, n, ProtRead|ProtWrite, MapShared)
		if err != nil {
			return fmt.Errorf("failed to mmap column file: %w", err)
		}
		b.data = data
	}
	b.size = n
	return nil
}

// Release unmaps and closes the file. Idempotent.
func (b *FileBuffer) Release() error {
	var err error
	if b.data != nil {
		err = munmap(b.data)
		b.data = nil
	}
	if b.file != nil {
		if closeErr := b.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		b.file = nil
	}
	return err
}

// Path returns the name of the backing file.
func (b *FileBuffer) Path() string {
	if b.file == nil {
		return ""
	}
	return b.file.Name()
}
