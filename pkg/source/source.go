// Package source presents delimited-text input as a contiguous read-only byte
// range with one trailing sentinel byte that the tokenizer uses as a stop
// marker. The range is backed by in-memory text, a memory-mapped file, or a
// caller-provided descriptor. Compressed files (.gz, .zst, .lz4) are
// decompressed into memory transparently.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/tabular-dev/tabular/pkg/mmap"
)

// Source is a read-only byte range over the input. The last byte is a
// sentinel owned by the source; it is guaranteed readable and its value is
// unspecified.
type Source struct {
	data   []byte
	mapped []byte // non-nil when data aliases a memory mapping
	file   *os.File
	ownFD  bool
	name   string
}

// Text wraps in-memory text, copying it once to append the sentinel.
func Text(text string) *Source {
	data := make([]byte, len(text)+1)
	copy(data, text)
	return &Source{data: data, name: "<text>"}
}

// FromBytes wraps a byte slice, copying it once to append the sentinel.
func FromBytes(b []byte) *Source {
	data := make([]byte, len(b)+1)
	copy(data, b)
	return &Source{data: data, name: "<bytes>"}
}

// File opens and maps the file at path. Compressed inputs are inflated into
// memory instead of being mapped.
func File(path string) (*Source, error) {
	if r := decompressor(path); r != nil {
		return inflate(path, r)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	src, err := mapFile(f, path, true)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// OpenFile maps an already-opened file, reusing the caller's descriptor.
// The descriptor is not closed on Release.
func OpenFile(f *os.File, path string) (*Source, error) {
	return mapFile(f, path, false)
}

// mapFile maps f read-only with one extra sentinel byte past the data. When
// the file size is an exact page multiple the extra byte would fall on an
// unbacked page, so the content is copied to the heap instead.
func mapFile(f *os.File, path string, ownFD bool) (*Source, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	size := int(st.Size())
	if size == 0 {
		return &Source{data: []byte{0}, file: f, ownFD: ownFD, name: path}, nil
	}
	if size%os.Getpagesize() == 0 {
		data := make([]byte, size+1)
		if _, err := io.ReadFull(f, data[:size]); err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return &Source{data: data, file: f, ownFD: ownFD, name: path}, nil
	}
	m, err := mmap.Map(int(f.Fd()), size+1)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}
	return &Source{data: m, mapped: m, file: f, ownFD: ownFD, name: path}, nil
}

// inflate decompresses the reader into an in-memory source.
func inflate(path string, open func(io.Reader) (io.ReadCloser, error)) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	r, err := open(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open decompressor: %w", err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	src := FromBytes(raw)
	src.name = path
	return src, nil
}

// decompressor returns an opener for the path's compression format, or nil
// when the file is plain text.
func decompressor(path string) func(io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		}
	case ".zst":
		return func(r io.Reader) (io.ReadCloser, error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zr.IOReadCloser(), nil
		}
	case ".lz4":
		return func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(lz4.NewReader(r)), nil
		}
	default:
		return nil
	}
}

// Bytes returns the full range including the sentinel byte.
func (s *Source) Bytes() []byte { return s.data }

// Size returns the range size including the sentinel byte.
func (s *Source) Size() int { return len(s.data) }

// DataLen returns the number of payload bytes, excluding the sentinel.
func (s *Source) DataLen() int {
	if len(s.data) == 0 {
		return 0
	}
	return len(s.data) - 1
}

// Name describes the source for logging.
func (s *Source) Name() string { return s.name }

// Release unmaps and closes the backing resources. Idempotent; callers may
// release on every exit path.
func (s *Source) Release() error {
	var err error
	if s.mapped != nil {
		err = mmap.Unmap(s.mapped)
		s.mapped = nil
	}
	s.data = nil
	if s.file != nil && s.ownFD {
		if closeErr := s.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	s.file = nil
	return err
}
