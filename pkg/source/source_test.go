package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextCarriesSentinel(t *testing.T) {
	s := Text("a,b\n1,2\n")
	defer s.Release() //nolint:errcheck

	assert.Equal(t, 8, s.DataLen())
	assert.Equal(t, 9, s.Size())
	assert.Equal(t, "a,b\n1,2\n", string(s.Bytes()[:s.DataLen()]))
	assert.Equal(t, "<text>", s.Name())
}

func TestFromBytes(t *testing.T) {
	b := []byte{0, 1, 2}
	s := FromBytes(b)
	defer s.Release() //nolint:errcheck

	b[0] = 9 // the source owns its own copy
	assert.Equal(t, []byte{0, 1, 2}, s.Bytes()[:s.DataLen()])
	assert.Equal(t, "<bytes>", s.Name())
}

func TestFileMapsPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.csv")
	require.NoError(t, os.WriteFile(path, []byte("x\n1\n"), 0o644))

	s, err := File(path)
	require.NoError(t, err)
	defer s.Release() //nolint:errcheck

	assert.Equal(t, 4, s.DataLen())
	assert.Equal(t, "x\n1\n", string(s.Bytes()[:s.DataLen()]))
	assert.Equal(t, path, s.Name())
}

func TestFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s, err := File(path)
	require.NoError(t, err)
	defer s.Release() //nolint:errcheck
	assert.Equal(t, 0, s.DataLen())
	assert.Equal(t, 1, s.Size())
}

func TestFilePageMultipleFallsBackToCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.csv")
	data := make([]byte, os.Getpagesize())
	for i := range data {
		data[i] = 'a'
	}
	data[len(data)-1] = '\n'
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s, err := File(path)
	require.NoError(t, err)
	defer s.Release() //nolint:errcheck
	assert.Equal(t, len(data), s.DataLen())
	assert.Equal(t, data, s.Bytes()[:s.DataLen()])
}

func TestOpenFileKeepsDescriptor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	s, err := OpenFile(f, path)
	require.NoError(t, err)
	require.NoError(t, s.Release())

	// The descriptor survives the release.
	_, err = f.Stat()
	assert.NoError(t, err)
}

func TestFileInflatesGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	s, err := File(path)
	require.NoError(t, err)
	defer s.Release() //nolint:errcheck
	assert.Equal(t, "a,b\n1,2\n", string(s.Bytes()[:s.DataLen()]))
	assert.Equal(t, path, s.Name())
}

func TestFileInflatesZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv.zst")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write([]byte("x\n9\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	s, err := File(path)
	require.NoError(t, err)
	defer s.Release() //nolint:errcheck
	assert.Equal(t, "x\n9\n", string(s.Bytes()[:s.DataLen()]))
}

func TestFileInflatesLZ4(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv.lz4")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := lz4.NewWriter(f)
	_, err = zw.Write([]byte("x\n9\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	s, err := File(path)
	require.NoError(t, err)
	defer s.Release() //nolint:errcheck
	assert.Equal(t, "x\n9\n", string(s.Bytes()[:s.DataLen()]))
}

func TestFileMissing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestReleaseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))
	s, err := File(path)
	require.NoError(t, err)
	require.NoError(t, s.Release())
	require.NoError(t, s.Release())
}
