package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemBufferResizePreservesPrefix(t *testing.T) {
	b := NewMemBuffer(4)
	copy(b.Bytes(), "abcd")

	require.NoError(t, b.Resize(8))
	assert.Len(t, b.Bytes(), 8)
	assert.Equal(t, "abcd", string(b.Bytes()[:4]))

	require.NoError(t, b.Resize(2))
	assert.Equal(t, "ab", string(b.Bytes()))

	require.NoError(t, b.Release())
	require.NoError(t, b.Release())
	assert.Nil(t, b.Bytes())
}

func TestFileBufferCreateWriteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "col0")
	fb, err := NewFileBuffer(path, 8)
	require.NoError(t, err)
	assert.Equal(t, path, fb.Path())

	copy(fb.Bytes(), "12345678")
	require.NoError(t, fb.Release())

	fb2, err := OpenFileBuffer(path)
	require.NoError(t, err)
	defer fb2.Release() //nolint:errcheck
	assert.Equal(t, "12345678", string(fb2.Bytes()))
}

func TestFileBufferResizeTruncatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "col1")
	fb, err := NewFileBuffer(path, 4)
	require.NoError(t, err)
	defer fb.Release() //nolint:errcheck
	copy(fb.Bytes(), "wxyz")

	require.NoError(t, fb.Resize(16))
	assert.Len(t, fb.Bytes(), 16)
	assert.Equal(t, "wxyz", string(fb.Bytes()[:4]))

	require.NoError(t, fb.Resize(2))
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Size())
	assert.Equal(t, "wx", string(fb.Bytes()))
}

func TestFileBufferZeroLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "col2")
	fb, err := NewFileBuffer(path, 0)
	require.NoError(t, err)
	defer fb.Release() //nolint:errcheck
	assert.Empty(t, fb.Bytes())

	require.NoError(t, fb.Resize(4))
	assert.Len(t, fb.Bytes(), 4)
}

func TestFileBufferReleaseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "col3")
	fb, err := NewFileBuffer(path, 4)
	require.NoError(t, err)
	require.NoError(t, fb.Release())
	require.NoError(t, fb.Release())
	assert.Equal(t, "", fb.Path())
}
