package arena

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBuf is a heap-backed Buffer for tests.
type memBuf struct {
	b []byte
}

func (m *memBuf) Bytes() []byte { return m.b }

func (m *memBuf) Resize(n int) error {
	next := make([]byte, n)
	copy(next, m.b)
	m.b = next
	return nil
}

func TestReserveCommitSequential(t *testing.T) {
	s := New(&memBuf{b: make([]byte, 4)}, 0)
	assert.Equal(t, 0, s.Col())

	base, err := s.Reserve(5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), base)
	s.Commit(base, []byte("hello"))

	base, err = s.Reserve(6)
	require.NoError(t, err)
	assert.Equal(t, int64(5), base)
	s.Commit(base, []byte(" world"))

	assert.Equal(t, int64(11), s.Cursor())
	assert.Equal(t, "hello world", string(s.Bytes()))
	assert.True(t, s.Idle())
}

func TestReserveGrowsPastInitialCapacity(t *testing.T) {
	m := &memBuf{b: make([]byte, 2)}
	s := New(m, 3)

	_, err := s.Reserve(100)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(m.b), 100)
}

func TestResetRewindsCursor(t *testing.T) {
	s := New(&memBuf{b: make([]byte, 16)}, 0)
	base, err := s.Reserve(3)
	require.NoError(t, err)
	s.Commit(base, []byte("abc"))

	s.Reset()
	assert.Equal(t, int64(0), s.Cursor())

	base, err = s.Reserve(3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), base)
	s.Commit(base, []byte("xyz"))
	assert.Equal(t, "xyz", string(s.Bytes()))
}

// One goroutine reserves in order while a pool of committers writes the
// payloads concurrently. Growth must never be observed by a copy, so every
// payload has to land intact at its reserved base.
func TestConcurrentCommitsSurviveGrowth(t *testing.T) {
	const (
		nChunks   = 400
		chunkSize = 64
		nWorkers  = 8
	)

	s := New(&memBuf{b: make([]byte, 8)}, 0)

	type job struct {
		base    int64
		payload []byte
	}
	jobs := make(chan job, nWorkers)

	var wg sync.WaitGroup
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				s.Commit(j.base, j.payload)
			}
		}()
	}

	payloads := make([][]byte, nChunks)
	for i := 0; i < nChunks; i++ {
		p := bytes.Repeat([]byte{byte(i)}, chunkSize)
		payloads[i] = p
		base, err := s.Reserve(chunkSize)
		require.NoError(t, err)
		require.Equal(t, int64(i*chunkSize), base)
		jobs <- job{base: base, payload: p}
	}
	close(jobs)
	wg.Wait()

	require.True(t, s.Idle())
	require.Equal(t, int64(nChunks*chunkSize), s.Cursor())
	got := s.Bytes()
	for i, p := range payloads {
		if !bytes.Equal(got[i*chunkSize:(i+1)*chunkSize], p) {
			t.Fatalf("chunk %d corrupted", i)
		}
	}
}
