// Package arena coordinates many parser workers appending into the shared
// variable-width byte buffer behind a string column. The buffer carries a
// signed atomic use counter: copies increment it while they run, and a grow
// subtracts a large offset as a sign bit so new copies can detect a pending
// resize and back off. The hot commit path stays lock-free.
package arena

import (
	"runtime"
	"sync/atomic"

	"github.com/tabular-dev/tabular/pkg/taberrors"
)

// useOffset partitions the use counter: values >= 0 count in-flight copies,
// values < 0 signal a pending grow.
const useOffset = 1_000_000

// Buffer is the resizable storage under an arena.
type Buffer interface {
	Bytes() []byte
	Resize(n int) error
}

// StrBuf is the global staging state for one string column: the arena
// buffer, the committed write cursor, and the destination column index.
type StrBuf struct {
	buf     Buffer
	cursor  int64
	numuses atomic.Int64
	col     int
}

// New wraps buf as the staging arena for output column col.
func New(buf Buffer, col int) *StrBuf {
	return &StrBuf{buf: buf, col: col}
}

// Col returns the destination column index.
func (s *StrBuf) Col() int { return s.col }

// Cursor returns the committed byte count.
func (s *StrBuf) Cursor() int64 { return s.cursor }

// Reset rewinds the cursor for a re-read pass.
func (s *StrBuf) Reset() { s.cursor = 0 }

// Bytes returns the arena content committed so far.
func (s *StrBuf) Bytes() []byte { return s.buf.Bytes()[:s.cursor] }

// Reserve claims n bytes at the current cursor and advances it, growing the
// buffer first if required. It must only be called from the serialised
// ordering stage, so the cursor needs no synchronization; the grow itself
// negotiates with in-flight Commit copies through the use counter:
//
//  1. wait until no copy is in progress,
//  2. subtract useOffset, capturing the previous value,
//  3. if the previous value was zero, resize; otherwise a copy raced in
//     between (1) and (2) — restore and retry,
//  4. add useOffset back.
//
// No copy ever observes a resize.
func (s *StrBuf) Reserve(n int64) (int64, error) {
	base := s.cursor
	for base+n > int64(len(s.buf.Bytes())) {
		newsize := (base + n) * 2
		for s.numuses.Load() > 0 {
			runtime.Gosched()
		}
		old := s.numuses.Add(-useOffset) + useOffset
		if old == 0 {
			if err := s.buf.Resize(int(newsize)); err != nil {
				s.numuses.Add(useOffset)
				return 0, taberrors.Wrap(err, taberrors.ErrorTypeAllocation, "failed to grow string arena")
			}
		}
		s.numuses.Add(useOffset)
	}
	s.cursor = base + n
	return base, nil
}

// Commit copies src into the reserved region starting at base. Any number
// of commits may run concurrently; each registers as a reader so a grow
// cannot move the buffer out from under the copy.
func (s *StrBuf) Commit(base int64, src []byte) {
	for {
		old := s.numuses.Add(1) - 1
		if old >= 0 {
			copy(s.buf.Bytes()[base:], src)
			s.numuses.Add(-1)
			return
		}
		// A grow is pending; withdraw and wait.
		s.numuses.Add(-1)
		runtime.Gosched()
	}
}

// Idle reports whether no copy or grow is in flight. Finalisation asserts
// this before trimming.
func (s *StrBuf) Idle() bool {
	return s.numuses.Load() == 0
}
