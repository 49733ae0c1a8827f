package reader

import (
	"github.com/tabular-dev/tabular/pkg/enc"
	"github.com/tabular-dev/tabular/pkg/table"
	"github.com/tabular-dev/tabular/pkg/tokenizer"
)

// scratchInit is the starting size of a worker's per-column string scratch.
const scratchInit = 4096

// strStage is one worker's staging buffer for one string column: repaired
// field bytes accumulate in scratch with a one-based cursor, then the ordered
// stage reserves arena space and records the global base.
type strStage struct {
	col     int
	slot    int
	scratch []byte
	cursor  int32
	base    int64
}

// workerSink stages parsed chunks into the shared columns. Postprocess and
// Commit run concurrently across workers; Order is serialised by the caller.
type workerSink struct {
	s      *sink
	layout *tokenizer.Layout
	stages []*strStage
	quote  byte
	tmp    []byte
}

// Postprocess rewrites every staged string cell: the raw
// {length, chunk offset} pair becomes {repaired length, one-based scratch
// offset}, with quote escapes collapsed and non-UTF-8 content decoded as
// Windows-1252. Missing cells get a negative scratch offset so the commit
// can preserve the sign.
func (w *workerSink) Postprocess(b *tokenizer.Buffers, chunk []byte) error {
	for _, st := range w.stages {
		st.cursor = 1
		for i := 0; i < b.NRows; i++ {
			length, off := b.LenOff(i, st.slot)
			if length == tokenizer.NALen {
				b.SetLenOff(i, st.slot, tokenizer.NALen, -st.cursor)
				continue
			}
			src := chunk[off : off+length]
			if len(src) >= 2 && src[0] == w.quote && src[len(src)-1] == w.quote {
				if cap(w.tmp) < len(src) {
					w.tmp = make([]byte, len(src))
				}
				n := tokenizer.Unescape(src, w.quote, w.tmp[:len(src)])
				src = w.tmp[:n]
			}

			need := int(st.cursor) - 1 + 3*len(src)
			if len(st.scratch) < need {
				next := make([]byte, len(st.scratch)*2+3*len(src))
				copy(next, st.scratch[:st.cursor-1])
				st.scratch = next
			}
			dst := st.scratch[st.cursor-1:]
			var n int
			if enc.ValidUTF8(src) {
				n = copy(dst, src)
			} else {
				n = enc.DecodeWindows1252(src, dst)
			}
			st.cursor += int32(n)
			b.SetLenOff(i, st.slot, int32(n), st.cursor)
		}
	}
	return nil
}

// Order reserves arena space for each staged string column and reports
// progress. Runs in chunk source order, one worker at a time.
func (w *workerSink) Order(b *tokenizer.Buffers, ord, totalChunks int) error {
	for _, st := range w.stages {
		base, err := w.s.arenas[st.col].Reserve(int64(st.cursor - 1))
		if err != nil {
			return err
		}
		st.base = base
	}
	if w.s.cfg.ShowProgress && w.s.cb.Progress != nil {
		percent := (ord + 1) * 100 / totalChunks
		if percent > w.s.lastPercent {
			w.s.lastPercent = percent
			w.s.cb.Progress(percent)
		}
	}
	return nil
}

// Commit copies the staged chunk into the output at row row0: string scratch
// into the arenas plus the offset entries, fixed-width cells as per-column
// stripes.
func (w *workerSink) Commit(b *tokenizer.Buffers, row0 int64) error {
	for _, st := range w.stages {
		w.s.arenas[st.col].Commit(st.base, st.scratch[:st.cursor-1])
		offsets := w.s.cols[st.col].Offsets()
		base := int32(st.base)
		for i := 0; i < b.NRows; i++ {
			_, off := b.LenOff(i, st.slot)
			if off < 0 {
				offsets[row0+1+int64(i)] = off - base
			} else {
				offsets[row0+1+int64(i)] = off + base
			}
		}
	}

	for j, col := range w.s.cols {
		if col == nil || col.Type() == table.String {
			continue
		}
		k := w.layout.Slot(j)
		if k < 0 {
			continue
		}
		elem := col.Type().ElemSize()
		dst := col.Data()[row0*int64(elem) : (row0+int64(b.NRows))*int64(elem)]
		switch w.layout.Width(j) {
		case 8:
			b.Stripe8(k, b.NRows, dst)
		case 4:
			b.Stripe4(k, b.NRows, dst)
		case 1:
			b.Stripe1(k, b.NRows, dst)
		}
	}
	return nil
}

// Close releases nothing: the staging buffers are garbage collected with the
// worker.
func (w *workerSink) Close() error { return nil }
