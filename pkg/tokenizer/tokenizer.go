package tokenizer

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/tabular-dev/tabular/pkg/taberrors"
)

// Options configures one parse run.
type Options struct {
	// Sep is the field separator; 0 selects auto-detection.
	Sep byte
	// Dec is the decimal separator inside numbers; 0 means '.'.
	Dec byte
	// Quote is the quoting byte; 0 means '"'.
	Quote byte
	// Header forces the header decision; nil leaves it to the heuristic.
	Header *bool
	// NAStrings are field texts read as missing values.
	NAStrings []string
	// StripWhite trims spaces and tabs around unquoted fields.
	StripWhite bool
	// SkipEmptyLines silences the warning otherwise raised for blank lines.
	SkipEmptyLines bool
	// Fill silences the warning for short rows; missing cells are NA
	// either way.
	Fill bool
	// SkipNRow drops that many leading lines before parsing.
	SkipNRow int
	// SkipString starts parsing at the first line containing it.
	SkipString string
	// NRowLimit caps the number of parsed rows; negative means no cap.
	NRowLimit int64
	// NWorkers sizes the worker pool; 0 or less means GOMAXPROCS.
	NWorkers int
	// WarningsAreErrors promotes every warning to a run-aborting error.
	WarningsAreErrors bool
	// Warnf receives warning text when warnings are not errors. May be nil.
	Warnf func(format string, args ...interface{})
}

func (o *Options) normalize() {
	if o.Dec == 0 {
		o.Dec = '.'
	}
	if o.Quote == 0 {
		o.Quote = '"'
	}
	if o.NWorkers <= 0 {
		o.NWorkers = runtime.GOMAXPROCS(0)
	}
	if o.NRowLimit == 0 {
		o.NRowLimit = -1
	}
}

// Sink receives the parsed output. The methods are invoked in a fixed
// temporal order: Negotiate once, then per pass Allocate and one StartWorker
// per worker, then Finalize once after the last pass.
type Sink interface {
	// Negotiate reports the header names (nil when the input has none) and
	// the inferred types. The sink may rewrite types in place to override
	// them; returning false stops the run before any allocation.
	Negotiate(names []string, types []ParseType) (bool, error)

	// Allocate sizes the output for nrows rows of the given types. Called
	// once per pass; a re-read pass repeats it with widened types.
	Allocate(types []ParseType, nrows int64) error

	// StartWorker returns the per-worker sink state for one pass.
	StartWorker(l *Layout) (WorkerSink, error)

	// Finalize fixes the definitive row count after the last pass.
	Finalize(nrows int64) error
}

// WorkerSink is the per-worker half of the sink. Postprocess and Commit run
// concurrently across workers; Order runs serialised in chunk source order.
type WorkerSink interface {
	// Postprocess rewrites staged string cells after a chunk is parsed.
	// Cell offsets are zero-based into chunk.
	Postprocess(b *Buffers, chunk []byte) error

	// Order runs in source order, exactly once per chunk.
	Order(b *Buffers, ord, totalChunks int) error

	// Commit moves the staged rows into the output at row row0.
	Commit(b *Buffers, row0 int64) error

	// Close releases worker state at the end of a pass.
	Close() error
}

// Run parses data and drives sink through the full callback sequence,
// returning the final row count. Mid-pass type promotions restart the pass
// with widened types until a pass completes cleanly.
func Run(ctx context.Context, data []byte, opts Options, sink Sink) (int64, error) {
	opts.normalize()

	start := skipPreamble(data, opts.SkipNRow, opts.SkipString)
	lines := sample(data[start:])
	inf := infer(lines, opts.Sep, opts.Quote, opts.Dec, opts.StripWhite, opts.Header, toBytes(opts.NAStrings))
	if inf.ncols == 0 {
		if err := sink.Finalize(0); err != nil {
			return 0, err
		}
		return 0, nil
	}

	types := append([]ParseType(nil), inf.types...)
	proceed, err := sink.Negotiate(inf.names, types)
	if err != nil {
		return 0, err
	}
	if !proceed {
		return 0, nil
	}

	dataStart := start
	if inf.header {
		it := lineIter{data: data, pos: start}
		it.next()
		dataStart = it.pos
	}

	r := &run{
		data:  data,
		opts:  opts,
		sink:  sink,
		sep:   inf.sep,
		ncols: inf.ncols,
		na:    toBytes(opts.NAStrings),
	}
	for {
		nrows, bumped, err := r.pass(ctx, dataStart, types)
		if err != nil {
			return 0, err
		}
		if !bumped {
			if err := sink.Finalize(nrows); err != nil {
				return 0, err
			}
			return nrows, nil
		}
		copy(types, r.nextTypes)
	}
}

func toBytes(ss []string) [][]byte {
	if len(ss) == 0 {
		return nil
	}
	bs := make([][]byte, len(ss))
	for i, s := range ss {
		bs[i] = []byte(s)
	}
	return bs
}

// run is the shared state of one Run invocation across passes.
type run struct {
	data  []byte
	opts  Options
	sink  Sink
	sep   byte
	ncols int
	na    [][]byte

	// pass state
	types     []ParseType
	layout    *Layout
	chunks    []Chunk
	seq       sequencer
	rows      int64 // guarded by the ordered section
	next      atomic.Int64
	stop      atomic.Bool
	errOnce   sync.Once
	err       error
	bumped    atomic.Bool
	bumpMu    sync.Mutex
	nextTypes []ParseType
}

func (r *run) fail(err error) {
	r.errOnce.Do(func() { r.err = err })
	r.stop.Store(true)
}

func (r *run) warn(format string, args ...interface{}) error {
	if r.opts.WarningsAreErrors {
		return taberrors.Newf(taberrors.ErrorTypeData, format, args...)
	}
	if r.opts.Warnf != nil {
		r.opts.Warnf(format, args...)
	}
	return nil
}

// pass runs one full parse of the input under the given types. It reports
// the committed row count and whether a type promotion demands a re-read.
func (r *run) pass(ctx context.Context, dataStart int, types []ParseType) (int64, bool, error) {
	r.types = types
	r.layout = NewLayout(types)
	r.chunks, _ = planChunks(r.data, dataStart, r.opts.NWorkers, r.opts.NRowLimit)
	r.seq = sequencer{}
	r.seq.cond = sync.NewCond(&r.seq.mu)
	r.rows = 0
	r.next.Store(0)
	r.stop.Store(false)
	r.err = nil
	r.errOnce = sync.Once{}
	r.bumped.Store(false)
	r.nextTypes = append(r.nextTypes[:0], types...)

	var total int64
	for _, c := range r.chunks {
		total += int64(c.NRows)
	}
	if err := r.sink.Allocate(types, total); err != nil {
		return 0, false, err
	}
	if len(r.chunks) == 0 {
		return 0, false, nil
	}

	nworkers := r.opts.NWorkers
	if nworkers > len(r.chunks) {
		nworkers = len(r.chunks)
	}
	var wg sync.WaitGroup
	for w := 0; w < nworkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(ctx)
		}()
	}
	wg.Wait()

	if r.err != nil {
		return 0, false, r.err
	}
	return r.rows, r.bumped.Load(), nil
}

func (r *run) worker(ctx context.Context) {
	ws, err := r.sink.StartWorker(r.layout)
	if err != nil {
		r.fail(err)
		ws = nil
	}
	var bufs *Buffers
	for {
		ord := int(r.next.Add(1) - 1)
		if ord >= len(r.chunks) {
			break
		}
		c := r.chunks[ord]

		ok := ws != nil && !r.stop.Load() && ctx.Err() == nil
		if ok {
			if bufs == nil {
				bufs = NewBuffers(r.layout, c.NRows)
			} else {
				bufs.grow(c.NRows)
			}
			if err := r.parseChunk(c, bufs); err != nil {
				r.fail(err)
				ok = false
			}
		}
		if ok {
			if err := ws.Postprocess(bufs, r.data[c.Start:c.End]); err != nil {
				r.fail(err)
				ok = false
			}
		}

		// The ordered slot must be passed even on failure so later chunks
		// do not stall.
		r.seq.wait(ord)
		var row0 int64
		if ok && !r.stop.Load() {
			if err := ws.Order(bufs, ord, len(r.chunks)); err != nil {
				r.fail(err)
				ok = false
			}
			row0 = r.rows
			r.rows += int64(bufs.NRows)
		}
		r.seq.done()

		if ok && !r.stop.Load() {
			if err := ws.Commit(bufs, row0); err != nil {
				r.fail(err)
			}
		}
	}
	if ws != nil {
		if err := ws.Close(); err != nil {
			r.fail(err)
		}
	}
	if err := ctx.Err(); err != nil {
		r.fail(taberrors.Wrap(err, taberrors.ErrorTypeIO, "parse cancelled"))
	}
}

// parseChunk tokenizes every line of c into b. Cell offsets are zero-based
// into the chunk.
func (r *run) parseChunk(c Chunk, b *Buffers) error {
	it := lineIter{data: r.data[c.Start:c.End]}
	row := 0
	for {
		line, off, more := it.next()
		if !more {
			break
		}
		if len(line) == 0 {
			if !r.opts.SkipEmptyLines {
				if err := r.warn("blank line skipped at byte %d", c.Start+off); err != nil {
					return err
				}
			}
			continue
		}
		sc := scanner{line: line, base: off, sep: r.sep, quote: r.opts.Quote, strip: r.opts.StripWhite}
		j := 0
		for ; j < r.ncols; j++ {
			f, more := sc.next()
			if !more {
				break
			}
			r.parseCell(b, row, j, f)
		}
		if j < r.ncols {
			if !r.opts.Fill {
				if err := r.warn("row at byte %d has %d of %d fields", c.Start+off, j, r.ncols); err != nil {
					return err
				}
			}
			for ; j < r.ncols; j++ {
				r.setNA(b, row, j, 0)
			}
		} else if _, extra := sc.next(); extra {
			return taberrors.Newf(taberrors.ErrorTypeData,
				"row at byte %d has more than %d fields", c.Start+off, r.ncols)
		}
		row++
	}
	b.NRows = row
	return nil
}

// parseCell parses one field under the column's pass type. A field the type
// cannot represent records a promotion and stores NA; the widened value is
// produced by the re-read pass.
func (r *run) parseCell(b *Buffers, row, j int, f field) {
	t := r.types[j]
	if t == Drop {
		return
	}
	if isNA(f, r.na) {
		r.setNA(b, row, j, int32(f.off))
		return
	}
	k := r.layout.Slot(j)
	switch t {
	case Bool:
		if v, ok := parseBool(f.data); ok {
			b.put1(row, k, byte(v))
			return
		}
	case Int32Bare:
		if !f.quoted {
			if v, ok := parseInt32(f.data); ok {
				b.put4(row, k, uint32(v))
				return
			}
		}
	case Int32:
		if v, ok := parseInt32(f.data); ok {
			b.put4(row, k, uint32(v))
			return
		}
	case Int64:
		if v, ok := parseInt64(f.data); ok {
			b.put8(row, k, uint64(v))
			return
		}
	case Float32:
		if v, ok := parseFloat32(f.data, r.opts.Dec); ok {
			b.put4(row, k, math.Float32bits(v))
			return
		}
	case Float64Bare, Float64, Float64Ext:
		if v, ok := parseFloat64(f.data, t, r.opts.Dec); ok {
			b.put8(row, k, math.Float64bits(v))
			return
		}
	case String:
		b.SetLenOff(row, k, int32(len(f.data)), int32(f.off))
		return
	}
	r.bump(j, f)
	r.setNA(b, row, j, int32(f.off))
}

// bump widens the pending type of column j until it accepts f.
func (r *run) bump(j int, f field) {
	r.bumpMu.Lock()
	t := r.nextTypes[j]
	for t < String && !fits(f, t, r.opts.Dec, r.na) {
		t = widen(t)
	}
	r.nextTypes[j] = t
	r.bumpMu.Unlock()
	r.bumped.Store(true)
}

// widen steps one type up the enum ladder, skipping override-only Float32.
func widen(t ParseType) ParseType {
	t++
	if t == Float32 {
		t++
	}
	if t > String {
		t = String
	}
	return t
}

func (r *run) setNA(b *Buffers, row, j int, off int32) {
	k := r.layout.Slot(j)
	if k < 0 {
		return
	}
	switch r.types[j] {
	case Bool:
		b.put1(row, k, byte(NABool))
	case Int32Bare, Int32:
		b.put4(row, k, uint32(NAInt32))
	case Float32:
		b.put4(row, k, math.Float32bits(float32(math.NaN())))
	case Int64:
		b.put8(row, k, uint64(NAInt64))
	case Float64Bare, Float64, Float64Ext:
		b.put8(row, k, math.Float64bits(math.NaN()))
	case String:
		b.SetLenOff(row, k, NALen, off)
	}
}

// sequencer serialises the ordered commit stage: chunk k's Order section
// runs only after chunks 0..k-1 have passed theirs.
type sequencer struct {
	mu   sync.Mutex
	cond *sync.Cond
	next int
}

func (s *sequencer) wait(ord int) {
	s.mu.Lock()
	for s.next != ord {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *sequencer) done() {
	s.mu.Lock()
	s.next++
	s.cond.Broadcast()
	s.mu.Unlock()
}
