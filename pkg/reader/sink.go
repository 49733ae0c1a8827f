package reader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tabular-dev/tabular/pkg/arena"
	"github.com/tabular-dev/tabular/pkg/enc"
	"github.com/tabular-dev/tabular/pkg/logger"
	"github.com/tabular-dev/tabular/pkg/metrics"
	"github.com/tabular-dev/tabular/pkg/table"
	"github.com/tabular-dev/tabular/pkg/taberrors"
	"github.com/tabular-dev/tabular/pkg/tokenizer"
)

// sink owns the column vector across passes. The same columns persist through
// a type-promotion re-read; only the retyped ones are reallocated.
type sink struct {
	cfg Config
	cb  Callbacks
	log *zap.Logger

	names  []string
	types  []tokenizer.ParseType
	alloc  *table.Allocator
	cols   []*table.Column
	arenas []*arena.StrBuf
	nrows  int64
	passes int

	// lastPercent is only touched inside the serialised ordering stage.
	lastPercent int
}

func newSink(cfg Config, cb Callbacks) *sink {
	return &sink{cfg: cfg, cb: cb, log: logger.Get()}
}

// Negotiate fills in missing column names, repairs non-UTF-8 ones, and runs
// the override hook.
func (s *sink) Negotiate(names []string, types []tokenizer.ParseType) (bool, error) {
	s.names = make([]string, len(types))
	for j := range types {
		name := ""
		if j < len(names) {
			name = names[j]
		}
		switch {
		case name == "":
			s.names[j] = fmt.Sprintf("V%d", j+1)
		case !enc.ValidUTF8([]byte(name)):
			s.names[j] = string(enc.Repair([]byte(name)))
		default:
			s.names[j] = name
		}
	}
	if s.cb.OverrideColumns != nil {
		if !s.cb.OverrideColumns(s.names, types) {
			if s.cfg.Verbose {
				s.log.Debug("read stopped by column override hook")
			}
			return false, nil
		}
	}
	s.types = append([]tokenizer.ParseType(nil), types...)
	return true, nil
}

// Allocate sizes the output columns for one pass. The first call fixes the
// destination through the policy hook; later calls reallocate only the
// columns whose type was promoted.
func (s *sink) Allocate(types []tokenizer.ParseType, nrows int64) error {
	s.passes++
	s.lastPercent = 0
	copy(s.types, types)

	if s.alloc == nil {
		stypes := make([]table.Type, len(types))
		for j, t := range types {
			stypes[j] = storageType(t)
		}
		dir := s.cfg.Dest
		if s.cb.ChooseDestination != nil {
			dir = s.cb.ChooseDestination(table.EstimateFootprint(stypes, int(nrows)))
		}
		s.alloc = table.NewAllocator(dir, len(types))
		s.cols = make([]*table.Column, len(types))
		s.arenas = make([]*arena.StrBuf, len(types))
		if dir != "" {
			onDisk := 0
			for _, st := range stypes {
				if st != table.Void {
					onDisk++
				}
			}
			metrics.ColumnsOnDisk.Set(float64(onDisk))
		} else {
			metrics.ColumnsOnDisk.Set(0)
		}
		if s.cfg.Verbose {
			s.log.Debug("allocating output columns",
				zap.Int64("nrows", nrows),
				zap.Int("ncols", len(types)),
				zap.Bool("on_disk", dir != ""))
		}
	} else if s.cfg.Verbose {
		s.log.Debug("re-reading with promoted types", zap.Int("pass", s.passes))
	}

	for j, t := range types {
		st := storageType(t)
		if st == table.Void {
			if s.cols[j] != nil {
				if err := s.cols[j].Release(); err != nil {
					return err
				}
				s.cols[j] = nil
				s.arenas[j] = nil
			}
			continue
		}
		col, err := s.alloc.Realloc(s.cols[j], st, int(nrows), j)
		if err != nil {
			return err
		}
		s.cols[j] = col
		if st == table.String {
			col.Offsets()[0] = 1
			s.arenas[j] = arena.New(col.ArenaBuffer(), j)
		} else {
			s.arenas[j] = nil
		}
	}
	return nil
}

// StartWorker builds the per-worker staging state for one pass.
func (s *sink) StartWorker(l *tokenizer.Layout) (tokenizer.WorkerSink, error) {
	w := &workerSink{s: s, layout: l, quote: s.cfg.Quote}
	if w.quote == 0 {
		w.quote = '"'
	}
	for j, t := range s.types {
		if t == tokenizer.String {
			w.stages = append(w.stages, &strStage{
				col:     j,
				slot:    l.Slot(j),
				scratch: make([]byte, scratchInit),
			})
		}
	}
	return w, nil
}

// Finalize trims every column to the definitive row count and the string
// arenas to their committed bytes.
func (s *sink) Finalize(nrows int64) error {
	s.nrows = nrows
	for j, col := range s.cols {
		if col == nil {
			continue
		}
		if sb := s.arenas[j]; sb != nil {
			if !sb.Idle() {
				return taberrors.New(taberrors.ErrorTypeInvariant, "arena busy at finalisation")
			}
			if err := col.TrimArena(int(sb.Cursor())); err != nil {
				return err
			}
		}
		if err := col.ResizeRows(int(nrows)); err != nil {
			return err
		}
	}
	if s.cfg.Verbose {
		s.log.Debug("read finalised",
			zap.Int64("nrows", nrows),
			zap.Int("passes", s.passes))
	}
	return nil
}

// result assembles the table from the surviving columns. Ownership moves to
// the table.
func (s *sink) result() *table.Table {
	var names []string
	var cols []*table.Column
	for j, col := range s.cols {
		if col == nil {
			continue
		}
		names = append(names, s.names[j])
		cols = append(cols, col)
	}
	t := table.New(names, cols)
	t.SetNRows(int(s.nrows))
	s.cols = nil
	return t
}

// release frees every column after a failed run.
func (s *sink) release() {
	for _, col := range s.cols {
		if col != nil {
			_ = col.Release()
		}
	}
	s.cols = nil
}
