package table

import (
	"fmt"
	"path/filepath"

	"github.com/tabular-dev/tabular/pkg/mmap"
	"github.com/tabular-dev/tabular/pkg/taberrors"
)

// arenaEstimate is the preallocation heuristic for string arenas: room for
// 5-character strings on average, grown on demand during the run.
const arenaEstimate = 5

// Allocator creates and reallocates columns. With an empty directory the
// columns live on the heap; otherwise each column is backed by a
// memory-mapped file named col<zero-padded-index> in that directory, with the
// string arena in a sibling <name>.str file.
type Allocator struct {
	dir     string
	ndigits int
}

// NewAllocator builds an allocator for ncols output columns. The zero-pad
// width is the decimal digit count of ncols.
func NewAllocator(dir string, ncols int) *Allocator {
	ndigits := 0
	for nc := ncols; nc > 0; nc /= 10 {
		ndigits++
	}
	return &Allocator{dir: dir, ndigits: ndigits}
}

// OnDisk reports whether columns are file-backed.
func (a *Allocator) OnDisk() bool { return a.dir != "" }

// ColumnPath returns the backing file path for column j.
func (a *Allocator) ColumnPath(j int) string {
	return filepath.Join(a.dir, fmt.Sprintf("col%0*d", a.ndigits, j))
}

// EstimateFootprint returns the estimated total byte footprint of the
// columns: fixed cells plus the arena heuristic per string column. Used to
// query the destination policy hook before the first allocation.
func EstimateFootprint(types []Type, nrows int) int64 {
	var total int64
	for _, t := range types {
		if t == Void {
			continue
		}
		total += int64(t.ElemSize()) * int64(nrows)
		if t == String {
			total += arenaEstimate * int64(nrows)
		}
	}
	return total
}

// Alloc creates a column of the given type with nrows elements. String
// columns get an offsets array of nrows+1 entries with the leading sentinel
// set to 1, and an arena preallocated to 5*nrows bytes.
func (a *Allocator) Alloc(typ Type, nrows int, j int) (*Column, error) {
	col := &Column{typ: typ, nrows: nrows}

	var dataSize int
	if typ == String {
		dataSize = 4 * (nrows + 1)
	} else {
		dataSize = typ.ElemSize() * nrows
	}

	var err error
	if col.data, err = a.newBuffer(a.ColumnPath(j), dataSize); err != nil {
		return nil, err
	}
	if typ == String {
		if col.arena, err = a.newBuffer(a.ColumnPath(j)+".str", arenaEstimate*nrows); err != nil {
			col.data.Release()
			return nil, err
		}
		col.Offsets()[0] = 1
	}
	return col, nil
}

// Realloc resizes col to nrows elements of the given type. When the type is
// unchanged only the cell buffer is resized; otherwise the column is
// destroyed and allocated anew.
func (a *Allocator) Realloc(col *Column, typ Type, nrows int, j int) (*Column, error) {
	if col == nil {
		return a.Alloc(typ, nrows, j)
	}
	if col.typ != typ {
		if err := col.Release(); err != nil {
			return nil, taberrors.Wrap(err, taberrors.ErrorTypeAllocation, "failed to release column for retype")
		}
		return a.Alloc(typ, nrows, j)
	}
	if err := col.ResizeRows(nrows); err != nil {
		return nil, err
	}
	return col, nil
}

func (a *Allocator) newBuffer(path string, n int) (Buffer, error) {
	if a.dir == "" {
		return mmap.NewMemBuffer(n), nil
	}
	fb, err := mmap.NewFileBuffer(path, n)
	if err != nil {
		return nil, taberrors.Wrap(err, taberrors.ErrorTypeAllocation, "failed to allocate mapped column")
	}
	return fb, nil
}
