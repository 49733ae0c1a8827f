package table

import (
	"math"
	"unsafe"

	"github.com/tabular-dev/tabular/pkg/taberrors"
)

// NA sentinels for fixed-width storage.
const (
	NABool  = int8(math.MinInt8)
	NAInt32 = int32(math.MinInt32)
	NAInt64 = int64(math.MinInt64)
)

// Column is one typed column of a table. Fixed-width columns store their
// cells contiguously in data; String columns store the signed one-based end
// offsets in data and the concatenated UTF-8 content in arena.
type Column struct {
	typ   Type
	nrows int
	data  Buffer
	arena Buffer // String columns only
}

// Buffer is the resizable byte storage behind a column, heap or file-mapped.
type Buffer interface {
	Bytes() []byte
	Resize(n int) error
	Release() error
}

// Type returns the column's storage type.
func (c *Column) Type() Type { return c.typ }

// Len returns the number of rows.
func (c *Column) Len() int { return c.nrows }

// Data returns the raw cell buffer (the offsets array for String columns).
func (c *Column) Data() []byte { return c.data.Bytes() }

// ArenaBuffer returns the variable-width buffer of a String column, nil
// otherwise.
func (c *Column) ArenaBuffer() Buffer { return c.arena }

// ArenaBytes returns the arena content of a String column.
func (c *Column) ArenaBytes() []byte {
	if c.arena == nil {
		return nil
	}
	return c.arena.Bytes()
}

// Offsets returns the offsets array of a String column as int32s. The array
// holds nrows+1 entries; entry 0 is fixed to 1 and entry i+1 is the signed
// one-based end offset of row i.
func (c *Column) Offsets() []int32 {
	return Int32View(c.data.Bytes())
}

// Bools returns the cells of a Bool column.
func (c *Column) Bools() []int8 {
	b := c.data.Bytes()
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*int8)(unsafe.Pointer(&b[0])), len(b))
}

// Int32s returns the cells of an Int32 column.
func (c *Column) Int32s() []int32 { return Int32View(c.data.Bytes()) }

// Int64s returns the cells of an Int64 column.
func (c *Column) Int64s() []int64 {
	b := c.data.Bytes()
	if len(b) < 8 {
		return nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(&b[0])), len(b)/8)
}

// Float32s returns the cells of a Float32 column.
func (c *Column) Float32s() []float32 {
	b := c.data.Bytes()
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// Float64s returns the cells of a Float64 column.
func (c *Column) Float64s() []float64 {
	b := c.data.Bytes()
	if len(b) < 8 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&b[0])), len(b)/8)
}

// StringAt returns row i of a String column and whether the value is
// present (false for NA).
func (c *Column) StringAt(i int) (string, bool) {
	offs := c.Offsets()
	end := offs[i+1]
	if end < 0 {
		return "", false
	}
	start := offs[i]
	if start < 0 {
		start = -start
	}
	return string(c.ArenaBytes()[start-1 : end-1]), true
}

// IsNA reports whether row i holds a missing value.
func (c *Column) IsNA(i int) bool {
	switch c.typ {
	case Bool:
		return c.Bools()[i] == NABool
	case Int32:
		return c.Int32s()[i] == NAInt32
	case Int64:
		return c.Int64s()[i] == NAInt64
	case Float32:
		return math.IsNaN(float64(c.Float32s()[i]))
	case Float64:
		return math.IsNaN(c.Float64s()[i])
	case String:
		return c.Offsets()[i+1] < 0
	default:
		return true
	}
}

// Value returns row i boxed as an interface value, or nil for NA.
func (c *Column) Value(i int) interface{} {
	if c.IsNA(i) {
		return nil
	}
	switch c.typ {
	case Bool:
		return c.Bools()[i] != 0
	case Int32:
		return c.Int32s()[i]
	case Int64:
		return c.Int64s()[i]
	case Float32:
		return c.Float32s()[i]
	case Float64:
		return c.Float64s()[i]
	case String:
		s, _ := c.StringAt(i)
		return s
	default:
		return nil
	}
}

// ResizeRows resizes the cell buffer to hold nrows rows. For String columns
// this resizes the offsets array to nrows+1 entries; the arena is trimmed
// separately via TrimArena.
func (c *Column) ResizeRows(nrows int) error {
	var n int
	if c.typ == String {
		n = 4 * (nrows + 1)
	} else {
		n = c.typ.ElemSize() * nrows
	}
	if err := c.data.Resize(n); err != nil {
		return taberrors.Wrap(err, taberrors.ErrorTypeAllocation, "failed to resize column")
	}
	c.nrows = nrows
	return nil
}

// TrimArena resizes a String column's arena to exactly n bytes.
func (c *Column) TrimArena(n int) error {
	if c.arena == nil {
		return taberrors.New(taberrors.ErrorTypeInvariant, "trim on a non-string column")
	}
	if err := c.arena.Resize(n); err != nil {
		return taberrors.Wrap(err, taberrors.ErrorTypeAllocation, "failed to trim arena")
	}
	return nil
}

// Release frees the column's buffers. Idempotent.
func (c *Column) Release() error {
	var err error
	if c.data != nil {
		err = c.data.Release()
		c.data = nil
	}
	if c.arena != nil {
		if aerr := c.arena.Release(); aerr != nil && err == nil {
			err = aerr
		}
		c.arena = nil
	}
	return err
}

// Int32View reinterprets a byte slice as int32s.
func Int32View(b []byte) []int32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&b[0])), len(b)/4)
}
