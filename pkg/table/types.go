// Package table provides columnar storage for tabular: typed columns over
// flat byte buffers, string columns with 32-bit offsets into a shared arena,
// and an allocator that places columns either on the heap or in
// memory-mapped files.
package table

// Type is the storage type of a column.
type Type int8

const (
	// Void marks a column with no storage.
	Void Type = iota
	// Bool stores one byte per value; NA is math.MinInt8.
	Bool
	// Int32 stores four bytes per value; NA is math.MinInt32.
	Int32
	// Int64 stores eight bytes per value; NA is math.MinInt64.
	Int64
	// Float32 stores four bytes per value; NA is NaN.
	Float32
	// Float64 stores eight bytes per value; NA is NaN.
	Float64
	// String stores signed one-based 32-bit end offsets into a variable
	// width byte arena; a negative offset marks a missing value.
	String
)

var typeNames = [...]string{"void", "bool", "int32", "int64", "float32", "float64", "string"}

// String returns the type name.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// ElemSize returns the fixed byte width of one element. For String this is
// the width of one offsets entry; the arena is accounted separately.
func (t Type) ElemSize() int {
	switch t {
	case Bool:
		return 1
	case Int32, Float32, String:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}
