// Package tokenizer drives the delimited-text parse: it plans newline-aligned
// chunks, detects the separator and header, infers column types over a sample,
// and feeds parsed cells into per-worker buffers that a Sink turns into
// columnar storage. The sink callbacks run in a fixed temporal order per pass;
// a mid-pass type promotion restarts the pass with widened types.
package tokenizer

import "math"

// ParseType identifies how a field is parsed. The order is the promotion
// chain used by inference and by mid-pass bumps; Float32 sits outside the
// chain and is only reachable through a negotiation override.
type ParseType int8

const (
	// Drop skips the column entirely.
	Drop ParseType = iota
	// Bool parses true/false literals into one byte.
	Bool
	// Int32Bare parses an unquoted decimal integer in int32 range.
	Int32Bare
	// Int32 parses a possibly quoted decimal integer in int32 range.
	Int32
	// Int64 parses a decimal integer in int64 range.
	Int64
	// Float32 parses a decimal real into four bytes. Override only.
	Float32
	// Float64Bare parses a plain decimal real without an exponent.
	Float64Bare
	// Float64 parses a decimal real with an optional exponent.
	Float64
	// Float64Ext additionally accepts NaN and signed Inf literals.
	Float64Ext
	// String accepts any field.
	String
)

var parseTypeNames = [...]string{
	"drop", "bool", "int32:bare", "int32", "int64",
	"float32", "float64:bare", "float64", "float64:ext", "string",
}

// String returns the parse-type name.
func (t ParseType) String() string {
	if int(t) < len(parseTypeNames) {
		return parseTypeNames[t]
	}
	return "unknown"
}

// CellWidth returns the byte width of one cell in the worker buffers: 8 for
// int64, float64 and string length/offset pairs, 4 for int32 and float32,
// 1 for bool, 0 for dropped columns.
func (t ParseType) CellWidth() int {
	switch t {
	case Bool:
		return 1
	case Int32Bare, Int32, Float32:
		return 4
	case Int64, Float64Bare, Float64, Float64Ext, String:
		return 8
	default:
		return 0
	}
}

// IsString reports whether cells carry length/offset pairs.
func (t ParseType) IsString() bool { return t == String }

// bumpChain is the inference ladder. Float32 is excluded: nothing infers it.
var bumpChain = [...]ParseType{Bool, Int32Bare, Int64, Float64Bare, Float64, Float64Ext, String}

// Next returns the next wider type in the promotion chain. String is the
// ceiling and returns itself; Float32 widens to Float64.
func (t ParseType) Next() ParseType {
	switch t {
	case Bool:
		return Int32Bare
	case Int32Bare, Int32:
		return Int64
	case Int64:
		return Float64Bare
	case Float32, Float64Bare:
		return Float64
	case Float64:
		return Float64Ext
	default:
		return String
	}
}

// NA sentinels written into worker cells for missing values.
var (
	NABool  = int8(math.MinInt8)
	NAInt32 = int32(math.MinInt32)
	NAInt64 = int64(math.MinInt64)
	// NALen marks a missing string cell in a length/offset pair.
	NALen = int32(math.MinInt32)
)
