package tokenizer

import (
	"bytes"
	"math"
	"strconv"
	"unsafe"
)

// field is one scanned cell: its bytes within the chunk, whether it was
// quoted, and whether the quoted content still carries doubled quote escapes.
type field struct {
	data    []byte
	off     int // offset of data within the chunk
	quoted  bool
	escaped bool
}

// scanner walks one line of a chunk, yielding fields split on sep. A field
// that begins with the quote byte runs to the matching close quote and may
// contain separators; a doubled quote inside is an escape. Quoted fields do
// not span lines.
type scanner struct {
	line  []byte
	base  int // offset of line within the chunk
	pos   int
	sep   byte
	quote byte
	strip bool
	done  bool
}

func (sc *scanner) next() (field, bool) {
	if sc.done {
		return field{}, false
	}
	if sc.strip {
		for sc.pos < len(sc.line) && (sc.line[sc.pos] == ' ' || sc.line[sc.pos] == '\t') {
			sc.pos++
		}
	}
	start := sc.pos
	var f field
	if sc.quote != 0 && sc.pos < len(sc.line) && sc.line[sc.pos] == sc.quote {
		f = sc.scanQuoted()
		// Trailing junk between the close quote and the separator is dropped.
		for sc.pos < len(sc.line) && sc.line[sc.pos] != sc.sep {
			sc.pos++
		}
	} else {
		end := start
		for end < len(sc.line) && sc.line[end] != sc.sep {
			end++
		}
		f = field{data: sc.line[start:end], off: sc.base + start}
		sc.pos = end
	}
	if sc.pos < len(sc.line) && sc.line[sc.pos] == sc.sep {
		sc.pos++
	} else {
		sc.done = true
	}
	if sc.strip && !f.quoted {
		f = stripField(f)
	}
	return f, true
}

// scanQuoted consumes a field opened by a quote byte. When the content holds
// escaped quotes the field keeps its surrounding quotes so a later copy can
// collapse the escapes; otherwise the quotes are trimmed here.
func (sc *scanner) scanQuoted() field {
	open := sc.pos
	i := open + 1
	escaped := false
	for i < len(sc.line) {
		if sc.line[i] != sc.quote {
			i++
			continue
		}
		if i+1 < len(sc.line) && sc.line[i+1] == sc.quote {
			escaped = true
			i += 2
			continue
		}
		break
	}
	if i >= len(sc.line) {
		// Unterminated quote: take the rest of the line verbatim.
		f := field{data: sc.line[open:], off: sc.base + open}
		sc.pos = len(sc.line)
		return f
	}
	end := i
	sc.pos = end + 1
	if escaped {
		return field{
			data:    sc.line[open : end+1],
			off:     sc.base + open,
			quoted:  true,
			escaped: true,
		}
	}
	return field{
		data:   sc.line[open+1 : end],
		off:    sc.base + open + 1,
		quoted: true,
	}
}

func stripField(f field) field {
	d, off := f.data, f.off
	for len(d) > 0 && (d[0] == ' ' || d[0] == '\t') {
		d = d[1:]
		off++
	}
	for len(d) > 0 && (d[len(d)-1] == ' ' || d[len(d)-1] == '\t') {
		d = d[:len(d)-1]
	}
	return field{data: d, off: off, quoted: f.quoted, escaped: f.escaped}
}

// Unescape collapses doubled quote escapes of a still-quoted field into dst
// and returns the content length. dst must hold at least len(data) bytes.
func Unescape(data []byte, quote byte, dst []byte) int {
	if len(data) < 2 || data[0] != quote || data[len(data)-1] != quote {
		return copy(dst, data)
	}
	body := data[1 : len(data)-1]
	n := 0
	for i := 0; i < len(body); i++ {
		dst[n] = body[i]
		n++
		if body[i] == quote && i+1 < len(body) && body[i+1] == quote {
			i++
		}
	}
	return n
}

// isNA reports whether the unquoted field text matches one of the NA strings.
// An empty unquoted field is always NA.
func isNA(f field, naStrings [][]byte) bool {
	if len(f.data) == 0 {
		return !f.quoted
	}
	if f.escaped {
		return false
	}
	for _, na := range naStrings {
		if bytes.Equal(f.data, na) {
			return true
		}
	}
	return false
}

// Typed parsers. Each returns ok=false when the text does not fit the type,
// which triggers a promotion along the bump chain.

func parseBool(b []byte) (int8, bool) {
	switch {
	case len(b) == 0:
		return 0, false
	case bytes.Equal(b, []byte("true")) || bytes.Equal(b, []byte("True")) || bytes.Equal(b, []byte("TRUE")):
		return 1, true
	case bytes.Equal(b, []byte("false")) || bytes.Equal(b, []byte("False")) || bytes.Equal(b, []byte("FALSE")):
		return 0, true
	default:
		return 0, false
	}
}

func parseInt64(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	neg := false
	i := 0
	if b[0] == '-' || b[0] == '+' {
		neg = b[0] == '-'
		i = 1
	}
	if i == len(b) {
		return 0, false
	}
	var acc uint64
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		if acc > (math.MaxUint64-uint64(c-'0'))/10 {
			return 0, false
		}
		acc = acc*10 + uint64(c-'0')
	}
	if neg {
		// MinInt64 itself is the NA sentinel and stays unrepresentable.
		if acc > uint64(math.MaxInt64) {
			return 0, false
		}
		return -int64(acc), true
	}
	if acc > uint64(math.MaxInt64) {
		return 0, false
	}
	return int64(acc), true
}

func parseInt32(b []byte) (int32, bool) {
	v, ok := parseInt64(b)
	if !ok || v > math.MaxInt32 || v <= math.MinInt32 {
		return 0, false
	}
	return int32(v), true
}

// floatShape classifies a field's numeric syntax: 0 not a number, 1 plain
// decimal, 2 decimal with exponent, 3 extended literal (NaN or Inf).
func floatShape(b []byte, dec byte) int {
	if len(b) == 0 {
		return 0
	}
	i := 0
	if b[0] == '-' || b[0] == '+' {
		i = 1
	}
	if rest := b[i:]; len(rest) > 0 {
		if equalFold(rest, "nan") || equalFold(rest, "inf") || equalFold(rest, "infinity") {
			return 3
		}
	}
	digits, dot, exp := 0, false, false
	for ; i < len(b); i++ {
		c := b[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == dec && !dot && !exp:
			dot = true
		case (c == 'e' || c == 'E') && digits > 0 && !exp:
			exp = true
			if i+1 < len(b) && (b[i+1] == '-' || b[i+1] == '+') {
				i++
			}
			if i+1 >= len(b) {
				return 0
			}
		default:
			return 0
		}
	}
	if digits == 0 {
		return 0
	}
	if exp {
		return 2
	}
	return 1
}

func equalFold(b []byte, s string) bool {
	if len(b) != len(s) {
		return false
	}
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != s[i] {
			return false
		}
	}
	return true
}

// parseFloat64 parses b under the syntax admitted by the given parse type and
// decimal separator.
func parseFloat64(b []byte, t ParseType, dec byte) (float64, bool) {
	shape := floatShape(b, dec)
	switch {
	case shape == 0:
		return 0, false
	case shape == 2 && t == Float64Bare:
		return 0, false
	case shape == 3 && t != Float64Ext:
		return 0, false
	}
	if dec != '.' {
		var tmp [64]byte
		if len(b) > len(tmp) {
			return 0, false
		}
		n := copy(tmp[:], b)
		for i := 0; i < n; i++ {
			if tmp[i] == dec {
				tmp[i] = '.'
			}
		}
		v, err := strconv.ParseFloat(string(tmp[:n]), 64)
		return v, err == nil
	}
	v, err := strconv.ParseFloat(viewString(b), 64)
	return v, err == nil
}

func parseFloat32(b []byte, dec byte) (float32, bool) {
	v, ok := parseFloat64(b, Float64Ext, dec)
	if !ok {
		return 0, false
	}
	return float32(v), true
}

// viewString reinterprets b as a string without copying. The result must not
// outlive b.
func viewString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// fits reports whether the field parses under t. Used by inference and by
// the header heuristic; NA fields fit every type.
func fits(f field, t ParseType, dec byte, naStrings [][]byte) bool {
	if isNA(f, naStrings) {
		return true
	}
	switch t {
	case Drop, String:
		return true
	case Bool:
		_, ok := parseBool(f.data)
		return ok
	case Int32Bare:
		if f.quoted {
			return false
		}
		_, ok := parseInt32(f.data)
		return ok
	case Int32:
		_, ok := parseInt32(f.data)
		return ok
	case Int64:
		_, ok := parseInt64(f.data)
		return ok
	case Float32:
		_, ok := parseFloat32(f.data, dec)
		return ok
	case Float64Bare, Float64, Float64Ext:
		_, ok := parseFloat64(f.data, t, dec)
		return ok
	default:
		return false
	}
}
