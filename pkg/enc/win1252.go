// Package enc provides the text-encoding repair policy for tabular: bytes are
// accepted as-is when they form valid UTF-8, otherwise they are decoded as
// Windows-1252 into UTF-8. The repair is lossless for any 8-bit sequence and
// never produces more than three output bytes per input byte.
package enc

import "unicode/utf8"

// win1252 maps the 0x80-0x9F range of Windows-1252 to Unicode code points.
// Bytes that are undefined in Windows-1252 (0x81, 0x8D, 0x8F, 0x90, 0x9D)
// map to the corresponding C1 control characters so the decode never fails.
var win1252 = [32]rune{
	0x20AC, 0x0081, 0x201A, 0x0192, 0x201E, 0x2026, 0x2020, 0x2021,
	0x02C6, 0x2030, 0x0160, 0x2039, 0x0152, 0x008D, 0x017D, 0x008F,
	0x0090, 0x2018, 0x2019, 0x201C, 0x201D, 0x2022, 0x2013, 0x2014,
	0x02DC, 0x2122, 0x0161, 0x203A, 0x0153, 0x009D, 0x017E, 0x0178,
}

// ValidUTF8 reports whether b is a valid UTF-8 byte sequence.
func ValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}

// DecodeWindows1252 decodes src as Windows-1252 and writes the UTF-8
// representation into dst, returning the number of bytes written. dst must
// have room for at least 3*len(src) bytes; every code point produced by
// Windows-1252 encodes to at most three UTF-8 bytes.
func DecodeWindows1252(src, dst []byte) int {
	n := 0
	for _, c := range src {
		switch {
		case c < 0x80:
			dst[n] = c
			n++
		case c < 0xA0:
			n += utf8.EncodeRune(dst[n:], win1252[c-0x80])
		default:
			// 0xA0-0xFF coincide with the Latin-1 code points.
			n += utf8.EncodeRune(dst[n:], rune(c))
		}
	}
	return n
}

// DecodedLen returns the number of UTF-8 bytes DecodeWindows1252 would write
// for src without performing the copy.
func DecodedLen(src []byte) int {
	n := 0
	for _, c := range src {
		switch {
		case c < 0x80:
			n++
		case c < 0xA0:
			n += utf8.RuneLen(win1252[c-0x80])
		default:
			n += utf8.RuneLen(rune(c))
		}
	}
	return n
}

// Repair returns b as a string unchanged when it is valid UTF-8, otherwise
// the Windows-1252 decoding of its bytes.
func Repair(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	dst := make([]byte, 3*len(b))
	n := DecodeWindows1252(b, dst)
	return string(dst[:n])
}
