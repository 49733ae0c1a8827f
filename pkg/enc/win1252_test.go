package enc

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidUTF8(t *testing.T) {
	assert.True(t, ValidUTF8([]byte("plain ascii")))
	assert.True(t, ValidUTF8([]byte("héllo")))
	assert.True(t, ValidUTF8(nil))
	assert.False(t, ValidUTF8([]byte{0xE9}))
	assert.False(t, ValidUTF8([]byte{0xFF, 0xFE}))
}

func TestDecodeWindows1252SpecialRange(t *testing.T) {
	cases := map[byte]rune{
		0x80: 0x20AC, // euro sign
		0x85: 0x2026, // ellipsis
		0x93: 0x201C, // left double quote
		0x99: 0x2122, // trade mark
		0x9F: 0x0178, // Y with diaeresis
		0x81: 0x0081, // undefined, kept as C1 control
	}
	for in, want := range cases {
		dst := make([]byte, 3)
		n := DecodeWindows1252([]byte{in}, dst)
		r, size := utf8.DecodeRune(dst[:n])
		assert.Equal(t, want, r, "byte %#x", in)
		assert.Equal(t, n, size)
	}
}

func TestDecodeWindows1252Latin1Range(t *testing.T) {
	dst := make([]byte, 6)
	n := DecodeWindows1252([]byte{0xE9, 0xFC}, dst)
	assert.Equal(t, "éü", string(dst[:n]))
}

func TestDecodeWindows1252EveryByteIsValidUTF8(t *testing.T) {
	src := make([]byte, 256)
	for i := range src {
		src[i] = byte(i)
	}
	dst := make([]byte, 3*len(src))
	n := DecodeWindows1252(src, dst)
	require.True(t, utf8.Valid(dst[:n]))
	assert.Equal(t, DecodedLen(src), n)
}

func TestDecodedLenMatchesDecode(t *testing.T) {
	inputs := [][]byte{
		[]byte("ascii only"),
		{0x80, 0x9F, 0xA0, 0xFF},
		{0x41, 0xE9, 0x42},
		nil,
	}
	for _, in := range inputs {
		dst := make([]byte, 3*len(in))
		assert.Equal(t, DecodeWindows1252(in, dst), DecodedLen(in))
	}
}

func TestRepair(t *testing.T) {
	assert.Equal(t, "already fine é", Repair([]byte("already fine é")))
	assert.Equal(t, "café", Repair([]byte{'c', 'a', 'f', 0xE9}))
	assert.Equal(t, "€100", Repair([]byte{0x80, '1', '0', '0'}))
}
