package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inferText(text string, header *bool) inference {
	return infer(sample([]byte(text)), 0, '"', '.', false, header, [][]byte{[]byte("NA")})
}

func TestDetectSepComma(t *testing.T) {
	inf := inferText("a,b\n1,2\n3,4\n", nil)
	assert.Equal(t, byte(','), inf.sep)
	assert.Equal(t, 2, inf.ncols)
}

func TestDetectSepSemicolonAndPipe(t *testing.T) {
	assert.Equal(t, byte(';'), inferText("a;b\n1;2\n", nil).sep)
	assert.Equal(t, byte('|'), inferText("a|b\n1|2\n", nil).sep)
	assert.Equal(t, byte('\t'), inferText("a\tb\n1\t2\n", nil).sep)
}

func TestDetectSepIgnoresQuotedSeparators(t *testing.T) {
	inf := inferText("a,b\n\"x,y\",2\n\"p,q\",4\n", nil)
	assert.Equal(t, byte(','), inf.sep)
	assert.Equal(t, 2, inf.ncols)
}

func TestHeaderHeuristic(t *testing.T) {
	inf := inferText("a\n1\n2\n", nil)
	assert.True(t, inf.header)
	assert.Equal(t, []string{"a"}, inf.names)
	require.Len(t, inf.types, 1)
	assert.Equal(t, Int32Bare, inf.types[0])

	inf = inferText("1\n2\n", nil)
	assert.False(t, inf.header)
	assert.Nil(t, inf.names)
}

func TestHeaderForcedOff(t *testing.T) {
	off := false
	inf := inferText("a\nb\n", &off)
	assert.False(t, inf.header)
	assert.Equal(t, String, inf.types[0])
}

func TestHeaderAllStringColumnsDefaultsToHeader(t *testing.T) {
	inf := inferText("name\nalice\nbob\n", nil)
	assert.True(t, inf.header)
	assert.Equal(t, []string{"name"}, inf.names)
}

func TestInferPromotionLadder(t *testing.T) {
	inf := inferText("h\ntrue\nfalse\n", nil)
	assert.Equal(t, Bool, inf.types[0])

	inf = inferText("h\n1\n2\n", nil)
	assert.Equal(t, Int32Bare, inf.types[0])

	inf = inferText("h\n1\n3000000000\n", nil)
	assert.Equal(t, Int64, inf.types[0])

	inf = inferText("h\n1\n2.5\n", nil)
	assert.Equal(t, Float64Bare, inf.types[0])

	inf = inferText("h\n1\n2.5e3\n", nil)
	assert.Equal(t, Float64, inf.types[0])

	inf = inferText("h\n1.5\nNaN\n", nil)
	assert.Equal(t, Float64Ext, inf.types[0])

	inf = inferText("h\n1\nx\n", nil)
	assert.Equal(t, String, inf.types[0])
}

func TestInferNAFitsEveryType(t *testing.T) {
	inf := inferText("h\nNA\n1\nNA\n", nil)
	assert.Equal(t, Int32Bare, inf.types[0])
}

func TestSkipPreambleByCountAndString(t *testing.T) {
	data := []byte("junk\nmore junk\nheader,starts,here\n1,2,3\n")
	assert.Equal(t, 15, skipPreamble(data, 2, ""))
	assert.Equal(t, 15, skipPreamble(data, 0, "header"))
	assert.Equal(t, len(data), skipPreamble(data, 99, ""))
	assert.Equal(t, len(data), skipPreamble(data, 0, "absent"))
}

func TestPlanChunksCountsRowsExactly(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		sb.WriteString("row,content,here\n")
	}
	data := []byte(sb.String())

	chunks, total := planChunks(data, 0, 4, -1)
	assert.Equal(t, int64(1000), total)

	var sum int
	pos := 0
	for i, c := range chunks {
		assert.Equal(t, i, c.Ord)
		assert.Equal(t, pos, c.Start)
		pos = c.End
		sum += c.NRows
		if c.End < len(data) {
			assert.Equal(t, byte('\n'), data[c.End-1])
		}
	}
	assert.Equal(t, len(data), pos)
	assert.Equal(t, 1000, sum)
}

func TestPlanChunksHonoursRowLimit(t *testing.T) {
	data := []byte("1\n2\n3\n4\n5\n")
	chunks, total := planChunks(data, 0, 2, 3)
	assert.Equal(t, int64(3), total)
	require.Len(t, chunks, 1)
	assert.Equal(t, 3, chunks[0].NRows)
	assert.Equal(t, 6, chunks[0].End)
}

func TestPlanChunksSkipsBlankLines(t *testing.T) {
	data := []byte("1\n\n2\n\n\n3\n")
	_, total := planChunks(data, 0, 1, -1)
	assert.Equal(t, int64(3), total)
}

func TestLayoutAssignsWidthClassSlots(t *testing.T) {
	l := NewLayout([]ParseType{Int64, Bool, String, Drop, Int32Bare, Float64})
	n8, n4, n1 := l.Strides()
	assert.Equal(t, 3, n8)
	assert.Equal(t, 1, n4)
	assert.Equal(t, 1, n1)
	assert.Equal(t, 0, l.Slot(0))
	assert.Equal(t, 0, l.Slot(1))
	assert.Equal(t, 1, l.Slot(2))
	assert.Equal(t, -1, l.Slot(3))
	assert.Equal(t, 0, l.Slot(4))
	assert.Equal(t, 2, l.Slot(5))
}
