package table

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocColumn(t *testing.T, a *Allocator, typ Type, nrows, j int) *Column {
	t.Helper()
	col, err := a.Alloc(typ, nrows, j)
	require.NoError(t, err)
	t.Cleanup(func() { col.Release() }) //nolint:errcheck
	return col
}

func TestAllocatorColumnNaming(t *testing.T) {
	a := NewAllocator("/data", 120)
	assert.Equal(t, filepath.Join("/data", "col007"), a.ColumnPath(7))

	a = NewAllocator("/data", 9)
	assert.Equal(t, filepath.Join("/data", "col3"), a.ColumnPath(3))

	assert.False(t, NewAllocator("", 5).OnDisk())
	assert.True(t, a.OnDisk())
}

func TestEstimateFootprint(t *testing.T) {
	types := []Type{Int32, Float64, String, Void, Bool}
	// 4 + 8 + (4 offsets + 5 arena) + 0 + 1 per row.
	assert.Equal(t, int64(22*10), EstimateFootprint(types, 10))
	assert.Equal(t, int64(0), EstimateFootprint(nil, 100))
}

func TestHeapColumnRoundTrip(t *testing.T) {
	a := NewAllocator("", 3)

	ints := allocColumn(t, a, Int32, 3, 0)
	copy(ints.Int32s(), []int32{7, NAInt32, -7})
	assert.Equal(t, int32(7), ints.Int32s()[0])
	assert.True(t, ints.IsNA(1))
	assert.Equal(t, interface{}(nil), ints.Value(1))
	assert.Equal(t, int32(-7), ints.Value(2))

	floats := allocColumn(t, a, Float64, 2, 1)
	floats.Float64s()[0] = 1.5
	floats.Float64s()[1] = math.NaN()
	assert.False(t, floats.IsNA(0))
	assert.True(t, floats.IsNA(1))

	bools := allocColumn(t, a, Bool, 3, 2)
	copy(bools.Bools(), []int8{1, 0, NABool})
	assert.Equal(t, true, bools.Value(0))
	assert.Equal(t, false, bools.Value(1))
	assert.True(t, bools.IsNA(2))
}

func TestStringColumnOffsetsContract(t *testing.T) {
	a := NewAllocator("", 1)
	col := allocColumn(t, a, String, 3, 0)

	copy(col.ArenaBuffer().Bytes(), "abde")
	offs := col.Offsets()
	require.Equal(t, int32(1), offs[0])
	offs[1] = 3  // "ab"
	offs[2] = -3 // NA, end carries the running position
	offs[3] = 5  // "de"

	s, ok := col.StringAt(0)
	require.True(t, ok)
	assert.Equal(t, "ab", s)

	_, ok = col.StringAt(1)
	assert.False(t, ok)
	assert.True(t, col.IsNA(1))

	s, ok = col.StringAt(2)
	require.True(t, ok)
	assert.Equal(t, "de", s)

	require.NoError(t, col.TrimArena(4))
	assert.Len(t, col.ArenaBytes(), 4)
}

func TestReallocKeepsTypeResizesRows(t *testing.T) {
	a := NewAllocator("", 1)
	col := allocColumn(t, a, Int32, 2, 0)
	copy(col.Int32s(), []int32{1, 2})

	col2, err := a.Realloc(col, Int32, 4, 0)
	require.NoError(t, err)
	assert.Same(t, col, col2)
	assert.Equal(t, 4, col2.Len())
	assert.Equal(t, []int32{1, 2}, col2.Int32s()[:2])
}

func TestReallocRetypeReplacesColumn(t *testing.T) {
	a := NewAllocator("", 1)
	col, err := a.Alloc(Int32, 2, 0)
	require.NoError(t, err)

	col2, err := a.Realloc(col, Float64, 2, 0)
	require.NoError(t, err)
	t.Cleanup(func() { col2.Release() }) //nolint:errcheck
	assert.Equal(t, Float64, col2.Type())
	assert.Len(t, col2.Data(), 16)
}

func TestDiskColumnsAreFileBacked(t *testing.T) {
	dir := t.TempDir()
	a := NewAllocator(dir, 2)

	col := allocColumn(t, a, Int64, 4, 0)
	col.Int64s()[3] = 42
	assert.FileExists(t, a.ColumnPath(0))

	str := allocColumn(t, a, String, 2, 1)
	assert.FileExists(t, a.ColumnPath(1))
	assert.FileExists(t, a.ColumnPath(1)+".str")
	assert.Equal(t, int32(1), str.Offsets()[0])
}

func TestTableAccessorsAndRow(t *testing.T) {
	a := NewAllocator("", 2)
	ints := allocColumn(t, a, Int32, 2, 0)
	copy(ints.Int32s(), []int32{5, NAInt32})
	strs := allocColumn(t, a, String, 2, 1)
	copy(strs.ArenaBuffer().Bytes(), "hi")
	offs := strs.Offsets()
	offs[1], offs[2] = 3, -3

	tab := New([]string{"n", "s"}, []*Column{ints, strs})
	tab.SetNRows(2)
	assert.Equal(t, 2, tab.NCols())
	assert.Equal(t, 2, tab.NRows())
	assert.Equal(t, "s", tab.Name(1))

	j, ok := tab.ColumnIndex("s")
	require.True(t, ok)
	assert.Equal(t, 1, j)
	_, ok = tab.ColumnIndex("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]interface{}{"n": int32(5), "s": "hi"}, tab.Row(0))
	assert.Equal(t, map[string]interface{}{"n": nil, "s": nil}, tab.Row(1))
}

func TestWriteJSON(t *testing.T) {
	a := NewAllocator("", 1)
	ints := allocColumn(t, a, Int32, 2, 0)
	copy(ints.Int32s(), []int32{1, NAInt32})

	tab := New([]string{"x"}, []*Column{ints})
	tab.SetNRows(2)

	var buf bytes.Buffer
	require.NoError(t, tab.WriteJSON(&buf))
	assert.JSONEq(t, `[{"x":1},{"x":null}]`, buf.String())
}

func TestReleaseIsIdempotent(t *testing.T) {
	a := NewAllocator("", 1)
	col, err := a.Alloc(String, 1, 0)
	require.NoError(t, err)
	require.NoError(t, col.Release())
	require.NoError(t, col.Release())
}

func TestTypeStringAndElemSize(t *testing.T) {
	assert.Equal(t, "int32", Int32.String())
	assert.Equal(t, "string", String.String())
	assert.Equal(t, 0, Void.ElemSize())
	assert.Equal(t, 1, Bool.ElemSize())
	assert.Equal(t, 4, Float32.ElemSize())
	assert.Equal(t, 8, Float64.ElemSize())
	assert.Equal(t, 4, String.ElemSize())
}
