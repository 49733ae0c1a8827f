package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabular-dev/tabular/pkg/table"
	"github.com/tabular-dev/tabular/pkg/taberrors"
)

func testTable(t *testing.T) *table.Table {
	t.Helper()
	a := table.NewAllocator("", 3)
	cols := make([]*table.Column, 3)
	for j, typ := range []table.Type{table.Int32, table.Float64, table.String} {
		col, err := a.Alloc(typ, 0, j)
		require.NoError(t, err)
		cols[j] = col
	}
	tab := table.New([]string{"id", "score", "name"}, cols)
	t.Cleanup(func() { tab.Release() }) //nolint:errcheck
	return tab
}

func TestResolveByName(t *testing.T) {
	tab := testTable(t)
	e := ByName(0, "score")
	assert.Equal(t, 0, e.Frame())

	j, typ, err := e.Resolve(tab)
	require.NoError(t, err)
	assert.Equal(t, 1, j)
	assert.Equal(t, table.Float64, typ)
}

func TestResolveByNameMissing(t *testing.T) {
	_, _, err := ByName(0, "absent").Resolve(testTable(t))
	require.Error(t, err)
	assert.True(t, taberrors.IsType(err, taberrors.ErrorTypeData))
}

func TestResolveByIndex(t *testing.T) {
	tab := testTable(t)
	j, typ, err := ByIndex(0, 2).Resolve(tab)
	require.NoError(t, err)
	assert.Equal(t, 2, j)
	assert.Equal(t, table.String, typ)
}

func TestResolveNegativeIndexWraps(t *testing.T) {
	tab := testTable(t)
	j, typ, err := ByIndex(0, -1).Resolve(tab)
	require.NoError(t, err)
	assert.Equal(t, 2, j)
	assert.Equal(t, table.String, typ)

	j, _, err = ByIndex(0, -3).Resolve(tab)
	require.NoError(t, err)
	assert.Equal(t, 0, j)
}

func TestResolveIndexOutOfRange(t *testing.T) {
	tab := testTable(t)
	for _, idx := range []int{3, -4, 99} {
		_, _, err := ByIndex(0, idx).Resolve(tab)
		require.Error(t, err, "index %d", idx)
		assert.True(t, taberrors.IsType(err, taberrors.ErrorTypeData))
	}
}
