// Package expr holds the column-reference node used by the query layer to
// address columns of a materialised table by name or position.
package expr

import (
	"github.com/tabular-dev/tabular/pkg/table"
	"github.com/tabular-dev/tabular/pkg/taberrors"
)

// ColumnExpr selects one column of one frame, by name or by index. A
// negative index counts from the last column.
type ColumnExpr struct {
	frame  int
	name   string
	index  int
	byName bool
}

// ByName references a column by its name.
func ByName(frame int, name string) *ColumnExpr {
	return &ColumnExpr{frame: frame, name: name, byName: true}
}

// ByIndex references a column by position; negative positions wrap from the
// end.
func ByIndex(frame, index int) *ColumnExpr {
	return &ColumnExpr{frame: frame, index: index}
}

// Frame returns the frame ordinal the reference binds to.
func (e *ColumnExpr) Frame() int { return e.frame }

// Resolve binds the reference against t, returning the column index and its
// storage type.
func (e *ColumnExpr) Resolve(t *table.Table) (int, table.Type, error) {
	if e.byName {
		j, ok := t.ColumnIndex(e.name)
		if !ok {
			return 0, table.Void, taberrors.Newf(taberrors.ErrorTypeData,
				"column %q not found", e.name)
		}
		return j, t.Column(j).Type(), nil
	}
	j := e.index
	if j < 0 {
		j += t.NCols()
	}
	if j < 0 || j >= t.NCols() {
		return 0, table.Void, taberrors.Newf(taberrors.ErrorTypeData,
			"column index %d out of range for %d columns", e.index, t.NCols())
	}
	return j, t.Column(j).Type(), nil
}
