package table

// Table is an ordered sequence of named columns plus a row count. It owns
// its columns exclusively; releasing the table releases every column.
type Table struct {
	cols  []*Column
	names []string
	nrows int
}

// New builds a table over the given columns. Names and columns must be the
// same length.
func New(names []string, cols []*Column) *Table {
	return &Table{cols: cols, names: names}
}

// NCols returns the number of columns.
func (t *Table) NCols() int { return len(t.cols) }

// NRows returns the number of rows.
func (t *Table) NRows() int { return t.nrows }

// SetNRows fixes the final row count.
func (t *Table) SetNRows(n int) { t.nrows = n }

// Column returns column j.
func (t *Table) Column(j int) *Column { return t.cols[j] }

// Columns returns the column slice.
func (t *Table) Columns() []*Column { return t.cols }

// Name returns the name of column j.
func (t *Table) Name(j int) string { return t.names[j] }

// Names returns all column names.
func (t *Table) Names() []string { return t.names }

// ColumnIndex resolves a column name to its index.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for j, n := range t.names {
		if n == name {
			return j, true
		}
	}
	return 0, false
}

// Row returns row i boxed as a name-to-value map, with nil for NA.
func (t *Table) Row(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(t.cols))
	for j, col := range t.cols {
		row[t.names[j]] = col.Value(i)
	}
	return row
}

// Release frees every column. Idempotent.
func (t *Table) Release() error {
	var err error
	for _, col := range t.cols {
		if cerr := col.Release(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
