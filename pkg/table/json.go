package table

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/tabular-dev/tabular/pkg/taberrors"
)

// WriteJSON streams the table to w as one JSON array of row objects. NA
// cells serialise as null.
func (t *Table) WriteJSON(w io.Writer) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return taberrors.Wrap(err, taberrors.ErrorTypeIO, "failed to write json")
	}
	enc := json.NewEncoder(w)
	for i := 0; i < t.nrows; i++ {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return taberrors.Wrap(err, taberrors.ErrorTypeIO, "failed to write json")
			}
		}
		if err := enc.Encode(t.Row(i)); err != nil {
			return taberrors.Wrap(err, taberrors.ErrorTypeIO, "failed to encode row")
		}
	}
	if _, err := io.WriteString(w, "]\n"); err != nil {
		return taberrors.Wrap(err, taberrors.ErrorTypeIO, "failed to write json")
	}
	return nil
}
