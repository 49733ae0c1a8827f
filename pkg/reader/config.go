// Package reader materialises a columnar table from delimited text. It
// drives the tokenizer through the allocation, postprocess, ordered-commit
// and finalisation callbacks, owns the column storage across type-promotion
// re-reads, and coordinates the shared string arenas.
package reader

import (
	"github.com/tabular-dev/tabular/pkg/table"
	"github.com/tabular-dev/tabular/pkg/tokenizer"
)

// Config holds the user-facing read options.
type Config struct {
	// Sep is the field separator; 0 auto-detects among ',', '\t', ';',
	// '|' and ':'.
	Sep byte
	// Dec is the decimal separator inside numbers; 0 means '.'.
	Dec byte
	// Quote is the quoting byte; 0 means '"'.
	Quote byte
	// Header forces the header decision; nil uses the first-line heuristic.
	Header *bool
	// NAStrings are field texts read as missing values.
	NAStrings []string
	// StripWhite trims spaces and tabs around unquoted fields.
	StripWhite bool
	// SkipEmptyLines silences the blank-line warning.
	SkipEmptyLines bool
	// Fill pads short rows with NA without a warning.
	Fill bool
	// SkipNRow drops that many leading lines.
	SkipNRow int
	// SkipString starts parsing at the first line containing it.
	SkipString string
	// NRowLimit caps the number of rows read; 0 or negative means no cap.
	NRowLimit int64
	// NWorkers sizes the parse pool; 0 or less uses every processor.
	NWorkers int
	// Dest is the column directory used when no ChooseDestination callback
	// is installed; empty keeps columns on the heap.
	Dest string
	// Verbose logs the pass structure at debug level.
	Verbose bool
	// ShowProgress emits whole-percent progress callbacks.
	ShowProgress bool
	// WarningsAreErrors aborts the read on the first warning.
	WarningsAreErrors bool
}

// Callbacks are the policy hooks a caller may install. Every hook is
// optional.
type Callbacks struct {
	// OverrideColumns runs once after type inference with the negotiated
	// column names and inferred parse types. It may rewrite types in place
	// to widen or narrow columns and may set entries to tokenizer.Drop to
	// exclude them. Returning false stops the read before any allocation.
	OverrideColumns func(names []string, types []tokenizer.ParseType) bool

	// ChooseDestination maps the estimated byte footprint of the output to
	// a column directory. An empty result keeps the columns on the heap.
	ChooseDestination func(estimatedBytes int64) string

	// Progress receives completion in whole percent, at most once per step.
	Progress func(percent int)
}

func (c Config) tokenizerOptions(warnf func(string, ...interface{})) tokenizer.Options {
	limit := c.NRowLimit
	if limit <= 0 {
		limit = -1
	}
	return tokenizer.Options{
		Sep:               c.Sep,
		Dec:               c.Dec,
		Quote:             c.Quote,
		Header:            c.Header,
		NAStrings:         c.NAStrings,
		StripWhite:        c.StripWhite,
		SkipEmptyLines:    c.SkipEmptyLines,
		Fill:              c.Fill,
		SkipNRow:          c.SkipNRow,
		SkipString:        c.SkipString,
		NRowLimit:         limit,
		NWorkers:          c.NWorkers,
		WarningsAreErrors: c.WarningsAreErrors,
		Warnf:             warnf,
	}
}

// storageType maps a parse type to its column storage type.
func storageType(t tokenizer.ParseType) table.Type {
	switch t {
	case tokenizer.Bool:
		return table.Bool
	case tokenizer.Int32Bare, tokenizer.Int32:
		return table.Int32
	case tokenizer.Int64:
		return table.Int64
	case tokenizer.Float32:
		return table.Float32
	case tokenizer.Float64Bare, tokenizer.Float64, tokenizer.Float64Ext:
		return table.Float64
	case tokenizer.String:
		return table.String
	default:
		return table.Void
	}
}
