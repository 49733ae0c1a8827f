// Package config defines the file-and-environment configuration for the
// tabular CLI and embedders. Options are organized into sections mirroring
// the pipeline: parsing, storage placement, and observability.
package config

import (
	"runtime"

	"github.com/tabular-dev/tabular/pkg/reader"
	"github.com/tabular-dev/tabular/pkg/taberrors"
)

// Config is the root configuration record.
type Config struct {
	// Read holds the parse options.
	Read ReadConfig `mapstructure:"read" yaml:"read"`
	// Storage controls where columns are placed.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	// Logging configures the structured logger.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ReadConfig mirrors the reader options in file-friendly form: single
// characters are strings so YAML stays readable.
type ReadConfig struct {
	// Sep is the field separator; empty auto-detects.
	Sep string `mapstructure:"sep" yaml:"sep"`
	// Dec is the decimal separator; empty means '.'.
	Dec string `mapstructure:"dec" yaml:"dec"`
	// Quote is the quoting character; empty means '"'.
	Quote string `mapstructure:"quote" yaml:"quote"`
	// NAStrings lists field texts read as missing.
	NAStrings []string `mapstructure:"na_strings" yaml:"na_strings"`
	// StripWhite trims whitespace around unquoted fields.
	StripWhite bool `mapstructure:"strip_white" yaml:"strip_white"`
	// SkipEmptyLines silences blank-line warnings.
	SkipEmptyLines bool `mapstructure:"skip_empty_lines" yaml:"skip_empty_lines"`
	// Fill pads short rows with NA.
	Fill bool `mapstructure:"fill" yaml:"fill"`
	// SkipNRow drops that many leading lines.
	SkipNRow int `mapstructure:"skip_nrow" yaml:"skip_nrow"`
	// SkipString starts parsing at the first line containing it.
	SkipString string `mapstructure:"skip_string" yaml:"skip_string"`
	// NRowLimit caps the rows read; 0 means unlimited.
	NRowLimit int64 `mapstructure:"nrow_limit" yaml:"nrow_limit"`
	// Workers sizes the parse pool; 0 uses every processor.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// WarningsAreErrors aborts on the first warning.
	WarningsAreErrors bool `mapstructure:"warnings_are_errors" yaml:"warnings_are_errors"`
}

// StorageConfig decides heap versus file-backed columns.
type StorageConfig struct {
	// Dir is the column directory; empty keeps columns on the heap.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// SpillBytes moves columns to Dir only when the estimated footprint is at
	// or above this value; 0 always honours Dir.
	SpillBytes int64 `mapstructure:"spill_bytes" yaml:"spill_bytes"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Encoding    string `mapstructure:"encoding" yaml:"encoding"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Read: ReadConfig{
			NAStrings:      []string{"NA"},
			SkipEmptyLines: true,
			Workers:        runtime.GOMAXPROCS(0),
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks structural constraints.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"read.sep":   c.Read.Sep,
		"read.dec":   c.Read.Dec,
		"read.quote": c.Read.Quote,
	} {
		if len(v) > 1 {
			return taberrors.Newf(taberrors.ErrorTypeConfig,
				"%s must be a single character, got %q", name, v)
		}
	}
	if c.Read.SkipNRow < 0 {
		return taberrors.New(taberrors.ErrorTypeConfig, "read.skip_nrow must not be negative")
	}
	if c.Storage.SpillBytes < 0 {
		return taberrors.New(taberrors.ErrorTypeConfig, "storage.spill_bytes must not be negative")
	}
	return nil
}

// ReaderConfig converts the file form into the reader's option record.
func (c *Config) ReaderConfig() reader.Config {
	rc := reader.Config{
		NAStrings:         c.Read.NAStrings,
		StripWhite:        c.Read.StripWhite,
		SkipEmptyLines:    c.Read.SkipEmptyLines,
		Fill:              c.Read.Fill,
		SkipNRow:          c.Read.SkipNRow,
		SkipString:        c.Read.SkipString,
		NRowLimit:         c.Read.NRowLimit,
		NWorkers:          c.Read.Workers,
		Dest:              c.Storage.Dir,
		WarningsAreErrors: c.Read.WarningsAreErrors,
	}
	if c.Read.Sep != "" {
		rc.Sep = c.Read.Sep[0]
	}
	if c.Read.Dec != "" {
		rc.Dec = c.Read.Dec[0]
	}
	if c.Read.Quote != "" {
		rc.Quote = c.Read.Quote[0]
	}
	return rc
}

// DestinationHook builds the footprint policy implied by the storage
// section: spill to the configured directory only at or above the threshold.
func (c *Config) DestinationHook() func(int64) string {
	dir := c.Storage.Dir
	if dir == "" {
		return nil
	}
	threshold := c.Storage.SpillBytes
	return func(estimated int64) string {
		if estimated >= threshold {
			return dir
		}
		return ""
	}
}
