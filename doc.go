// Package tabular materialises columnar tables from delimited text.
//
// The reader maps the input, detects the separator and column types from a
// sample, then parses the file in parallel newline-aligned chunks. Fixed
// width columns are written as contiguous typed buffers; string columns
// collect their bytes in per-column arenas addressed by signed one-based end
// offsets. When a value contradicts the sampled type the column is promoted
// and the file is re-read with the wider type.
//
// Columns live on the heap by default, or in memory-mapped files when a
// destination directory is configured, so tables larger than memory stay
// addressable.
//
// # Quick start
//
//	src, err := source.File("data.csv")
//	if err != nil {
//	    return err
//	}
//	defer src.Release()
//
//	t, err := reader.New(reader.Config{}, reader.Callbacks{}).Read(ctx, src)
//	if err != nil {
//	    return err
//	}
//	defer t.Release()
//
// # Key packages
//
//	pkg/reader    - the reading pipeline: options, sink, worker staging
//	pkg/tokenizer - chunking, field scanning, type inference and promotion
//	pkg/table     - typed columns, allocator, Arrow and JSON export
//	pkg/arena     - the shared string arenas behind string columns
//	pkg/source    - mapped, in-memory and compressed input ranges
//	pkg/config    - file and environment configuration for the CLI
package tabular
