package tokenizer

import "bytes"

// minChunkBytes keeps chunks large enough that per-chunk overhead stays
// negligible on small inputs.
const minChunkBytes = 64 << 10

// chunksPerWorker oversizes the chunk count so faster workers can steal
// extra chunks instead of idling at the tail.
const chunksPerWorker = 4

// Chunk is one newline-aligned slice of the input with its exact row count.
// Ord is the source order used by the serialised commit stage.
type Chunk struct {
	Start int
	End   int
	Ord   int
	NRows int
}

// planChunks splits data[start:] into newline-aligned chunks and counts the
// rows of each while locating the boundaries, so allocation needs no
// estimate. Empty lines are never counted as rows. A non-negative limit
// truncates the plan after that many rows; the final chunk then ends at the
// newline closing the limiting row. Returns the chunks and the total rows.
func planChunks(data []byte, start, nworkers int, limit int64) ([]Chunk, int64) {
	if start >= len(data) {
		return nil, 0
	}
	span := len(data) - start
	target := span / (nworkers * chunksPerWorker)
	if target < minChunkBytes {
		target = minChunkBytes
	}

	var chunks []Chunk
	var total int64
	pos := start
	for pos < len(data) {
		end := pos + target
		if end >= len(data) {
			end = len(data)
		} else {
			nl := bytes.IndexByte(data[end:], '\n')
			if nl < 0 {
				end = len(data)
			} else {
				end += nl + 1
			}
		}

		nrows, cut := countRows(data[pos:end], limit-total)
		end = pos + cut
		if nrows > 0 {
			chunks = append(chunks, Chunk{Start: pos, End: end, Ord: len(chunks), NRows: nrows})
			total += int64(nrows)
		}
		if limit >= 0 && total >= limit {
			break
		}
		pos = end
	}
	return chunks, total
}

// countRows counts non-empty lines in data, stopping after limit rows when
// limit is non-negative. It returns the row count and the byte length of the
// counted prefix.
func countRows(data []byte, limit int64) (int, int) {
	rows := 0
	pos := 0
	for pos < len(data) {
		if limit >= 0 && int64(rows) >= limit {
			return rows, pos
		}
		nl := bytes.IndexByte(data[pos:], '\n')
		var line []byte
		var next int
		if nl < 0 {
			line = data[pos:]
			next = len(data)
		} else {
			line = data[pos : pos+nl]
			next = pos + nl + 1
		}
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		if len(line) > 0 {
			rows++
		}
		pos = next
	}
	return rows, pos
}
