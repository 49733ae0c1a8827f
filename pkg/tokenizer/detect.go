package tokenizer

import (
	"bytes"
)

// sepCandidates are tried in order during auto-detection; earlier wins ties.
var sepCandidates = []byte{',', '\t', ';', '|', ':'}

// sampleRows bounds the number of lines examined by detection and inference.
const sampleRows = 100

// lineIter yields lines of a byte slice. A line excludes its terminating
// '\n' and any preceding '\r'; a final unterminated line is yielded too.
type lineIter struct {
	data []byte
	pos  int
}

func (it *lineIter) next() (line []byte, off int, ok bool) {
	if it.pos >= len(it.data) {
		return nil, 0, false
	}
	off = it.pos
	nl := bytes.IndexByte(it.data[it.pos:], '\n')
	if nl < 0 {
		line = it.data[it.pos:]
		it.pos = len(it.data)
	} else {
		line = it.data[it.pos : it.pos+nl]
		it.pos += nl + 1
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, off, true
}

// skipPreamble returns the offset of the first data line after honoring the
// skip-to-line and skip-to-string options. When skipString is set the scan
// starts at the first line containing it; otherwise skipNRow whole lines are
// dropped.
func skipPreamble(data []byte, skipNRow int, skipString string) int {
	it := lineIter{data: data}
	if skipString != "" {
		needle := []byte(skipString)
		for {
			line, off, ok := it.next()
			if !ok {
				return len(data)
			}
			if bytes.Contains(line, needle) {
				return off
			}
		}
	}
	for n := 0; n < skipNRow; n++ {
		if _, _, ok := it.next(); !ok {
			return len(data)
		}
	}
	return it.pos
}

// sample collects up to sampleRows scanned lines from data, skipping empty
// lines.
func sample(data []byte) [][]byte {
	var lines [][]byte
	it := lineIter{data: data}
	for len(lines) < sampleRows {
		line, _, ok := it.next()
		if !ok {
			break
		}
		if len(line) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// countFields returns the number of fields in line under sep/quote.
func countFields(line []byte, sep, quote byte) int {
	sc := scanner{line: line, sep: sep, quote: quote}
	n := 0
	for {
		if _, ok := sc.next(); !ok {
			return n
		}
		n++
	}
}

// detectSep picks the candidate separator with the most consistent field
// count greater than one over the sample. Candidates never splitting any
// line lose to ones that do; ties go to the earlier candidate.
func detectSep(lines [][]byte, quote byte) byte {
	best := byte(',')
	bestScore := -1
	for _, cand := range sepCandidates {
		counts := map[int]int{}
		for _, line := range lines {
			counts[countFields(line, cand, quote)]++
		}
		mode, modeN := 0, 0
		for ncols, n := range counts {
			if n > modeN || (n == modeN && ncols > mode) {
				mode, modeN = ncols, n
			}
		}
		if mode < 2 {
			continue
		}
		score := modeN*1000 + mode
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best
}

// splitFields scans every field of a line.
func splitFields(line []byte, sep, quote byte, strip bool) []field {
	sc := scanner{line: line, sep: sep, quote: quote, strip: strip}
	var fs []field
	for {
		f, ok := sc.next()
		if !ok {
			return fs
		}
		fs = append(fs, f)
	}
}

// inferColumn returns the narrowest chain type accepting every field.
func inferColumn(fields []field, dec byte, naStrings [][]byte) ParseType {
	for _, t := range bumpChain {
		ok := true
		for _, f := range fields {
			if !fits(f, t, dec, naStrings) {
				ok = false
				break
			}
		}
		if ok {
			return t
		}
	}
	return String
}

// inference is the outcome of the first-pass sample scan: the separator, the
// column count, whether the first line is a header, and the per-column types
// inferred from the data lines.
type inference struct {
	sep    byte
	ncols  int
	header bool
	types  []ParseType
	names  []string
}

// infer runs separator detection, the header heuristic and type inference
// over the sample. header forces the decision when non-nil.
func infer(lines [][]byte, sep, quote, dec byte, strip bool, header *bool, naStrings [][]byte) inference {
	if sep == 0 {
		sep = detectSep(lines, quote)
	}
	res := inference{sep: sep}
	if len(lines) == 0 {
		return res
	}

	// The column count is the most frequent field count over the sample, the
	// larger count winning ties; rows with more fields fail the parse.
	rows := make([][]field, len(lines))
	counts := map[int]int{}
	for i, line := range lines {
		rows[i] = splitFields(line, sep, quote, strip)
		counts[len(rows[i])]++
	}
	ncols, ncolsN := 0, 0
	for n, c := range counts {
		if c > ncolsN || (c == ncolsN && n > ncols) {
			ncols, ncolsN = n, c
		}
	}
	res.ncols = ncols

	// Infer from every line but the first, then test the first line against
	// the result. A first line that cannot be data is a header; an
	// all-string table defaults to having one.
	body := rows
	if len(rows) > 1 {
		body = rows[1:]
	}
	types := make([]ParseType, ncols)
	for j := 0; j < ncols; j++ {
		var colFields []field
		for _, r := range body {
			if j < len(r) {
				colFields = append(colFields, r[j])
			}
		}
		types[j] = inferColumn(colFields, dec, naStrings)
	}

	switch {
	case header != nil:
		res.header = *header
	case len(rows) == 1:
		res.header = inferColumn(rows[0], dec, naStrings) == String
	default:
		allString := true
		for j, t := range types {
			if t != String {
				allString = false
				if j < len(rows[0]) && !fits(rows[0][j], t, dec, naStrings) {
					res.header = true
				}
			}
		}
		if allString {
			res.header = true
		}
	}

	if res.header {
		res.names = make([]string, ncols)
		for j := 0; j < ncols; j++ {
			if j < len(rows[0]) {
				res.names[j] = headerName(rows[0][j], quote)
			}
		}
		if len(rows) == 1 {
			types = make([]ParseType, ncols)
			for j := range types {
				types[j] = Bool
			}
		}
	} else if len(rows) > 1 {
		// The first line is data after all; fold it into the inference.
		for j, t := range types {
			if j < len(rows[0]) && !fits(rows[0][j], t, dec, naStrings) {
				types[j] = inferColumn([]field{rows[0][j]}, dec, naStrings)
				if types[j] < t {
					types[j] = t
				}
			}
		}
	}
	res.types = types
	return res
}

func headerName(f field, quote byte) string {
	if f.escaped {
		dst := make([]byte, len(f.data))
		n := Unescape(f.data, quote, dst)
		return string(dst[:n])
	}
	return string(f.data)
}
