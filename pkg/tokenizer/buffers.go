package tokenizer

import "unsafe"

// Layout assigns every column a slot in one of the three width-classed worker
// buffers. Dropped columns get no slot and contribute to no stride.
type Layout struct {
	widths []int // per column: 8, 4, 1 or 0
	slots  []int // per column: slot index within its width class, -1 if dropped
	n8     int
	n4     int
	n1     int
}

// NewLayout builds the slot assignment for the given column types.
func NewLayout(types []ParseType) *Layout {
	l := &Layout{
		widths: make([]int, len(types)),
		slots:  make([]int, len(types)),
	}
	for j, t := range types {
		w := t.CellWidth()
		l.widths[j] = w
		switch w {
		case 8:
			l.slots[j] = l.n8
			l.n8++
		case 4:
			l.slots[j] = l.n4
			l.n4++
		case 1:
			l.slots[j] = l.n1
			l.n1++
		default:
			l.slots[j] = -1
		}
	}
	return l
}

// Slot returns the width-class slot of column j, -1 for dropped columns.
func (l *Layout) Slot(j int) int { return l.slots[j] }

// Width returns the cell width of column j.
func (l *Layout) Width(j int) int { return l.widths[j] }

// Strides returns the row strides of the 8-, 4- and 1-byte buffers.
func (l *Layout) Strides() (n8, n4, n1 int) { return l.n8, l.n4, l.n1 }

// Buffers is one worker's staging area for a chunk: three row-major cell
// arrays, one per cell width, each with a fixed per-row stride. A cell for
// row i in slot k of the 8-byte class lives at Buf8[i*N8+k].
type Buffers struct {
	Buf8 []uint64
	Buf4 []uint32
	Buf1 []byte
	N8   int
	N4   int
	N1   int
	// NRows is the number of rows staged for the current chunk.
	NRows int
}

// NewBuffers allocates worker buffers for at most nrows rows under l.
func NewBuffers(l *Layout, nrows int) *Buffers {
	return &Buffers{
		Buf8: make([]uint64, nrows*l.n8),
		Buf4: make([]uint32, nrows*l.n4),
		Buf1: make([]byte, nrows*l.n1),
		N8:   l.n8,
		N4:   l.n4,
		N1:   l.n1,
	}
}

// grow resizes the buffers to hold nrows rows, keeping existing content.
func (b *Buffers) grow(nrows int) {
	if n := nrows * b.N8; n > len(b.Buf8) {
		next := make([]uint64, n)
		copy(next, b.Buf8)
		b.Buf8 = next
	}
	if n := nrows * b.N4; n > len(b.Buf4) {
		next := make([]uint32, n)
		copy(next, b.Buf4)
		b.Buf4 = next
	}
	if n := nrows * b.N1; n > len(b.Buf1) {
		next := make([]byte, n)
		copy(next, b.Buf1)
		b.Buf1 = next
	}
}

// Cap returns the row capacity of the buffers.
func (b *Buffers) Cap() int {
	switch {
	case b.N8 > 0:
		return len(b.Buf8) / b.N8
	case b.N4 > 0:
		return len(b.Buf4) / b.N4
	case b.N1 > 0:
		return len(b.Buf1) / b.N1
	default:
		return 0
	}
}

// LenOff returns the string cell of row i, 8-byte slot k.
func (b *Buffers) LenOff(i, k int) (length, off int32) {
	return UnpackLenOff(b.Buf8[i*b.N8+k])
}

// SetLenOff overwrites the string cell of row i, 8-byte slot k.
func (b *Buffers) SetLenOff(i, k int, length, off int32) {
	b.Buf8[i*b.N8+k] = PackLenOff(length, off)
}

// put8 stores an 8-byte cell reinterpreted as uint64.
func (b *Buffers) put8(i, k int, v uint64) { b.Buf8[i*b.N8+k] = v }

// put4 stores a 4-byte cell reinterpreted as uint32.
func (b *Buffers) put4(i, k int, v uint32) { b.Buf4[i*b.N4+k] = v }

// put1 stores a 1-byte cell.
func (b *Buffers) put1(i, k int, v byte) { b.Buf1[i*b.N1+k] = v }

// Stripe8 copies the 8-byte cells of slot k for rows [0, nrows) into dst,
// which must hold nrows 8-byte elements.
func (b *Buffers) Stripe8(k, nrows int, dst []byte) {
	src := b.Buf8
	for i := 0; i < nrows; i++ {
		v := src[i*b.N8+k]
		*(*uint64)(unsafe.Pointer(&dst[i*8])) = v
	}
}

// Stripe4 copies the 4-byte cells of slot k for rows [0, nrows) into dst.
func (b *Buffers) Stripe4(k, nrows int, dst []byte) {
	src := b.Buf4
	for i := 0; i < nrows; i++ {
		v := src[i*b.N4+k]
		*(*uint32)(unsafe.Pointer(&dst[i*4])) = v
	}
}

// Stripe1 copies the 1-byte cells of slot k for rows [0, nrows) into dst.
func (b *Buffers) Stripe1(k, nrows int, dst []byte) {
	for i := 0; i < nrows; i++ {
		dst[i] = b.Buf1[i*b.N1+k]
	}
}
