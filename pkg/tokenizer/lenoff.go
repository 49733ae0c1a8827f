package tokenizer

// String cells occupy one 8-byte slot holding a {length, offset} pair. Before
// postprocess the offset is zero-based into the chunk anchor; postprocess
// rewrites it to a signed one-based end offset into the worker scratch.

// PackLenOff stores a length/offset pair in one 8-byte cell.
func PackLenOff(length, off int32) uint64 {
	return uint64(uint32(off)) | uint64(uint32(length))<<32
}

// UnpackLenOff splits an 8-byte cell back into its length/offset pair.
func UnpackLenOff(v uint64) (length, off int32) {
	return int32(uint32(v >> 32)), int32(uint32(v))
}
