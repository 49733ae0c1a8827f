package mmap

// Map maps length bytes of fd read-only and advises the kernel of a
// sequential access pattern. length may exceed the file size; bytes past the
// end of file within the final page read as zero.
func Map(fd int, length int) ([]byte, error) {
	data, err := mmap(fd, 0, length, ProtRead, MapShared)
	if err != nil {
		return nil, err
	}
	// Advice failures are non-fatal.
	_ = madvise(data, MadvSequential)
	return data, nil
}

// Unmap releases a mapping returned by Map.
func Unmap(b []byte) error {
	return munmap(b)
}
