package process

import (
	"fmt"
	"unsafe"
)

// ReadExact reads exactly size bytes at addr through r.
func ReadExact(r PartialReader, addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error) {
	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}

	n, err := r.ReadPartial(addr, buf)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, fmt.Errorf("%w: %d of %d bytes at %s", ErrShortRead, n, size, addr.ToString())
	}

	return buf, nil
}

// ReadPath reads a value of type T at the end of a pointer path.
// It starts at base, adds the first offset, reads a pointer, adds the next offset, reads a pointer, etc.
// The last offset is added to the final pointer, and then T is read from that address.
// If offsets is empty, it reads T from base.
func ReadPath[T any](r PartialReader, base ProcessMemoryAddress, offsets ...ProcessMemorySize) (T, error) {
	currentAddr := base

	for i := 0; i < len(offsets)-1; i++ {
		ptrAddr := currentAddr.Add(offsets[i])

		// pointers are 8 bytes on every supported target
		ptrVal, err := Read[uint64](r, ptrAddr)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("failed to read pointer at offset %d (addr 0x%x): %w", i, ptrAddr, err)
		}

		if ptrVal == 0 {
			var zero T
			return zero, fmt.Errorf("pointer at offset %d (addr 0x%x): %w", i, ptrAddr, ErrInvalidPointer)
		}

		currentAddr = ProcessMemoryAddress(ptrVal)
	}

	finalOffset := ProcessMemorySize(0)
	if len(offsets) > 0 {
		finalOffset = offsets[len(offsets)-1]
	}

	finalAddr := currentAddr.Add(finalOffset)

	val, err := Read[T](r, finalAddr)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to read final value at 0x%x: %w", finalAddr, err)
	}

	return val, nil
}

// Read reads a plain-old-data value of type T from addr. T must not contain
// Go pointers; the bytes are copied as-is (little endian targets).
func Read[T any](r PartialReader, addr ProcessMemoryAddress) (T, error) {
	var t T
	size := ProcessMemorySize(unsafe.Sizeof(t))
	if size == 0 {
		return t, nil
	}

	data, err := ReadExact(r, addr, size)
	if err != nil {
		return t, err
	}

	copyTo(&t, data)
	return t, nil
}

// copyTo copies bytes to *T
func copyTo[T any](dst *T, src []byte) {
	size := int(unsafe.Sizeof(*dst))
	if len(src) < size {
		return
	}

	dstBytes := unsafe.Slice((*byte)(unsafe.Pointer(dst)), size)
	copy(dstBytes, src)
}
