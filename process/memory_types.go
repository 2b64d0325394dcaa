package process

import (
	"encoding/binary"
	"fmt"
)

// ProcessMemoryAddress is an opaque address in some address space. It is
// never dereferenced in-process; it is only offset and handed to a reader.
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// Add returns the address offset by size bytes.
func (pma ProcessMemoryAddress) Add(size ProcessMemorySize) ProcessMemoryAddress {
	return pma + ProcessMemoryAddress(size)
}

// AlignDown rounds the address down to a multiple of align (a power of two).
func (pma ProcessMemoryAddress) AlignDown(align uint64) ProcessMemoryAddress {
	return ProcessMemoryAddress(uint64(pma) &^ (align - 1))
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint64

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint64(pms))
}

// Pattern is an exact byte sequence searched for in memory.
type Pattern []byte

// IsValid reports whether the pattern can be searched for at all.
func (p Pattern) IsValid() bool {
	return len(p) > 0
}

// PatternFromUint64 encodes v as a little-endian 8-byte pattern, the layout
// of a pointer-sized value on the supported targets.
func PatternFromUint64(v uint64) Pattern {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v)
	return out
}

// PatternFromString returns the bytes of s, optionally with a trailing NUL.
func PatternFromString(s string, includeNull bool) Pattern {
	out := []byte(s)
	if includeNull {
		out = append(out, 0)
	}
	return out
}
