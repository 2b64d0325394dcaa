package memscan

import (
	"bytes"
	"encoding/binary"
)

// FindAll returns the absolute addresses of every occurrence of needle in
// haystack whose address is a multiple of alignment. absoluteBase is the
// address of haystack[0].
func FindAll(haystack, needle []byte, alignment, absoluteBase uint64) []uint64 {
	return AppendMatches(nil, haystack, needle, alignment, absoluteBase)
}

// AppendMatches is FindAll appending to dst.
func AppendMatches(dst []uint64, haystack, needle []byte, alignment, absoluteBase uint64) []uint64 {
	n := len(needle)
	if n == 0 || alignment == 0 || len(haystack) < n {
		return dst
	}

	if alignment == 1 {
		for i := 0; i+n <= len(haystack); {
			idx := bytes.Index(haystack[i:], needle)
			if idx < 0 {
				break
			}
			dst = append(dst, absoluteBase+uint64(i+idx))
			i += idx + 1
		}
		return dst
	}

	start := uint64(0)
	if rem := absoluteBase % alignment; rem != 0 {
		start = alignment - rem
	}
	if start > uint64(len(haystack)-n) {
		return dst
	}
	last := uint64(len(haystack) - n)

	if n == 8 && alignment%8 == 0 {
		want := binary.LittleEndian.Uint64(needle)
		for i := start; i <= last; i += alignment {
			if binary.LittleEndian.Uint64(haystack[i:]) == want {
				dst = append(dst, absoluteBase+i)
			}
		}
		return dst
	}

	for i := start; i <= last; i += alignment {
		if haystack[i] == needle[0] && bytes.Equal(haystack[i:i+uint64(n)], needle) {
			dst = append(dst, absoluteBase+i)
		}
	}
	return dst
}
