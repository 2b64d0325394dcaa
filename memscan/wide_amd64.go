package memscan

const haveWideKernel = true

// findBlockAVX2 returns the address of the first 32-byte block in [p, end)
// holding needle in one of its four words, or the first address from which
// fewer than 32 bytes remain. Implemented in wide_amd64.s.
//
//go:noescape
func findBlockAVX2(p, end uintptr, needle uint64) uintptr
