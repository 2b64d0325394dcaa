//go:build !amd64

package memscan

const haveWideKernel = false

func findBlockAVX2(p, end uintptr, needle uint64) uintptr {
	return end
}
