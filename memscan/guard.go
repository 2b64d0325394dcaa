package memscan

import (
	"runtime"
	"unsafe"
)

// guarded runs fn and reports false if it died on a memory fault. The
// calling goroutine must have debug.SetPanicOnFault enabled for faults to
// surface as panics instead of crashing the process.
func guarded(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isRuntime := r.(runtime.Error); !isRuntime {
				panic(r)
			}
			ok = false
		}
	}()
	fn()
	return true
}

func load64(addr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(addr))
}

// safeLoad64 is load64 for a single word that may fault.
func safeLoad64(addr uintptr) (v uint64, ok bool) {
	ok = guarded(func() {
		v = load64(addr)
	})
	return v, ok
}
