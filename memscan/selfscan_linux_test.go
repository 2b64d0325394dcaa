//go:build linux

package memscan

import (
	"encoding/binary"
	"slices"
	"testing"
	"unsafe"

	"memsweep/process/memory_map"

	"golang.org/x/sys/unix"
)

const selfNeedle = 0xA5C3E1F00F1E3C5A

// mapPages returns n anonymous read-write pages and their region.
func mapPages(t *testing.T, n int) ([]byte, memory_map.MemoryRegion) {
	t.Helper()

	size := n * unix.Getpagesize()
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		t.Fatalf("mmap: %v", err)
	}
	t.Cleanup(func() {
		unix.Munmap(mem)
	})

	return mem, memory_map.MemoryRegion{
		Base:       uint64(uintptr(unsafe.Pointer(&mem[0]))),
		Size:       uint64(size),
		Committed:  true,
		Protection: memory_map.ProtReadWrite,
		Private:    true,
	}
}

func plant(mem []byte, off int) {
	binary.LittleEndian.PutUint64(mem[off:], selfNeedle)
}

func strategies() []Strategy {
	out := []Strategy{StrategyScalar}
	if DetectStrategy() == StrategyAVX2 {
		out = append(out, StrategyAVX2)
	}
	return out
}

func TestSelfScanThreadCounts(t *testing.T) {
	page := unix.Getpagesize()

	var regions []memory_map.MemoryRegion
	var want []uint64
	for i := 0; i < 6; i++ {
		mem, region := mapPages(t, 3)
		for _, off := range []int{0, 8 * (i + 1), page + 64, 3*page - 8} {
			plant(mem, off)
			want = append(want, region.Base+uint64(off))
		}
		regions = append(regions, region)
	}
	slices.Sort(want)

	for _, strategy := range strategies() {
		for _, threads := range []int{1, 2, 4, 0, 64} {
			got := NewSelfScanner(WithThreads(threads), WithStrategy(strategy)).ScanRegions(regions, selfNeedle)
			if !slices.Equal(got, want) {
				t.Fatalf("%s, %d threads: got %#x, want %#x", strategy, threads, got, want)
			}
		}
	}
}

func TestSelfScanWideKernelBlocks(t *testing.T) {
	mem, region := mapPages(t, 1)
	// hits in each lane of one block, in a trailing partial block and in the final word
	offsets := []int{32, 40, 48, 56, 96 + 24, len(mem) - 8}
	var want []uint64
	for _, off := range offsets {
		plant(mem, off)
		want = append(want, region.Base+uint64(off))
	}

	for _, strategy := range strategies() {
		got := NewSelfScanner(WithThreads(1), WithStrategy(strategy)).ScanRegions([]memory_map.MemoryRegion{region}, selfNeedle)
		if !slices.Equal(got, want) {
			t.Fatalf("%s: got %#x, want %#x", strategy, got, want)
		}
	}
}

func TestSelfScanUnaligned(t *testing.T) {
	page := unix.Getpagesize()
	mem, region := mapPages(t, 2)
	offsets := []int{3, 64, page - 4, 2*page - 8}
	var want []uint64
	for _, off := range offsets {
		plant(mem, off)
		want = append(want, region.Base+uint64(off))
	}

	got := NewSelfScanner(WithThreads(2), WithUnaligned(true)).ScanRegions([]memory_map.MemoryRegion{region}, selfNeedle)
	if !slices.Equal(got, want) {
		t.Fatalf("unaligned: got %#x, want %#x", got, want)
	}

	got = NewSelfScanner(WithThreads(2)).ScanRegions([]memory_map.MemoryRegion{region}, selfNeedle)
	if want := []uint64{region.Base + 64, region.Base + uint64(2*page-8)}; !slices.Equal(got, want) {
		t.Fatalf("aligned: got %#x, want %#x", got, want)
	}
}

func TestSelfScanSurvivesFaults(t *testing.T) {
	page := unix.Getpagesize()
	mem, region := mapPages(t, 3)
	plant(mem, 16)
	plant(mem, page+16)
	plant(mem, 2*page+16)

	// the region list still claims the middle page is readable
	if err := unix.Mprotect(mem[page:2*page], unix.PROT_NONE); err != nil {
		t.Fatalf("mprotect: %v", err)
	}
	t.Cleanup(func() {
		unix.Mprotect(mem[page:2*page], unix.PROT_READ|unix.PROT_WRITE)
	})

	want := []uint64{region.Base + 16, region.Base + uint64(2*page) + 16}
	for _, strategy := range strategies() {
		for _, unaligned := range []bool{false, true} {
			s := NewSelfScanner(WithThreads(1), WithStrategy(strategy), WithUnaligned(unaligned))
			got := s.ScanRegions([]memory_map.MemoryRegion{region}, selfNeedle)
			if !slices.Equal(got, want) {
				t.Fatalf("%s unaligned=%v: got %#x, want %#x", strategy, unaligned, got, want)
			}
			if s.Faults() == 0 {
				t.Fatalf("%s unaligned=%v: no fault recorded", strategy, unaligned)
			}
		}
	}
}

func TestSelfScanUnalignedBeforeProtectedPage(t *testing.T) {
	page := unix.Getpagesize()
	mem, region := mapPages(t, 3)
	plant(mem, 5)
	plant(mem, page-8)
	plant(mem, 2*page+1)

	// loads from the last 7 offsets of the first page reach into the protected one
	if err := unix.Mprotect(mem[page:2*page], unix.PROT_NONE); err != nil {
		t.Fatalf("mprotect: %v", err)
	}
	t.Cleanup(func() {
		unix.Mprotect(mem[page:2*page], unix.PROT_READ|unix.PROT_WRITE)
	})

	s := NewSelfScanner(WithThreads(1), WithUnaligned(true))
	got := s.ScanRegions([]memory_map.MemoryRegion{region}, selfNeedle)
	want := []uint64{region.Base + 5, region.Base + uint64(page-8), region.Base + uint64(2*page) + 1}
	if !slices.Equal(got, want) {
		t.Fatalf("got %#x, want %#x", got, want)
	}
	if s.Faults() < 2 {
		t.Fatalf("%d faulted pages, want the first and the protected page", s.Faults())
	}
}

func TestSelfScanEmpty(t *testing.T) {
	if got := NewSelfScanner().ScanRegions(nil, selfNeedle); got != nil {
		t.Fatalf("got %v", got)
	}
}

func TestScanSelfFindsHeapValue(t *testing.T) {
	// large enough to live on the heap, where it cannot move during the scan
	buf := make([]uint64, 1<<14)
	needle := uint64(selfNeedle) ^ uint64(uintptr(unsafe.Pointer(&buf[0])))
	buf[2] = needle

	hits := ScanSelf(needle, 4)
	if !slices.Contains(hits, uint64(uintptr(unsafe.Pointer(&buf[2])))) {
		t.Fatalf("heap value at %p not among %d hits", &buf[2], len(hits))
	}
}
