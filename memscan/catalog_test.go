package memscan

import (
	"errors"
	"slices"
	"testing"

	"memsweep/process"
	"memsweep/process/memory_map"
)

// scriptedQuerier answers from a fixed map but can be told to fail, to
// report a zero-size region once, or to report a closed handle at chosen
// addresses.
type scriptedQuerier struct {
	snap     *memory_map.Snapshot
	min, max uint64

	fail     map[uint64]bool
	zeroOnce map[uint64]bool
	closedAt uint64
	mapErr   error

	refreshed int
	queried   []uint64
}

func newScriptedQuerier(regions ...memory_map.MemoryRegion) *scriptedQuerier {
	return &scriptedQuerier{
		snap:     memory_map.NewSnapshot(regions, 0x10000, 0x20000),
		min:      0x10000,
		max:      0x20000,
		fail:     map[uint64]bool{},
		zeroOnce: map[uint64]bool{},
	}
}

func (q *scriptedQuerier) QueryRegion(addr process.ProcessMemoryAddress) (memory_map.MemoryRegion, error) {
	a := uint64(addr)
	q.queried = append(q.queried, a)
	switch {
	case q.closedAt != 0 && a == q.closedAt:
		return memory_map.MemoryRegion{}, process.ErrProcessNotOpen
	case q.fail[a]:
		return memory_map.MemoryRegion{}, errors.New("query failed")
	case q.zeroOnce[a]:
		delete(q.zeroOnce, a)
		return memory_map.MemoryRegion{Base: a}, nil
	}
	r, ok := q.snap.Query(a)
	if !ok {
		return memory_map.MemoryRegion{}, process.ErrAddressNotMapped
	}
	return r, nil
}

func (q *scriptedQuerier) AddressRange() (process.ProcessMemoryAddress, process.ProcessMemoryAddress) {
	return process.ProcessMemoryAddress(q.min), process.ProcessMemoryAddress(q.max)
}

func (q *scriptedQuerier) PageSize() uint64 {
	return 0x1000
}

func (q *scriptedQuerier) UpdateMemoryMap() error {
	q.refreshed++
	return q.mapErr
}

func (q *scriptedQuerier) GetMemoryMap() ([]memory_map.MemoryRegion, error) {
	return q.snap.Regions(), nil
}

// catalogFixture maps [0x10000,0x12000), [0x15000,0x16000) and [0x16000,0x18000).
func catalogFixture() *scriptedQuerier {
	return newScriptedQuerier(
		memory_map.MemoryRegion{Base: 0x10000, Size: 0x2000, Committed: true, Protection: memory_map.ProtReadWrite},
		memory_map.MemoryRegion{Base: 0x15000, Size: 0x1000, Committed: true, Protection: memory_map.ProtReadWrite},
		memory_map.MemoryRegion{Base: 0x16000, Size: 0x2000, Committed: true, Protection: memory_map.ProtReadOnly},
	)
}

func bases(regions []memory_map.MemoryRegion) []uint64 {
	out := make([]uint64, len(regions))
	for i, r := range regions {
		out[i] = r.Base
	}
	return out
}

func TestCatalogSkipsPageOnFailedQuery(t *testing.T) {
	q := catalogFixture()
	q.fail[0x12000] = true

	got := NewCatalog(q).Enumerate()

	if want := []uint64{0x10000, 0x13000, 0x15000, 0x16000, 0x18000}; !slices.Equal(bases(got), want) {
		t.Fatalf("regions %#x, want %#x", bases(got), want)
	}
	if want := []uint64{0x10000, 0x12000, 0x13000, 0x15000, 0x16000, 0x18000}; !slices.Equal(q.queried, want) {
		t.Fatalf("queries %#x, want %#x", q.queried, want)
	}
	if q.refreshed != 1 {
		t.Fatalf("map refreshed %d times", q.refreshed)
	}
}

func TestCatalogSkipsPageWithoutProgress(t *testing.T) {
	q := catalogFixture()
	q.zeroOnce[0x15000] = true

	got := NewCatalog(q).Enumerate()

	// the zero-size answer skips the page at 0x15000; the walk resumes right after it
	if want := []uint64{0x10000, 0x12000, 0x16000, 0x18000}; !slices.Equal(bases(got), want) {
		t.Fatalf("regions %#x, want %#x", bases(got), want)
	}
	if want := []uint64{0x10000, 0x12000, 0x15000, 0x16000, 0x18000}; !slices.Equal(q.queried, want) {
		t.Fatalf("queries %#x, want %#x", q.queried, want)
	}
	if last := got[len(got)-1]; last.End() != q.max {
		t.Fatalf("walk ended at 0x%x", last.End())
	}
}

func TestCatalogTerminatesWhenEveryQueryFails(t *testing.T) {
	q := catalogFixture()
	for a := q.min; a < q.max; a += 0x1000 {
		q.fail[a] = true
	}

	if got := NewCatalog(q).Enumerate(); len(got) != 0 {
		t.Fatalf("got %d regions", len(got))
	}
	if len(q.queried) != 16 {
		t.Fatalf("%d queries, want one per page", len(q.queried))
	}
}

func TestCatalogStopsOnClosedSource(t *testing.T) {
	q := catalogFixture()
	q.closedAt = 0x16000

	got := NewCatalog(q).Enumerate()

	if want := []uint64{0x10000, 0x12000, 0x15000}; !slices.Equal(bases(got), want) {
		t.Fatalf("regions %#x, want %#x", bases(got), want)
	}
	if last := q.queried[len(q.queried)-1]; last != 0x16000 {
		t.Fatalf("queried 0x%x after the source closed", last)
	}
}

func TestCatalogMapRefresh(t *testing.T) {
	q := catalogFixture()
	q.mapErr = process.ErrProcessNotOpen
	if got := NewCatalog(q).Enumerate(); len(got) != 0 || len(q.queried) != 0 {
		t.Fatalf("closed map: %d regions, %d queries", len(got), len(q.queried))
	}

	q = catalogFixture()
	q.mapErr = errors.New("maps unreadable")
	if got := NewCatalog(q).Enumerate(); len(got) != 5 {
		t.Fatalf("failed refresh: %d regions, want the cached map walked", len(got))
	}
}
