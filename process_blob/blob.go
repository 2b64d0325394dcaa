package process_blob

import (
	"fmt"
	"sort"
	"sync"

	"memsweep/process"
	"memsweep/process/memory_map"
)

const defaultPageSize = 0x1000

type blobRegion struct {
	memory_map.MemoryRegion
	data    []byte
	failing bool
}

// AddressSpace is an in-memory address space made of non-overlapping
// regions. It stands in for a live process: scans, dumps and the tracker
// read it through process.MemorySource. Reads can be made to fail per region
// or to return short counts, which is how tests model pages that vanish
// between enumeration and read.
type AddressSpace struct {
	mu       sync.RWMutex
	regions  []blobRegion
	snap     *memory_map.Snapshot
	min      process.ProcessMemoryAddress
	max      process.ProcessMemoryAddress
	pageSize uint64
	maxRead  int
	reads    int
}

var _ process.MemorySource = (*AddressSpace)(nil)

// NewAddressSpace returns an empty space covering the x86-64 user range.
func NewAddressSpace() *AddressSpace {
	return &AddressSpace{
		min:      0x10000,
		max:      0x800000000000,
		pageSize: defaultPageSize,
	}
}

// Map adds a committed region holding a copy of data.
func (a *AddressSpace) Map(base uint64, data []byte, prot memory_map.ProtectionFlags, private bool) error {
	return a.MapRegion(memory_map.MemoryRegion{
		Base:       base,
		Size:       uint64(len(data)),
		Committed:  true,
		Protection: prot,
		Private:    private,
	}, data)
}

// Reserve adds an uncommitted region: it is enumerated but never readable.
func (a *AddressSpace) Reserve(base, size uint64) error {
	return a.MapRegion(memory_map.MemoryRegion{
		Base:       base,
		Size:       size,
		Protection: memory_map.ProtNoAccess,
	}, nil)
}

// MapRegion adds region; committed regions need len(data) == region.Size.
func (a *AddressSpace) MapRegion(region memory_map.MemoryRegion, data []byte) error {
	if region.Size == 0 {
		return fmt.Errorf("empty region at 0x%x", region.Base)
	}
	if region.Committed && uint64(len(data)) != region.Size {
		return fmt.Errorf("region 0x%x: %d bytes of data for size %d", region.Base, len(data), region.Size)
	}
	if region.Base < uint64(a.min) || region.End() > uint64(a.max) {
		return fmt.Errorf("region 0x%x-0x%x outside address range", region.Base, region.End())
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, r := range a.regions {
		if region.Base < r.End() && r.Base < region.End() {
			return fmt.Errorf("region 0x%x-0x%x overlaps 0x%x-0x%x", region.Base, region.End(), r.Base, r.End())
		}
	}

	var copied []byte
	if region.Committed {
		copied = make([]byte, len(data))
		copy(copied, data)
	}

	a.regions = append(a.regions, blobRegion{MemoryRegion: region, data: copied})
	sort.Slice(a.regions, func(i, j int) bool {
		return a.regions[i].Base < a.regions[j].Base
	})
	a.snap = nil

	return nil
}

// Unmap removes the region starting at base.
func (a *AddressSpace) Unmap(base uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, r := range a.regions {
		if r.Base == base {
			a.regions = append(a.regions[:i], a.regions[i+1:]...)
			a.snap = nil
			return true
		}
	}
	return false
}

// FailReads makes every read inside the region at base transfer zero bytes
// while the region keeps reporting itself as readable.
func (a *AddressSpace) FailReads(base uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.regions {
		if a.regions[i].Base == base {
			a.regions[i].failing = true
		}
	}
}

// SetMaxReadSize caps how many bytes one ReadPartial call transfers. Zero removes the cap.
func (a *AddressSpace) SetMaxReadSize(n int) {
	a.mu.Lock()
	a.maxRead = n
	a.mu.Unlock()
}

// SetPageSize changes the granularity reported to scanners.
func (a *AddressSpace) SetPageSize(size uint64) {
	a.mu.Lock()
	a.pageSize = size
	a.mu.Unlock()
}

// Reads returns how many ReadPartial calls have been served.
func (a *AddressSpace) Reads() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.reads
}

// Write stores data at addr. The whole range must be committed.
func (a *AddressSpace) Write(addr process.ProcessMemoryAddress, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := uint64(addr)
	for len(data) > 0 {
		r := a.find(cur)
		if r == nil || !r.Committed {
			return fmt.Errorf("write at 0x%x: %w", cur, process.ErrAddressNotMapped)
		}
		n := copy(r.data[cur-r.Base:], data)
		data = data[n:]
		cur += uint64(n)
	}
	return nil
}

func (a *AddressSpace) find(addr uint64) *blobRegion {
	i := sort.Search(len(a.regions), func(i int) bool {
		return a.regions[i].End() > addr
	})
	if i < len(a.regions) && a.regions[i].Base <= addr {
		return &a.regions[i]
	}
	return nil
}

// QueryRegion implements process.MemoryQuerier.
func (a *AddressSpace) QueryRegion(addr process.ProcessMemoryAddress) (memory_map.MemoryRegion, error) {
	region, ok := a.snapshot().Query(uint64(addr))
	if !ok {
		return memory_map.MemoryRegion{}, process.ErrAddressNotMapped
	}
	return region, nil
}

// snapshot returns the query index, rebuilding it after Map or Unmap.
func (a *AddressSpace) snapshot() *memory_map.Snapshot {
	a.mu.RLock()
	snap := a.snap
	a.mu.RUnlock()
	if snap != nil {
		return snap
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.snap == nil {
		a.snap = memory_map.NewSnapshot(a.mapped(), uint64(a.min), uint64(a.max))
	}
	return a.snap
}

func (a *AddressSpace) mapped() []memory_map.MemoryRegion {
	out := make([]memory_map.MemoryRegion, len(a.regions))
	for i, r := range a.regions {
		out[i] = r.MemoryRegion
	}
	return out
}

// AddressRange implements process.MemoryQuerier.
func (a *AddressSpace) AddressRange() (process.ProcessMemoryAddress, process.ProcessMemoryAddress) {
	return a.min, a.max
}

// PageSize implements process.MemoryQuerier.
func (a *AddressSpace) PageSize() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pageSize
}

// GetMemoryMap returns the mapped regions sorted by address.
func (a *AddressSpace) GetMemoryMap() ([]memory_map.MemoryRegion, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mapped(), nil
}

// UpdateMemoryMap is a no-op: the map is always current.
func (a *AddressSpace) UpdateMemoryMap() error {
	return nil
}

// ReadPartial implements process.PartialReader. A read continues across
// adjacent readable regions and stops at the first hole, unreadable or
// failing region, or at the configured cap.
func (a *AddressSpace) ReadPartial(addr process.ProcessMemoryAddress, buf []byte) (int, error) {
	a.mu.Lock()
	a.reads++
	limit := len(buf)
	if a.maxRead > 0 && limit > a.maxRead {
		limit = a.maxRead
	}
	a.mu.Unlock()

	a.mu.RLock()
	defer a.mu.RUnlock()

	n := 0
	cur := uint64(addr)
	for n < limit {
		r := a.find(cur)
		if r == nil || !r.IsReadable() || r.failing {
			break
		}
		c := copy(buf[n:limit], r.data[cur-r.Base:])
		n += c
		cur += uint64(c)
	}

	if n == 0 && limit > 0 {
		return 0, fmt.Errorf("read at %s: %w", addr.ToString(), process.ErrAddressNotMapped)
	}
	return n, nil
}

// ReadMemory reads exactly size bytes.
func (a *AddressSpace) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	return process.ReadExact(a, addr, size)
}
