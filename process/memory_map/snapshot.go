package memory_map

import "sort"

// Snapshot answers point queries against a fixed, sorted region list the way
// VirtualQuery does: an address inside a region yields that region, an address
// in a hole yields an uncommitted region spanning up to the next mapping.
type Snapshot struct {
	regions []MemoryRegion
	min     uint64
	max     uint64
}

// NewSnapshot sorts a copy of regions. Addresses outside [min, max) are not answered.
func NewSnapshot(regions []MemoryRegion, min, max uint64) *Snapshot {
	sorted := make([]MemoryRegion, len(regions))
	copy(sorted, regions)
	SortRegions(sorted)

	return &Snapshot{
		regions: sorted,
		min:     min,
		max:     max,
	}
}

// Regions returns the mapped regions, sorted. The slice must not be modified.
func (s *Snapshot) Regions() []MemoryRegion {
	return s.regions
}

// Query returns the region describing addr, or false when addr is outside the range.
func (s *Snapshot) Query(addr uint64) (MemoryRegion, bool) {
	if addr < s.min || addr >= s.max {
		return MemoryRegion{}, false
	}

	i := sort.Search(len(s.regions), func(i int) bool {
		return s.regions[i].End() > addr
	})
	if i < len(s.regions) && s.regions[i].Base <= addr {
		return s.regions[i], true
	}

	// hole: runs to the next mapping above addr, or to the end of the range
	end := s.max
	if i < len(s.regions) && s.regions[i].Base < end {
		end = s.regions[i].Base
	}

	return MemoryRegion{
		Base:       addr,
		Size:       end - addr,
		Protection: ProtNoAccess,
	}, true
}
