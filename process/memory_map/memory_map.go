package memory_map

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// MemoryRegion is a contiguous range of virtual address space sharing one
// commit state and protection at the time it was queried.
type MemoryRegion struct {
	Base       uint64          `json:"base"`
	Size       uint64          `json:"size"`
	Committed  bool            `json:"committed"`
	Protection ProtectionFlags `json:"protection"`
	Private    bool            `json:"private"`
	Path       string          `json:"path,omitempty"`
}

// End returns the first address after the region.
func (r MemoryRegion) End() uint64 {
	return r.Base + r.Size
}

func (r MemoryRegion) Contains(addr uint64) bool {
	return addr >= r.Base && addr < r.End()
}

// IsReadable reports whether the region is committed and its pages readable.
func (r MemoryRegion) IsReadable() bool {
	return r.Committed && r.Protection.IsReadable()
}

// String returns a string representation of the memory region
func (r MemoryRegion) String() string {
	state := "free"
	if r.Committed {
		state = "commit"
	}
	kind := "mapped"
	if r.Private {
		kind = "private"
	}
	return fmt.Sprintf("%012x-%012x %10d %s %-6s %-7s %s", r.Base, r.End(), r.Size, r.Protection, state, kind, r.Path)
}

// SortRegions orders regions by base address in place.
func SortRegions(regions []MemoryRegion) {
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Base < regions[j].Base
	})
}

// FindRegion returns the region containing addr. regions must be sorted.
func FindRegion(addr uint64, regions []MemoryRegion) *MemoryRegion {
	i := sort.Search(len(regions), func(i int) bool {
		return regions[i].End() > addr
	})
	if i < len(regions) && regions[i].Base <= addr {
		return &regions[i]
	}

	return nil
}

// IsValidAddress checks if an address is within a readable region. regions must be sorted.
func IsValidAddress(addr uint64, regions []MemoryRegion) bool {
	if item := FindRegion(addr, regions); item != nil {
		return item.IsReadable()
	}
	return false
}

// ModuleBase returns the lowest address mapped from a file whose base name
// equals module (case-sensitive, like pidof).
func ModuleBase(regions []MemoryRegion, module string) (uint64, bool) {
	for _, r := range regions {
		if r.Path == "" {
			continue
		}
		name := r.Path
		if i := strings.LastIndexAny(name, `/\`); i >= 0 {
			name = name[i+1:]
		}
		if name == module {
			return r.Base, true
		}
	}
	return 0, false
}

// ParseMaps parses the /proc/<pid>/maps format. Lines that do not parse are
// skipped; the result is sorted by address.
func ParseMaps(r io.Reader) ([]MemoryRegion, error) {
	var regions []MemoryRegion

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// address perms offset dev inode pathname
		// 00400000-00452000 r-xp 00000000 08:02 173521 /usr/bin/dbus-daemon
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		addrRange := strings.SplitN(fields[0], "-", 2)
		if len(addrRange) != 2 {
			continue
		}

		startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}

		endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil || endAddr <= startAddr {
			continue
		}

		perms := fields[1]
		path := ""
		if len(fields) >= 6 {
			path = strings.Join(fields[5:], " ")
		}

		fileBacked := path != "" && !strings.HasPrefix(path, "[")

		regions = append(regions, MemoryRegion{
			Base:       startAddr,
			Size:       endAddr - startAddr,
			Committed:  true,
			Protection: ProtectionFromPerms(perms, fileBacked),
			Private:    isAnonymousPrivate(perms, path),
			Path:       path,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	SortRegions(regions)
	return regions, nil
}

// isAnonymousPrivate is the Linux counterpart of MEM_PRIVATE: private
// mappings with no backing file (heap, stacks, anonymous mmap).
func isAnonymousPrivate(perms, path string) bool {
	if len(perms) < 4 || perms[3] != 'p' {
		return false
	}
	switch path {
	case "", "[heap]", "[stack]":
		return true
	}
	return strings.HasPrefix(path, "[anon:") || strings.HasPrefix(path, "[stack:")
}
