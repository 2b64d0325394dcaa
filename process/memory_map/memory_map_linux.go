//go:build linux

package memory_map

import (
	"fmt"
	"os"
)

// Linux x86-64 user space: vm.mmap_min_addr up to the 47-bit canonical limit.
const (
	MinApplicationAddress uint64 = 0x10000
	MaxApplicationAddress uint64 = 0x800000000000
)

// ReadMemoryMap reads and parses /proc/<pid>/maps.
func ReadMemoryMap(pid int) ([]MemoryRegion, error) {
	file, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseMaps(file)
}

// ReadSelfMemoryMap reads the calling process's own map.
func ReadSelfMemoryMap() ([]MemoryRegion, error) {
	file, err := os.Open("/proc/self/maps")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseMaps(file)
}
