//go:build linux

package memscan

import (
	"memsweep/process/memory_map"
)

// selfRegions returns the readable committed regions of the calling process.
func selfRegions() ([]memory_map.MemoryRegion, error) {
	all, err := memory_map.ReadSelfMemoryMap()
	if err != nil {
		return nil, err
	}

	out := make([]memory_map.MemoryRegion, 0, len(all))
	for _, r := range all {
		// [vsyscall] sits above the user range and is execute-only on current kernels
		if r.IsReadable() && r.Base < memory_map.MaxApplicationAddress {
			out = append(out, r)
		}
	}
	return out, nil
}
