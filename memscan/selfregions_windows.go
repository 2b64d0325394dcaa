//go:build windows

package memscan

import (
	"unsafe"

	"memsweep/process/memory_map"

	"golang.org/x/sys/windows"
)

const (
	memCommit  = 0x1000
	memPrivate = 0x20000
)

// selfRegions walks VirtualQuery over the calling process and keeps the
// readable committed regions.
func selfRegions() ([]memory_map.MemoryRegion, error) {
	var out []memory_map.MemoryRegion
	addr := memory_map.MinApplicationAddress
	for addr < memory_map.MaxApplicationAddress {
		var mbi windows.MemoryBasicInformation
		if err := windows.VirtualQuery(uintptr(addr), &mbi, unsafe.Sizeof(mbi)); err != nil {
			addr += 0x1000
			continue
		}

		r := memory_map.MemoryRegion{
			Base:      uint64(mbi.BaseAddress),
			Size:      uint64(mbi.RegionSize),
			Committed: mbi.State == memCommit,
			Private:   mbi.Type == memPrivate,
		}
		if r.Committed {
			r.Protection = memory_map.ProtectionFromWindows(mbi.Protect)
		}
		if r.IsReadable() {
			out = append(out, r)
		}

		next := r.End()
		if next <= addr {
			next = addr + 0x1000
		}
		addr = next
	}
	return out, nil
}
