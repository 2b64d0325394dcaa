package process

import (
	"memsweep/process/memory_map"
)

// MemoryQuerier answers "which region contains this address" for an address space.
type MemoryQuerier interface {
	// QueryRegion returns the region containing addr. Holes come back as
	// uncommitted regions; an error means nothing is known about addr.
	QueryRegion(addr ProcessMemoryAddress) (memory_map.MemoryRegion, error)

	// AddressRange returns the lowest and one-past-highest application address.
	AddressRange() (min, max ProcessMemoryAddress)

	// PageSize returns the allocation granularity used to step over holes.
	PageSize() uint64
}

// PartialReader is the bounded read primitive. ReadPartial copies up to
// len(buf) bytes starting at addr and returns how many were transferred;
// a short count is the legitimate end of readable data, zero means nothing
// at addr could be read. Bytes past the returned count are left untouched.
type PartialReader interface {
	ReadPartial(addr ProcessMemoryAddress, buf []byte) (int, error)
}

// MemorySource is everything a scan needs from an address space.
type MemorySource interface {
	MemoryQuerier
	PartialReader
}

// MemoryMapper is implemented by sources whose region list is cached and can go stale.
type MemoryMapper interface {
	// UpdateMemoryMap refreshes the cached region list
	UpdateMemoryMap() error

	// GetMemoryMap returns a copy of the current region list, sorted by address
	GetMemoryMap() ([]memory_map.MemoryRegion, error)
}

// Process is the interface that defines operations for interacting with a system process
type Process interface {
	// Open opens a process with the given PID for memory operations
	Open(pid ProcessID) error

	// Close closes the process and releases resources
	Close() error

	// GetPID returns the process ID
	GetPID() ProcessID

	// IsValidAddress checks if the given memory address is valid and readable
	IsValidAddress(addr ProcessMemoryAddress) bool

	// ReadMemory reads exactly size bytes or fails
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	// ModuleBase returns the load address of a module by file name
	ModuleBase(name string) (ProcessMemoryAddress, error)

	MemoryMapper
	MemorySource
}
