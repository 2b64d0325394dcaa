//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"sync"

	"memsweep/process"
	"memsweep/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"

	"golang.org/x/sys/unix"
)

// LinuxProcess implements the process.Process interface for Linux systems
type LinuxProcess struct {
	pid      process.ProcessID
	log      *logger.Logger
	mm       []memory_map.MemoryRegion
	snap     *memory_map.Snapshot
	pageSize uint64
	mu       sync.Mutex
}

var _ process.Process = (*LinuxProcess)(nil)

// New creates a new LinuxProcess instance
func New() *LinuxProcess {
	return &LinuxProcess{
		log:      logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
		pageSize: uint64(unix.Getpagesize()),
	}
}

// NewWithPID creates a new LinuxProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (*LinuxProcess, error) {
	p := New()
	err := p.Open(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *LinuxProcess) Open(pid process.ProcessID) error {
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return fmt.Errorf("pid %d: %w", pid, process.ErrProcessNotFound)
	}

	p.mu.Lock()
	p.pid = pid
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))
	p.mu.Unlock()

	// UpdateMemoryMap takes the lock itself
	if err := p.UpdateMemoryMap(); err != nil {
		return fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.log.Infoln("Process opened")

	return nil
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.Infoln("Closing process")

	p.pid = 0
	p.mm = nil
	p.snap = nil

	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *LinuxProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.ReadMemoryMap(int(p.pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	p.mm = mm
	p.snap = memory_map.NewSnapshot(mm, memory_map.MinApplicationAddress, memory_map.MaxApplicationAddress)
	p.log.Debugln("Memory map refreshed,", len(mm), "regions")
	return nil
}

func (p *LinuxProcess) GetMemoryMap() ([]memory_map.MemoryRegion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	// copy so callers cannot modify the cached map
	result := make([]memory_map.MemoryRegion, len(p.mm))
	copy(result, p.mm)

	return result, nil
}

func (p *LinuxProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.isValidAddressInternal(addr)
}

// Internal helper function that assumes the mutex is already locked
func (p *LinuxProcess) isValidAddressInternal(addr process.ProcessMemoryAddress) bool {
	if uint64(addr) < memory_map.MinApplicationAddress || uint64(addr) >= memory_map.MaxApplicationAddress {
		return false
	}

	return memory_map.IsValidAddress(uint64(addr), p.mm)
}

// QueryRegion answers from the cached map; holes between mappings come back
// as uncommitted regions.
func (p *LinuxProcess) QueryRegion(addr process.ProcessMemoryAddress) (memory_map.MemoryRegion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 || p.snap == nil {
		return memory_map.MemoryRegion{}, process.ErrProcessNotOpen
	}

	region, ok := p.snap.Query(uint64(addr))
	if !ok {
		return memory_map.MemoryRegion{}, process.ErrAddressNotMapped
	}
	return region, nil
}

func (p *LinuxProcess) AddressRange() (process.ProcessMemoryAddress, process.ProcessMemoryAddress) {
	return process.ProcessMemoryAddress(memory_map.MinApplicationAddress), process.ProcessMemoryAddress(memory_map.MaxApplicationAddress)
}

func (p *LinuxProcess) PageSize() uint64 {
	return p.pageSize
}

// ModuleBase returns the first mapping of the file named name.
func (p *LinuxProcess) ModuleBase(name string) (process.ProcessMemoryAddress, error) {
	mm, err := p.GetMemoryMap()
	if err != nil {
		return 0, err
	}

	base, ok := memory_map.ModuleBase(mm, name)
	if !ok {
		return 0, fmt.Errorf("module %q: %w", name, process.ErrAddressNotMapped)
	}
	return process.ProcessMemoryAddress(base), nil
}
