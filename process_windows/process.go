//go:build windows

package process_windows

import (
	"fmt"
	"sync"
	"unsafe"

	"memsweep/process"
	"memsweep/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"

	"golang.org/x/sys/windows"
)

const (
	memCommit  = 0x1000
	memPrivate = 0x20000
	pageSize   = 0x1000
)

// WindowsProcess implements the process.Process interface for Windows systems
type WindowsProcess struct {
	pid    process.ProcessID
	handle windows.Handle
	log    *logger.Logger
	mm     []memory_map.MemoryRegion
	mu     sync.Mutex
}

var _ process.Process = (*WindowsProcess)(nil)

// New creates a new WindowsProcess instance
func New() *WindowsProcess {
	return &WindowsProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
}

// NewWithPID creates a new WindowsProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (*WindowsProcess, error) {
	p := New()
	err := p.Open(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *WindowsProcess) Open(pid process.ProcessID) error {
	handle, err := windows.OpenProcess(windows.PROCESS_VM_READ|windows.PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess(%d): %w", pid, err)
	}

	p.mu.Lock()
	p.pid = pid
	p.handle = handle
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))
	p.mu.Unlock()

	if err := p.UpdateMemoryMap(); err != nil {
		p.log.Warn("Failed to initialize memory map: ", err)
	}

	p.log.Infoln("Process opened")
	return nil
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != 0 {
		if err := windows.CloseHandle(p.handle); err != nil {
			return fmt.Errorf("CloseHandle failed: %w", err)
		}
		p.handle = 0
	}

	p.pid = 0
	p.mm = nil
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *WindowsProcess) getHandle() windows.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

// UpdateMemoryMap walks VirtualQueryEx over the whole range and keeps the committed regions.
func (p *WindowsProcess) UpdateMemoryMap() error {
	handle := p.getHandle()
	if handle == 0 {
		return process.ErrProcessNotOpen
	}

	var mm []memory_map.MemoryRegion
	addr := memory_map.MinApplicationAddress
	for addr < memory_map.MaxApplicationAddress {
		region, err := queryRegion(handle, addr)
		if err != nil {
			addr += pageSize
			continue
		}
		if region.Committed {
			mm = append(mm, region)
		}
		next := region.End()
		if next <= addr {
			next = addr + pageSize
		}
		addr = next
	}

	p.mu.Lock()
	p.mm = mm
	p.mu.Unlock()
	return nil
}

func (p *WindowsProcess) GetMemoryMap() ([]memory_map.MemoryRegion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == 0 {
		return nil, process.ErrProcessNotOpen
	}
	result := make([]memory_map.MemoryRegion, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

func (p *WindowsProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return memory_map.IsValidAddress(uint64(addr), p.mm)
}

func queryRegion(handle windows.Handle, addr uint64) (memory_map.MemoryRegion, error) {
	var mbi windows.MemoryBasicInformation
	if err := windows.VirtualQueryEx(handle, uintptr(addr), &mbi, unsafe.Sizeof(mbi)); err != nil {
		return memory_map.MemoryRegion{}, err
	}
	return regionFromMBI(&mbi), nil
}

func regionFromMBI(mbi *windows.MemoryBasicInformation) memory_map.MemoryRegion {
	committed := mbi.State == memCommit
	prot := memory_map.ProtNoAccess
	if committed {
		prot = memory_map.ProtectionFromWindows(mbi.Protect)
	}
	return memory_map.MemoryRegion{
		Base:       uint64(mbi.BaseAddress),
		Size:       uint64(mbi.RegionSize),
		Committed:  committed,
		Protection: prot,
		Private:    mbi.Type == memPrivate,
	}
}

// QueryRegion asks the kernel directly, so the answer is always current.
func (p *WindowsProcess) QueryRegion(addr process.ProcessMemoryAddress) (memory_map.MemoryRegion, error) {
	handle := p.getHandle()
	if handle == 0 {
		return memory_map.MemoryRegion{}, process.ErrProcessNotOpen
	}
	return queryRegion(handle, uint64(addr))
}

func (p *WindowsProcess) AddressRange() (process.ProcessMemoryAddress, process.ProcessMemoryAddress) {
	return process.ProcessMemoryAddress(memory_map.MinApplicationAddress), process.ProcessMemoryAddress(memory_map.MaxApplicationAddress)
}

func (p *WindowsProcess) PageSize() uint64 {
	return pageSize
}

// ReadPartial implements process.PartialReader. ReadProcessMemory reports
// ERROR_PARTIAL_COPY together with the byte count when a read runs into an
// unreadable page.
func (p *WindowsProcess) ReadPartial(addr process.ProcessMemoryAddress, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	handle := p.getHandle()
	if handle == 0 {
		return 0, process.ErrProcessNotOpen
	}

	var bytesRead uintptr
	err := windows.ReadProcessMemory(handle, uintptr(addr), &buf[0], uintptr(len(buf)), &bytesRead)
	if err != nil && bytesRead == 0 {
		return 0, fmt.Errorf("ReadProcessMemory at %s: %w", addr.ToString(), err)
	}

	return int(bytesRead), nil
}

func (p *WindowsProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	return process.ReadExact(p, addr, size)
}
