//go:build linux

package process_linux

import (
	"fmt"

	"memsweep/process"

	"golang.org/x/sys/unix"
)

// process_vm_readv reads remote memory into localBuf and returns how many
// bytes were transferred. The kernel stops at the first page it cannot
// read, so a short count marks the end of readable data.
func process_vm_readv(pid process.ProcessID, localBuf []byte, remoteAddr process.ProcessMemoryAddress) (int, error) {
	if len(localBuf) == 0 {
		return 0, nil
	}

	localIov := []unix.Iovec{{Base: &localBuf[0]}}
	localIov[0].SetLen(len(localBuf))

	remoteIov := []unix.RemoteIovec{{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}}

	n, err := unix.ProcessVMReadv(int(pid), localIov, remoteIov, 0)
	if n < 0 {
		n = 0
	}
	if err != nil && n == 0 {
		return 0, fmt.Errorf("process_vm_readv at %s: %w", remoteAddr.ToString(), err)
	}

	return n, nil
}

// ReadPartial implements process.PartialReader.
func (p *LinuxProcess) ReadPartial(addr process.ProcessMemoryAddress, buf []byte) (int, error) {
	pid := p.GetPID()
	if pid == 0 {
		return 0, process.ErrProcessNotOpen
	}

	return process_vm_readv(pid, buf, addr)
}

// ReadMemory reads memory from the process at the specified address
func (p *LinuxProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	valid := p.pid != 0 && p.isValidAddressInternal(addr)
	p.mu.Unlock()

	if !valid {
		return nil, process.ErrAddressNotMapped
	}

	data, err := process.ReadExact(p, addr, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read process memory: %w", err)
	}

	return data, nil
}
