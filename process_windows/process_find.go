//go:build windows

package process_windows

import (
	"fmt"
	"sort"
	"strings"

	"memsweep/process"

	psprocess "github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/windows"
)

// equalNames compares image names case-insensitively, ignoring a trailing ".exe".
func equalNames(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	return strings.EqualFold(stripExe(a), stripExe(b))
}

func stripExe(s string) string {
	if len(s) >= 4 && strings.EqualFold(s[len(s)-4:], ".exe") {
		return s[:len(s)-4]
	}
	return s
}

// WindowsProcessFinder implements process.ProcessFinder on top of gopsutil.
type WindowsProcessFinder struct{}

func NewProcessFinder() process.ProcessFinder {
	return &WindowsProcessFinder{}
}

func (f *WindowsProcessFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	procs, err := psprocess.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var out []process.ProcessInfo
	for _, proc := range procs {
		procName, err := proc.Name()
		if err != nil {
			continue // exited or access denied
		}
		if equalNames(name, procName) {
			exe, _ := proc.Exe()
			out = append(out, process.ProcessInfo{PID: process.ProcessID(proc.Pid), Name: procName, Exe: exe})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

func (f *WindowsProcessFinder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	proc, err := psprocess.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("pid %d: %w", pid, process.ErrProcessNotFound)
	}
	name, _ := proc.Name()
	exe, _ := proc.Exe()
	return &process.ProcessInfo{PID: pid, Name: name, Exe: exe}, nil
}

// Open opens by PID when pid is non-zero, otherwise the first process named name.
func Open(pid process.ProcessID, name string) (*WindowsProcess, error) {
	if pid != 0 {
		return NewWithPID(pid)
	}
	if name == "" {
		return nil, fmt.Errorf("need a pid or a process name")
	}

	found, err := NewProcessFinder().FindProcessByName(name)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("process %q: %w", name, process.ErrProcessNotFound)
	}
	return NewWithPID(found[0].PID)
}

// ModuleBase walks the module snapshot of the process.
func (p *WindowsProcess) ModuleBase(name string) (process.ProcessMemoryAddress, error) {
	pid := p.GetPID()
	if pid == 0 {
		return 0, process.ErrProcessNotOpen
	}

	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		return 0, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var me windows.ModuleEntry32
	me.Size = uint32(windows.SizeofModuleEntry32)
	for err = windows.Module32First(snap, &me); err == nil; err = windows.Module32Next(snap, &me) {
		if equalNames(name, windows.UTF16ToString(me.Module[:])) {
			return process.ProcessMemoryAddress(me.ModBaseAddr), nil
		}
	}

	return 0, fmt.Errorf("module %q: %w", name, process.ErrAddressNotMapped)
}
