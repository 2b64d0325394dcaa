//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"memsweep/process"
)

// LinuxProcessFinder implements process.ProcessFinder over /proc.
type LinuxProcessFinder struct{}

func NewProcessFinder() process.ProcessFinder {
	return &LinuxProcessFinder{}
}

func (f *LinuxProcessFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	return ListByName(name)
}

func (f *LinuxProcessFinder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	info, err := procInfo(pid)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("pid %d: %w", pid, process.ErrProcessNotFound)
		}
		return nil, fmt.Errorf("pid %d: %w", pid, err)
	}
	return &info, nil
}

// procInfo reads comm and the exe link of one /proc entry. The exe link is
// unreadable for kernel threads and other users' processes and comes back empty.
func procInfo(pid process.ProcessID) (process.ProcessInfo, error) {
	dir := filepath.Join("/proc", strconv.Itoa(int(pid)))

	comm, err := os.ReadFile(filepath.Join(dir, "comm"))
	if err != nil {
		return process.ProcessInfo{}, err
	}
	exe, _ := os.Readlink(filepath.Join(dir, "exe"))

	return process.ProcessInfo{
		PID:  pid,
		Name: strings.TrimRight(string(comm), "\r\n\t "),
		Exe:  exe,
	}, nil
}

// ListByName returns every other process whose comm or executable base name
// equals name, case-sensitively, ordered by PID. comm is truncated to 15
// bytes by the kernel, so long names only match through the executable.
func ListByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, errors.New("empty name")
	}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}

	self := os.Getpid()
	var out []process.ProcessInfo
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 || pid == self || !e.IsDir() {
			continue
		}

		info, err := procInfo(process.ProcessID(pid))
		if err != nil {
			continue // exited while listing
		}
		switch {
		case info.Name == name:
		case info.Exe != "" && filepath.Base(info.Exe) == name:
			info.Name = name
		default:
			continue
		}
		out = append(out, info)
	}

	slices.SortFunc(out, func(a, b process.ProcessInfo) int { return int(a.PID) - int(b.PID) })
	return out, nil
}

// OneByName returns the lowest-PID match for name.
func OneByName(name string) (*process.ProcessInfo, error) {
	found, err := ListByName(name)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, process.ErrProcessNotFound
	}
	return &found[0], nil
}

// Open opens by PID when pid is non-zero, otherwise the lowest-PID process named name.
func Open(pid process.ProcessID, name string) (*LinuxProcess, error) {
	if pid != 0 {
		return NewWithPID(pid)
	}
	if name == "" {
		return nil, errors.New("need a pid or a process name")
	}

	found, err := OneByName(name)
	if err != nil {
		return nil, fmt.Errorf("process %q: %w", name, err)
	}
	return NewWithPID(found.PID)
}
