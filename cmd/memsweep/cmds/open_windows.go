//go:build windows

package cmds

import (
	"memsweep/process"
	"memsweep/process_windows"
)

func openProcess(pid process.ProcessID, name string) (process.Process, error) {
	p, err := process_windows.Open(pid, name)
	if err != nil {
		return nil, err
	}
	return p, nil
}
