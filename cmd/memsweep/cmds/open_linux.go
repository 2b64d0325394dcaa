//go:build linux

package cmds

import (
	"memsweep/process"
	"memsweep/process_linux"
)

func openProcess(pid process.ProcessID, name string) (process.Process, error) {
	p, err := process_linux.Open(pid, name)
	if err != nil {
		return nil, err
	}
	return p, nil
}
