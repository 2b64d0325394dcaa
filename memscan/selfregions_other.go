//go:build !linux && !windows

package memscan

import (
	"errors"
	"runtime"

	"memsweep/process/memory_map"
)

func selfRegions() ([]memory_map.MemoryRegion, error) {
	return nil, errors.New("self scan not supported on " + runtime.GOOS)
}
