//go:build windows

package memory_map

// x64 lpMinimumApplicationAddress / lpMaximumApplicationAddress.
const (
	MinApplicationAddress uint64 = 0x10000
	MaxApplicationAddress uint64 = 0x7FFFFFFF0000
)
