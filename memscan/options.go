package memscan

import (
	"memsweep/process/memory_map"
)

// ScanOptions selects which regions are scanned and how hits are aligned.
type ScanOptions struct {
	ChunkSize         uint64
	PrivateOnly       bool
	AllowedProtection memory_map.ProtectionFlags
	Alignment         uint64
}

// DefaultScanOptions targets heap objects: 16 MiB chunks over private,
// writable regions, hits on 8-byte boundaries.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		ChunkSize:         16 << 20,
		PrivateOnly:       true,
		AllowedProtection: memory_map.ProtReadWrite | memory_map.ProtWriteCopy,
		Alignment:         8,
	}
}

// UnfilteredScanOptions scans every accessible region at every byte offset.
func UnfilteredScanOptions() ScanOptions {
	return ScanOptions{
		ChunkSize:         1 << 20,
		PrivateOnly:       false,
		AllowedProtection: memory_map.ProtAccessible,
		Alignment:         1,
	}
}

// Eligible reports whether a region passes the filters.
func (o ScanOptions) Eligible(r memory_map.MemoryRegion) bool {
	if !r.Committed {
		return false
	}
	if !r.Protection.Matches(o.AllowedProtection) {
		return false
	}
	return !o.PrivateOnly || r.Private
}

// Option is a function that configures ScanOptions
type Option func(*ScanOptions)

func WithChunkSize(size uint64) Option {
	return func(o *ScanOptions) {
		o.ChunkSize = size
	}
}

func WithPrivateOnly(privateOnly bool) Option {
	return func(o *ScanOptions) {
		o.PrivateOnly = privateOnly
	}
}

func WithAllowedProtection(prot memory_map.ProtectionFlags) Option {
	return func(o *ScanOptions) {
		o.AllowedProtection = prot
	}
}

func WithAlignment(align uint64) Option {
	return func(o *ScanOptions) {
		o.Alignment = align
	}
}

// WithOptions replaces the whole option set, e.g. with UnfilteredScanOptions().
func WithOptions(opts ScanOptions) Option {
	return func(o *ScanOptions) {
		*o = opts
	}
}

func buildOptions(opts []Option) ScanOptions {
	o := DefaultScanOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
