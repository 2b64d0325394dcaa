package memscan

import (
	"fmt"
	"slices"
	"time"
	"unsafe"

	"memsweep/process"
	"memsweep/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// ScanStats summarizes one scan.
type ScanStats struct {
	RegionsVisited int
	RegionsScanned int
	BytesRead      uint64
	FailedReads    int
	Hits           int
	Elapsed        time.Duration
}

func (s ScanStats) String() string {
	return fmt.Sprintf("regions %d/%d, %d bytes read, %d failed reads, %d hits in %s",
		s.RegionsScanned, s.RegionsVisited, s.BytesRead, s.FailedReads, s.Hits, s.Elapsed)
}

// Scanner searches a foreign address space. It is single threaded and
// visits regions in ascending address order.
type Scanner struct {
	src process.MemorySource
	log *logger.Logger
}

func NewScanner(src process.MemorySource) *Scanner {
	return &Scanner{
		src: src,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "memscan")),
	}
}

// Scan returns the sorted, de-duplicated addresses of every occurrence of
// pattern in the eligible regions. Failures never escape; a chunk that
// cannot be read simply contributes no hits.
func (s *Scanner) Scan(pattern []byte, opts ...Option) []process.ProcessMemoryAddress {
	hits, _ := s.ScanWithStats(pattern, opts...)
	return hits
}

func (s *Scanner) ScanWithStats(pattern []byte, opts ...Option) ([]process.ProcessMemoryAddress, ScanStats) {
	var stats ScanStats
	if s == nil || s.src == nil || !process.Pattern(pattern).IsValid() {
		return nil, stats
	}

	o := buildOptions(opts)
	if o.Alignment == 0 {
		return nil, stats
	}

	started := time.Now()
	reader := NewChunkedReader(s.src, o.ChunkSize, len(pattern), s.src.PageSize())

	var raw []uint64
	NewCatalog(s.src).Walk(func(r memory_map.MemoryRegion) bool {
		stats.RegionsVisited++
		eligible := o.Eligible(r)
		reader.Enter(r, eligible)
		if !eligible {
			return true
		}

		stats.RegionsScanned++
		before := len(raw)
		reader.ReadRegion(r, func(c Chunk) {
			raw = AppendMatches(raw, c.Data, pattern, o.Alignment, c.Base)
		})
		if found := len(raw) - before; found > 0 {
			s.log.Debugln("region", process.ProcessMemoryAddress(r.Base).ToString(), "hits", found)
		}
		return true
	})

	slices.Sort(raw)
	raw = slices.Compact(raw)

	hits := make([]process.ProcessMemoryAddress, len(raw))
	for i, v := range raw {
		hits[i] = process.ProcessMemoryAddress(v)
	}

	stats.BytesRead = reader.BytesRead()
	stats.FailedReads = reader.FailedReads()
	stats.Hits = len(hits)
	stats.Elapsed = time.Since(started)
	s.log.Infoln("scan of", len(pattern), "byte pattern:", stats.String())

	return hits, stats
}

// Scan is NewScanner(src).Scan(pattern, opts...).
func Scan(src process.MemorySource, pattern []byte, opts ...Option) []process.ProcessMemoryAddress {
	return NewScanner(src).Scan(pattern, opts...)
}

// ScanValue scans for the in-memory representation of value.
// This assumes POD and little endian
func ScanValue[T any](src process.MemorySource, value T, opts ...Option) []process.ProcessMemoryAddress {
	size := int(unsafe.Sizeof(value))
	pattern := make([]byte, size)
	copy(pattern, unsafe.Slice((*byte)(unsafe.Pointer(&value)), size))
	return Scan(src, pattern, opts...)
}

func ScanUint64(src process.MemorySource, value uint64, opts ...Option) []process.ProcessMemoryAddress {
	return Scan(src, process.PatternFromUint64(value), opts...)
}

// ScanString scans for the bytes of s, optionally followed by a NUL.
func ScanString(src process.MemorySource, s string, includeNull bool, opts ...Option) []process.ProcessMemoryAddress {
	return Scan(src, process.PatternFromString(s, includeNull), opts...)
}
