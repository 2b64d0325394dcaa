package memscan

import (
	"os"
	"runtime"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"memsweep/process"
	"memsweep/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// SelfScanner searches the calling process's own memory for an 8-byte value.
// Regions are claimed by a pool of goroutines; each page is tried with the
// fast kernel first and, if that faults, again one word at a time.
type SelfScanner struct {
	threads   int
	unaligned bool
	strategy  Strategy
	pageSize  uint64
	log       *logger.Logger

	faults atomic.Uint64
}

// SelfOption is a function that configures a SelfScanner
type SelfOption func(*SelfScanner)

// WithThreads sets the pool size. Zero or less means runtime.NumCPU().
func WithThreads(n int) SelfOption {
	return func(s *SelfScanner) {
		s.threads = n
	}
}

// WithUnaligned makes the scanner test every byte offset instead of every
// 8-byte boundary.
func WithUnaligned(unaligned bool) SelfOption {
	return func(s *SelfScanner) {
		s.unaligned = unaligned
	}
}

// WithStrategy overrides the detected fast-path kernel.
func WithStrategy(strategy Strategy) SelfOption {
	return func(s *SelfScanner) {
		s.strategy = strategy
	}
}

func NewSelfScanner(opts ...SelfOption) *SelfScanner {
	s := &SelfScanner{
		strategy: DetectStrategy(),
		pageSize: uint64(os.Getpagesize()),
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "selfscan")),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.strategy == StrategyAVX2 && !haveWideKernel {
		s.strategy = StrategyScalar
	}
	return s
}

// Strategy returns the fast-path kernel in use.
func (s *SelfScanner) Strategy() Strategy {
	return s.strategy
}

// Faults returns how many pages fell back to the word-by-word path so far.
func (s *SelfScanner) Faults() uint64 {
	return s.faults.Load()
}

// Scan enumerates the process's readable regions once and scans them.
func (s *SelfScanner) Scan(needle uint64) []uint64 {
	regions, err := selfRegions()
	if err != nil {
		s.log.Warn("self regions: ", err)
		return nil
	}
	return s.ScanRegions(regions, needle)
}

// ScanRegions scans the given regions of the calling process. The regions
// must describe memory of this process; pages that fault are skipped.
func (s *SelfScanner) ScanRegions(regions []memory_map.MemoryRegion, needle uint64) []uint64 {
	if len(regions) == 0 {
		return nil
	}

	threads := s.threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads > len(regions) {
		threads = len(regions)
	}

	started := time.Now()
	faultsBefore := s.faults.Load()

	var next atomic.Uint64
	buckets := make([][]uint64, threads)

	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()

			old := debug.SetPanicOnFault(true)
			defer debug.SetPanicOnFault(old)

			for {
				i := next.Add(1) - 1
				if i >= uint64(len(regions)) {
					return
				}
				buckets[w] = s.scanRegion(regions[i], needle, buckets[w])
			}
		}(w)
	}
	wg.Wait()

	var hits []uint64
	for _, b := range buckets {
		hits = append(hits, b...)
	}
	slices.Sort(hits)
	hits = slices.Compact(hits)

	s.log.Infoln("self scan:", len(regions), "regions,", threads, "threads,", s.strategy.String(),
		"kernel,", len(hits), "hits,", s.faults.Load()-faultsBefore, "faulted pages in", time.Since(started))

	return hits
}

func (s *SelfScanner) scanRegion(r memory_map.MemoryRegion, needle uint64, dst []uint64) []uint64 {
	end := r.End()
	for page := r.Base; page < end; {
		next := (page/s.pageSize + 1) * s.pageSize
		if next > end {
			next = end
		}

		mark := len(dst)
		ok := guarded(func() {
			dst = s.fastPage(uintptr(page), uintptr(next), uintptr(end), needle, dst)
		})
		if !ok {
			// whatever the faulted attempt appended is discarded
			dst = dst[:mark]
			s.faults.Add(1)
			s.log.Debugln("fault at page", process.ProcessMemoryAddress(page).ToString(), "falling back")
			dst = s.safePage(uintptr(page), uintptr(next), uintptr(end), needle, dst)
		}
		page = next
	}
	return dst
}

// fastPage scans [p, next). limit is the end of the region; unaligned loads
// may read past next as long as they stay below limit.
func (s *SelfScanner) fastPage(p, next, limit uintptr, needle uint64, dst []uint64) []uint64 {
	if s.unaligned {
		for a := p; a < next && a+8 <= limit; a++ {
			if load64(a) == needle {
				dst = append(dst, uint64(a))
			}
		}
		return dst
	}

	a := alignUp(p)
	if s.strategy == StrategyAVX2 {
		for a < next {
			a = findBlockAVX2(a, next, needle)
			if next-a < 32 {
				break
			}
			for k := uintptr(0); k < 32; k += 8 {
				if load64(a+k) == needle {
					dst = append(dst, uint64(a+k))
				}
			}
			a += 32
		}
	}
	for ; a+8 <= next; a += 8 {
		if load64(a) == needle {
			dst = append(dst, uint64(a))
		}
	}
	return dst
}

// safePage checks one word at a time; a word that faults is skipped and the
// rest of the page is still checked.
func (s *SelfScanner) safePage(p, next, limit uintptr, needle uint64, dst []uint64) []uint64 {
	step := uintptr(8)
	a := alignUp(p)
	if s.unaligned {
		step = 1
		a = p
	}

	for ; a < next && a+8 <= limit; a += step {
		if !s.unaligned && a+8 > next {
			break
		}
		v, ok := safeLoad64(a)
		if !ok {
			continue
		}
		if v == needle {
			dst = append(dst, uint64(a))
		}
	}
	return dst
}

func alignUp(p uintptr) uintptr {
	return (p + 7) &^ 7
}

// ScanSelf scans the calling process for needle with the given pool size.
func ScanSelf(needle uint64, threads int, opts ...SelfOption) []uint64 {
	return NewSelfScanner(append([]SelfOption{WithThreads(threads)}, opts...)...).Scan(needle)
}
