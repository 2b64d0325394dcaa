package memscan

import (
	"errors"

	"memsweep/process"
	"memsweep/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Catalog enumerates the regions of an address space in ascending order.
type Catalog struct {
	src process.MemoryQuerier
	log *logger.Logger
}

func NewCatalog(src process.MemoryQuerier) *Catalog {
	return &Catalog{
		src: src,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "catalog")),
	}
}

// Walk queries region after region from the bottom of the address range and
// calls fn for each until fn returns false or the range is exhausted. A
// failed query skips one page. Only a closed source ends the walk early.
func (c *Catalog) Walk(fn func(memory_map.MemoryRegion) bool) {
	if c.src == nil {
		return
	}

	if mapper, ok := c.src.(process.MemoryMapper); ok {
		if err := mapper.UpdateMemoryMap(); err != nil {
			if errors.Is(err, process.ErrProcessNotOpen) {
				c.log.Warn("catalog: ", err)
				return
			}
			c.log.Warn("memory map refresh failed: ", err)
		}
	}

	min, max := c.src.AddressRange()
	page := c.src.PageSize()
	if page == 0 {
		page = 0x1000
	}

	cursor := uint64(min)
	for cursor < uint64(max) {
		region, err := c.src.QueryRegion(process.ProcessMemoryAddress(cursor))
		if err != nil {
			if errors.Is(err, process.ErrProcessNotOpen) {
				c.log.Warn("catalog: ", err)
				return
			}
			cursor += page
			continue
		}

		end := region.End()
		if end <= cursor {
			cursor += page
			continue
		}

		if !fn(region) {
			return
		}
		cursor = end
	}
}

// Enumerate collects every region Walk visits.
func (c *Catalog) Enumerate() []memory_map.MemoryRegion {
	var out []memory_map.MemoryRegion
	c.Walk(func(r memory_map.MemoryRegion) bool {
		out = append(out, r)
		return true
	})
	return out
}
