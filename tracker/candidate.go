package tracker

import (
	"sort"

	"memsweep/process"
)

// ObjectCandidate is a scan hit believed to be the start of a live object.
type ObjectCandidate struct {
	Address      process.ProcessMemoryAddress
	PageBase     process.ProcessMemoryAddress
	OffsetInPage uint64
}

// BuildCandidates wraps scan hits, sorted by address so candidates on the
// same page are adjacent.
func BuildCandidates(addrs []process.ProcessMemoryAddress, pageSize uint64) []ObjectCandidate {
	if pageSize == 0 {
		pageSize = 0x1000
	}

	out := make([]ObjectCandidate, 0, len(addrs))
	for _, a := range addrs {
		page := a.AlignDown(pageSize)
		out = append(out, ObjectCandidate{
			Address:      a,
			PageBase:     page,
			OffsetInPage: uint64(a - page),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address < out[j].Address
	})
	return out
}

// groupByPage splits sorted candidates into runs sharing a page.
func groupByPage(c []ObjectCandidate) [][]ObjectCandidate {
	var groups [][]ObjectCandidate
	for start := 0; start < len(c); {
		end := start + 1
		for end < len(c) && c[end].PageBase == c[start].PageBase {
			end++
		}
		groups = append(groups, c[start:end])
		start = end
	}
	return groups
}
