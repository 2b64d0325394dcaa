package memscan

import (
	"testing"

	"memsweep/process/memory_map"
	"memsweep/process_blob"
)

func TestChunkedReaderChunks(t *testing.T) {
	a := process_blob.NewAddressSpace()
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i)
	}
	if err := a.Map(0x100000, data, memory_map.ProtReadWrite, true); err != nil {
		t.Fatal(err)
	}
	region, _ := a.QueryRegion(0x100000)

	cr := NewChunkedReader(a, 16, 4, a.PageSize())
	cr.Enter(region, true)

	var chunks []Chunk
	cr.ReadRegion(region, func(c Chunk) {
		c.Data = append([]byte(nil), c.Data...)
		chunks = append(chunks, c)
	})

	want := []struct {
		base     uint64
		carryLen int
		first    byte
		size     int
	}{
		{0x100000, 0, 0, 16},
		{0x100010 - 3, 3, 13, 19},
		{0x100020 - 3, 3, 29, 11},
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, w := range want {
		c := chunks[i]
		if c.Base != w.base || c.CarryLen != w.carryLen || c.Data[0] != w.first || len(c.Data) != w.size {
			t.Fatalf("chunk %d = {base 0x%x carry %d first %d size %d}, want %+v",
				i, c.Base, c.CarryLen, c.Data[0], len(c.Data), w)
		}
	}
	if cr.BytesRead() != 40 {
		t.Fatalf("BytesRead = %d", cr.BytesRead())
	}
}

func TestChunkedReaderClampsChunkSize(t *testing.T) {
	cr := NewChunkedReader(nil, 2, 8, 0)
	if cr.chunkSize != 8 {
		t.Fatalf("chunk size %d, want clamp to needle size", cr.chunkSize)
	}
	if cr.pageSize != 0x1000 {
		t.Fatalf("page size %d, want default", cr.pageSize)
	}
}

func TestChunkedReaderEnterResets(t *testing.T) {
	base := memory_map.MemoryRegion{Base: 0x1000, Size: 0x1000, Committed: true, Protection: memory_map.ProtReadWrite, Private: true}

	tests := []struct {
		name     string
		next     memory_map.MemoryRegion
		eligible bool
		keep     bool
	}{
		{"adjacent", memory_map.MemoryRegion{Base: 0x2000, Size: 0x1000, Committed: true, Protection: memory_map.ProtReadWrite, Private: true}, true, true},
		{"gap", memory_map.MemoryRegion{Base: 0x3000, Size: 0x1000, Committed: true, Protection: memory_map.ProtReadWrite, Private: true}, true, false},
		{"protection", memory_map.MemoryRegion{Base: 0x2000, Size: 0x1000, Committed: true, Protection: memory_map.ProtReadOnly, Private: true}, true, false},
		{"type", memory_map.MemoryRegion{Base: 0x2000, Size: 0x1000, Committed: true, Protection: memory_map.ProtReadWrite}, true, false},
		{"ineligible", memory_map.MemoryRegion{Base: 0x2000, Size: 0x1000, Committed: true, Protection: memory_map.ProtReadWrite, Private: true}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cr := NewChunkedReader(nil, 16, 8, 0x1000)
			cr.Enter(base, true)
			cr.carry.Retain([]byte("0123456789"))

			cr.Enter(tt.next, tt.eligible)
			if kept := cr.carry.Len() > 0; kept != tt.keep {
				t.Fatalf("carry kept = %v, want %v", kept, tt.keep)
			}
		})
	}
}
