package process_blob

import (
	"bytes"
	"errors"
	"testing"

	"memsweep/process"
	"memsweep/process/memory_map"
)

func seq(n int, start byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}

func TestMapRejectsBadRegions(t *testing.T) {
	a := NewAddressSpace()
	if err := a.Map(0x100000, seq(0x1000, 0), memory_map.ProtReadWrite, true); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		err  error
	}{
		{"overlap", a.Map(0x100800, seq(0x1000, 0), memory_map.ProtReadWrite, true)},
		{"empty", a.Map(0x200000, nil, memory_map.ProtReadWrite, true)},
		{"below range", a.Map(0x1000, seq(16, 0), memory_map.ProtReadWrite, true)},
		{"size mismatch", a.MapRegion(memory_map.MemoryRegion{Base: 0x300000, Size: 0x2000, Committed: true}, seq(16, 0))},
	}
	for _, tt := range tests {
		if tt.err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestReadPartial(t *testing.T) {
	a := NewAddressSpace()
	if err := a.Map(0x100000, seq(0x100, 0), memory_map.ProtReadWrite, true); err != nil {
		t.Fatal(err)
	}
	if err := a.Map(0x100100, seq(0x100, 0x80), memory_map.ProtReadOnly, true); err != nil {
		t.Fatal(err)
	}
	if err := a.MapRegion(memory_map.MemoryRegion{Base: 0x100200, Size: 0x100, Committed: true, Protection: memory_map.ProtNoAccess}, seq(0x100, 0)); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 0x300)
	n, err := a.ReadPartial(0x1000f0, buf)
	if err != nil {
		t.Fatalf("ReadPartial: %v", err)
	}
	if n != 0x110 {
		t.Fatalf("read %d bytes, want 0x110 (stops at no-access region)", n)
	}
	if buf[0] != 0xf0 || buf[0x10] != 0x80 {
		t.Fatalf("bytes %x %x", buf[0], buf[0x10])
	}

	if _, err := a.ReadPartial(0x100200, buf); !errors.Is(err, process.ErrAddressNotMapped) {
		t.Fatalf("read of no-access region: %v", err)
	}

	a.SetMaxReadSize(0x20)
	if n, _ := a.ReadPartial(0x100000, buf); n != 0x20 {
		t.Fatalf("capped read returned %d", n)
	}

	a.SetMaxReadSize(0)
	a.FailReads(0x100000)
	if n, _ := a.ReadPartial(0x100000, buf); n != 0 {
		t.Fatalf("failing region returned %d bytes", n)
	}
	if region, err := a.QueryRegion(0x100000); err != nil || !region.IsReadable() {
		t.Fatalf("failing region must still look readable: %+v %v", region, err)
	}

	if _, err := a.ReadMemory(0x1001f0, 0x20); !errors.Is(err, process.ErrShortRead) {
		t.Fatalf("ReadMemory across end: %v", err)
	}
}

func TestWriteAndQuery(t *testing.T) {
	a := NewAddressSpace()
	if err := a.Map(0x100000, make([]byte, 0x1000), memory_map.ProtReadWrite, true); err != nil {
		t.Fatal(err)
	}

	if err := a.Write(0x100ffe, []byte{1, 2, 3, 4}); !errors.Is(err, process.ErrAddressNotMapped) {
		t.Fatalf("Write past end: %v", err)
	}
	if err := a.Write(0x100ffc, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	v, err := process.Read[uint32](a, 0x100ffc)
	if err != nil || v != 0x04030201 {
		t.Fatalf("Read = 0x%x, %v", v, err)
	}

	hole, err := a.QueryRegion(0x101000)
	if err != nil || hole.Committed || hole.End() != 0x800000000000 {
		t.Fatalf("hole = %+v, %v", hole, err)
	}
	if _, err := a.QueryRegion(0x1000); err == nil {
		t.Fatal("query below range answered")
	}

	if !a.Unmap(0x100000) || a.Unmap(0x100000) {
		t.Fatal("Unmap")
	}
}

func TestSaveLoad(t *testing.T) {
	a := NewAddressSpace()
	if err := a.Map(0x100000, seq(0x2000, 1), memory_map.ProtReadWrite, true); err != nil {
		t.Fatal(err)
	}
	if err := a.Map(0x200000, seq(0x1000, 7), memory_map.ProtExecuteRead, false); err != nil {
		t.Fatal(err)
	}
	if err := a.Reserve(0x300000, 0x1000); err != nil {
		t.Fatal(err)
	}
	if err := a.Map(0x400000, seq(0x1000, 9), memory_map.ProtReadWrite, true); err != nil {
		t.Fatal(err)
	}
	a.FailReads(0x400000)

	regions, _ := a.GetMemoryMap()
	dir := t.TempDir()
	n, err := Save(dir, Metadata{PID: 42, Name: "game"}, a, regions)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != 2 {
		t.Fatalf("saved %d regions, want 2", n)
	}

	loaded, meta, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta.PID != 42 || meta.Name != "game" {
		t.Fatalf("metadata %+v", meta)
	}

	got, _ := loaded.GetMemoryMap()
	if len(got) != 2 || got[0].Base != 0x100000 || !got[0].Private || got[1].Protection != memory_map.ProtExecuteRead {
		t.Fatalf("regions %+v", got)
	}

	data, err := loaded.ReadMemory(0x100000, 0x2000)
	if err != nil || !bytes.Equal(data, seq(0x2000, 1)) {
		t.Fatalf("restored data differs: %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, _, err := Load(t.TempDir()); err == nil {
		t.Fatal("Load of empty directory succeeded")
	}
}

func TestQueryReusesIndexUntilMapChanges(t *testing.T) {
	a := NewAddressSpace()
	if err := a.Map(0x100000, make([]byte, 0x1000), memory_map.ProtReadWrite, true); err != nil {
		t.Fatal(err)
	}

	if _, err := a.QueryRegion(0x100000); err != nil {
		t.Fatal(err)
	}
	first := a.snap
	if _, err := a.QueryRegion(0x200000); err != nil {
		t.Fatal(err)
	}
	if a.snap != first {
		t.Fatalf("query rebuilt the index")
	}

	if err := a.Map(0x200000, make([]byte, 0x1000), memory_map.ProtReadOnly, true); err != nil {
		t.Fatal(err)
	}
	r, err := a.QueryRegion(0x200800)
	if err != nil || !r.Committed || r.Base != 0x200000 {
		t.Fatalf("after Map: %+v %v", r, err)
	}

	a.Unmap(0x200000)
	r, err = a.QueryRegion(0x200800)
	if err != nil || r.Committed {
		t.Fatalf("after Unmap: %+v %v", r, err)
	}
}
