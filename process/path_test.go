package process_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"memsweep/process"
	"memsweep/process/memory_map"
	"memsweep/process_blob"
)

func TestReadPath(t *testing.T) {
	a := process_blob.NewAddressSpace()
	mem := make([]byte, 0x1000)
	// 0x100000 -> [0x10] = 0x100200 -> [0x8] = 0x100400 -> +0x20 = 1234
	binary.LittleEndian.PutUint64(mem[0x10:], 0x100200)
	binary.LittleEndian.PutUint64(mem[0x208:], 0x100400)
	binary.LittleEndian.PutUint32(mem[0x420:], 1234)
	if err := a.Map(0x100000, mem, memory_map.ProtReadWrite, true); err != nil {
		t.Fatal(err)
	}

	v, err := process.ReadPath[uint32](a, 0x100000, 0x10, 0x8, 0x20)
	if err != nil || v != 1234 {
		t.Fatalf("ReadPath = %d, %v", v, err)
	}

	v, err = process.ReadPath[uint32](a, 0x100420)
	if err != nil || v != 1234 {
		t.Fatalf("ReadPath without offsets = %d, %v", v, err)
	}

	if _, err := process.ReadPath[uint32](a, 0x100000, 0x30, 0x0); !errors.Is(err, process.ErrInvalidPointer) {
		t.Fatalf("null pointer: %v", err)
	}
}

func TestReadExact(t *testing.T) {
	a := process_blob.NewAddressSpace()
	if err := a.Map(0x100000, make([]byte, 0x10), memory_map.ProtReadWrite, true); err != nil {
		t.Fatal(err)
	}

	if _, err := process.ReadExact(a, 0x100008, 0x10); !errors.Is(err, process.ErrShortRead) {
		t.Fatalf("short read: %v", err)
	}
	if b, err := process.ReadExact(a, 0x100000, 0); err != nil || len(b) != 0 {
		t.Fatalf("empty read: %v", err)
	}
}

func TestPatterns(t *testing.T) {
	p := process.PatternFromUint64(0x1122334455667788)
	if len(p) != 8 || p[0] != 0x88 || p[7] != 0x11 {
		t.Fatalf("PatternFromUint64 = %x", []byte(p))
	}
	if s := process.PatternFromString("ab", true); string(s) != "ab\x00" {
		t.Fatalf("PatternFromString = %q", []byte(s))
	}
	if process.Pattern(nil).IsValid() {
		t.Fatal("empty pattern valid")
	}
	if got := process.ProcessMemoryAddress(0x1234).AlignDown(0x1000); got != 0x1000 {
		t.Fatalf("AlignDown = %s", got.ToString())
	}
}
