package memscan

import (
	"memsweep/process"
	"memsweep/process/memory_map"
)

// Chunk is one window of a region handed to the matcher. Data starts with
// CarryLen bytes carried over from the previous chunk; Base is the address
// of Data[0].
type Chunk struct {
	Data     []byte
	Base     uint64
	CarryLen int
}

// ChunkedReader reads eligible regions in bounded chunks and maintains the
// carry across chunks and across adjacent regions.
type ChunkedReader struct {
	src       process.PartialReader
	chunkSize uint64
	pageSize  uint64
	carry     *CarryBuffer
	buf       []byte

	prevEligible bool
	prevEnd      uint64
	prevProt     memory_map.ProtectionFlags
	prevPrivate  bool

	bytesRead   uint64
	failedReads int
}

func NewChunkedReader(src process.PartialReader, chunkSize uint64, needleSize int, pageSize uint64) *ChunkedReader {
	if chunkSize < uint64(needleSize) {
		chunkSize = uint64(needleSize)
	}
	if chunkSize == 0 {
		chunkSize = 1
	}
	if pageSize == 0 {
		pageSize = 0x1000
	}
	carry := NewCarryBuffer(needleSize)
	return &ChunkedReader{
		src:       src,
		chunkSize: chunkSize,
		pageSize:  pageSize,
		carry:     carry,
		buf:       make([]byte, uint64(carry.max)+chunkSize),
	}
}

// Enter must be called for every region in address order, eligible or not.
// The carry survives only from one eligible region into an eligible region
// that starts exactly where the previous one ended and has the same
// protection and type.
func (cr *ChunkedReader) Enter(region memory_map.MemoryRegion, eligible bool) {
	contiguous := cr.prevEligible && eligible &&
		cr.prevEnd == region.Base &&
		cr.prevProt == region.Protection &&
		cr.prevPrivate == region.Private
	if !contiguous {
		cr.carry.Reset()
	}
	cr.prevEligible = eligible
	cr.prevEnd = region.End()
	cr.prevProt = region.Protection
	cr.prevPrivate = region.Private
}

// ReadRegion reads region chunk by chunk and calls fn for every chunk that
// produced data. A read that transfers nothing skips one page and breaks
// the carry; a short read is used as-is and the next read continues right
// after it.
func (cr *ChunkedReader) ReadRegion(region memory_map.MemoryRegion, fn func(Chunk)) {
	offset := uint64(0)
	for offset < region.Size {
		toRead := region.Size - offset
		if toRead > cr.chunkSize {
			toRead = cr.chunkSize
		}

		carryLen := cr.carry.Len()
		copy(cr.buf, cr.carry.Bytes())
		dst := cr.buf[carryLen : uint64(carryLen)+toRead]

		addr := region.Base + offset
		n, _ := cr.src.ReadPartial(process.ProcessMemoryAddress(addr), dst)
		if n > len(dst) {
			n = len(dst)
		}
		if n <= 0 {
			cr.failedReads++
			cr.carry.Reset()
			offset += cr.pageSize
			continue
		}
		cr.bytesRead += uint64(n)

		data := cr.buf[:carryLen+n]
		fn(Chunk{
			Data:     data,
			Base:     addr - uint64(carryLen),
			CarryLen: carryLen,
		})

		cr.carry.Retain(data)
		offset += uint64(n)
	}
}

// BytesRead returns the number of bytes transferred so far.
func (cr *ChunkedReader) BytesRead() uint64 {
	return cr.bytesRead
}

// FailedReads returns the number of reads that transferred nothing.
func (cr *ChunkedReader) FailedReads() int {
	return cr.failedReads
}
