package hexdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode"

	"memsweep/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// Base is the address of data[0], printed in the offset column
	Base uint64

	// HighlightOffset and HighlightLen select the bytes to highlight, usually a scan hit
	HighlightOffset int
	HighlightLen    int

	// Regions, when set, annotates 8-byte words that point into a readable region
	Regions []memory_map.MemoryRegion

	// Color enables ANSI colors
	Color bool
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
		Color:        true,
	}
}

// Dump renders data located at base with the highlightLen bytes starting at
// highlightOffset marked.
func Dump(data []byte, base uint64, highlightOffset, highlightLen int) string {
	options := DefaultOptions()
	options.Base = base
	options.HighlightOffset = highlightOffset
	options.HighlightLen = highlightLen

	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}

	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		formatLine(writer, data[offset:end], offset, options)
	}
}

func (o Options) highlighted(i int) bool {
	return o.HighlightLen > 0 && i >= o.HighlightOffset && i < o.HighlightOffset+o.HighlightLen
}

func (o Options) paint(fg coloransi.ColorCode, s string) string {
	if !o.Color {
		return s
	}
	return coloransi.Foreground(fg, s)
}

func (o Options) mark(s string) string {
	if !o.Color {
		return s
	}
	return coloransi.Color(coloransi.Black, coloransi.Yellow, s)
}

// 00007f0000001000  00 01 02 03 04 05 06 07 | 08 09 0a 0b 0c 0d 0e 0f | ........ ........ | 0x7f0000002000
//
// offset is the index of line[0] within the whole dump.
func formatLine(writer io.Writer, line []byte, offset int, options Options) {
	fmt.Fprint(writer, options.paint(coloransi.Cyan, fmt.Sprintf("%016x", options.Base+uint64(offset))), "  ")

	hexParts := make([]string, options.BytesPerLine)
	for i := range hexParts {
		hexParts[i] = "  "
		if i >= len(line) {
			continue
		}
		b := line[i]
		s := fmt.Sprintf("%02x", b)
		switch {
		case options.highlighted(offset + i):
			s = options.mark(s)
		case b == 0:
			s = options.paint(coloransi.BrightBlack, s)
		default:
			s = options.paint(coloransi.Green, s)
		}
		hexParts[i] = s
	}

	half := options.BytesPerLine / 2
	if options.BytesPerLine >= 8 {
		fmt.Fprint(writer, strings.Join(hexParts[:half], " "), " | ", strings.Join(hexParts[half:], " "))
	} else {
		fmt.Fprint(writer, strings.Join(hexParts, " "))
	}

	fmt.Fprint(writer, " | ")
	formatASCII(writer, line, offset, options)
	if len(line) < options.BytesPerLine {
		fmt.Fprint(writer, strings.Repeat(" ", options.BytesPerLine-len(line)))
	}

	if len(options.Regions) > 0 {
		var ptrs []string
		for i := 0; i+8 <= len(line); i += 8 {
			ptr := binary.LittleEndian.Uint64(line[i:])
			if isValidPointer(ptr, options.Regions) {
				ptrs = append(ptrs, options.paint(coloransi.Yellow, fmt.Sprintf("0x%x", ptr)))
			}
		}
		if len(ptrs) > 0 {
			fmt.Fprint(writer, " | ", strings.Join(ptrs, " "))
		}
	}

	fmt.Fprintln(writer)
}

// formatASCII formats the ASCII part of a hex dump line
func formatASCII(writer io.Writer, line []byte, offset int, options Options) {
	for i, b := range line {
		if i == options.BytesPerLine/2 && options.BytesPerLine >= 8 {
			fmt.Fprint(writer, " ")
		}

		c := rune(b)
		switch {
		case options.highlighted(offset + i):
			s := "."
			if b < unicode.MaxASCII && unicode.IsPrint(c) {
				s = string(c)
			}
			fmt.Fprint(writer, options.mark(s))
		case b == 0:
			fmt.Fprint(writer, options.paint(coloransi.BrightBlack, "."))
		case b >= unicode.MaxASCII || !unicode.IsPrint(c):
			fmt.Fprint(writer, options.paint(coloransi.Red, "."))
		default:
			fmt.Fprint(writer, options.paint(coloransi.White, string(c)))
		}
	}
}

// isValidPointer checks if a potential pointer lands in a readable region
func isValidPointer(ptr uint64, regions []memory_map.MemoryRegion) bool {
	if ptr == 0 {
		return false
	}
	return memory_map.IsValidAddress(ptr, regions)
}
