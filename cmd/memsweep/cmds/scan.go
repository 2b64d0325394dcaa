package cmds

import (
	"errors"
	"fmt"
	"os"

	"memsweep/hexdump"
	"memsweep/memscan"
	"memsweep/process"
	"memsweep/process/memory_map"
	"memsweep/process_blob"

	"github.com/spf13/cobra"
)

var (
	scanWidth      int
	scanString     bool
	scanNull       bool
	scanAOB        bool
	scanChunk      uint64
	scanAlign      uint64
	scanAnyType    bool
	scanUnfiltered bool
	scanContext    int
	scanLimit      int
	scanDumpDir    string
)

func newScanCommand() *cobra.Command {
	scanCommand := &cobra.Command{
		Use:   "scan <value>",
		Short: "Scan the target for a value.",
		Long: `Scan every eligible region of the target for a value and print the
addresses where it was found.

By default the value is an 8-byte little-endian integer searched on 8-byte
boundaries in private writable memory, which is where heap objects and their
vtable pointers live. --unfiltered searches every readable region at every
offset. --dump scans a directory written by 'memsweep dump' instead of a
live process.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := scanPattern(args[0])
			if err != nil {
				return err
			}

			src, closeFn, err := scanSource()
			if err != nil {
				return err
			}
			defer closeFn()

			hits, stats := memscan.NewScanner(src).ScanWithStats(pattern, scanOptions(cmd)...)
			fmt.Printf("%d hits (%s)\n", len(hits), stats.String())

			var regions []memory_map.MemoryRegion
			if mapper, ok := src.(process.MemoryMapper); ok {
				regions, _ = mapper.GetMemoryMap()
			}

			for i, hit := range hits {
				if scanLimit > 0 && i >= scanLimit {
					fmt.Printf("... %d more\n", len(hits)-i)
					break
				}
				fmt.Println(hit.ToString())
				if scanContext > 0 {
					printContext(src, hit, len(pattern), regions)
				}
			}
			return nil
		},
	}

	flags := scanCommand.Flags()
	flags.IntVar(&scanWidth, "bytes", 8, "Width of the integer value: 1, 2, 4 or 8.")
	flags.BoolVar(&scanString, "string", false, "Treat the value as an ASCII string.")
	flags.BoolVar(&scanNull, "null", false, "With --string, include the terminating NUL.")
	flags.BoolVar(&scanAOB, "aob", false, "Treat the value as an exact array of bytes, e.g. \"de ad be ef\".")
	flags.Uint64Var(&scanChunk, "chunk", 0, "Read chunk size in bytes (default 16 MiB).")
	flags.Uint64Var(&scanAlign, "align", 0, "Hit alignment in bytes (default 8, or 1 with --unfiltered).")
	flags.BoolVar(&scanAnyType, "any-type", false, "Scan mapped and image regions too, not only private ones.")
	flags.BoolVar(&scanUnfiltered, "unfiltered", false, "Scan every readable region at every offset.")
	flags.IntVar(&scanContext, "context", 0, "Hexdump this many bytes around each hit.")
	flags.IntVar(&scanLimit, "limit", 100, "Print at most this many hits (0 for all).")
	flags.StringVar(&scanDumpDir, "dump", "", "Scan a saved dump directory instead of a live process.")

	return scanCommand
}

func scanPattern(value string) (process.Pattern, error) {
	switch {
	case scanString && scanAOB:
		return nil, errors.New("--string and --aob are exclusive")
	case scanString:
		p := process.PatternFromString(value, scanNull)
		if !p.IsValid() {
			return nil, errors.New("empty string")
		}
		return p, nil
	case scanAOB:
		return parseAOB(value)
	}

	v, err := ParseU64(value)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", value, err)
	}
	return valuePattern(v, scanWidth)
}

func scanOptions(cmd *cobra.Command) []memscan.Option {
	var opts []memscan.Option
	if scanUnfiltered {
		opts = append(opts, memscan.WithOptions(memscan.UnfilteredScanOptions()))
	}
	if scanAnyType {
		opts = append(opts, memscan.WithPrivateOnly(false))
	}
	if cmd.Flags().Changed("chunk") {
		opts = append(opts, memscan.WithChunkSize(scanChunk))
	}
	if cmd.Flags().Changed("align") {
		opts = append(opts, memscan.WithAlignment(scanAlign))
	}
	return opts
}

// scanSource returns the live target or a loaded dump.
func scanSource() (process.MemorySource, func(), error) {
	if scanDumpDir == "" {
		p, err := openTarget()
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	}

	space, meta, err := process_blob.Load(scanDumpDir)
	if err != nil {
		return nil, nil, err
	}
	fmt.Fprintf(os.Stderr, "loaded dump of %s (pid %d)\n", meta.Name, meta.PID)
	return space, func() {}, nil
}

func printContext(src process.PartialReader, hit process.ProcessMemoryAddress, size int, regions []memory_map.MemoryRegion) {
	start := hit - process.ProcessMemoryAddress(scanContext)
	if start > hit {
		start = 0
	}
	buf := make([]byte, int(hit-start)+size+scanContext)

	n, _ := src.ReadPartial(start, buf)
	if n == 0 {
		// the bytes before the hit may belong to another mapping
		start = hit
		n, _ = src.ReadPartial(start, buf[:size+scanContext])
	}
	if n == 0 {
		return
	}

	options := hexdump.DefaultOptions()
	options.Base = uint64(start)
	options.HighlightOffset = int(hit - start)
	options.HighlightLen = size
	options.Regions = regions
	hexdump.DumpToWriter(os.Stdout, buf[:n], options)
}
