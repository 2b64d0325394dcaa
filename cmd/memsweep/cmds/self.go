package cmds

import (
	"fmt"

	"memsweep/memscan"

	"github.com/spf13/cobra"
)

var selfThreads int

func newSelfCommand() *cobra.Command {
	selfCommand := &cobra.Command{
		Use:   "self <value> [unaligned]",
		Short: "Scan this process's own memory for an 8-byte value.",
		Long: `Scan the memory of memsweep itself for an 8-byte value using a pool of
workers. Pages that fault while being read are retried word by word and
skipped if they stay unreadable.

With "unaligned" every byte offset is tested instead of every 8-byte boundary.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := ParseU64(args[0])
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[0], err)
			}

			unaligned := false
			if len(args) == 2 {
				if args[1] != "unaligned" {
					return fmt.Errorf("unknown mode %q", args[1])
				}
				unaligned = true
			}

			s := memscan.NewSelfScanner(memscan.WithThreads(selfThreads), memscan.WithUnaligned(unaligned))
			hits := s.Scan(v)

			fmt.Printf("%d hits, %s kernel, %d faulted pages\n", len(hits), s.Strategy(), s.Faults())
			for _, h := range hits {
				fmt.Printf("0x%X\n", h)
			}
			return nil
		},
	}
	selfCommand.Flags().IntVar(&selfThreads, "threads", 0, "Worker count (default: number of CPUs).")
	return selfCommand
}
