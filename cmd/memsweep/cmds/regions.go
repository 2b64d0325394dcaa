package cmds

import (
	"fmt"

	"memsweep/memscan"
	"memsweep/process/memory_map"

	"github.com/spf13/cobra"
)

var regionsAll bool

func newRegionsCommand() *cobra.Command {
	regionsCommand := &cobra.Command{
		Use:   "regions",
		Short: "List the memory regions of the target.",
		Long: `List the memory regions of the target in address order.

By default only committed regions are shown; --all includes holes and
reserved ranges.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openTarget()
			if err != nil {
				return err
			}
			defer p.Close()

			var committed, readable int
			var readableBytes uint64
			memscan.NewCatalog(p).Walk(func(r memory_map.MemoryRegion) bool {
				if r.Committed {
					committed++
				}
				if r.IsReadable() {
					readable++
					readableBytes += r.Size
				}
				if regionsAll || r.Committed {
					fmt.Println(r.String())
				}
				return true
			})

			fmt.Printf("%d committed regions, %d readable (%d bytes)\n", committed, readable, readableBytes)
			return nil
		},
	}
	regionsCommand.Flags().BoolVar(&regionsAll, "all", false, "Include uncommitted ranges.")
	return regionsCommand
}
