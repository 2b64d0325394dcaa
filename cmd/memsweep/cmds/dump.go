package cmds

import (
	"errors"
	"fmt"

	"memsweep/process_blob"

	"github.com/spf13/cobra"
)

var dumpOutput string

func newDumpCommand() *cobra.Command {
	dumpCommand := &cobra.Command{
		Use:   "dump",
		Short: "Save the readable memory of the target to a directory.",
		Long: `Save every readable region of the target to a directory so it can be
scanned later with 'memsweep scan --dump'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dumpOutput == "" {
				return errors.New("you must specify --output")
			}

			p, err := openTarget()
			if err != nil {
				return err
			}
			defer p.Close()

			regions, err := p.GetMemoryMap()
			if err != nil {
				return err
			}

			n, err := process_blob.Save(dumpOutput, process_blob.Metadata{PID: p.GetPID(), Name: name}, p, regions)
			if err != nil {
				return err
			}
			fmt.Printf("saved %d regions to %s\n", n, dumpOutput)
			return nil
		},
	}
	dumpCommand.Flags().StringVarP(&dumpOutput, "output", "o", "", "Output directory.")
	return dumpCommand
}
