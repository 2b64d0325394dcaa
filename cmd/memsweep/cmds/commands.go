// Package cmds implements the memsweep command line.
package cmds

import (
	"errors"
	"fmt"

	"memsweep/process"

	"github.com/spf13/cobra"
)

var (
	// pid and name select the target process for every live command.
	pid  int
	name string
)

const memsweepCommandLongDesc = `memsweep finds values in the memory of a running process.

It enumerates the target's address space, scans it for byte patterns in
bounded chunks, and can follow the objects it finds, projecting their world
positions onto a screen-sized radar.

Values are decimal unless they carry a 0x prefix or contain a hex letter.`

// New returns an initialized command tree.
func New() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "memsweep",
		Short:         "memsweep scans process memory for values.",
		Long:          memsweepCommandLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCommand.PersistentFlags().IntVarP(&pid, "pid", "p", 0, "Target process ID.")
	rootCommand.PersistentFlags().StringVarP(&name, "name", "n", "", "Target process name (lowest PID wins).")

	rootCommand.AddCommand(newRegionsCommand())
	rootCommand.AddCommand(newScanCommand())
	rootCommand.AddCommand(newSelfCommand())
	rootCommand.AddCommand(newDumpCommand())
	rootCommand.AddCommand(newTrackCommand())

	return rootCommand
}

// openTarget opens the process selected by --pid or --name.
func openTarget() (process.Process, error) {
	if pid == 0 && name == "" {
		return nil, errors.New("you must specify --pid or --name")
	}
	p, err := openProcess(process.ProcessID(pid), name)
	if err != nil {
		return nil, fmt.Errorf("unable to open target: %w", err)
	}
	return p, nil
}
