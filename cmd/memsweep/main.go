package main

import (
	"os"

	"memsweep/cmd/memsweep/cmds"
)

func main() {
	if err := cmds.New().Execute(); err != nil {
		os.Exit(1)
	}
}
