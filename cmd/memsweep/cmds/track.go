package cmds

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"memsweep/config"
	"memsweep/overlay"
	"memsweep/process"
	"memsweep/tracker"

	"github.com/spf13/cobra"
)

var (
	trackConfig       string
	trackLogSink      bool
	trackWriteDefault string
)

func newTrackCommand() *cobra.Command {
	trackCommand := &cobra.Command{
		Use:   "track",
		Short: "Follow scanned objects and draw them on a radar.",
		Long: `Scan the target for objects of the configured class, then every tick read
the camera transform and each object's position and draw the objects that
are in range on a terminal radar.

Objects whose identity bytes change are dropped. The command stops on
interrupt or when the camera can no longer be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if trackWriteDefault != "" {
				if err := config.Save(trackWriteDefault, config.Default()); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", trackWriteDefault)
				return nil
			}

			cfg := config.Default()
			if trackConfig != "" {
				var err error
				if cfg, err = config.Load(trackConfig); err != nil {
					return err
				}
			}
			if pid == 0 && name == "" {
				pid, name = cfg.PID, cfg.Process
			}

			p, err := openTarget()
			if err != nil {
				return err
			}
			defer p.Close()

			base, err := p.ModuleBase(cfg.Module)
			if err != nil {
				return err
			}
			fmt.Printf("%s at %s\n", cfg.Module, base.ToString())

			return runTracker(p, cfg.TrackerSettings(base))
		},
	}

	flags := trackCommand.Flags()
	flags.StringVarP(&trackConfig, "config", "c", "", "YAML configuration file.")
	flags.BoolVar(&trackLogSink, "log-sink", false, "Log frames instead of drawing the radar.")
	flags.StringVar(&trackWriteDefault, "write-default", "", "Write the default configuration to this file and exit.")
	return trackCommand
}

func runTracker(src process.MemorySource, settings tracker.Settings) error {
	t := tracker.New(src, settings)
	if t.Rescan() == 0 {
		return fmt.Errorf("no objects found")
	}

	var sink overlay.Sink
	if trackLogSink {
		sink = overlay.NewLogSink()
	} else {
		radar, err := overlay.NewTerminalRadar()
		if err != nil {
			return err
		}
		sink = radar
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return t.Run(ctx, sink)
}
