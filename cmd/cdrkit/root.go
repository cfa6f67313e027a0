package main

import (
	"os"

	"github.com/bgrewell/cdr-kit"
	"github.com/bgrewell/cdr-kit/pkg/driver"
	"github.com/bgrewell/cdr-kit/pkg/logging"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	device    string
	verbosity int
	noColor   bool
	driverId  string
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "cdrkit",
	Short:   "Read and record audio and data CDs in disc-at-once mode",
	Version: version,
	Long: `cdrkit talks to CD recorders through the SCSI generic interface.

Examples:
  cdrkit drivers
  cdrkit disk-info -d /dev/sg1
  cdrkit read-toc -d /dev/sg1 disc.toc
  cdrkit read-toc --fast --datafile disc.bin disc.toc
  cdrkit cdtext -d /dev/sg1
  cdrkit blank --fast`,
	SilenceUsage: true,
}

// Execute runs the command line and exits with status 1 on errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&device, "device", "d", "/dev/sg0", "SCSI generic device of the recorder")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")
	rootCmd.PersistentFlags().StringVar(&driverId, "driver", "", "Use this driver instead of the one from the driver database")
}

func logger() logr.Logger {
	return logging.NewSimpleLogger(os.Stderr, verbosity, !noColor)
}

// openDriver opens the device with the logger and driver override of the command line.
func openDriver(opts ...options.Option) (driver.Driver, error) {
	opts = append([]options.Option{options.WithLogger(logger())}, opts...)
	if driverId != "" {
		opts = append(opts, options.WithDriver(driverId, 0))
	}
	return cdrkit.Open(device, opts...)
}
