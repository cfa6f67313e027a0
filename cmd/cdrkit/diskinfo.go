package main

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/spf13/cobra"
)

var diskInfoCmd = &cobra.Command{
	Use:   "disk-info",
	Short: "Show drive capabilities and the state of the inserted medium",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDriver()
		if err != nil {
			return err
		}
		defer d.Close()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Driver:           %s (options 0x%x)\n", d.Name(), d.Options())
		drive, err := d.DriveInfo()
		if err != nil {
			return fmt.Errorf("cannot read drive capabilities: %w", err)
		}
		fmt.Fprintf(out, "Read speed:       %dx (max %dx)\n", drive.CurrentReadSpeed, drive.MaxReadSpeed)
		fmt.Fprintf(out, "Write speed:      %dx (max %dx)\n", drive.CurrentWriteSpeed, drive.MaxWriteSpeed)
		fmt.Fprintf(out, "Simulation:       %t\n", drive.TestWrite)

		disk, err := d.DiskInfo()
		if err != nil {
			return fmt.Errorf("cannot read disk information: %w", err)
		}
		if disk.Valid.CDRW {
			fmt.Fprintf(out, "CD-RW:            %t\n", disk.CDRW)
		}
		if disk.Valid.Empty {
			fmt.Fprintf(out, "Empty:            %t\n", disk.Empty)
		}
		if disk.Valid.Append {
			fmt.Fprintf(out, "Appendable:       %t\n", disk.Append)
		}
		if disk.Valid.Capacity {
			fmt.Fprintf(out, "Capacity:         %s\n", msf.Msf(disk.Capacity))
		}
		if disk.Valid.ManufacturerID {
			fmt.Fprintf(out, "Manufacturer ID:  %s\n", disk.ManufacturerID)
		}
		if disk.Valid.RecSpeed {
			fmt.Fprintf(out, "Recording speed:  %dx - %dx\n", disk.RecSpeedLow, disk.RecSpeedHigh)
		}
		fmt.Fprintf(out, "Sessions:         %d\n", disk.SessionCount)
		fmt.Fprintf(out, "Last track:       %d\n", disk.LastTrackNr)
		fmt.Fprintf(out, "Last session:     %s\n", msf.FromLBA(disk.LastSessionLba))
		fmt.Fprintf(out, "Disk type:        %s\n", disk.DiskTocType)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diskInfoCmd)
}
