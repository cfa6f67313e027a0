package main

import (
	"fmt"
	"strings"

	"github.com/bgrewell/cdr-kit/pkg/driver"
	"github.com/spf13/cobra"
)

var driversWrite bool

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List the available drivers and the driver database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Drivers: %s\n\n", strings.Join(driver.DriverIds(), ", "))

		table, name := driver.TABLE_READ, "read"
		if driversWrite {
			table, name = driver.TABLE_WRITE, "write"
		}
		entries, err := driver.DriverTable(table)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-10s %-18s %-12s %s\n", "VENDOR", "MODEL", "DRIVER", "OPTIONS")
		for _, e := range entries {
			fmt.Fprintf(out, "%-10s %-18s %-12s %s\n", e.Vendor, e.Model, e.Driver, strings.Join(e.Options, ","))
		}
		fmt.Fprintf(out, "\n%d %s entries\n", len(entries), name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(driversCmd)
	driversCmd.Flags().BoolVarP(&driversWrite, "write", "w", false, "Show the write table instead of the read table")
}
