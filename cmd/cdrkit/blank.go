package main

import (
	"github.com/spf13/cobra"
)

var blankFast bool

var blankCmd = &cobra.Command{
	Use:   "blank",
	Short: "Blank a CD-RW",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDriver()
		if err != nil {
			return err
		}
		defer d.Close()

		spinner, _ := newSpinner("Blanking medium")
		err = d.BlankDisk(blankFast)
		stopSpinner(spinner, err, "Medium blanked")
		return err
	},
}

func init() {
	rootCmd.AddCommand(blankCmd)
	blankCmd.Flags().BoolVar(&blankFast, "fast", false, "Only blank the PMA, TOC and pre-gap of the first track")
}
