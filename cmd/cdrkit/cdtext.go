package main

import (
	"fmt"
	"sort"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/spf13/cobra"
)

var cdTextCmd = &cobra.Command{
	Use:   "cdtext",
	Short: "Print the CD-TEXT of the inserted disc",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDriver()
		if err != nil {
			return err
		}
		defer d.Close()

		packs, err := d.ReadCdTextPacks()
		if err != nil {
			return fmt.Errorf("cannot read CD-TEXT: %w", err)
		}
		if len(packs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No CD-TEXT found")
			return nil
		}
		return printCdText(cmd, cdtext.Decode(packs))
	},
}

func printCdText(cmd *cobra.Command, decoded *cdtext.Decoded) error {
	out := cmd.OutOrStdout()
	for _, e := range decoded.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", e)
	}
	if err := decoded.Disc.Print(out, "", true); err != nil {
		return err
	}

	tracks := make([]int, 0, len(decoded.Tracks))
	for n := range decoded.Tracks {
		tracks = append(tracks, n)
	}
	sort.Ints(tracks)
	for _, n := range tracks {
		fmt.Fprintf(out, "\n// Track %d\n", n)
		if err := decoded.Tracks[n].Print(out, "", false); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(cdTextCmd)
}
