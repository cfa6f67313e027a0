package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bgrewell/cdr-kit/pkg/driver"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/spf13/cobra"
)

var (
	readSession  int
	readDataFile string
	readTocOnly  bool
	readFast     bool
	readRaw      bool
	readPregap   bool
	readAnalysis string
)

func analysisMethod(name string) (options.AnalysisMethod, error) {
	switch name {
	case "", "default":
		return options.ANALYSIS_DEFAULT, nil
	case "scan":
		return options.ANALYSIS_SCAN, nil
	case "search":
		return options.ANALYSIS_SEARCH, nil
	}
	return 0, fmt.Errorf("unknown analysis method %q, use scan or search", name)
}

// dataFileName derives the data file from the TOC file name: disc.toc becomes disc.bin.
func dataFileName(tocFile string) string {
	return strings.TrimSuffix(tocFile, filepath.Ext(tocFile)) + ".bin"
}

var readTocCmd = &cobra.Command{
	Use:   "read-toc [toc_file]",
	Short: "Reconstruct the TOC of a disc and copy its tracks",
	Long: `Reconstruct the TOC of a session from the disc's sub-channels and write it as a TOC file.

Unless --toc-only is given, the content of all tracks is copied to the data file, which defaults
to the TOC file name with the extension .bin. Audio tracks are analyzed for index marks, pre-gaps
and ISRC codes; data tracks are probed for their readable end.

Example:
  cdrkit read-toc -d /dev/sg1 disc.toc
  cdrkit read-toc --toc-only --fast disc.toc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tocFile := args[0]
		dataFile := readDataFile
		if dataFile == "" {
			dataFile = dataFileName(tocFile)
		}
		method, err := analysisMethod(readAnalysis)
		if err != nil {
			return err
		}

		d, err := openDriver()
		if err != nil {
			return err
		}
		defer d.Close()

		if method == options.ANALYSIS_DEFAULT {
			if _, ok := d.(driver.IndexLocator); ok {
				method = options.ANALYSIS_SEARCH
			}
		}

		spinner, err := newSpinner("Analyzing " + tocFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Progress updates will be disabled: %v\n", err)
		}
		opts := []options.Option{
			options.WithLogger(logger()),
			options.WithDriver(d.Name(), d.Options()),
			options.WithSession(readSession),
			options.WithFastTocReading(readFast),
			options.WithRawDataReading(readRaw),
			options.WithPadFirstPregap(!readPregap),
			options.WithAnalysis(method),
		}
		if spinner != nil {
			opts = append(opts, options.WithProgress(progressCallback(spinner, dataFile)))
		}
		o := options.Apply(opts...)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var t *toc.Toc
		if readTocOnly {
			t, err = driver.ReadDiskToc(d, readSession, dataFile, o)
		} else {
			t, err = driver.ReadDisk(ctx, d, readSession, dataFile, o)
		}
		if err != nil {
			stopSpinner(spinner, err, "")
			return err
		}
		err = t.WriteFile(tocFile)
		stopSpinner(spinner, err, fmt.Sprintf("%d tracks written to %s", t.TrackCount(), tocFile))
		return err
	},
}

func init() {
	rootCmd.AddCommand(readTocCmd)
	readTocCmd.Flags().IntVar(&readSession, "session", 1, "Session to read")
	readTocCmd.Flags().StringVar(&readDataFile, "datafile", "", "File receiving the track data")
	readTocCmd.Flags().BoolVar(&readTocOnly, "toc-only", false, "Only write the TOC file, do not copy track data")
	readTocCmd.Flags().BoolVar(&readFast, "fast", false, "Skip the pre-gap and index analysis of audio tracks")
	readTocCmd.Flags().BoolVar(&readRaw, "raw", false, "Read data tracks as raw 2352 byte blocks")
	readTocCmd.Flags().BoolVar(&readPregap, "read-pregap", false, "Read the pre-gap of the first track instead of padding it with silence")
	readTocCmd.Flags().StringVar(&readAnalysis, "analysis", "default", "Sub-channel analysis method: scan or search")
}
