package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/theckman/yacspin"
	"golang.org/x/term"
)

// truncateString shortens input to maxLength, keeping its end and prepending "...".
func truncateString(input string, maxLength int) string {
	if len(input) <= maxLength {
		return input
	}
	if maxLength <= 3 {
		return input[len(input)-maxLength:]
	}
	return "..." + input[len(input)-(maxLength-3):]
}

// newSpinner creates and starts the progress spinner.
func newSpinner(message string) (*yacspin.Spinner, error) {
	settings := yacspin.Config{
		Frequency:         100 * time.Millisecond,
		ShowCursor:        false,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " ",
		Message:           message,
		Colors:            []string{"fgHiCyan"},
		StopColors:        []string{"fgHiGreen"},
		StopFailColors:    []string{"fgHiRed"},
		StopFailCharacter: "✗",
		StopCharacter:     "✓",
	}
	spinner, err := yacspin.New(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create spinner: %w", err)
	}
	if err := spinner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start spinner: %w", err)
	}
	return spinner, nil
}

// progressCallback shows the track and the percentage of the blocks done in the spinner message.
// The label is shortened to the terminal width.
func progressCallback(spinner *yacspin.Spinner, label string) options.ProgressCallback {
	return func(trackNr, totalTracks int, done, total int64) {
		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			width = 80
		}

		percent := 100.0
		if total > 0 {
			percent = float64(done) / float64(total) * 100
		}
		prefix := fmt.Sprintf("[%d/%d] ", trackNr, totalTracks)
		suffix := fmt.Sprintf(" - %.2f%%", percent)

		available := width - len(prefix) - len(suffix) - 6
		if available < 10 {
			available = 10
		}
		spinner.Message(prefix + truncateString(label, available) + suffix)
	}
}

// stopSpinner ends the spinner with a success or failure message.
func stopSpinner(spinner *yacspin.Spinner, err error, message string) {
	if spinner == nil {
		return
	}
	if err != nil {
		spinner.StopFailMessage(fmt.Sprintf(" %v", err))
		spinner.StopFail()
		return
	}
	spinner.StopMessage(" " + message)
	spinner.Stop()
}
