package toc

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/bgrewell/cdr-kit/pkg/consts"
)

// Print writes the TOC in TOC file syntax.
func (t *Toc) Print(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n", t.tocType)
	if t.catalog != "" {
		fmt.Fprintf(bw, "CATALOG %q\n", t.catalog)
	}
	if t.cdtext.Len() > 0 || t.hasLanguages() {
		if err := t.cdtext.Print(bw, "", true); err != nil {
			return err
		}
	}
	for _, e := range t.entries {
		fmt.Fprintf(bw, "\n// Track %d\n", e.trackNr)
		if err := e.track.Print(bw); err != nil {
			return err
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

func (t *Toc) hasLanguages() bool {
	for b := 0; b < consts.CDTEXT_MAX_BLOCKS; b++ {
		if t.cdtext.Language(b) >= 0 {
			return true
		}
	}
	return false
}

// WriteFile writes the TOC file to disk.
func (t *Toc) WriteFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("cannot open file %q for writing: %w", name, err)
	}
	if err := t.Print(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %q: %w", name, err)
	}
	return f.Close()
}
