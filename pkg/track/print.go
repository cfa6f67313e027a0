package track

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// Print writes the track in TOC file syntax.
func (t *Track) Print(w io.Writer) error {
	pw := &printer{w: w}
	pw.printf("TRACK %s\n", t.mode)

	if !t.flags.CopyPermitted {
		pw.printf("NO ")
	}
	pw.printf("COPY\n")

	if t.IsAudio() {
		if !t.flags.PreEmphasis {
			pw.printf("NO ")
		}
		pw.printf("PRE_EMPHASIS\n")
		if t.flags.FourChannel {
			pw.printf("FOUR_CHANNEL_AUDIO\n")
		} else {
			pw.printf("TWO_CHANNEL_AUDIO\n")
		}
	}

	if t.isrc != "" {
		pw.printf("ISRC %q\n", t.isrc)
	}

	if t.cdtext.Len() > 0 && pw.err == nil {
		pw.err = t.cdtext.Print(w, "", false)
	}

	for _, s := range t.subTracks {
		printSubTrack(pw, s)
	}

	if t.start > 0 {
		pw.printf("START %s\n", t.start)
	}
	for _, idx := range t.indices {
		pw.printf("INDEX %s\n", idx)
	}
	return pw.err
}

func printSubTrack(pw *printer, s *trackdata.SubTrack) {
	if s.Mode().IsAudio() {
		length := audioLength(s.Length())
		switch s.Source() {
		case trackdata.SOURCE_ZERO:
			pw.printf("SILENCE %s\n", length)
		case trackdata.SOURCE_FILE:
			if s.SwapSamples() {
				pw.printf("FILE %q #%d 0 %s SWAP\n", s.Filename(), s.Offset(), length)
			} else {
				pw.printf("FILE %q #%d 0 %s\n", s.Filename(), s.Offset(), length)
			}
		default:
			pw.printf("// %s of in-memory audio data\n", length)
		}
		return
	}

	switch s.Source() {
	case trackdata.SOURCE_ZERO:
		pw.printf("ZERO %s %s\n", s.Mode(), msf.Msf(s.Blocks()))
	case trackdata.SOURCE_FILE:
		pw.printf("DATAFILE %q #%d %d\n", s.Filename(), s.Offset(), s.Length())
	default:
		pw.printf("// %d bytes of in-memory %s data\n", s.Length(), s.Mode())
	}
}

// audioLength prints whole blocks as m:s:f and anything else as a sample count.
func audioLength(samples uint64) string {
	if samples%consts.CD_SAMPLES_PER_BLOCK == 0 {
		return msf.FromSamples(samples).String()
	}
	return strconv.FormatUint(samples, 10)
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
