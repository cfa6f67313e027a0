package driver

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/scsi"
	"github.com/bgrewell/cdr-kit/pkg/subchannel"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// Blocks read when locating the position of a single block; ISRC and catalog frames in between
// carry no position.
const locateBlocks = 3

// Plextor is the generic MMC driver for Plextor drives, which deliver the sub-channel of single
// blocks reliably. Track analysis defaults to the binary search.
type Plextor struct {
	*GenericMMC
}

// NewPlextor creates a Plextor driver talking to t.
func NewPlextor(t scsi.Transport, driverOptions uint32, opts ...options.Option) *Plextor {
	d := &Plextor{GenericMMC: NewGenericMMC(t, driverOptions, opts...)}
	d.name = "plextor"
	if d.opts.Analysis == options.ANALYSIS_DEFAULT {
		d.opts.Analysis = options.ANALYSIS_SEARCH
	}
	return d
}

// TrackIndex returns track, index and control nibble of the block at lba.
func (d *Plextor) TrackIndex(lba int64) (int, int, byte, error) {
	subs, err := d.ReadSubChannels(lba, locateBlocks)
	if err != nil {
		return 0, 0, 0, err
	}
	for _, q := range subs {
		if q != nil && q.Adr == subchannel.ADR_POSITION && q.CRCValid {
			return q.Track, q.Index, q.Ctl, nil
		}
	}
	return 0, 0, 0, &ReadError{Lba: lba, Err: fmt.Errorf("%w: no position in sub-channel", ErrReadError)}
}

// AnalyzeTrack runs the analysis with the driver as IndexLocator.
func (d *Plextor) AnalyzeTrack(mode trackdata.Mode, trackNr int, startLba, endLba int64) (*TrackAnalysis, error) {
	return AnalyzeTrack(d, d.opts.Analysis, mode, trackNr, startLba, endLba, d.log)
}

// ReadDiskToc reconstructs the TOC of a session using the binary search analysis.
func (d *Plextor) ReadDiskToc(session int, dataFile string) (*toc.Toc, error) {
	o := *d.opts
	o.DriverOptions = d.flags
	return ReadDiskToc(d, session, dataFile, &o)
}
