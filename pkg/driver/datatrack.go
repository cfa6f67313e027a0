package driver

import (
	"errors"
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/logging"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// Longest unreadable tail of a data track: run-out blocks plus the pre-gap of a following audio
// track.
const maxDataTrackGap = 3 * consts.CD_BLOCKS_PER_SECOND

// AnalyzeDataTrack determines the readable end of a data track. Data tracks often end a few
// blocks before the nominal end taken from the TOC, so reading starts at the last nominal block
// and moves backward until a block can be read. gap is the number of unreadable blocks, which is
// the pre-gap of the following track.
func AnalyzeDataTrack(dev Device, mode trackdata.Mode, trackNr int, startLba, endLba int64, log *logging.Logger) (readableEnd, gap int64, err error) {
	buf := make([]byte, consts.CD_AUDIO_BLOCK_LEN)
	limit := endLba - maxDataTrackGap
	if limit < startLba {
		limit = startLba
	}

	for lba := endLba - 1; lba >= limit; lba-- {
		n, rerr := dev.ReadTrackData(mode, lba, 1, buf)
		switch {
		case rerr == nil && n == 1:
			readableEnd, gap = lba+1, endLba-(lba+1)
			if gap > 0 {
				log.Debug("data track ends before nominal end", "track", trackNr, "lba", readableEnd, "gap", gap)
			}
			return readableEnd, gap, nil
		case rerr == nil, errors.Is(rerr, ErrEndOfTrack), errors.Is(rerr, ErrReadError), errors.Is(rerr, ErrLECError):
			log.Trace("unreadable block at end of data track", "track", trackNr, "lba", lba)
		default:
			return 0, 0, fmt.Errorf("cannot analyze data track %d: %w", trackNr, rerr)
		}
	}
	return 0, 0, fmt.Errorf("cannot find readable end of data track %d: %w", trackNr, &ReadError{Lba: limit, Err: ErrReadError})
}
