package driver

import (
	"errors"
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/logging"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/subchannel"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

const (
	// Number of sub-channels requested per read while scanning.
	scanChunk = 75
	// Blocks scanned for the media catalog number when the drive does not report it.
	catalogScanBlocks = 100
)

// AnalyzeTrack selects the analysis method and runs it. The binary search is only used when the
// device implements IndexLocator, otherwise the linear scan is used. Data tracks are analyzed with
// AnalyzeDataTrack, the unreadable tail is reported as Pregap.
func AnalyzeTrack(dev Device, method options.AnalysisMethod, mode trackdata.Mode, trackNr int,
	startLba, endLba int64, log *logging.Logger) (*TrackAnalysis, error) {
	if !mode.IsAudio() {
		_, gap, err := AnalyzeDataTrack(dev, mode, trackNr, startLba, endLba, log)
		if err != nil {
			return nil, err
		}
		return &TrackAnalysis{Pregap: gap, Ctl: subchannel.CTL_DATA}, nil
	}
	if method == options.ANALYSIS_SEARCH {
		if loc, ok := dev.(IndexLocator); ok {
			return AnalyzeTrackSearch(dev, loc, trackNr, startLba, endLba, log)
		}
		log.Info("device cannot locate indices, falling back to linear scan", "track", trackNr)
	}
	return AnalyzeTrackScan(dev, trackNr, startLba, endLba, log)
}

// AnalyzeTrackScan reads the Q sub-channel of every block in [startLba, endLba) and records index
// transitions, the ISRC and the start of the next track's pre-gap.
func AnalyzeTrackScan(dev Device, trackNr int, startLba, endLba int64, log *logging.Logger) (*TrackAnalysis, error) {
	res := &TrackAnalysis{}
	actIndex := 1
	pregapStart := int64(-1)

	for lba := startLba; lba < endLba; {
		n := int(endLba - lba)
		if n > scanChunk {
			n = scanChunk
		}
		subs, err := dev.ReadSubChannels(lba, n)
		if err != nil {
			return nil, fmt.Errorf("cannot read sub-channels of track %d at lba %d: %w", trackNr, lba, err)
		}
		if len(subs) == 0 {
			return nil, &ReadError{Lba: lba, Err: ErrEndOfTrack}
		}

		for i, q := range subs {
			if q == nil || !q.CRCValid {
				continue
			}
			pos := lba + int64(i)
			if q.Adr == subchannel.ADR_POSITION {
				// the drive may deliver sub-channels slightly off the requested address
				pos = q.Absolute.LBA()
			}

			switch q.Adr {
			case subchannel.ADR_POSITION:
				if !res.CtlValid && q.Track == trackNr {
					res.Ctl = q.Ctl
					res.CtlValid = true
				}
				if q.Track == trackNr && q.Index > actIndex {
					for idx := actIndex + 1; idx <= q.Index; idx++ {
						if idx < q.Index {
							log.Info("skipped index mark", "track", trackNr, "index", idx)
							continue
						}
						res.Indices = append(res.Indices, msf.Msf(pos-startLba))
						log.Debug("found index mark", "track", trackNr, "index", idx, "lba", pos)
					}
					actIndex = q.Index
				} else if q.Track == trackNr+1 && q.Index == 0 && pregapStart < 0 {
					pregapStart = pos
					log.Debug("found pre-gap of next track", "track", trackNr+1, "lba", pos)
				}
			case subchannel.ADR_ISRC:
				if res.Isrc == "" && q.Isrc != "" {
					res.Isrc = q.Isrc
				}
			}
		}
		lba += int64(len(subs))
	}

	if pregapStart >= 0 {
		res.Pregap = endLba - pregapStart
	}
	return res, nil
}

// AnalyzeTrackSearch finds index transitions with FindIndex. The ISRC is read with ReadIsrc.
func AnalyzeTrackSearch(dev Device, loc IndexLocator, trackNr int, startLba, endLba int64, log *logging.Logger) (*TrackAnalysis, error) {
	res := &TrackAnalysis{}

	_, _, ctl, err := loc.TrackIndex(startLba)
	if err != nil {
		return nil, fmt.Errorf("cannot read control nibble of track %d: %w", trackNr, err)
	}
	res.Ctl, res.CtlValid = ctl, true

	searchEnd := endLba
	if lba, err := FindIndex(loc, trackNr+1, 0, startLba, endLba); err != nil {
		return nil, err
	} else if lba >= 0 {
		res.Pregap = endLba - lba
		searchEnd = lba
		log.Debug("found pre-gap of next track", "track", trackNr+1, "lba", lba)
	}

	from := startLba
	for idx := 2; idx <= consts.CD_MAX_INDEX_MARKS+1; idx++ {
		lba, err := FindIndex(loc, trackNr, idx, from, searchEnd)
		if err != nil {
			return nil, err
		}
		if lba < 0 {
			break
		}
		res.Indices = append(res.Indices, msf.Msf(lba-startLba))
		log.Debug("found index mark", "track", trackNr, "index", idx, "lba", lba)
		from = lba
	}

	isrc, err := dev.ReadIsrc(trackNr)
	if err != nil {
		log.Info("cannot read ISRC", "track", trackNr, "error", err)
	} else {
		res.Isrc = isrc
	}
	return res, nil
}

// FindIndex returns the first block in [trackStart, trackEnd) where track trackNr is at index
// indexNr, or -1 if the index does not occur. Blocks are assumed to be ordered by track and index.
func FindIndex(loc IndexLocator, trackNr, indexNr int, trackStart, trackEnd int64) (int64, error) {
	lo, hi := trackStart, trackEnd
	for lo < hi {
		mid := lo + (hi-lo)/2
		t, i, _, err := loc.TrackIndex(mid)
		if err != nil {
			return -1, fmt.Errorf("cannot locate index at lba %d: %w", mid, err)
		}
		if t > trackNr || (t == trackNr && i >= indexNr) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo >= trackEnd {
		return -1, nil
	}
	t, i, _, err := loc.TrackIndex(lo)
	if err != nil {
		return -1, fmt.Errorf("cannot locate index at lba %d: %w", lo, err)
	}
	if t != trackNr || i != indexNr {
		return -1, nil
	}
	return lo, nil
}

// ReadCatalogScan looks for an ADR 2 sub-channel in [startLba, endLba) and returns the media
// catalog number, or an empty string if none was found.
func ReadCatalogScan(dev Device, startLba, endLba int64) (string, error) {
	if endLba-startLba > catalogScanBlocks {
		endLba = startLba + catalogScanBlocks
	}
	for lba := startLba; lba < endLba; {
		n := int(endLba - lba)
		if n > scanChunk {
			n = scanChunk
		}
		subs, err := dev.ReadSubChannels(lba, n)
		if err != nil {
			if errors.Is(err, ErrEndOfTrack) {
				break
			}
			return "", fmt.Errorf("cannot scan for catalog number: %w", err)
		}
		if len(subs) == 0 {
			break
		}
		for _, q := range subs {
			if q != nil && q.Adr == subchannel.ADR_CATALOG && q.CRCValid && q.Catalog != "" {
				return q.Catalog, nil
			}
		}
		lba += int64(len(subs))
	}
	return "", nil
}
