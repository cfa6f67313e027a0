package driver

import (
	"fmt"
	"sort"

	"github.com/bgrewell/cdr-kit/pkg/consts"
)

// Raw TOC points.
const (
	POINT_FIRST_TRACK = 0xA0
	POINT_LAST_TRACK  = 0xA1
	POINT_LEAD_OUT    = 0xA2
)

// GetToc builds the track list of a session from the raw TOC. The result is ordered by track and
// ends with the lead-out entry.
func GetToc(dev Device, session int) ([]CdToc, error) {
	raw, err := dev.RawToc(session)
	if err != nil {
		return nil, fmt.Errorf("cannot read raw TOC: %w", err)
	}

	var tracks []CdToc
	leadOut := CdToc{Track: -1}
	for _, e := range raw {
		if e.SessionNr != session || e.Adr() != 1 {
			continue
		}
		switch {
		case e.Point >= 1 && e.Point <= consts.CD_MAX_TRACKS:
			tracks = append(tracks, CdToc{Track: e.Point, Start: e.PLba(), AdrCtl: e.AdrCtl})
		case e.Point == POINT_LEAD_OUT:
			leadOut = CdToc{Track: consts.CD_LEADOUT_TRACK, Start: e.PLba(), AdrCtl: e.AdrCtl}
		}
	}
	if len(tracks) == 0 || leadOut.Track < 0 {
		return nil, fmt.Errorf("%w: session %d", ErrNoToc, session)
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Track < tracks[j].Track })
	return append(tracks, leadOut), nil
}

// GetTocGeneric reads the formatted TOC. It cannot distinguish sessions and returns the tracks
// of all sessions followed by the lead-out of the last one.
func GetTocGeneric(dev Device) ([]CdToc, error) {
	r, ok := dev.(FormattedTocReader)
	if !ok {
		return nil, fmt.Errorf("%w: formatted TOC", ErrUnsupported)
	}
	entries, err := r.FormattedToc()
	if err != nil {
		return nil, fmt.Errorf("cannot read TOC: %w", err)
	}
	if len(entries) < 2 || entries[len(entries)-1].Track != consts.CD_LEADOUT_TRACK {
		return nil, ErrNoToc
	}
	return entries, nil
}
