package driver

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/subchannel"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/bgrewell/cdr-kit/pkg/track"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// BuildToc creates a TOC from the track records of an analyzed session. The last record must be
// the lead-out (track number 0xAA), its Start marks the end of the session.
//
// Tracks with a Filename reference their content in that file. The file holds the tracks
// back to back; with padFirstPregap the pre-gap of the first track is not part of the file and
// is recorded as silence. Tracks without a Filename are silence or zero sectors.
func BuildToc(infos []TrackInfo, padFirstPregap bool) (*toc.Toc, error) {
	if len(infos) < 2 || infos[len(infos)-1].TrackNr != consts.CD_LEADOUT_TRACK {
		return nil, fmt.Errorf("%w: track list must end with the lead-out", ErrNoToc)
	}

	t := toc.New()
	tocType := toc.CD_DA
	var offset int64

	for i := 0; i < len(infos)-1; i++ {
		ti, next := infos[i], infos[i+1]
		body := next.Start - next.Pregap - ti.Start
		if body <= 0 {
			return nil, fmt.Errorf("track %d has no content (start %d, end %d)", ti.TrackNr, ti.Start, next.Start-next.Pregap)
		}

		tr := track.New(ti.Mode)
		tr.SetFlags(trackFlags(ti))

		bl := int64(ti.Mode.BlockLen())
		readable := body - ti.Fill
		if !ti.Mode.IsAudio() && ti.BytesWritten > 0 && ti.BytesWritten/bl < readable {
			readable = ti.BytesWritten / bl
		}

		if ti.Pregap > 0 {
			var span *trackdata.TrackData
			switch {
			case !ti.Mode.IsAudio():
				span = trackdata.NewZero(ti.Mode, uint64(ti.Pregap*bl))
			case ti.Filename == "" || (i == 0 && padFirstPregap):
				span = trackdata.NewSilence(uint64(ti.Pregap * consts.CD_SAMPLES_PER_BLOCK))
			default:
				span = trackdata.NewFile(ti.Mode, ti.Filename, offset, uint64(ti.Pregap*consts.CD_SAMPLES_PER_BLOCK))
				offset += span.ByteLength()
			}
			if err := tr.AppendData(span); err != nil {
				return nil, fmt.Errorf("track %d: %w", ti.TrackNr, err)
			}
		}

		if readable > 0 {
			var span *trackdata.TrackData
			switch {
			case ti.Filename == "":
				span = zeroSpan(ti.Mode, readable)
			case ti.Mode.IsAudio():
				span = trackdata.NewFile(ti.Mode, ti.Filename, offset, uint64(readable*consts.CD_SAMPLES_PER_BLOCK))
			default:
				span = trackdata.NewFile(ti.Mode, ti.Filename, offset, uint64(readable*bl))
			}
			if ti.Filename != "" {
				offset += span.ByteLength()
			}
			if err := tr.AppendData(span); err != nil {
				return nil, fmt.Errorf("track %d: %w", ti.TrackNr, err)
			}
		}
		if fill := body - readable; fill > 0 {
			if err := tr.AppendData(zeroSpan(ti.Mode, fill)); err != nil {
				return nil, fmt.Errorf("track %d: %w", ti.TrackNr, err)
			}
		}

		if err := tr.SetStart(msf.Msf(ti.Pregap)); err != nil {
			return nil, fmt.Errorf("track %d: %w", ti.TrackNr, err)
		}
		if err := tr.SetIndices(ti.Indices); err != nil {
			return nil, fmt.Errorf("track %d: %w", ti.TrackNr, err)
		}
		if ti.Isrc != "" && track.ValidIsrc(ti.Isrc) {
			if err := tr.SetIsrc(ti.Isrc); err != nil {
				return nil, fmt.Errorf("track %d: %w", ti.TrackNr, err)
			}
		}

		switch {
		case ti.Mode.IsXA() || ti.Mode == trackdata.MODE2 || ti.Mode == trackdata.MODE2_RAW:
			tocType = toc.CD_ROM_XA
		case !ti.Mode.IsAudio() && tocType == toc.CD_DA:
			tocType = toc.CD_ROM
		}
		t.Append(tr)
	}

	t.SetType(tocType)
	return t, nil
}

func trackFlags(ti TrackInfo) track.Flags {
	f := track.Flags{CopyPermitted: ti.Ctl&subchannel.CTL_COPY != 0}
	if ti.Mode.IsAudio() {
		f.PreEmphasis = ti.Ctl&subchannel.CTL_PRE_EMPHASIS != 0
		f.FourChannel = ti.Ctl&subchannel.CTL_FOUR_CHANNEL != 0
	}
	return f
}

func zeroSpan(mode trackdata.Mode, blocks int64) *trackdata.TrackData {
	if mode.IsAudio() {
		return trackdata.NewSilence(uint64(blocks * consts.CD_SAMPLES_PER_BLOCK))
	}
	return trackdata.NewZero(mode, uint64(blocks*int64(mode.BlockLen())))
}
