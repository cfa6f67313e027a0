package driver

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// XA sub-mode bits.
const (
	SUBMODE_VIDEO = 0x02
	SUBMODE_AUDIO = 0x04
	SUBMODE_DATA  = 0x08
	SUBMODE_FORM2 = 0x20
)

// DetermineSectorMode classifies a sector from its 4 byte header, followed by the XA sub-header
// for mode 2 sectors. A header with an illegal mode byte yields MODE0.
func DetermineSectorMode(buf []byte) trackdata.Mode {
	if len(buf) < consts.CD_HEADER_LEN {
		return trackdata.MODE0
	}
	switch buf[3] {
	case 1:
		return trackdata.MODE1
	case 2:
		if len(buf) < consts.CD_HEADER_LEN+consts.CD_SUBHEADER_LEN {
			return trackdata.MODE2
		}
		return AnalyzeSubHeader(buf[consts.CD_HEADER_LEN : consts.CD_HEADER_LEN+consts.CD_SUBHEADER_LEN])
	}
	return trackdata.MODE0
}

// AnalyzeSubHeader tells MODE2, MODE2_FORM1 and MODE2_FORM2 sectors apart. An XA sub-header
// carries its four bytes twice; when the copies differ the sector is a formless MODE2 sector.
func AnalyzeSubHeader(sh []byte) trackdata.Mode {
	if len(sh) < consts.CD_SUBHEADER_LEN {
		return trackdata.MODE2
	}
	for i := 0; i < 4; i++ {
		if sh[i] != sh[i+4] {
			return trackdata.MODE2
		}
	}
	submode := sh[2]
	if submode&SUBMODE_FORM2 != 0 {
		return trackdata.MODE2_FORM2
	}
	if submode&(SUBMODE_DATA|SUBMODE_AUDIO|SUBMODE_VIDEO) != 0 || submode == 0 {
		return trackdata.MODE2_FORM1
	}
	return trackdata.MODE2
}

// GetTrackMode reads the first sector of a data track raw and determines its mode.
func GetTrackMode(dev Device, lba int64) (trackdata.Mode, error) {
	buf := make([]byte, consts.CD_AUDIO_BLOCK_LEN)
	n, err := dev.ReadTrackData(trackdata.MODE2_RAW, lba, 1, buf)
	if err != nil {
		return trackdata.MODE0, fmt.Errorf("cannot read sector header at lba %d: %w", lba, err)
	}
	if n != 1 {
		return trackdata.MODE0, &ReadError{Lba: lba, Err: ErrEndOfTrack}
	}
	return DetermineSectorMode(buf[consts.CD_SYNC_LEN:]), nil
}
