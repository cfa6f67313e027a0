package toc

import (
	"errors"
	"fmt"
	"strings"
)

// Editor rejections. A rejected edit leaves the TOC unmodified.
var (
	ErrFirstTrackPregap      = errors.New("cannot move pre-gap of first track")
	ErrFirstTrackStart       = errors.New("cannot remove start of first track")
	ErrMarkerNotFound        = errors.New("track/index mark not found")
	ErrIllegalPosition       = errors.New("illegal position for track/index mark")
	ErrTrackTooShort         = errors.New("track would be shorter than 4 seconds")
	ErrPreviousTrackTooShort = errors.New("previous track would be shorter than 4 seconds")
	ErrCrossesMarker         = errors.New("cannot cross track/index marks")
	ErrDataTrack             = errors.New("cannot modify a data track")
	ErrOutOfRange            = errors.New("position outside of disc")
	ErrTooManyIndices        = errors.New("more than 98 index marks")
	ErrSpansTracks           = errors.New("sample range covers more than one track")
	ErrIllegalCatalog        = errors.New("catalog number must consist of 13 digits")
	ErrNoTrack               = errors.New("no such track")
)

// EditError describes a rejected editor operation. Fields that do not apply to the operation are
// zero, Lba is -1 when the operation takes no position.
type EditError struct {
	Op      string
	TrackNr int
	IndexNr int
	Lba     int64
	Err     error
}

func (e *EditError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.TrackNr > 0 {
		fmt.Fprintf(&b, " track %d", e.TrackNr)
	}
	if e.IndexNr >= 0 && e.TrackNr > 0 {
		fmt.Fprintf(&b, " index %d", e.IndexNr)
	}
	if e.Lba >= 0 {
		fmt.Fprintf(&b, " at lba %d", e.Lba)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *EditError) Unwrap() error {
	return e.Err
}

func markerError(op string, trackNr, indexNr int, lba int64, err error) error {
	return &EditError{Op: op, TrackNr: trackNr, IndexNr: indexNr, Lba: lba, Err: err}
}

func positionError(op string, lba int64, err error) error {
	return &EditError{Op: op, IndexNr: -1, Lba: lba, Err: err}
}
