package driver

import (
	"errors"
	"fmt"
)

var (
	ErrEndOfTrack           = errors.New("end of track reached")
	ErrReadError            = errors.New("read error")
	ErrLECError             = errors.New("L-EC error")
	ErrRetry                = errors.New("read may be retried")
	ErrInvalidState         = errors.New("operation not allowed in current recorder state")
	ErrSpeedNotSupported    = errors.New("writing speed not supported by drive")
	ErrSimulateNotSupported = errors.New("drive does not support simulation")
	ErrNoDriver             = errors.New("no driver found")
	ErrUnknownDriver        = errors.New("unknown driver id")
	ErrNoToc                = errors.New("no TOC found")
	ErrUnsupported          = errors.New("operation not supported by device")
	ErrTocCheck             = errors.New("TOC cannot be recorded")
	ErrShortTrackData       = errors.New("track data ended early")
	ErrPartialBlock         = errors.New("sample reader returned a partial block")
)

// ReadError is returned when reading blocks from the medium fails. Err is one of ErrEndOfTrack,
// ErrReadError or ErrLECError, or the transport error.
type ReadError struct {
	Lba int64
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read at lba %d failed: %v", e.Lba, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
