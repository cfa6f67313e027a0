// Package scsi implements the command surface of MMC class recorders: CDB builders, sense
// decoding, inquiry and mode page helpers and a Linux SG_IO transport.
package scsi

import (
	"errors"
	"fmt"
)

// Transport sends a single command to a device and blocks until it completed. At most one of
// out (data sent to the device) and in (data received) is non-empty.
type Transport interface {
	SendCmd(cdb, out, in []byte) error
	Close() error
}

var (
	ErrUnsupportedPlatform = errors.New("SCSI pass-through is not supported on this platform")
	ErrShortResponse       = errors.New("short SCSI response")
)

// Sense keys.
const (
	SENSE_NO_SENSE        = 0x0
	SENSE_RECOVERED_ERROR = 0x1
	SENSE_NOT_READY       = 0x2
	SENSE_MEDIUM_ERROR    = 0x3
	SENSE_HARDWARE_ERROR  = 0x4
	SENSE_ILLEGAL_REQUEST = 0x5
	SENSE_UNIT_ATTENTION  = 0x6
	SENSE_DATA_PROTECT    = 0x7
	SENSE_BLANK_CHECK     = 0x8
	SENSE_ABORTED_COMMAND = 0xB
)

var senseKeyNames = map[byte]string{
	SENSE_NO_SENSE:        "no sense",
	SENSE_RECOVERED_ERROR: "recovered error",
	SENSE_NOT_READY:       "not ready",
	SENSE_MEDIUM_ERROR:    "medium error",
	SENSE_HARDWARE_ERROR:  "hardware error",
	SENSE_ILLEGAL_REQUEST: "illegal request",
	SENSE_UNIT_ATTENTION:  "unit attention",
	SENSE_DATA_PROTECT:    "data protect",
	SENSE_BLANK_CHECK:     "blank check",
	SENSE_ABORTED_COMMAND: "aborted command",
}

// Additional sense codes the drivers act on.
const (
	ASC_LOGICAL_BLOCK_OUT_OF_RANGE = 0x21
	ASC_ILLEGAL_MODE_FOR_TRACK     = 0x64
	ASC_UNRECOVERED_READ_ERROR     = 0x11
	ASC_LEC_UNCORRECTABLE_ASCQ     = 0x05
	ASC_MEDIUM_NOT_PRESENT         = 0x3A
	ASC_BECOMING_READY             = 0x04
)

// CommandError is returned by a transport when the device finished a command with a CHECK
// CONDITION or another non-good status.
type CommandError struct {
	Op       byte
	Status   byte
	SenseKey byte
	ASC      byte
	ASCQ     byte
}

func (e *CommandError) Error() string {
	name, ok := senseKeyNames[e.SenseKey]
	if !ok {
		name = fmt.Sprintf("sense key 0x%x", e.SenseKey)
	}
	return fmt.Sprintf("SCSI command 0x%02x failed: status 0x%02x, %s, ASC 0x%02x, ASCQ 0x%02x",
		e.Op, e.Status, name, e.ASC, e.ASCQ)
}

// NotReady reports whether the unit is still becoming ready, e.g. while blanking or flushing.
func (e *CommandError) NotReady() bool {
	return e.SenseKey == SENSE_NOT_READY && e.ASC == ASC_BECOMING_READY
}

// NoMedium reports whether the command failed because the tray is empty.
func (e *CommandError) NoMedium() bool {
	return e.SenseKey == SENSE_NOT_READY && e.ASC == ASC_MEDIUM_NOT_PRESENT
}

// OutOfRange reports whether a read addressed a block beyond the end of the medium or track.
func (e *CommandError) OutOfRange() bool {
	return e.SenseKey == SENSE_ILLEGAL_REQUEST && (e.ASC == ASC_LOGICAL_BLOCK_OUT_OF_RANGE || e.ASC == ASC_ILLEGAL_MODE_FOR_TRACK)
}

// MediumError reports an unrecovered read error.
func (e *CommandError) MediumError() bool {
	return e.SenseKey == SENSE_MEDIUM_ERROR
}

// LECError reports an L-EC uncorrectable error.
func (e *CommandError) LECError() bool {
	return e.SenseKey == SENSE_MEDIUM_ERROR && e.ASC == ASC_UNRECOVERED_READ_ERROR && e.ASCQ == ASC_LEC_UNCORRECTABLE_ASCQ
}

// ParseSense fills a CommandError from fixed (0x70/0x71) or descriptor (0x72/0x73) format
// sense data.
func ParseSense(op, status byte, sense []byte) *CommandError {
	e := &CommandError{Op: op, Status: status}
	if len(sense) == 0 {
		return e
	}
	switch sense[0] & 0x7f {
	case 0x70, 0x71:
		if len(sense) > 2 {
			e.SenseKey = sense[2] & 0x0f
		}
		if len(sense) > 13 {
			e.ASC, e.ASCQ = sense[12], sense[13]
		}
	case 0x72, 0x73:
		if len(sense) > 3 {
			e.SenseKey = sense[1] & 0x0f
			e.ASC, e.ASCQ = sense[2], sense[3]
		}
	}
	return e
}

// AsCommandError returns the CommandError wrapped in err, if any.
func AsCommandError(err error) (*CommandError, bool) {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
