// Package driver turns a TOC into the command sequence of a disc-at-once recording and recovers a
// TOC from a recorded disc. The vendor specific primitives are small capability interfaces; the
// analysis and TOC reconstruction algorithms are free functions working on top of them.
package driver

import (
	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/subchannel"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// Driver option flags as stored in the driver table.
const (
	OPT_DRV_GET_TOC_GENERIC   = 0x00010000
	OPT_DRV_SWAP_READ_SAMPLES = 0x00020000
	OPT_DRV_NO_PREGAP_READ    = 0x00040000
)

// Device is the set of read primitives the disc analysis needs.
type Device interface {
	// RawToc returns the full TOC entries of a session.
	RawToc(session int) ([]CdRawToc, error)
	// ReadSubChannels returns the Q sub-channel of count blocks starting at lba.
	ReadSubChannels(lba int64, count int) ([]*subchannel.Q, error)
	// ReadTrackData reads up to count blocks of the given mode into buf and returns the number
	// of blocks read. A short read at the end of a track returns ErrEndOfTrack.
	ReadTrackData(mode trackdata.Mode, lba int64, count int, buf []byte) (int, error)
	ReadIsrc(trackNr int) (string, error)
	ReadCatalog(startLba, endLba int64) (string, error)
	ReadCdTextPacks() ([]cdtext.Pack, error)
}

// IndexLocator is implemented by devices that can report the track and index of a single block
// directly. It enables the binary search analysis.
type IndexLocator interface {
	TrackIndex(lba int64) (trackNr, indexNr int, ctl byte, err error)
}

// FormattedTocReader is implemented by devices that can return the formatted (format 0) TOC.
type FormattedTocReader interface {
	FormattedToc() ([]CdToc, error)
}

// Writer is the set of vendor primitives of a disc-at-once recording. Callers go through a
// Recorder which enforces the order of the calls.
type Writer interface {
	// CheckToc reports whether the TOC can be recorded by this device.
	CheckToc(t *toc.Toc) error
	// InitDao prepares the recording without touching the medium.
	InitDao(t *toc.Toc) error
	// StartDao commits the medium to the session, e.g. by sending the cue sheet.
	StartDao() error
	// WriteData writes blocks blocks of buf starting at lba.
	WriteData(mode trackdata.Mode, lba int64, buf []byte, blocks int) error
	// FinishDao writes the lead-out and flushes the device cache.
	FinishDao() error
	// AbortDao leaves the device in a defined state. It may be called more than once.
	AbortDao() error
}

// SampleReader reads audio samples from the disc, typically with its own error recovery. A read
// failing with ErrRetry may be repeated.
type SampleReader interface {
	// ReadSamples reads 4 byte stereo samples starting at sample into buf and returns the number
	// of samples read.
	ReadSamples(sample uint64, buf []byte) (int, error)
}

// Driver is a complete driver for one recorder.
type Driver interface {
	Device
	Writer

	Name() string
	// Options returns the OPT_DRV_* flags the driver was created with.
	Options() uint32

	TestUnitReady() error
	StartStopUnit(start bool) error
	PreventMediumRemoval(lock bool) error
	RezeroUnit() error
	LoadUnload(unload bool) error
	FlushCache() error
	ReadCapacity() (int64, error)
	BlankDisk(fast bool) error

	DiskInfo() (*DiskInfo, error)
	DriveInfo() (*DriveInfo, error)
	SetSpeed(speed int) error

	// BlockSize returns the number of bytes per block WriteData expects for a mode.
	BlockSize(mode trackdata.Mode) int
	// AnalyzeTrack finds index marks, ISRC and the pre-gap of the next track.
	AnalyzeTrack(mode trackdata.Mode, trackNr int, startLba, endLba int64) (*TrackAnalysis, error)
	// ReadDiskToc reconstructs the TOC of a session. Audio is referenced in dataFile.
	ReadDiskToc(session int, dataFile string) (*toc.Toc, error)

	Close() error
}
