package driver

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// DiskInfo describes the inserted medium. Fields are only meaningful when the matching Valid
// flag is set.
type DiskInfo struct {
	Capacity       int64
	ManufacturerID msf.Msf
	RecSpeedLow    int
	RecSpeedHigh   int

	SessionCount   int
	LastTrackNr    int
	LastSessionLba int64
	ThisSessionLba int64

	DiskTocType toc.Type

	Empty  bool
	Append bool
	CDRW   bool

	Valid struct {
		Empty          bool
		Append         bool
		CDRW           bool
		Capacity       bool
		ManufacturerID bool
		RecSpeed       bool
	}
}

// DriveInfo holds the speeds of a drive in multiples of the audio speed and its capabilities.
type DriveInfo struct {
	MaxReadSpeed      int
	CurrentReadSpeed  int
	MaxWriteSpeed     int
	CurrentWriteSpeed int

	AccurateAudioStream bool
	TestWrite           bool
}

// CdToc is one entry of the formatted TOC. The lead-out has track number 0xAA.
type CdToc struct {
	Track  int
	Start  int64
	AdrCtl byte
}

// Ctl returns the control nibble.
func (c CdToc) Ctl() byte {
	return c.AdrCtl & 0x0f
}

// IsData reports whether the entry describes a data track.
func (c CdToc) IsData() bool {
	return c.AdrCtl&0x04 != 0
}

func (c CdToc) String() string {
	name := fmt.Sprintf("%2d", c.Track)
	if c.Track == consts.CD_LEADOUT_TRACK {
		name = "lead-out"
	}
	return fmt.Sprintf("%s %s (%d) adr/ctl=%02x", name, msf.FromLBA(c.Start).Absolute(), c.Start, c.AdrCtl)
}

// CdRawToc is one entry of the full TOC as read from the lead-in. Times are binary.
type CdRawToc struct {
	SessionNr int
	Point     int
	Min       int
	Sec       int
	Frame     int
	PMin      int
	PSec      int
	PFrame    int
	AdrCtl    byte
}

// Adr returns the ADR field.
func (c CdRawToc) Adr() int {
	return int(c.AdrCtl >> 4)
}

// PLba returns the position of the P time as LBA.
func (c CdRawToc) PLba() int64 {
	return msf.New(c.PMin, c.PSec, c.PFrame).LBA() - consts.CD_LBA_OFFSET
}

// TrackInfo accumulates what is known about one track while a disc is analyzed.
type TrackInfo struct {
	TrackNr int
	Ctl     byte
	Mode    trackdata.Mode
	// Start is the LBA of index 1.
	Start int64
	// Pregap is the pre-gap length of this track in blocks.
	Pregap int64
	// Fill is the number of unreadable blocks at the end of the track that are recorded as zero.
	Fill int64
	// Indices holds the index marks 2..n relative to Start.
	Indices      []msf.Msf
	Isrc         string
	Filename     string
	BytesWritten int64
}

// TrackAnalysis is the result of analyzing one track.
type TrackAnalysis struct {
	// Indices holds index marks relative to the track start.
	Indices []msf.Msf
	// Pregap is the pre-gap length of the following track.
	Pregap int64
	Isrc   string
	Ctl    byte
	// CtlValid is set when Ctl was read from the track's sub-channel.
	CtlValid bool
}

// CdTextPack is the 18 byte CD-TEXT pack as read from the lead-in.
type CdTextPack = cdtext.Pack

func speedToMultiple(kbs int) int {
	return (kbs + kbPerSpeed/2) / kbPerSpeed
}

func multipleToSpeed(mult int) int {
	if mult <= 0 {
		return 0xffff
	}
	return mult * kbPerSpeed
}

// kB/s of 1x audio speed.
const kbPerSpeed = 176
