package driver

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/logging"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/scsi"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

const (
	discInfoLen = 34
	atipLen     = 28
	// Polls of TEST UNIT READY before giving up on a busy drive.
	maxReadyPolls = 600
	readyPollWait = time.Second
)

// GenericMMC is the driver for recorders following the MMC command set.
type GenericMMC struct {
	t     scsi.Transport
	name  string
	flags uint32
	opts  *options.Options
	log   *logging.Logger
	sleep func(time.Duration)

	toc         *toc.Toc
	cueSheet    []byte
	cdTextPacks []cdtext.Pack
	aborted     bool
}

// NewGenericMMC creates a generic MMC driver talking to t.
func NewGenericMMC(t scsi.Transport, driverOptions uint32, opts ...options.Option) *GenericMMC {
	o := options.Apply(opts...)
	return &GenericMMC{
		t:     t,
		name:  "generic-mmc",
		flags: driverOptions | o.DriverOptions,
		opts:  o,
		log:   logging.NewLogger(o.Logger),
		sleep: time.Sleep,
	}
}

// SetSleep replaces the function used to wait between polls of the unit state.
func (d *GenericMMC) SetSleep(fn func(time.Duration)) {
	d.sleep = fn
}

func (d *GenericMMC) Name() string {
	return d.name
}

func (d *GenericMMC) Options() uint32 {
	return d.flags
}

func (d *GenericMMC) Close() error {
	return d.t.Close()
}

func (d *GenericMMC) send(cdb, out, in []byte) error {
	d.log.Trace("scsi command", "op", fmt.Sprintf("0x%02x", cdb[0]), "out", len(out), "in", len(in))
	return d.t.SendCmd(cdb, out, in)
}

func (d *GenericMMC) TestUnitReady() error {
	return d.send(scsi.BuildTestUnitReady(), nil, nil)
}

func (d *GenericMMC) StartStopUnit(start bool) error {
	if err := d.send(scsi.BuildStartStopUnit(start, false), nil, nil); err != nil {
		return fmt.Errorf("cannot start/stop unit: %w", err)
	}
	return nil
}

func (d *GenericMMC) LoadUnload(unload bool) error {
	if err := d.send(scsi.BuildStartStopUnit(!unload, true), nil, nil); err != nil {
		return fmt.Errorf("cannot load/unload medium: %w", err)
	}
	return nil
}

func (d *GenericMMC) PreventMediumRemoval(lock bool) error {
	if err := d.send(scsi.BuildPreventAllow(lock), nil, nil); err != nil {
		return fmt.Errorf("cannot lock/unlock tray: %w", err)
	}
	return nil
}

func (d *GenericMMC) RezeroUnit() error {
	return d.send(scsi.BuildRezeroUnit(), nil, nil)
}

func (d *GenericMMC) FlushCache() error {
	if err := d.send(scsi.BuildSynchronizeCache(), nil, nil); err != nil {
		return fmt.Errorf("cannot flush cache: %w", err)
	}
	return nil
}

// ReadCapacity returns the number of blocks of the medium.
func (d *GenericMMC) ReadCapacity() (int64, error) {
	buf := make([]byte, 8)
	if err := d.send(scsi.BuildReadCapacity(), nil, buf); err != nil {
		return 0, fmt.Errorf("cannot read capacity: %w", err)
	}
	return int64(binary.BigEndian.Uint32(buf[0:4])) + 1, nil
}

// BlankDisk erases a CD-RW. The fast variant only blanks the PMA, TOC and first pre-gap.
func (d *GenericMMC) BlankDisk(fast bool) error {
	blankType := byte(scsi.BLANK_FULL)
	if fast {
		blankType = scsi.BLANK_MINIMAL
	}
	if err := d.send(scsi.BuildBlank(blankType, true), nil, nil); err != nil {
		return fmt.Errorf("cannot blank disk: %w", err)
	}
	return d.waitReady()
}

// SetSpeed sets the writing speed as a multiple of the audio speed, 0 selects the maximum.
func (d *GenericMMC) SetSpeed(speed int) error {
	if err := d.send(scsi.BuildSetCdSpeed(0xffff, multipleToSpeed(speed)), nil, nil); err != nil {
		return fmt.Errorf("cannot set speed %dx: %w", speed, err)
	}
	return nil
}

// waitReady polls TEST UNIT READY until the drive stops reporting that it is becoming ready.
func (d *GenericMMC) waitReady() error {
	for i := 0; i < maxReadyPolls; i++ {
		err := d.TestUnitReady()
		if err == nil {
			return nil
		}
		ce, ok := scsi.AsCommandError(err)
		if !ok || !ce.NotReady() || ce.NoMedium() {
			return err
		}
		d.sleep(readyPollWait)
	}
	return errors.New("drive did not become ready")
}

// BlockSize returns the bytes per block WriteData expects.
func (d *GenericMMC) BlockSize(mode trackdata.Mode) int {
	return mode.BlockLen()
}

// DiskInfo reads the disc information and, when available, the ATIP.
func (d *GenericMMC) DiskInfo() (*DiskInfo, error) {
	buf := make([]byte, discInfoLen)
	if err := d.send(scsi.BuildReadDiscInfo(len(buf)), nil, buf); err != nil {
		return nil, fmt.Errorf("cannot read disc information: %w", err)
	}

	info := &DiskInfo{}
	status := buf[2] & 0x03
	info.Empty = status == 0
	info.Append = status != 2
	info.CDRW = buf[2]&0x10 != 0
	info.Valid.Empty, info.Valid.Append, info.Valid.CDRW = true, true, true
	info.SessionCount = int(buf[4])
	info.LastTrackNr = int(buf[6])
	switch buf[8] {
	case 0x10:
		info.DiskTocType = toc.CD_I
	case 0x20:
		info.DiskTocType = toc.CD_ROM_XA
	default:
		info.DiskTocType = toc.CD_DA
	}
	if buf[17] != 0xff {
		info.ThisSessionLba = msf.New(int(buf[17]), int(buf[18]), int(buf[19])).LBA() - consts.CD_LBA_OFFSET
	}
	if buf[21] != 0xff {
		info.Capacity = msf.New(int(buf[21]), int(buf[22]), int(buf[23])).LBA() - consts.CD_LBA_OFFSET
		info.Valid.Capacity = true
	}

	if !info.Empty {
		if lba, err := d.lastSessionStart(); err == nil {
			info.LastSessionLba = lba
		} else {
			d.log.Debug("cannot read session information", "error", err)
		}
	}

	if err := d.readAtip(info); err != nil {
		d.log.Debug("cannot read ATIP", "error", err)
	}
	return info, nil
}

func (d *GenericMMC) lastSessionStart() (int64, error) {
	buf := make([]byte, 12)
	if err := d.send(scsi.BuildReadToc(scsi.TOC_FORMAT_SESSION, false, 0, len(buf)), nil, buf); err != nil {
		return 0, err
	}
	return int64(int32(binary.BigEndian.Uint32(buf[8:12]))), nil
}

// Recording speeds encoded in the ATIP A1 field.
var atipSpeeds = [8]int{0, 2, 4, 6, 8, 0, 0, 0}

func (d *GenericMMC) readAtip(info *DiskInfo) error {
	buf := make([]byte, atipLen)
	if err := d.send(scsi.BuildReadToc(scsi.TOC_FORMAT_ATIP, true, 0, len(buf)), nil, buf); err != nil {
		return err
	}
	if binary.BigEndian.Uint16(buf[0:2]) < atipLen-2 {
		return scsi.ErrShortResponse
	}
	info.CDRW = info.CDRW || buf[6]&0x40 != 0
	info.ManufacturerID = msf.New(int(buf[8]), int(buf[9]), int(buf[10]))
	info.Valid.ManufacturerID = true
	if !info.Valid.Capacity {
		info.Capacity = msf.New(int(buf[12]), int(buf[13]), int(buf[14])).LBA() - consts.CD_LBA_OFFSET
		info.Valid.Capacity = true
	}
	if buf[6]&0x04 != 0 {
		info.RecSpeedLow = atipSpeeds[(buf[16]>>4)&0x07]
		info.RecSpeedHigh = atipSpeeds[buf[16]&0x07]
		info.Valid.RecSpeed = true
	}
	return nil
}

// leadInStart returns the start of the lead-in of the inserted blank medium.
func (d *GenericMMC) leadInStart() (int64, error) {
	buf := make([]byte, atipLen)
	if err := d.send(scsi.BuildReadToc(scsi.TOC_FORMAT_ATIP, true, 0, len(buf)), nil, buf); err != nil {
		return 0, fmt.Errorf("cannot read ATIP: %w", err)
	}
	start := msf.New(int(buf[8]), int(buf[9]), int(buf[10])).LBA()
	// negative addresses are stored modulo 100 minutes
	return start - 100*60*consts.CD_BLOCKS_PER_SECOND - consts.CD_LBA_OFFSET, nil
}

// DriveInfo reads the CD capabilities mode page.
func (d *GenericMMC) DriveInfo() (*DriveInfo, error) {
	mp, err := scsi.SenseModePage(d.t, scsi.PAGE_CD_CAPABILITIES)
	if err != nil {
		return nil, err
	}
	p := mp.Page
	if len(p) < 22 {
		return nil, fmt.Errorf("capabilities page: %w", scsi.ErrShortResponse)
	}
	return &DriveInfo{
		MaxReadSpeed:        speedToMultiple(int(binary.BigEndian.Uint16(p[8:10]))),
		CurrentReadSpeed:    speedToMultiple(int(binary.BigEndian.Uint16(p[14:16]))),
		MaxWriteSpeed:       speedToMultiple(int(binary.BigEndian.Uint16(p[18:20]))),
		CurrentWriteSpeed:   speedToMultiple(int(binary.BigEndian.Uint16(p[20:22]))),
		AccurateAudioStream: p[5]&0x02 != 0,
		TestWrite:           p[3]&0x04 != 0,
	}, nil
}

// AnalyzeTrack runs the configured analysis. The default method is the linear scan.
func (d *GenericMMC) AnalyzeTrack(mode trackdata.Mode, trackNr int, startLba, endLba int64) (*TrackAnalysis, error) {
	return AnalyzeTrack(d, d.opts.Analysis, mode, trackNr, startLba, endLba, d.log)
}

// ReadDiskToc reconstructs the TOC of a session with the driver's options.
func (d *GenericMMC) ReadDiskToc(session int, dataFile string) (*toc.Toc, error) {
	o := *d.opts
	o.DriverOptions = d.flags
	return ReadDiskToc(d, session, dataFile, &o)
}
