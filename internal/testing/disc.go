package testing

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/driver"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/scsi"
	"github.com/bgrewell/cdr-kit/pkg/subchannel"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// Sub-channel frames carrying ISRC or catalog instead of a position.
const (
	isrcFrameSlot    = 50
	catalogFrameSlot = 90
	frameCycle       = 100
)

// SimTrack describes one track of a simulated disc. Lengths are in blocks.
type SimTrack struct {
	Mode trackdata.Mode
	Ctl  byte
	// Pregap is the index 0 area before the track start.
	Pregap int64
	// Length is the distance from index 1 to the pre-gap of the next track.
	Length int64
	// Indices are the offsets of index 2..n relative to the track start.
	Indices []int64
	Isrc    string
	// Unreadable is the number of blocks at the end of a data track that fail to read.
	Unreadable int64
}

// Disc is a simulated single session disc. It implements driver.Device, driver.IndexLocator and
// driver.FormattedTocReader directly, and can answer the MMC read commands of a
// RecordingTransport.
type Disc struct {
	Tracks  []SimTrack
	Catalog string
	CdText  []cdtext.Pack
	// Frames replaces the Q frames delivered by ReadSubChannels at single addresses.
	Frames map[int64]*subchannel.Q

	starts  []int64
	leadOut int64
}

// NewDisc lays out the tracks from lba 0.
func NewDisc(tracks ...SimTrack) *Disc {
	d := &Disc{Tracks: tracks}
	var lba int64
	for _, t := range tracks {
		lba += t.Pregap
		d.starts = append(d.starts, lba)
		lba += t.Length
	}
	d.leadOut = lba
	return d
}

// Start returns the lba of index 1 of track n.
func (d *Disc) Start(n int) int64 {
	return d.starts[n-1]
}

// LeadOut returns the lba of the lead-out.
func (d *Disc) LeadOut() int64 {
	return d.leadOut
}

// Locate returns track number and index of the block at lba, track 0xAA for the lead-out.
func (d *Disc) Locate(lba int64) (trackNr, index int) {
	if lba >= d.leadOut {
		return consts.CD_LEADOUT_TRACK, 1
	}
	for i := len(d.Tracks) - 1; i >= 0; i-- {
		t := d.Tracks[i]
		start := d.starts[i]
		if lba >= start {
			index = 1
			for j, off := range t.Indices {
				if lba >= start+off {
					index = j + 2
				}
			}
			return i + 1, index
		}
		if lba >= start-t.Pregap {
			return i + 1, 0
		}
	}
	return 1, 0
}

func (d *Disc) track(n int) *SimTrack {
	if n < 1 || n > len(d.Tracks) {
		return nil
	}
	return &d.Tracks[n-1]
}

// Position returns the Q sub-channel frame of the block at lba. Every hundredth frame carries the
// ISRC of an audio track or the catalog number instead of the position.
func (d *Disc) Position(lba int64) *subchannel.Q {
	nr, index := d.Locate(lba)
	var ctl byte
	if t := d.track(nr); t != nil {
		ctl = t.Ctl
		slot := lba % frameCycle
		if slot == isrcFrameSlot && t.Isrc != "" && t.Mode.IsAudio() {
			return &subchannel.Q{Ctl: ctl, Adr: subchannel.ADR_ISRC, Isrc: t.Isrc, CRCValid: true}
		}
		if slot == catalogFrameSlot && d.Catalog != "" {
			return &subchannel.Q{Ctl: ctl, Adr: subchannel.ADR_CATALOG, Catalog: d.Catalog, CRCValid: true}
		}
	}
	var rel int64
	switch {
	case nr == consts.CD_LEADOUT_TRACK:
		rel = lba - d.leadOut
	case index == 0:
		rel = d.starts[nr-1] - lba
	default:
		rel = lba - d.starts[nr-1]
	}
	q := subchannel.NewPosition(ctl, nr, index, msf.Msf(rel), msf.FromLBA(lba))
	q.CRCValid = true
	return q
}

// RawToc returns the full TOC entries of session 1.
func (d *Disc) RawToc(session int) ([]driver.CdRawToc, error) {
	if session != 1 {
		return nil, nil
	}
	entry := func(point int, ctl byte, lba int64) driver.CdRawToc {
		m := msf.FromLBA(lba).Absolute()
		return driver.CdRawToc{SessionNr: 1, Point: point, AdrCtl: 0x10 | ctl, PMin: m.Min(), PSec: m.Sec(), PFrame: m.Frac()}
	}
	last := len(d.Tracks)
	out := []driver.CdRawToc{
		{SessionNr: 1, Point: driver.POINT_FIRST_TRACK, AdrCtl: 0x10 | d.Tracks[0].Ctl, PMin: 1},
		{SessionNr: 1, Point: driver.POINT_LAST_TRACK, AdrCtl: 0x10 | d.Tracks[last-1].Ctl, PMin: last},
		entry(driver.POINT_LEAD_OUT, d.Tracks[last-1].Ctl, d.leadOut),
	}
	for i, t := range d.Tracks {
		out = append(out, entry(i+1, t.Ctl, d.starts[i]))
	}
	return out, nil
}

// FormattedToc returns the tracks followed by the lead-out.
func (d *Disc) FormattedToc() ([]driver.CdToc, error) {
	var out []driver.CdToc
	for i, t := range d.Tracks {
		out = append(out, driver.CdToc{Track: i + 1, Start: d.starts[i], AdrCtl: 0x10 | t.Ctl})
	}
	last := d.Tracks[len(d.Tracks)-1]
	return append(out, driver.CdToc{Track: consts.CD_LEADOUT_TRACK, Start: d.leadOut, AdrCtl: 0x10 | last.Ctl}), nil
}

// ReadSubChannels returns the frames of up to count blocks before the lead-out.
func (d *Disc) ReadSubChannels(lba int64, count int) ([]*subchannel.Q, error) {
	if lba >= d.leadOut {
		return nil, &driver.ReadError{Lba: lba, Err: driver.ErrEndOfTrack}
	}
	if rest := d.leadOut - lba; int64(count) > rest {
		count = int(rest)
	}
	out := make([]*subchannel.Q, count)
	for i := range out {
		if q, ok := d.Frames[lba+int64(i)]; ok {
			out[i] = q
			continue
		}
		out[i] = d.Position(lba + int64(i))
	}
	return out, nil
}

// TrackIndex implements driver.IndexLocator.
func (d *Disc) TrackIndex(lba int64) (int, int, byte, error) {
	nr, index := d.Locate(lba)
	var ctl byte
	if t := d.track(nr); t != nil {
		ctl = t.Ctl
	}
	return nr, index, ctl, nil
}

// readable reports whether the block at lba can be read in mode.
func (d *Disc) readable(mode trackdata.Mode, lba int64) error {
	if lba < 0 || lba >= d.leadOut {
		return &driver.ReadError{Lba: lba, Err: driver.ErrEndOfTrack}
	}
	nr, index := d.Locate(lba)
	t := d.track(nr)
	if mode.IsAudio() != t.Mode.IsAudio() {
		return &driver.ReadError{Lba: lba, Err: driver.ErrEndOfTrack}
	}
	if !t.Mode.IsAudio() {
		if index == 0 && nr > 1 {
			return &driver.ReadError{Lba: lba, Err: driver.ErrEndOfTrack}
		}
		end := d.starts[nr-1] + t.Length
		if lba >= end-t.Unreadable {
			return &driver.ReadError{Lba: lba, Err: driver.ErrReadError}
		}
	}
	return nil
}

// ReadTrackData fills buf with the content of count blocks. The read stops at the first
// unreadable block; a read failing at its first block returns the error.
func (d *Disc) ReadTrackData(mode trackdata.Mode, lba int64, count int, buf []byte) (int, error) {
	bl := mode.BlockLen()
	if capacity := len(buf) / bl; count > capacity {
		count = capacity
	}
	for i := 0; i < count; i++ {
		if err := d.readable(mode, lba+int64(i)); err != nil {
			if i == 0 {
				return 0, err
			}
			return i, nil
		}
		d.fillBlock(mode, lba+int64(i), buf[i*bl:(i+1)*bl])
	}
	return count, nil
}

// BlockContent returns the content of one block as ReadTrackData delivers it.
func (d *Disc) BlockContent(mode trackdata.Mode, lba int64) []byte {
	b := make([]byte, mode.BlockLen())
	d.fillBlock(mode, lba, b)
	return b
}

func (d *Disc) fillBlock(mode trackdata.Mode, lba int64, b []byte) {
	for i := range b {
		b[i] = byte(lba) + byte(i)
	}
	if mode != trackdata.MODE1_RAW && mode != trackdata.MODE2_RAW {
		return
	}
	nr, _ := d.Locate(lba)
	tm := d.track(nr).Mode
	copy(b, []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00})
	bm, bs, bf := msf.FromLBA(lba).Absolute().BCD()
	b[12], b[13], b[14] = bm, bs, bf
	switch tm {
	case trackdata.MODE1, trackdata.MODE1_RAW:
		b[15] = 1
	default:
		b[15] = 2
		sub := []byte{0, 0, 0, 0}
		switch tm {
		case trackdata.MODE2_FORM1:
			sub[2] = driver.SUBMODE_DATA
		case trackdata.MODE2_FORM2:
			sub[2] = driver.SUBMODE_FORM2
		case trackdata.MODE2, trackdata.MODE2_RAW:
			sub = []byte{0, 0, 0x01, 0}
			copy(b[16:20], sub)
			copy(b[20:24], []byte{0, 0, 0x02, 0})
			return
		}
		copy(b[16:20], sub)
		copy(b[20:24], sub)
	}
}

// ReadIsrc returns the ISRC of track n.
func (d *Disc) ReadIsrc(trackNr int) (string, error) {
	t := d.track(trackNr)
	if t == nil {
		return "", fmt.Errorf("no track %d", trackNr)
	}
	return t.Isrc, nil
}

func (d *Disc) ReadCatalog(startLba, endLba int64) (string, error) {
	return d.Catalog, nil
}

func (d *Disc) ReadCdTextPacks() ([]cdtext.Pack, error) {
	return d.CdText, nil
}

// Install answers the MMC read commands of t from the disc: READ TOC formats 0, 2 and 5, READ CD
// with Q sub-channel or user data and READ SUB-CHANNEL for ISRC and catalog.
func (d *Disc) Install(t *RecordingTransport) {
	t.Respond(scsi.OP_READ_TOC, d.respondReadToc)
	t.Respond(scsi.OP_READ_CD, d.respondReadCD)
	t.Respond(scsi.OP_READ_SUBCHANNEL, d.respondReadSubChannel)
}

func fill(in, data []byte) {
	clear(in)
	copy(in, data)
}

func (d *Disc) respondReadToc(cdb, out, in []byte) error {
	var body []byte
	switch cdb[2] & 0x0f {
	case scsi.TOC_FORMAT_TOC:
		entries, _ := d.FormattedToc()
		for _, e := range entries {
			row := make([]byte, 8)
			row[1] = e.AdrCtl
			row[2] = byte(e.Track)
			binary.BigEndian.PutUint32(row[4:8], uint32(int32(e.Start)))
			body = append(body, row...)
		}
	case scsi.TOC_FORMAT_FULL:
		entries, _ := d.RawToc(int(cdb[6]))
		for _, e := range entries {
			body = append(body, byte(e.SessionNr), e.AdrCtl, 0, byte(e.Point),
				byte(e.Min), byte(e.Sec), byte(e.Frame), 0, byte(e.PMin), byte(e.PSec), byte(e.PFrame))
		}
	case scsi.TOC_FORMAT_CDTEXT:
		body = cdtext.MarshalPacks(d.CdText)
	default:
		return &scsi.CommandError{Op: cdb[0], Status: 0x02, SenseKey: scsi.SENSE_ILLEGAL_REQUEST, ASC: 0x24}
	}
	resp := make([]byte, 4, 4+len(body))
	binary.BigEndian.PutUint16(resp[0:2], uint16(len(body)+2))
	resp[2], resp[3] = 1, byte(len(d.Tracks))
	fill(in, append(resp, body...))
	return nil
}

var sectorModes = map[byte]trackdata.Mode{
	scsi.SECTOR_CDDA:        trackdata.MODE_AUDIO,
	scsi.SECTOR_MODE1:       trackdata.MODE1,
	scsi.SECTOR_MODE2:       trackdata.MODE2,
	scsi.SECTOR_MODE2_FORM1: trackdata.MODE2_FORM1,
	scsi.SECTOR_MODE2_FORM2: trackdata.MODE2_FORM2,
}

func readError(op byte, err error) error {
	switch {
	case errors.Is(err, driver.ErrEndOfTrack):
		return &scsi.CommandError{Op: op, Status: 0x02, SenseKey: scsi.SENSE_ILLEGAL_REQUEST, ASC: scsi.ASC_LOGICAL_BLOCK_OUT_OF_RANGE}
	case errors.Is(err, driver.ErrReadError):
		return &scsi.CommandError{Op: op, Status: 0x02, SenseKey: scsi.SENSE_MEDIUM_ERROR, ASC: scsi.ASC_UNRECOVERED_READ_ERROR}
	}
	return err
}

func (d *Disc) respondReadCD(cdb, out, in []byte) error {
	lba := int64(int32(binary.BigEndian.Uint32(cdb[2:6])))
	count := int(cdb[6])<<16 | int(cdb[7])<<8 | int(cdb[8])
	sectorType := (cdb[1] >> 2) & 0x07

	if cdb[10]&0x07 == scsi.SUBCHANNEL_Q {
		subs, err := d.ReadSubChannels(lba, count)
		if err != nil {
			return readError(cdb[0], err)
		}
		clear(in)
		for i, q := range subs {
			b, err := q.Marshal()
			if err != nil {
				return err
			}
			copy(in[i*consts.CD_PQ_SUBCHANNEL_LEN:], b)
		}
		return nil
	}

	mode, ok := sectorModes[sectorType]
	if !ok {
		mode = trackdata.MODE2_RAW
		if nr, _ := d.Locate(lba); d.track(nr) != nil && d.track(nr).Mode == trackdata.MODE1 {
			mode = trackdata.MODE1_RAW
		}
	}
	n, err := d.ReadTrackData(mode, lba, count, in)
	if err != nil {
		return readError(cdb[0], err)
	}
	if n < count {
		return readError(cdb[0], &driver.ReadError{Lba: lba + int64(n), Err: driver.ErrEndOfTrack})
	}
	return nil
}

func (d *Disc) respondReadSubChannel(cdb, out, in []byte) error {
	resp := make([]byte, 24)
	switch cdb[3] {
	case 0x02:
		if d.Catalog != "" {
			resp[8] = 0x80
			copy(resp[9:], d.Catalog)
		}
	case 0x03:
		if t := d.track(int(cdb[6])); t != nil && t.Isrc != "" {
			resp[8] = 0x80
			copy(resp[9:], t.Isrc)
		}
	}
	resp[4] = cdb[3]
	fill(in, resp)
	return nil
}

var (
	_ driver.Device             = (*Disc)(nil)
	_ driver.IndexLocator       = (*Disc)(nil)
	_ driver.FormattedTocReader = (*Disc)(nil)
)

// CdTextPacks encodes the given per track titles in block 0 with disc title and performer.
func CdTextPacks(title, performer string, trackTitles ...string) []cdtext.Pack {
	disc := cdtext.NewContainer()
	disc.SetLanguage(0, 9)
	disc.Add(cdtext.NewText(cdtext.CDTEXT_TITLE, 0, title))
	disc.Add(cdtext.NewText(cdtext.CDTEXT_PERFORMER, 0, performer))
	var tracks []*cdtext.Container
	for _, t := range trackTitles {
		c := cdtext.NewContainer()
		c.Add(cdtext.NewText(cdtext.CDTEXT_TITLE, 0, t))
		c.Add(cdtext.NewText(cdtext.CDTEXT_PERFORMER, 0, performer))
		tracks = append(tracks, c)
	}
	packs, err := cdtext.Encode(disc, tracks)
	if err != nil {
		panic(err)
	}
	return packs
}
