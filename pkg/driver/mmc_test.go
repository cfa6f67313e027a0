package driver_test

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	itesting "github.com/bgrewell/cdr-kit/internal/testing"
	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/driver"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/scsi"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// modeSense returns a MODE SENSE(10) response carrying page.
func modeSense(page []byte) []byte {
	resp := make([]byte, 8+len(page))
	binary.BigEndian.PutUint16(resp[0:2], uint16(len(resp)-2))
	copy(resp[8:], page)
	return resp
}

func writeParametersPage() []byte {
	p := make([]byte, 52)
	p[0], p[1] = scsi.PAGE_WRITE_PARAMETERS, 50
	p[2] = 0x01
	p[3] = 0xC4
	return p
}

func capabilitiesPage() []byte {
	p := make([]byte, 28)
	p[0], p[1] = scsi.PAGE_CD_CAPABILITIES, 26
	p[3] = 0x04
	p[5] = 0x02
	binary.BigEndian.PutUint16(p[8:10], 32*176)
	binary.BigEndian.PutUint16(p[14:16], 24*176)
	binary.BigEndian.PutUint16(p[18:20], 8*176)
	binary.BigEndian.PutUint16(p[20:22], 4*176)
	return p
}

// atip returns a READ TOC format 4 response with the given lead-in start.
func atip(leadIn msf.Msf) []byte {
	resp := make([]byte, 28)
	binary.BigEndian.PutUint16(resp[0:2], 26)
	resp[6] = 0x44
	resp[8], resp[9], resp[10] = byte(leadIn.Min()), byte(leadIn.Sec()), byte(leadIn.Frac())
	resp[12], resp[13], resp[14] = 79, 59, 74
	resp[16] = 0x13
	return resp
}

func newMMC(t *testing.T, opts ...options.Option) (*driver.GenericMMC, *itesting.RecordingTransport) {
	t.Helper()
	tr := itesting.NewRecordingTransport()
	tr.RespondData(scsi.OP_MODE_SENSE10, modeSense(writeParametersPage()))
	d := driver.NewGenericMMC(tr, 0, opts...)
	d.SetSleep(func(time.Duration) {})
	return d, tr
}

func TestGenericMMCRecord(t *testing.T) {
	d, tr := newMMC(t)
	tc := audioToc(t, 300, 400)

	require.NoError(t, driver.NewRecorder(d).Record(context.Background(), tc))

	ops := tr.Ops()
	var writes int
	for _, op := range ops {
		if op == scsi.OP_WRITE10 {
			writes++
		}
	}
	head := []byte{scsi.OP_SET_CD_SPEED, scsi.OP_PREVENT_ALLOW, scsi.OP_MODE_SENSE10, scsi.OP_MODE_SELECT10, scsi.OP_SEND_CUE_SHEET}
	tail := []byte{scsi.OP_SYNCHRONIZE_CACHE, scsi.OP_TEST_UNIT_READY, scsi.OP_PREVENT_ALLOW}
	require.Len(t, ops, len(head)+writes+len(tail))
	assert.Equal(t, head, ops[:len(head)])
	assert.Equal(t, tail, ops[len(ops)-len(tail):])

	cue, err := driver.BuildCueSheet(tc, false)
	require.NoError(t, err)
	assert.Equal(t, cue, tr.Find(scsi.OP_SEND_CUE_SHEET)[0].Out)

	sel := tr.Find(scsi.OP_MODE_SELECT10)[0].Out
	assert.Equal(t, byte(driver.WRITE_TYPE_SAO), sel[8+2])
	assert.Equal(t, byte(0x04), sel[8+3])
	assert.Equal(t, byte(0x00), sel[8+8])

	var blocks int
	var next int64 = -150
	for _, c := range tr.Find(scsi.OP_WRITE10) {
		lba := int64(int32(binary.BigEndian.Uint32(c.CDB[2:6])))
		n := int(binary.BigEndian.Uint16(c.CDB[7:9]))
		assert.Equal(t, next, lba)
		assert.Len(t, c.Out, n*2352)
		next += int64(n)
		blocks += n
	}
	assert.Equal(t, 1000, blocks)
}

func TestGenericMMCSimulate(t *testing.T) {
	d, tr := newMMC(t, options.WithSimulate(true), options.WithMultiSession(true))
	tr.Respond(scsi.OP_MODE_SENSE10, func(cdb, out, in []byte) error {
		clear(in)
		if cdb[2]&0x3f == scsi.PAGE_CD_CAPABILITIES {
			copy(in, modeSense(capabilitiesPage()))
		} else {
			copy(in, modeSense(writeParametersPage()))
		}
		return nil
	})

	r := driver.NewRecorder(d, options.WithSimulate(true))
	require.NoError(t, r.Check(audioToc(t, 300)))
	require.NoError(t, r.Init())
	require.NoError(t, r.Start())

	sel := tr.Find(scsi.OP_MODE_SELECT10)[0].Out
	assert.Equal(t, byte(driver.WRITE_TYPE_SAO|driver.WRITE_TEST), sel[8+2])
	assert.Equal(t, byte(driver.WRITE_MULTI_SESSION|0x04), sel[8+3])

	require.NoError(t, r.Abort())
	assert.Equal(t, []byte{scsi.OP_SYNCHRONIZE_CACHE, scsi.OP_PREVENT_ALLOW}, tr.Ops()[len(tr.Ops())-2:])
}

func TestGenericMMCCdTextLeadIn(t *testing.T) {
	d, tr := newMMC(t)
	leadIn := msf.New(97, 34, 0)
	tr.Respond(scsi.OP_READ_TOC, func(cdb, out, in []byte) error {
		clear(in)
		if cdb[2]&0x0f == scsi.TOC_FORMAT_ATIP {
			copy(in, atip(leadIn))
		}
		return nil
	})

	tc := audioToc(t, 300)
	tc.SetCdTextLanguage(0, 9)
	require.NoError(t, tc.AddCdTextItem(0, cdtext.NewText(cdtext.CDTEXT_TITLE, 0, "Album")))
	require.NoError(t, tc.AddCdTextItem(0, cdtext.NewText(cdtext.CDTEXT_PERFORMER, 0, "Band")))
	require.NoError(t, tc.AddCdTextItem(1, cdtext.NewText(cdtext.CDTEXT_TITLE, 0, "One")))
	require.NoError(t, tc.AddCdTextItem(1, cdtext.NewText(cdtext.CDTEXT_PERFORMER, 0, "Band")))

	r := driver.NewRecorder(d)
	require.NoError(t, r.Check(tc))
	require.NoError(t, r.Init())
	require.NoError(t, r.Start())

	cue := tr.Find(scsi.OP_SEND_CUE_SHEET)[0].Out
	assert.Equal(t, byte(0x41), cue[3])

	packs, err := tc.CdTextPacks()
	require.NoError(t, err)
	rw := cdtext.PackRW(packs)

	writes := tr.Find(scsi.OP_WRITE10)
	require.NotEmpty(t, writes)
	start := leadIn.LBA() - 450000 - 150
	assert.Equal(t, start, int64(int32(binary.BigEndian.Uint32(writes[0].CDB[2:6]))))
	assert.Equal(t, rw[0], writes[0].Out[:96])

	var blocks int64
	for _, c := range writes {
		blocks += int64(binary.BigEndian.Uint16(c.CDB[7:9]))
		assert.Len(t, c.Out, int(binary.BigEndian.Uint16(c.CDB[7:9]))*96)
	}
	assert.Equal(t, -150-start, blocks)
}

func TestGenericMMCCheckToc(t *testing.T) {
	d, _ := newMMC(t)
	tc := audioToc(t, 300)
	require.NoError(t, d.CheckToc(tc))

	tc.SetCdTextLanguage(0, 9)
	require.NoError(t, tc.AddCdTextItem(1, cdtext.NewText(cdtext.CDTEXT_TITLE, 0, "One")))
	require.NoError(t, tc.AddCdTextItem(1, cdtext.NewText(cdtext.CDTEXT_SONGWRITER, 0, "Somebody")))
	assert.Error(t, d.CheckToc(tc))
}

func TestGenericMMCStartWithoutInit(t *testing.T) {
	d, _ := newMMC(t)
	assert.ErrorIs(t, d.StartDao(), driver.ErrInvalidState)
}

func TestGenericMMCDiskInfo(t *testing.T) {
	d, tr := newMMC(t)
	di := make([]byte, 34)
	di[2] = 0x01 | 0x10
	di[4] = 1
	di[6] = 3
	di[8] = 0x20
	di[17], di[18], di[19] = 0, 2, 0
	di[21], di[22], di[23] = 0xff, 0xff, 0xff
	tr.RespondData(scsi.OP_READ_DISC_INFO, di)
	tr.Respond(scsi.OP_READ_TOC, func(cdb, out, in []byte) error {
		clear(in)
		switch cdb[2] & 0x0f {
		case scsi.TOC_FORMAT_ATIP:
			copy(in, atip(msf.New(97, 34, 0)))
		case scsi.TOC_FORMAT_SESSION:
			binary.BigEndian.PutUint32(in[8:12], 12345)
		}
		return nil
	})

	info, err := d.DiskInfo()
	require.NoError(t, err)
	assert.False(t, info.Empty)
	assert.True(t, info.Append)
	assert.True(t, info.CDRW)
	assert.Equal(t, 1, info.SessionCount)
	assert.Equal(t, 3, info.LastTrackNr)
	assert.Equal(t, toc.CD_ROM_XA, info.DiskTocType)
	assert.Equal(t, int64(0), info.ThisSessionLba)
	assert.Equal(t, int64(12345), info.LastSessionLba)

	require.True(t, info.Valid.Capacity)
	assert.Equal(t, msf.New(79, 59, 74).LBA()-150, info.Capacity)
	require.True(t, info.Valid.ManufacturerID)
	assert.Equal(t, msf.New(97, 34, 0), info.ManufacturerID)
	require.True(t, info.Valid.RecSpeed)
	assert.Equal(t, 2, info.RecSpeedLow)
	assert.Equal(t, 6, info.RecSpeedHigh)
}

func TestGenericMMCDriveInfo(t *testing.T) {
	d, tr := newMMC(t)
	tr.RespondData(scsi.OP_MODE_SENSE10, modeSense(capabilitiesPage()))

	info, err := d.DriveInfo()
	require.NoError(t, err)
	assert.Equal(t, 32, info.MaxReadSpeed)
	assert.Equal(t, 24, info.CurrentReadSpeed)
	assert.Equal(t, 8, info.MaxWriteSpeed)
	assert.Equal(t, 4, info.CurrentWriteSpeed)
	assert.True(t, info.AccurateAudioStream)
	assert.True(t, info.TestWrite)
}

func TestGenericMMCBlankWaitsForDrive(t *testing.T) {
	d, tr := newMMC(t)
	var sleeps int
	d.SetSleep(func(time.Duration) { sleeps++ })

	busy := 3
	tr.Respond(scsi.OP_TEST_UNIT_READY, func(cdb, out, in []byte) error {
		if busy > 0 {
			busy--
			return &scsi.CommandError{Op: cdb[0], Status: 0x02, SenseKey: scsi.SENSE_NOT_READY, ASC: scsi.ASC_BECOMING_READY}
		}
		return nil
	})

	require.NoError(t, d.BlankDisk(true))
	blank := tr.Find(scsi.OP_BLANK)
	require.Len(t, blank, 1)
	assert.Equal(t, byte(scsi.BLANK_MINIMAL|0x10), blank[0].CDB[1])
	assert.Len(t, tr.Find(scsi.OP_TEST_UNIT_READY), 4)
	assert.Equal(t, 3, sleeps)
}

func TestGenericMMCWaitFailsWithoutMedium(t *testing.T) {
	d, tr := newMMC(t)
	tr.Fail(scsi.OP_TEST_UNIT_READY, &scsi.CommandError{Status: 0x02, SenseKey: scsi.SENSE_NOT_READY, ASC: scsi.ASC_MEDIUM_NOT_PRESENT})

	err := d.BlankDisk(false)
	ce, ok := scsi.AsCommandError(err)
	require.True(t, ok)
	assert.True(t, ce.NoMedium())
	assert.Len(t, tr.Find(scsi.OP_TEST_UNIT_READY), 1)
}

func TestGenericMMCUnitCommands(t *testing.T) {
	d, tr := newMMC(t)
	capacity := make([]byte, 8)
	binary.BigEndian.PutUint32(capacity[0:4], 359999)
	tr.RespondData(scsi.OP_READ_CAPACITY, capacity)

	n, err := d.ReadCapacity()
	require.NoError(t, err)
	assert.Equal(t, int64(360000), n)

	require.NoError(t, d.LoadUnload(true))
	assert.Equal(t, byte(0x02), tr.Find(scsi.OP_START_STOP_UNIT)[0].CDB[4]&0x03)
	require.NoError(t, d.SetSpeed(4))
	assert.Equal(t, uint16(4*176), binary.BigEndian.Uint16(tr.Find(scsi.OP_SET_CD_SPEED)[0].CDB[4:6]))

	require.NoError(t, d.Close())
	assert.Equal(t, 1, tr.Closed())
}

func TestGenericMMCReadDiskToc(t *testing.T) {
	disc := testDisc()
	disc.CdText = itesting.CdTextPacks("Album", "Band", "One", "Two", "Three")
	tr := itesting.NewRecordingTransport()
	disc.Install(tr)

	tc, err := driver.NewGenericMMC(tr, 0).ReadDiskToc(1, "")
	require.NoError(t, err)
	assertTestDiscToc(t, tc)
	assert.Equal(t, "Three", tc.CdTextItem(3, 0, cdtext.CDTEXT_TITLE).Text)
}

func TestPlextorReadDiskToc(t *testing.T) {
	disc := testDisc()
	tr := itesting.NewRecordingTransport()
	disc.Install(tr)

	d := driver.NewPlextor(tr, 0)
	assert.Equal(t, "plextor", d.Name())

	nr, idx, _, err := d.TrackIndex(460)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, []int{nr, idx})

	tc, err := d.ReadDiskToc(1, "")
	require.NoError(t, err)
	assertTestDiscToc(t, tc)
}

func TestGenericMMCReadErrors(t *testing.T) {
	disc := testDisc()
	tr := itesting.NewRecordingTransport()
	disc.Install(tr)
	d := driver.NewGenericMMC(tr, 0)

	buf := make([]byte, 4*2048)
	_, err := d.ReadTrackData(trackdata.MODE1, disc.Start(1), 4, buf)
	assert.ErrorIs(t, err, driver.ErrEndOfTrack)

	_, err = d.ReadTrackData(trackdata.MODE1, 2476, 1, buf)
	assert.ErrorIs(t, err, driver.ErrReadError)

	n, err := d.ReadTrackData(trackdata.MODE1, disc.Start(3), 4, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, disc.BlockContent(trackdata.MODE1, disc.Start(3)+3), buf[3*2048:])

	_, err = d.ReadTrackData(trackdata.MODE0, 0, 1, buf)
	assert.ErrorIs(t, err, driver.ErrUnsupported)
}

func TestGenericMMCReadSubChannels(t *testing.T) {
	disc := testDisc()
	tr := itesting.NewRecordingTransport()
	disc.Install(tr)
	d := driver.NewGenericMMC(tr, 0)

	subs, err := d.ReadSubChannels(452, 4)
	require.NoError(t, err)
	require.Len(t, subs, 4)
	for i, q := range subs {
		require.NotNil(t, q)
		assert.True(t, q.CRCValid)
		assert.Equal(t, int64(452+i), q.Absolute.LBA())
	}
	assert.Equal(t, 1, subs[0].Index)
	assert.Equal(t, msf.Msf(302), subs[0].Relative)

	isrc, err := d.ReadIsrc(1)
	require.NoError(t, err)
	assert.Equal(t, testIsrc, isrc)

	cat, err := d.ReadCatalog(150, 1228)
	require.NoError(t, err)
	assert.Equal(t, testCatalog, cat)
}
