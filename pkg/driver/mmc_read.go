package driver

import (
	"encoding/binary"
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/scsi"
	"github.com/bgrewell/cdr-kit/pkg/subchannel"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

const (
	tocHeaderLen      = 4
	rawTocEntryLen    = 11
	formattedEntryLen = 8
	subChannelDataLen = 24
)

// readTocData reads a READ TOC response of any length: the header first, then the full data.
func (d *GenericMMC) readTocData(format byte, msfTime bool, track byte) ([]byte, error) {
	hdr := make([]byte, tocHeaderLen)
	if err := d.send(scsi.BuildReadToc(format, msfTime, track, len(hdr)), nil, hdr); err != nil {
		return nil, err
	}
	n := int(binary.BigEndian.Uint16(hdr[0:2])) + 2
	if n <= tocHeaderLen {
		return hdr, nil
	}
	if n > 0xffff {
		n = 0xffff
	}
	buf := make([]byte, n)
	if err := d.send(scsi.BuildReadToc(format, msfTime, track, n), nil, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// RawToc reads the full TOC of a session.
func (d *GenericMMC) RawToc(session int) ([]CdRawToc, error) {
	data, err := d.readTocData(scsi.TOC_FORMAT_FULL, true, byte(session))
	if err != nil {
		return nil, fmt.Errorf("cannot read full TOC: %w", err)
	}
	var entries []CdRawToc
	for p := tocHeaderLen; p+rawTocEntryLen <= len(data); p += rawTocEntryLen {
		e := data[p : p+rawTocEntryLen]
		entries = append(entries, CdRawToc{
			SessionNr: int(e[0]),
			AdrCtl:    e[1],
			Point:     int(e[3]),
			Min:       int(e[4]),
			Sec:       int(e[5]),
			Frame:     int(e[6]),
			PMin:      int(e[8]),
			PSec:      int(e[9]),
			PFrame:    int(e[10]),
		})
	}
	return entries, nil
}

// FormattedToc reads the TOC of all sessions with LBA addresses.
func (d *GenericMMC) FormattedToc() ([]CdToc, error) {
	data, err := d.readTocData(scsi.TOC_FORMAT_TOC, false, 1)
	if err != nil {
		return nil, fmt.Errorf("cannot read TOC: %w", err)
	}
	var entries []CdToc
	for p := tocHeaderLen; p+formattedEntryLen <= len(data); p += formattedEntryLen {
		e := data[p : p+formattedEntryLen]
		entries = append(entries, CdToc{
			Track:  int(e[2]),
			AdrCtl: e[1],
			Start:  int64(int32(binary.BigEndian.Uint32(e[4:8]))),
		})
	}
	return entries, nil
}

// classifyReadError maps the sense data of a failed READ CD to the read error classes.
func classifyReadError(lba int64, err error) error {
	ce, ok := scsi.AsCommandError(err)
	if !ok {
		return err
	}
	switch {
	case ce.OutOfRange():
		return &ReadError{Lba: lba, Err: ErrEndOfTrack}
	case ce.LECError():
		return &ReadError{Lba: lba, Err: ErrLECError}
	case ce.MediumError():
		return &ReadError{Lba: lba, Err: ErrReadError}
	}
	return err
}

// ReadSubChannels reads the formatted Q sub-channel of count blocks. Frames with an unknown ADR
// are returned as nil.
func (d *GenericMMC) ReadSubChannels(lba int64, count int) ([]*subchannel.Q, error) {
	buf := make([]byte, count*consts.CD_PQ_SUBCHANNEL_LEN)
	cdb := scsi.BuildReadCD(scsi.SECTOR_ANY, lba, count, 0, scsi.SUBCHANNEL_Q)
	if err := d.send(cdb, nil, buf); err != nil {
		return nil, classifyReadError(lba, err)
	}
	subs := make([]*subchannel.Q, count)
	for i := range subs {
		q, err := subchannel.Decode(buf[i*consts.CD_PQ_SUBCHANNEL_LEN : i*consts.CD_PQ_SUBCHANNEL_LEN+consts.CD_Q_SUBCHANNEL_LEN])
		if err != nil {
			d.log.Trace("undecodable sub-channel", "lba", lba+int64(i), "error", err)
			continue
		}
		subs[i] = q
	}
	return subs, nil
}

func readCDSelection(mode trackdata.Mode) (sectorType, mainChannel byte, err error) {
	switch mode {
	case trackdata.MODE_AUDIO:
		return scsi.SECTOR_CDDA, scsi.READ_CD_USER_DATA, nil
	case trackdata.MODE1:
		return scsi.SECTOR_MODE1, scsi.READ_CD_USER_DATA, nil
	case trackdata.MODE2:
		return scsi.SECTOR_MODE2, scsi.READ_CD_USER_DATA, nil
	case trackdata.MODE2_FORM1:
		return scsi.SECTOR_MODE2_FORM1, scsi.READ_CD_USER_DATA, nil
	case trackdata.MODE2_FORM2:
		return scsi.SECTOR_MODE2_FORM2, scsi.READ_CD_USER_DATA, nil
	case trackdata.MODE2_FORM_MIX:
		return scsi.SECTOR_ANY, scsi.READ_CD_SUBHEADER | scsi.READ_CD_USER_DATA | scsi.READ_CD_EDC_ECC, nil
	case trackdata.MODE1_RAW, trackdata.MODE2_RAW:
		return scsi.SECTOR_ANY, scsi.READ_CD_ALL, nil
	}
	return 0, 0, fmt.Errorf("%w: reading %s blocks", ErrUnsupported, mode)
}

// ReadTrackData reads count blocks of mode into buf.
func (d *GenericMMC) ReadTrackData(mode trackdata.Mode, lba int64, count int, buf []byte) (int, error) {
	sectorType, mainChannel, err := readCDSelection(mode)
	if err != nil {
		return 0, err
	}
	bl := mode.BlockLen()
	if capacity := len(buf) / bl; count > capacity {
		count = capacity
	}
	if count == 0 {
		return 0, nil
	}
	cdb := scsi.BuildReadCD(sectorType, lba, count, mainChannel, scsi.SUBCHANNEL_NONE)
	if err := d.send(cdb, nil, buf[:count*bl]); err != nil {
		return 0, classifyReadError(lba, err)
	}
	return count, nil
}

func (d *GenericMMC) readSubChannelData(format byte, track byte) ([]byte, error) {
	buf := make([]byte, subChannelDataLen)
	if err := d.send(scsi.BuildReadSubChannel(format, track, len(buf)), nil, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadIsrc returns the ISRC of a track, or an empty string when the track has none.
func (d *GenericMMC) ReadIsrc(trackNr int) (string, error) {
	buf, err := d.readSubChannelData(0x03, byte(trackNr))
	if err != nil {
		return "", fmt.Errorf("cannot read ISRC of track %d: %w", trackNr, err)
	}
	if buf[8]&0x80 == 0 {
		return "", nil
	}
	return string(buf[9 : 9+consts.CD_ISRC_LEN]), nil
}

// ReadCatalog returns the media catalog number. When the drive does not report one the
// sub-channels of the first blocks are scanned.
func (d *GenericMMC) ReadCatalog(startLba, endLba int64) (string, error) {
	buf, err := d.readSubChannelData(0x02, 0)
	if err != nil {
		return "", fmt.Errorf("cannot read media catalog number: %w", err)
	}
	if buf[8]&0x80 != 0 {
		return string(buf[9 : 9+consts.CD_CATALOG_LEN]), nil
	}
	return ReadCatalogScan(d, startLba, endLba)
}

// ReadCdTextPacks reads the CD-TEXT packs of the lead-in.
func (d *GenericMMC) ReadCdTextPacks() ([]cdtext.Pack, error) {
	data, err := d.readTocData(scsi.TOC_FORMAT_CDTEXT, false, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot read CD-TEXT: %w", err)
	}
	if len(data) <= tocHeaderLen {
		return nil, nil
	}
	payload := data[tocHeaderLen:]
	payload = payload[:len(payload)-len(payload)%consts.CDTEXT_PACK_LEN]
	return cdtext.UnmarshalPacks(payload)
}
