package scsi

import (
	"encoding/binary"
)

// SCSI/MMC operation codes.
const (
	OP_TEST_UNIT_READY   = 0x00
	OP_REZERO_UNIT       = 0x01
	OP_REQUEST_SENSE     = 0x03
	OP_INQUIRY           = 0x12
	OP_MODE_SELECT6      = 0x15
	OP_MODE_SENSE6       = 0x1A
	OP_START_STOP_UNIT   = 0x1B
	OP_PREVENT_ALLOW     = 0x1E
	OP_READ_CAPACITY     = 0x25
	OP_WRITE10           = 0x2A
	OP_SYNCHRONIZE_CACHE = 0x35
	OP_READ_SUBCHANNEL   = 0x42
	OP_READ_TOC          = 0x43
	OP_READ_DISC_INFO    = 0x51
	OP_MODE_SELECT10     = 0x55
	OP_MODE_SENSE10      = 0x5A
	OP_SEND_CUE_SHEET    = 0x5D
	OP_BLANK             = 0xA1
	OP_SET_CD_SPEED      = 0xBB
	OP_READ_CD           = 0xBE
)

// READ TOC/PMA/ATIP formats.
const (
	TOC_FORMAT_TOC     = 0x00
	TOC_FORMAT_SESSION = 0x01
	TOC_FORMAT_FULL    = 0x02
	TOC_FORMAT_PMA     = 0x03
	TOC_FORMAT_ATIP    = 0x04
	TOC_FORMAT_CDTEXT  = 0x05
)

// READ CD expected sector types (byte 1, bits 2-4).
const (
	SECTOR_ANY         = 0x00
	SECTOR_CDDA        = 0x01
	SECTOR_MODE1       = 0x02
	SECTOR_MODE2       = 0x03
	SECTOR_MODE2_FORM1 = 0x04
	SECTOR_MODE2_FORM2 = 0x05
)

// READ CD main channel selection bits (byte 9).
const (
	READ_CD_SYNC      = 0x80
	READ_CD_HEADERS   = 0x20
	READ_CD_SUBHEADER = 0x40
	READ_CD_USER_DATA = 0x10
	READ_CD_EDC_ECC   = 0x08
	READ_CD_ALL       = READ_CD_SYNC | READ_CD_HEADERS | READ_CD_SUBHEADER | READ_CD_USER_DATA | READ_CD_EDC_ECC
)

// READ CD sub-channel selection (byte 10).
const (
	SUBCHANNEL_NONE  = 0x00
	SUBCHANNEL_RAW   = 0x01
	SUBCHANNEL_Q     = 0x02
	SUBCHANNEL_PW_RW = 0x04
)

// BLANK types.
const (
	BLANK_FULL    = 0x00
	BLANK_MINIMAL = 0x01
)

func BuildTestUnitReady() []byte {
	return []byte{OP_TEST_UNIT_READY, 0, 0, 0, 0, 0}
}

func BuildRezeroUnit() []byte {
	return []byte{OP_REZERO_UNIT, 0, 0, 0, 0, 0}
}

// BuildRequestSense creates a REQUEST SENSE CDB asking for alloc bytes of sense data.
func BuildRequestSense(alloc int) []byte {
	return []byte{OP_REQUEST_SENSE, 0, 0, 0, byte(alloc), 0}
}

// BuildInquiry creates a 6 byte INQUIRY CDB requesting the standard 36 byte response.
func BuildInquiry() []byte {
	return []byte{OP_INQUIRY, 0, 0, 0, INQUIRY_LEN, 0}
}

// BuildStartStopUnit creates a START STOP UNIT CDB. loadEject together with start=false ejects
// the medium, with start=true it loads it.
func BuildStartStopUnit(start, loadEject bool) []byte {
	var b4 byte
	if start {
		b4 |= 0x01
	}
	if loadEject {
		b4 |= 0x02
	}
	return []byte{OP_START_STOP_UNIT, 0, 0, 0, b4, 0}
}

// BuildPreventAllow locks (prevent=true) or unlocks the tray.
func BuildPreventAllow(prevent bool) []byte {
	var b4 byte
	if prevent {
		b4 = 0x01
	}
	return []byte{OP_PREVENT_ALLOW, 0, 0, 0, b4, 0}
}

func BuildReadCapacity() []byte {
	return make10(OP_READ_CAPACITY)
}

// BuildReadToc creates a READ TOC/PMA/ATIP CDB. track selects the starting track (or the
// session number for the full TOC format).
func BuildReadToc(format byte, msfTime bool, track byte, alloc int) []byte {
	cdb := make10(OP_READ_TOC)
	if msfTime {
		cdb[1] = 0x02
	}
	cdb[2] = format & 0x0f
	cdb[6] = track
	binary.BigEndian.PutUint16(cdb[7:9], uint16(alloc))
	return cdb
}

func BuildReadDiscInfo(alloc int) []byte {
	cdb := make10(OP_READ_DISC_INFO)
	binary.BigEndian.PutUint16(cdb[7:9], uint16(alloc))
	return cdb
}

// BuildReadCD creates a READ CD CDB for count blocks starting at lba.
func BuildReadCD(sectorType byte, lba int64, count int, mainChannel, subChannel byte) []byte {
	cdb := make([]byte, 12)
	cdb[0] = OP_READ_CD
	cdb[1] = (sectorType & 0x07) << 2
	binary.BigEndian.PutUint32(cdb[2:6], uint32(int32(lba)))
	cdb[6] = byte(count >> 16)
	cdb[7] = byte(count >> 8)
	cdb[8] = byte(count)
	cdb[9] = mainChannel
	cdb[10] = subChannel & 0x07
	return cdb
}

// BuildReadSubChannel creates a READ SUB-CHANNEL CDB. format 0x02 returns the media catalog
// number, 0x03 the ISRC of track.
func BuildReadSubChannel(format byte, track byte, alloc int) []byte {
	cdb := make10(OP_READ_SUBCHANNEL)
	cdb[2] = 0x40
	cdb[3] = format
	cdb[6] = track
	binary.BigEndian.PutUint16(cdb[7:9], uint16(alloc))
	return cdb
}

func BuildModeSense6(page byte, alloc int) []byte {
	return []byte{OP_MODE_SENSE6, 0x08, page & 0x3f, 0, byte(alloc), 0}
}

func BuildModeSelect6(length int) []byte {
	return []byte{OP_MODE_SELECT6, 0x10, 0, 0, byte(length), 0}
}

// BuildModeSense10 requests the current values of a mode page without block descriptors.
func BuildModeSense10(page byte, alloc int) []byte {
	cdb := make10(OP_MODE_SENSE10)
	cdb[1] = 0x08
	cdb[2] = page & 0x3f
	binary.BigEndian.PutUint16(cdb[7:9], uint16(alloc))
	return cdb
}

// BuildModeSelect10 creates a MODE SELECT(10) CDB with the page format bit set.
func BuildModeSelect10(length int) []byte {
	cdb := make10(OP_MODE_SELECT10)
	cdb[1] = 0x10
	binary.BigEndian.PutUint16(cdb[7:9], uint16(length))
	return cdb
}

func BuildSendCueSheet(length int) []byte {
	cdb := make10(OP_SEND_CUE_SHEET)
	cdb[6] = byte(length >> 16)
	cdb[7] = byte(length >> 8)
	cdb[8] = byte(length)
	return cdb
}

// BuildWrite10 creates a WRITE(10) CDB. lba may be negative for the pre-gap of the first track.
func BuildWrite10(lba int64, count int) []byte {
	cdb := make10(OP_WRITE10)
	binary.BigEndian.PutUint32(cdb[2:6], uint32(int32(lba)))
	binary.BigEndian.PutUint16(cdb[7:9], uint16(count))
	return cdb
}

func BuildSynchronizeCache() []byte {
	return make10(OP_SYNCHRONIZE_CACHE)
}

// BuildBlank creates a BLANK CDB. With immediate set the command returns before blanking is done.
func BuildBlank(blankType byte, immediate bool) []byte {
	cdb := make([]byte, 12)
	cdb[0] = OP_BLANK
	cdb[1] = blankType & 0x07
	if immediate {
		cdb[1] |= 0x10
	}
	return cdb
}

// BuildSetCdSpeed sets read and write speed in kB/s, 0xffff selects the maximum.
func BuildSetCdSpeed(readSpeed, writeSpeed int) []byte {
	cdb := make([]byte, 12)
	cdb[0] = OP_SET_CD_SPEED
	binary.BigEndian.PutUint16(cdb[2:4], uint16(readSpeed))
	binary.BigEndian.PutUint16(cdb[4:6], uint16(writeSpeed))
	return cdb
}

func make10(op byte) []byte {
	cdb := make([]byte, 10)
	cdb[0] = op
	return cdb
}
