package scsi

import (
	"encoding/binary"
	"fmt"
)

// Mode pages used by the drivers.
const (
	PAGE_WRITE_PARAMETERS = 0x05
	PAGE_CD_CAPABILITIES  = 0x2A
)

const (
	modeHeader10Len = 8
	modeHeader6Len  = 4
	modeSenseAlloc  = 0xff
)

// ModePage holds one mode page as returned by MODE SENSE together with the header and block
// descriptors, so that it can be modified and sent back with MODE SELECT.
type ModePage struct {
	Header    []byte
	BlockDesc []byte
	Page      []byte
	short     bool
}

// Code returns the page code.
func (m *ModePage) Code() byte {
	return m.Page[0] & 0x3f
}

// SenseModePage reads the current values of page with MODE SENSE(10).
func SenseModePage(t Transport, page byte) (*ModePage, error) {
	buf := make([]byte, modeSenseAlloc)
	if err := t.SendCmd(BuildModeSense10(page, len(buf)), nil, buf); err != nil {
		return nil, fmt.Errorf("cannot retrieve mode page 0x%02x: %w", page, err)
	}
	if len(buf) < modeHeader10Len {
		return nil, ErrShortResponse
	}
	dataLen := int(binary.BigEndian.Uint16(buf[0:2])) + 2
	bdLen := int(binary.BigEndian.Uint16(buf[6:8]))
	return splitModePage(page, buf, modeHeader10Len, bdLen, dataLen, false)
}

// SenseModePage6 reads page with MODE SENSE(6) for drives that lack the 10 byte variant.
func SenseModePage6(t Transport, page byte) (*ModePage, error) {
	buf := make([]byte, modeSenseAlloc)
	if err := t.SendCmd(BuildModeSense6(page, len(buf)), nil, buf); err != nil {
		return nil, fmt.Errorf("cannot retrieve mode page 0x%02x: %w", page, err)
	}
	dataLen := int(buf[0]) + 1
	bdLen := int(buf[3])
	return splitModePage(page, buf, modeHeader6Len, bdLen, dataLen, true)
}

func splitModePage(page byte, buf []byte, hdrLen, bdLen, dataLen int, short bool) (*ModePage, error) {
	if dataLen > len(buf) {
		dataLen = len(buf)
	}
	off := hdrLen + bdLen
	if off+2 > dataLen {
		return nil, fmt.Errorf("%w: mode page 0x%02x missing", ErrShortResponse, page)
	}
	pageLen := int(buf[off+1]) + 2
	if off+pageLen > dataLen {
		return nil, fmt.Errorf("%w: mode page 0x%02x truncated", ErrShortResponse, page)
	}
	if got := buf[off] & 0x3f; got != page {
		return nil, fmt.Errorf("received mode page 0x%02x instead of 0x%02x", got, page)
	}
	return &ModePage{
		Header:    append([]byte(nil), buf[:hdrLen]...),
		BlockDesc: append([]byte(nil), buf[hdrLen:off]...),
		Page:      append([]byte(nil), buf[off:off+pageLen]...),
		short:     short,
	}, nil
}

// SelectModePage writes m back with MODE SELECT, using the command variant m was read with.
func SelectModePage(t Transport, m *ModePage) error {
	data := make([]byte, 0, len(m.Header)+len(m.BlockDesc)+len(m.Page))
	data = append(data, m.Header...)
	data = append(data, m.BlockDesc...)
	data = append(data, m.Page...)

	// mode data length is reserved for MODE SELECT, the PS bit must be cleared
	hdrLen := len(m.Header)
	data[0] = 0
	if !m.short {
		data[1] = 0
	}
	data[hdrLen+len(m.BlockDesc)] &= 0x7f

	cdb := BuildModeSelect10(len(data))
	if m.short {
		cdb = BuildModeSelect6(len(data))
	}
	if err := t.SendCmd(cdb, data, nil); err != nil {
		return fmt.Errorf("cannot set mode page 0x%02x: %w", m.Code(), err)
	}
	return nil
}
