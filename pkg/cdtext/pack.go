package cdtext

import (
	"errors"
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/encoding"
)

var ErrBadCRC = errors.New("CD-TEXT pack CRC mismatch")

// Pack is one 18 byte CD-TEXT pack.
type Pack struct {
	PackType       byte
	TrackNumber    byte
	SequenceNumber byte
	BlockCharacter byte
	Data           [consts.CDTEXT_PACK_PAYLOAD_LEN]byte
	CRC0           byte
	CRC1           byte
}

// Block returns the language block number (0-7).
func (p *Pack) Block() int {
	return int(p.BlockCharacter>>4) & 0x07
}

// CharPosition returns the number of characters of the current string that precede the payload,
// capped at 15.
func (p *Pack) CharPosition() int {
	return int(p.BlockCharacter & 0x0f)
}

// DoubleByte reports whether the block uses a double byte character set.
func (p *Pack) DoubleByte() bool {
	return p.BlockCharacter&0x80 != 0
}

// Track returns the track number without the extension flag.
func (p *Pack) Track() int {
	return int(p.TrackNumber & 0x7f)
}

// SetCRC computes and stores the CRC over the first 16 bytes.
func (p *Pack) SetCRC() {
	b := p.Marshal()
	_ = encoding.PutCRC16(b, 16)
	p.CRC0, p.CRC1 = b[16], b[17]
}

// CRCValid checks the stored CRC.
func (p *Pack) CRCValid() bool {
	return encoding.CheckCRC16(p.Marshal(), 16)
}

// Marshal returns the 18 byte wire form.
func (p *Pack) Marshal() []byte {
	b := make([]byte, consts.CDTEXT_PACK_LEN)
	b[0] = p.PackType
	b[1] = p.TrackNumber
	b[2] = p.SequenceNumber
	b[3] = p.BlockCharacter
	copy(b[4:16], p.Data[:])
	b[16] = p.CRC0
	b[17] = p.CRC1
	return b
}

// Unmarshal reads the 18 byte wire form.
func (p *Pack) Unmarshal(data []byte) error {
	if len(data) < consts.CDTEXT_PACK_LEN {
		return fmt.Errorf("data too short for CD-TEXT pack: %d bytes", len(data))
	}
	p.PackType = data[0]
	p.TrackNumber = data[1]
	p.SequenceNumber = data[2]
	p.BlockCharacter = data[3]
	copy(p.Data[:], data[4:16])
	p.CRC0 = data[16]
	p.CRC1 = data[17]
	return nil
}

// MarshalPacks concatenates the wire forms of packs.
func MarshalPacks(packs []Pack) []byte {
	out := make([]byte, 0, len(packs)*consts.CDTEXT_PACK_LEN)
	for i := range packs {
		out = append(out, packs[i].Marshal()...)
	}
	return out
}

// UnmarshalPacks splits raw data into packs. Trailing bytes that do not form a full pack are an
// error.
func UnmarshalPacks(data []byte) ([]Pack, error) {
	if len(data)%consts.CDTEXT_PACK_LEN != 0 {
		return nil, fmt.Errorf("CD-TEXT data length %d is not a multiple of %d", len(data), consts.CDTEXT_PACK_LEN)
	}
	packs := make([]Pack, len(data)/consts.CDTEXT_PACK_LEN)
	for i := range packs {
		if err := packs[i].Unmarshal(data[i*consts.CDTEXT_PACK_LEN:]); err != nil {
			return nil, err
		}
	}
	return packs, nil
}
