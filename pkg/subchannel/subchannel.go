// Package subchannel decodes and encodes the 12 byte Q sub-channel frame carried by every CD
// block. Three frame types are understood: ADR 1 (position), ADR 2 (media catalog number) and
// ADR 3 (ISRC).
package subchannel

import (
	"errors"
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/encoding"
	"github.com/bgrewell/cdr-kit/pkg/msf"
)

const (
	ADR_POSITION = 1
	ADR_CATALOG  = 2
	ADR_ISRC     = 3
)

// Control nibble bits.
const (
	CTL_PRE_EMPHASIS = 0x1
	CTL_COPY         = 0x2
	CTL_DATA         = 0x4
	CTL_FOUR_CHANNEL = 0x8
	CTL_MASK         = 0x0f
)

const (
	ctlShift          = 4
	leadOutTrackCode  = 0xaa
	isrcDigitOffset   = '0'
	isrcLetterOffset  = 'A' - 0x11
	isrcCharBits      = 6
	catalogDigitBytes = 7
)

var (
	ErrShortFrame  = errors.New("Q sub-channel frame too short")
	ErrUnknownAdr  = errors.New("unknown Q sub-channel ADR mode")
	ErrInvalidBCD  = errors.New("invalid BCD value in Q sub-channel")
	ErrInvalidIsrc = errors.New("invalid ISRC in Q sub-channel")
)

// Q is a decoded Q sub-channel frame. Only the fields belonging to Adr are meaningful.
type Q struct {
	Ctl byte
	Adr int

	// ADR 1
	Track    int
	Index    int
	Relative msf.Msf
	Absolute msf.Msf

	// ADR 2 and 3
	Catalog string
	Isrc    string
	// Frame number of the absolute time, present in ADR 2 and 3 frames.
	AFrame int

	CRCValid bool
}

// IsData reports whether the control nibble marks a data track.
func (q *Q) IsData() bool {
	return q.Ctl&CTL_DATA != 0
}

// IsLeadOut reports whether a position frame belongs to the lead-out area.
func (q *Q) IsLeadOut() bool {
	return q.Adr == ADR_POSITION && q.Track == consts.CD_LEADOUT_TRACK
}

func (q *Q) String() string {
	switch q.Adr {
	case ADR_POSITION:
		return fmt.Sprintf("ctl=%x track=%02d index=%02d rel=%s abs=%s", q.Ctl, q.Track, q.Index, q.Relative, q.Absolute)
	case ADR_CATALOG:
		return fmt.Sprintf("ctl=%x catalog=%s", q.Ctl, q.Catalog)
	case ADR_ISRC:
		return fmt.Sprintf("ctl=%x isrc=%s", q.Ctl, q.Isrc)
	}
	return fmt.Sprintf("ctl=%x adr=%d", q.Ctl, q.Adr)
}

// Decode parses the first 12 bytes of data as a Q sub-channel frame. A CRC mismatch is not an
// error, it is reported through CRCValid since many drives do not deliver the CRC at all.
func Decode(data []byte) (*Q, error) {
	if len(data) < consts.CD_Q_SUBCHANNEL_LEN {
		return nil, ErrShortFrame
	}
	b := data[:consts.CD_Q_SUBCHANNEL_LEN]
	q := &Q{
		Ctl:      b[0] >> ctlShift,
		Adr:      int(b[0] & 0x0f),
		CRCValid: encoding.CheckCRC16(b, 10),
	}

	var err error
	switch q.Adr {
	case ADR_POSITION:
		err = q.decodePosition(b)
	case ADR_CATALOG:
		err = q.decodeCatalog(b)
	case ADR_ISRC:
		err = q.decodeIsrc(b)
	default:
		return q, fmt.Errorf("%w: %d", ErrUnknownAdr, q.Adr)
	}
	return q, err
}

func (q *Q) decodePosition(b []byte) error {
	if b[1] == leadOutTrackCode {
		q.Track = consts.CD_LEADOUT_TRACK
	} else {
		n, err := encoding.UnmarshalBCD(b[1])
		if err != nil {
			return fmt.Errorf("%w: track 0x%02x", ErrInvalidBCD, b[1])
		}
		q.Track = n
	}
	idx, err := encoding.UnmarshalBCD(b[2])
	if err != nil {
		return fmt.Errorf("%w: index 0x%02x", ErrInvalidBCD, b[2])
	}
	q.Index = idx

	rel, err := msf.FromBCD(b[3], b[4], b[5])
	if err != nil {
		return fmt.Errorf("%w: relative time", ErrInvalidBCD)
	}
	q.Relative = rel + consts.CD_LBA_OFFSET

	if q.Absolute, err = msf.FromBCD(b[7], b[8], b[9]); err != nil {
		return fmt.Errorf("%w: absolute time", ErrInvalidBCD)
	}
	return nil
}

func (q *Q) decodeCatalog(b []byte) error {
	digits := make([]byte, 0, consts.CD_CATALOG_LEN)
	for i := 1; i <= catalogDigitBytes; i++ {
		for _, nib := range []byte{b[i] >> 4, b[i] & 0x0f} {
			if len(digits) == consts.CD_CATALOG_LEN {
				break
			}
			if nib > 9 {
				return fmt.Errorf("%w: catalog digit 0x%x", ErrInvalidBCD, nib)
			}
			digits = append(digits, '0'+nib)
		}
	}
	q.Catalog = string(digits)
	return q.decodeAFrame(b[9])
}

func (q *Q) decodeIsrc(b []byte) error {
	// five 6 bit characters in bytes 1-4, seven BCD digits in bytes 5-8
	bits := uint32(b[1])<<24 | uint32(b[2])<<16 | uint32(b[3])<<8 | uint32(b[4])
	isrc := make([]byte, 0, consts.CD_ISRC_LEN)
	for i := 0; i < 5; i++ {
		c := byte(bits>>(32-isrcCharBits*(i+1))) & 0x3f
		ch, ok := isrcChar(c)
		if !ok {
			return fmt.Errorf("%w: character code 0x%02x", ErrInvalidIsrc, c)
		}
		isrc = append(isrc, ch)
	}
	for i := 5; i <= 8; i++ {
		for _, nib := range []byte{b[i] >> 4, b[i] & 0x0f} {
			if len(isrc) == consts.CD_ISRC_LEN {
				break
			}
			if nib > 9 {
				return fmt.Errorf("%w: digit 0x%x", ErrInvalidIsrc, nib)
			}
			isrc = append(isrc, '0'+nib)
		}
	}
	q.Isrc = string(isrc)
	return q.decodeAFrame(b[9])
}

func (q *Q) decodeAFrame(b byte) error {
	f, err := encoding.UnmarshalBCD(b)
	if err != nil {
		return fmt.Errorf("%w: frame 0x%02x", ErrInvalidBCD, b)
	}
	q.AFrame = f
	return nil
}

func isrcChar(c byte) (byte, bool) {
	switch {
	case c <= 9:
		return c + isrcDigitOffset, true
	case c >= 0x11 && c <= 0x2a:
		return c + isrcLetterOffset, true
	}
	return 0, false
}

func isrcCode(ch byte) (byte, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - isrcDigitOffset, true
	case ch >= 'A' && ch <= 'Z':
		return ch - isrcLetterOffset, true
	}
	return 0, false
}

// Marshal encodes the frame into its 12 byte wire form including the CRC.
func (q *Q) Marshal() ([]byte, error) {
	b := make([]byte, consts.CD_Q_SUBCHANNEL_LEN)
	b[0] = (q.Ctl&CTL_MASK)<<ctlShift | byte(q.Adr&0x0f)

	switch q.Adr {
	case ADR_POSITION:
		if q.Track == consts.CD_LEADOUT_TRACK {
			b[1] = leadOutTrackCode
		} else {
			b[1] = encoding.ToBCD(q.Track)
		}
		b[2] = encoding.ToBCD(q.Index)
		b[3], b[4], b[5] = q.Relative.BCD()
		b[7], b[8], b[9] = q.Absolute.Absolute().BCD()
	case ADR_CATALOG:
		if len(q.Catalog) != consts.CD_CATALOG_LEN {
			return nil, fmt.Errorf("catalog number must have %d digits: %q", consts.CD_CATALOG_LEN, q.Catalog)
		}
		for i := 0; i < consts.CD_CATALOG_LEN; i++ {
			c := q.Catalog[i]
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("catalog number must be numeric: %q", q.Catalog)
			}
			if i%2 == 0 {
				b[1+i/2] = (c - '0') << 4
			} else {
				b[1+i/2] |= c - '0'
			}
		}
		b[9] = encoding.ToBCD(q.AFrame)
	case ADR_ISRC:
		if len(q.Isrc) != consts.CD_ISRC_LEN {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIsrc, q.Isrc)
		}
		var bits uint32
		for i := 0; i < 5; i++ {
			c, ok := isrcCode(q.Isrc[i])
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrInvalidIsrc, q.Isrc)
			}
			bits |= uint32(c) << (32 - isrcCharBits*(i+1))
		}
		b[1], b[2], b[3], b[4] = byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits)
		for i := 5; i < consts.CD_ISRC_LEN; i++ {
			c := q.Isrc[i]
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("%w: %q", ErrInvalidIsrc, q.Isrc)
			}
			n := 5 + (i-5)/2
			if (i-5)%2 == 0 {
				b[n] = (c - '0') << 4
			} else {
				b[n] |= c - '0'
			}
		}
		b[9] = encoding.ToBCD(q.AFrame)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAdr, q.Adr)
	}

	if err := encoding.PutCRC16(b, 10); err != nil {
		return nil, err
	}
	return b, nil
}

// NewPosition creates an ADR 1 frame. abs is an LBA, rel the offset relative to the index 1
// position of the track (the pre-gap counts down towards it).
func NewPosition(ctl byte, trackNr, index int, rel, abs msf.Msf) *Q {
	return &Q{Ctl: ctl, Adr: ADR_POSITION, Track: trackNr, Index: index, Relative: rel, Absolute: abs}
}
