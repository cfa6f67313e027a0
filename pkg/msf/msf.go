// Package msf implements the minute:second:frame position used for all disc arithmetic.
package msf

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/encoding"
)

// Msf is a disc position or length in blocks. The zero value is 00:00:00.
type Msf int64

// New creates a position from minutes, seconds and frames.
func New(m, s, f int) Msf {
	return Msf(int64(m)*60*consts.CD_BLOCKS_PER_SECOND + int64(s)*consts.CD_BLOCKS_PER_SECOND + int64(f))
}

// FromLBA creates a position from a linear block address.
func FromLBA(lba int64) Msf {
	return Msf(lba)
}

// FromSamples converts a sample count to blocks, rounding down.
func FromSamples(samples uint64) Msf {
	return Msf(samples / consts.CD_SAMPLES_PER_BLOCK)
}

// FromSamplesCeil converts a sample count to blocks, counting a partial block as a full one.
func FromSamplesCeil(samples uint64) Msf {
	return Msf((samples + consts.CD_SAMPLES_PER_BLOCK - 1) / consts.CD_SAMPLES_PER_BLOCK)
}

// FromBCD decodes an absolute BCD m:s:f triple (as found in Q sub-channel data) into an LBA based
// position, i.e. 00:02:00 becomes 0.
func FromBCD(bm, bs, bf byte) (Msf, error) {
	m, err := encoding.UnmarshalBCD(bm)
	if err != nil {
		return 0, err
	}
	s, err := encoding.UnmarshalBCD(bs)
	if err != nil {
		return 0, err
	}
	f, err := encoding.UnmarshalBCD(bf)
	if err != nil {
		return 0, err
	}
	return New(m, s, f) - consts.CD_LBA_OFFSET, nil
}

// Parse reads a position in "mm:ss:ff" notation.
func Parse(s string) (Msf, error) {
	var m, sec, f int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &m, &sec, &f); err != nil {
		return 0, fmt.Errorf("invalid msf %q: %w", s, err)
	}
	if m < 0 || sec < 0 || sec > 59 || f < 0 || f >= consts.CD_BLOCKS_PER_SECOND {
		return 0, fmt.Errorf("invalid msf %q: field out of range", s)
	}
	return New(m, sec, f), nil
}

func (m Msf) LBA() int64 {
	return int64(m)
}

func (m Msf) Min() int {
	return int(int64(m) / (60 * consts.CD_BLOCKS_PER_SECOND))
}

func (m Msf) Sec() int {
	return int((int64(m) / consts.CD_BLOCKS_PER_SECOND) % 60)
}

func (m Msf) Frac() int {
	return int(int64(m) % consts.CD_BLOCKS_PER_SECOND)
}

// Samples returns the number of samples up to this position. Negative positions yield 0.
func (m Msf) Samples() uint64 {
	if m < 0 {
		return 0
	}
	return uint64(m) * consts.CD_SAMPLES_PER_BLOCK
}

// Absolute returns the position as absolute time, i.e. shifted by the 2 second lead-in offset.
func (m Msf) Absolute() Msf {
	return m + consts.CD_LBA_OFFSET
}

// BCD returns the position as BCD encoded minute, second and frame.
func (m Msf) BCD() (byte, byte, byte) {
	return encoding.ToBCD(m.Min()), encoding.ToBCD(m.Sec()), encoding.ToBCD(m.Frac())
}

// String returns the position as "mm:ss:ff".
func (m Msf) String() string {
	if m < 0 {
		return "-" + (-m).String()
	}
	return fmt.Sprintf("%02d:%02d:%02d", m.Min(), m.Sec(), m.Frac())
}
