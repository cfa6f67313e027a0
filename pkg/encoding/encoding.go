package encoding

import (
	"fmt"
	"io"
)

// ToBCD encodes a value in the range 0-99 as packed BCD.
func ToBCD(v int) byte {
	return byte(((v / 10) << 4) | (v % 10))
}

// FromBCD decodes a packed BCD byte.
func FromBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0f)
}

// IsBCD reports whether both nibbles of b are decimal digits.
func IsBCD(b byte) bool {
	return b>>4 <= 9 && b&0x0f <= 9
}

// UnmarshalBCD decodes a BCD byte and fails on nibbles above 9.
func UnmarshalBCD(b byte) (int, error) {
	if !IsBCD(b) {
		return 0, fmt.Errorf("invalid BCD value 0x%02x", b)
	}
	return FromBCD(b), nil
}

// CRC16 computes the CRC-16/CCITT (polynomial 0x1021, initial value 0) used by the Q sub-channel
// and CD-TEXT packs. The stored value on disc is the bitwise inverse of the result.
func CRC16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// PutCRC16 stores the inverted CRC of data[:n] big-endian into data[n:n+2].
func PutCRC16(data []byte, n int) error {
	if len(data) < n+2 {
		return io.ErrShortBuffer
	}
	crc := ^CRC16(data[:n])
	data[n] = byte(crc >> 8)
	data[n+1] = byte(crc)
	return nil
}

// CheckCRC16 validates the inverted CRC stored after the first n bytes of data.
func CheckCRC16(data []byte, n int) bool {
	if len(data) < n+2 {
		return false
	}
	crc := ^CRC16(data[:n])
	return data[n] == byte(crc>>8) && data[n+1] == byte(crc)
}
