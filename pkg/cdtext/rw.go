package cdtext

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/consts"
)

// PackRW interleaves packs into 96 byte R-W sub-channel blocks as written in the lead-in. Every
// block carries four packs spread over 96 six bit symbols; a short final group is filled by
// repeating packs from the start of the sequence.
func PackRW(packs []Pack) [][]byte {
	if len(packs) == 0 {
		return nil
	}
	groups := (len(packs) + consts.CDTEXT_PACKS_PER_RW - 1) / consts.CDTEXT_PACKS_PER_RW
	out := make([][]byte, groups)
	for g := 0; g < groups; g++ {
		raw := make([]byte, 0, consts.CDTEXT_PACKS_PER_RW*consts.CDTEXT_PACK_LEN)
		for i := 0; i < consts.CDTEXT_PACKS_PER_RW; i++ {
			p := packs[(g*consts.CDTEXT_PACKS_PER_RW+i)%len(packs)]
			raw = append(raw, p.Marshal()...)
		}
		block := make([]byte, consts.CD_PW_SUBCHANNEL_LEN)
		for i, j := 0, 0; i < len(raw); i, j = i+3, j+4 {
			a, b, c := raw[i], raw[i+1], raw[i+2]
			block[j] = a >> 2
			block[j+1] = (a&0x03)<<4 | b>>4
			block[j+2] = (b&0x0f)<<2 | c>>6
			block[j+3] = c & 0x3f
		}
		out[g] = block
	}
	return out
}

// UnpackRW reverses PackRW for one 96 byte block.
func UnpackRW(block []byte) ([]Pack, error) {
	if len(block) < consts.CD_PW_SUBCHANNEL_LEN {
		return nil, fmt.Errorf("data too short for R-W block: %d bytes", len(block))
	}
	raw := make([]byte, 0, consts.CDTEXT_PACKS_PER_RW*consts.CDTEXT_PACK_LEN)
	for j := 0; j < consts.CD_PW_SUBCHANNEL_LEN; j += 4 {
		s0, s1, s2, s3 := block[j]&0x3f, block[j+1]&0x3f, block[j+2]&0x3f, block[j+3]&0x3f
		raw = append(raw, s0<<2|s1>>4, (s1&0x0f)<<4|s2>>2, (s2&0x03)<<6|s3)
	}
	return UnmarshalPacks(raw)
}
