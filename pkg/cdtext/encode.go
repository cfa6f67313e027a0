package cdtext

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"golang.org/x/text/encoding/charmap"
)

var ErrTooManyPacks = errors.New("CD-TEXT block exceeds 256 packs")

// Character set codes of the size information pack.
const (
	CHARSET_ISO8859_1 = 0x00
	CHARSET_ASCII     = 0x01
	CHARSET_MS_JIS    = 0x80
)

// Field order inside a block.
var encodeOrder = []PackType{
	CDTEXT_TITLE,
	CDTEXT_PERFORMER,
	CDTEXT_SONGWRITER,
	CDTEXT_COMPOSER,
	CDTEXT_ARRANGER,
	CDTEXT_MESSAGE,
	CDTEXT_DISK_ID,
	CDTEXT_GENRE,
	CDTEXT_UPCEAN_ISRC,
}

// BlockUsed reports whether a block has a language assigned or carries any item on the disc or on
// one of the tracks.
func BlockUsed(block int, disc *Container, tracks []*Container) bool {
	if disc.Language(block) >= 0 || disc.ExistBlock(block) {
		return true
	}
	for _, t := range tracks {
		if t.ExistBlock(block) {
			return true
		}
	}
	return false
}

// Encode converts the disc level container and the per-track containers (tracks[0] is track 1,
// nil entries are allowed) into the pack sequence written to the lead-in. Packs are ordered by
// block, then field, then track; every block ends with three size information packs.
func Encode(disc *Container, tracks []*Container) ([]Pack, error) {
	if disc == nil {
		disc = NewContainer()
	}
	var blocks [consts.CDTEXT_MAX_BLOCKS][]Pack
	var counts [consts.CDTEXT_MAX_BLOCKS][16]byte
	var lastSeq [consts.CDTEXT_MAX_BLOCKS]byte
	var langs [consts.CDTEXT_MAX_BLOCKS]byte

	for b := 0; b < consts.CDTEXT_MAX_BLOCKS; b++ {
		if !BlockUsed(b, disc, tracks) {
			continue
		}
		if lang := disc.Language(b); lang >= 0 {
			langs[b] = byte(lang)
		}

		var packs []Pack
		for _, t := range encodeOrder {
			stream, starts, err := buildStream(t, b, disc, tracks)
			if err != nil {
				return nil, err
			}
			if stream == nil {
				continue
			}
			for off := 0; off < len(stream); off += consts.CDTEXT_PACK_PAYLOAD_LEN {
				owner := 0
				for i, s := range starts {
					if s <= off {
						owner = i
					}
				}
				cp := off - starts[owner]
				if cp > 15 {
					cp = 15
				}
				p := Pack{
					PackType:       byte(t),
					TrackNumber:    byte(owner),
					BlockCharacter: byte(b<<4) | byte(cp),
				}
				copy(p.Data[:], stream[off:])
				packs = append(packs, p)
				counts[b][t-CDTEXT_TITLE]++
			}
		}
		counts[b][CDTEXT_SIZE_INFO-CDTEXT_TITLE] = 3
		if len(packs)+3 > 256 {
			return nil, fmt.Errorf("block %d: %w", b, ErrTooManyPacks)
		}
		lastSeq[b] = byte(len(packs) + 2)
		blocks[b] = packs
	}

	var out []Pack
	for b := 0; b < consts.CDTEXT_MAX_BLOCKS; b++ {
		if blocks[b] == nil && counts[b][CDTEXT_SIZE_INFO-CDTEXT_TITLE] == 0 {
			continue
		}
		packs := blocks[b]

		var info [36]byte
		info[0] = CHARSET_ISO8859_1
		if len(tracks) > 0 {
			info[1] = 1
			info[2] = byte(len(tracks))
		}
		copy(info[4:20], counts[b][:])
		copy(info[20:28], lastSeq[:])
		copy(info[28:36], langs[:])
		for i := 0; i < 3; i++ {
			p := Pack{
				PackType:       byte(CDTEXT_SIZE_INFO),
				TrackNumber:    byte(i),
				BlockCharacter: byte(b << 4),
			}
			copy(p.Data[:], info[i*12:(i+1)*12])
			packs = append(packs, p)
		}

		for i := range packs {
			packs[i].SequenceNumber = byte(i)
			packs[i].SetCRC()
		}
		out = append(out, packs...)
	}
	return out, nil
}

// buildStream concatenates the NUL terminated strings of one field for the disc (index 0) and all
// tracks. It returns nil when the field is not used in the block.
func buildStream(t PackType, block int, disc *Container, tracks []*Container) ([]byte, []int, error) {
	switch t {
	case CDTEXT_GENRE:
		it := disc.Get(block, t)
		if it == nil {
			return nil, nil, nil
		}
		text, err := encodeLatin1(it.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("block %d %s: %w", block, t, err)
		}
		stream := make([]byte, 0, 2+len(text)+1)
		code := it.Data
		if len(code) < 2 {
			code = []byte{0, 0}
		}
		stream = append(stream, code[:2]...)
		stream = append(stream, text...)
		stream = append(stream, 0)
		return stream, []int{0}, nil
	case CDTEXT_DISK_ID:
		it := disc.Get(block, t)
		if it == nil {
			return nil, nil, nil
		}
		text, err := encodeLatin1(it.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("block %d %s: %w", block, t, err)
		}
		return append(text, 0), []int{0}, nil
	}

	used := disc.Get(block, t) != nil
	for _, c := range tracks {
		if c.Get(block, t) != nil {
			used = true
		}
	}
	if !used {
		return nil, nil, nil
	}

	var buf bytes.Buffer
	starts := make([]int, 0, len(tracks)+1)
	all := append([]*Container{disc}, tracks...)
	for n, c := range all {
		starts = append(starts, buf.Len())
		if it := c.Get(block, t); it != nil {
			text, err := encodeLatin1(it.Text)
			if err != nil {
				return nil, nil, fmt.Errorf("block %d %s track %d: %w", block, t, n, err)
			}
			buf.Write(text)
		}
		buf.WriteByte(0)
	}
	return buf.Bytes(), starts, nil
}

func encodeLatin1(s string) ([]byte, error) {
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return nil, fmt.Errorf("text %q contains a NUL character", s)
	}
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("text %q is not representable in ISO-8859-1: %w", s, err)
	}
	return b, nil
}

func decodeLatin1(b []byte) string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
