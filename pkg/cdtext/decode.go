package cdtext

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/bgrewell/cdr-kit/pkg/consts"
)

// Decoded is the result of decoding a pack sequence. Errors lists packs that were dropped or
// blocks that could not be interpreted; the remaining data is still usable.
type Decoded struct {
	Disc       *Container
	Tracks     map[int]*Container
	FirstTrack int
	LastTrack  int
	Errors     []error
}

// Track returns the container of a track, nil when the track has no items.
func (d *Decoded) Track(n int) *Container {
	return d.Tracks[n]
}

// DecodeBytes decodes raw pack data as returned by READ TOC format 5 (without the header).
func DecodeBytes(data []byte) (*Decoded, error) {
	packs, err := UnmarshalPacks(data)
	if err != nil {
		return nil, err
	}
	return Decode(packs), nil
}

// Decode validates every pack, groups the valid ones by language block and sequence number and
// reassembles the field strings.
func Decode(packs []Pack) *Decoded {
	d := &Decoded{Disc: NewContainer(), Tracks: map[int]*Container{}}
	byBlock := map[int][]Pack{}

	for i, p := range packs {
		if !p.CRCValid() {
			d.Errors = append(d.Errors, fmt.Errorf("pack %d (type 0x%02x, sequence %d): %w",
				i, p.PackType, p.SequenceNumber, ErrBadCRC))
			continue
		}
		if p.PackType < byte(CDTEXT_TITLE) || p.PackType > byte(CDTEXT_SIZE_INFO) {
			d.Errors = append(d.Errors, fmt.Errorf("pack %d: unknown pack type 0x%02x", i, p.PackType))
			continue
		}
		byBlock[p.Block()] = append(byBlock[p.Block()], p)
	}

	blocks := make([]int, 0, len(byBlock))
	for b := range byBlock {
		blocks = append(blocks, b)
	}
	sort.Ints(blocks)

	for _, b := range blocks {
		list := byBlock[b]
		sort.SliceStable(list, func(i, j int) bool { return list[i].SequenceNumber < list[j].SequenceNumber })

		byType := map[PackType][]Pack{}
		var sizeInfo []Pack
		for _, p := range list {
			if PackType(p.PackType) == CDTEXT_SIZE_INFO {
				sizeInfo = append(sizeInfo, p)
				continue
			}
			byType[PackType(p.PackType)] = append(byType[PackType(p.PackType)], p)
		}
		d.decodeSizeInfo(b, sizeInfo)

		for t, tp := range byType {
			switch {
			case t == CDTEXT_GENRE:
				d.decodeGenre(b, tp)
			case t.IsText():
				if tp[0].DoubleByte() {
					d.Errors = append(d.Errors, fmt.Errorf("block %d %s: double byte text is not supported", b, t))
					continue
				}
				d.decodeText(b, t, tp)
			}
		}
	}
	return d
}

func (d *Decoded) decodeSizeInfo(block int, packs []Pack) {
	if len(packs) == 0 {
		return
	}
	sort.SliceStable(packs, func(i, j int) bool { return packs[i].TrackNumber < packs[j].TrackNumber })
	if len(packs) < 3 {
		d.Errors = append(d.Errors, fmt.Errorf("block %d: incomplete size information (%d of 3 packs)", block, len(packs)))
		return
	}
	var info []byte
	for _, p := range packs[:3] {
		info = append(info, p.Data[:]...)
	}
	if info[0] != CHARSET_ISO8859_1 && info[0] != CHARSET_ASCII {
		d.Errors = append(d.Errors, fmt.Errorf("block %d: unsupported character set 0x%02x", block, info[0]))
	}
	d.FirstTrack = int(info[1])
	d.LastTrack = int(info[2])
	d.Disc.SetLanguage(block, int(info[28+block]))
}

func (d *Decoded) decodeGenre(block int, packs []Pack) {
	var data []byte
	for _, p := range packs {
		data = append(data, p.Data[:]...)
	}
	if len(data) < 2 {
		return
	}
	text := data[2:]
	if i := bytes.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	d.Disc.Add(NewGenre(block, binary.BigEndian.Uint16(data), decodeLatin1(text)))
}

// decodeText walks the payload bytes of one field. A gap in the sequence numbers resynchronises on
// the next pack: its track number names the owner of its first character and a non zero character
// position means that string started in a lost pack and is skipped.
func (d *Decoded) decodeText(block int, t PackType, packs []Pack) {
	var cur []byte
	var prev string
	track := 0
	skipping := false
	prevSeq := -2

	for _, p := range packs {
		if int(p.SequenceNumber) != prevSeq+1 {
			cur = cur[:0]
			track = p.Track()
			skipping = p.CharPosition() > 0
		}
		prevSeq = int(p.SequenceNumber)

		for _, c := range p.Data {
			if skipping {
				if c == 0 {
					skipping = false
					track++
				}
				continue
			}
			if c != 0 {
				cur = append(cur, c)
				continue
			}
			s := decodeLatin1(cur)
			cur = cur[:0]
			if s == "\t" {
				s = prev
			}
			d.emit(block, t, track, s)
			prev = s
			track++
		}
	}
}

func (d *Decoded) emit(block int, t PackType, track int, s string) {
	if s == "" || track > consts.CD_MAX_TRACKS {
		return
	}
	if track == 0 {
		d.Disc.Add(NewText(t, block, s))
		return
	}
	c, ok := d.Tracks[track]
	if !ok {
		c = NewContainer()
		d.Tracks[track] = c
	}
	c.Add(NewText(t, block, s))
}
