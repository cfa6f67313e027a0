// Package cdtext models CD-TEXT items and converts them to and from the 18 byte packs stored in
// the lead-in.
package cdtext

import (
	"encoding/binary"
	"fmt"
)

// PackType is the CD-TEXT field type carried in the first byte of a pack.
type PackType byte

const (
	CDTEXT_TITLE       PackType = 0x80
	CDTEXT_PERFORMER   PackType = 0x81
	CDTEXT_SONGWRITER  PackType = 0x82
	CDTEXT_COMPOSER    PackType = 0x83
	CDTEXT_ARRANGER    PackType = 0x84
	CDTEXT_MESSAGE     PackType = 0x85
	CDTEXT_DISK_ID     PackType = 0x86
	CDTEXT_GENRE       PackType = 0x87
	CDTEXT_TOC_INFO1   PackType = 0x88
	CDTEXT_TOC_INFO2   PackType = 0x89
	CDTEXT_RES1        PackType = 0x8a
	CDTEXT_RES2        PackType = 0x8b
	CDTEXT_RES3        PackType = 0x8c
	CDTEXT_CLOSED      PackType = 0x8d
	CDTEXT_UPCEAN_ISRC PackType = 0x8e
	CDTEXT_SIZE_INFO   PackType = 0x8f
)

var packTypeNames = map[PackType]string{
	CDTEXT_TITLE:       "TITLE",
	CDTEXT_PERFORMER:   "PERFORMER",
	CDTEXT_SONGWRITER:  "SONGWRITER",
	CDTEXT_COMPOSER:    "COMPOSER",
	CDTEXT_ARRANGER:    "ARRANGER",
	CDTEXT_MESSAGE:     "MESSAGE",
	CDTEXT_DISK_ID:     "DISC_ID",
	CDTEXT_GENRE:       "GENRE",
	CDTEXT_TOC_INFO1:   "TOC_INFO1",
	CDTEXT_TOC_INFO2:   "TOC_INFO2",
	CDTEXT_RES1:        "RESERVED1",
	CDTEXT_RES2:        "RESERVED2",
	CDTEXT_RES3:        "RESERVED3",
	CDTEXT_CLOSED:      "CLOSED",
	CDTEXT_UPCEAN_ISRC: "UPC_EAN",
	CDTEXT_SIZE_INFO:   "SIZE_INFO",
}

// String returns the field keyword used in TOC files.
func (p PackType) String() string {
	if s, ok := packTypeNames[p]; ok {
		return s
	}
	return fmt.Sprintf("PackType(0x%02x)", byte(p))
}

// TrackString is like String but names the UPC/EAN field ISRC, which is what it holds on tracks.
func (p PackType) TrackString() string {
	if p == CDTEXT_UPCEAN_ISRC {
		return "ISRC"
	}
	return p.String()
}

// IsText reports whether items of this type hold a character string.
func (p PackType) IsText() bool {
	switch p {
	case CDTEXT_TITLE, CDTEXT_PERFORMER, CDTEXT_SONGWRITER, CDTEXT_COMPOSER, CDTEXT_ARRANGER,
		CDTEXT_MESSAGE, CDTEXT_DISK_ID, CDTEXT_UPCEAN_ISRC:
		return true
	}
	return false
}

// Language codes of the size information pack.
const (
	LANG_UNKNOWN  = 0x00
	LANG_GERMAN   = 0x08
	LANG_ENGLISH  = 0x09
	LANG_SPANISH  = 0x0a
	LANG_FRENCH   = 0x0f
	LANG_ITALIAN  = 0x15
	LANG_DUTCH    = 0x1d
	LANG_JAPANESE = 0x69
)

// Item is a single CD-TEXT field of one language block. Text items carry Text; binary items such
// as GENRE carry Data.
type Item struct {
	Type  PackType
	Block int
	Text  string
	Data  []byte
}

// NewText creates a text item.
func NewText(t PackType, block int, text string) *Item {
	return &Item{Type: t, Block: block, Text: text}
}

// NewBinary creates an item holding raw bytes.
func NewBinary(t PackType, block int, data []byte) *Item {
	return &Item{Type: t, Block: block, Data: append([]byte(nil), data...)}
}

// NewGenre creates a GENRE item from a genre code and an optional supplementary text.
func NewGenre(block int, code uint16, text string) *Item {
	data := make([]byte, 2, 2+len(text))
	binary.BigEndian.PutUint16(data, code)
	return &Item{Type: CDTEXT_GENRE, Block: block, Data: data, Text: text}
}

// GenreCode returns the genre code of a GENRE item.
func (i *Item) GenreCode() uint16 {
	if len(i.Data) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(i.Data)
}

func (i *Item) Clone() *Item {
	c := *i
	c.Data = append([]byte(nil), i.Data...)
	return &c
}

// Equal reports whether two items carry the same content.
func (i *Item) Equal(o *Item) bool {
	if i == nil || o == nil {
		return i == o
	}
	if i.Type != o.Type || i.Block != o.Block || i.Text != o.Text || len(i.Data) != len(o.Data) {
		return false
	}
	for n := range i.Data {
		if i.Data[n] != o.Data[n] {
			return false
		}
	}
	return true
}

func (i *Item) String() string {
	if i.Type.IsText() {
		return fmt.Sprintf("%s[%d]=%q", i.Type, i.Block, i.Text)
	}
	return fmt.Sprintf("%s[%d]=% x %q", i.Type, i.Block, i.Data, i.Text)
}
