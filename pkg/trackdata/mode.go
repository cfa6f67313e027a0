package trackdata

import (
	"fmt"
	"strings"

	"github.com/bgrewell/cdr-kit/pkg/consts"
)

// Mode is the sector mode of a track or data span.
type Mode int

const (
	MODE_AUDIO Mode = iota
	// MODE0 is a zero data sector. Sector mode detection also reports MODE0 when a header could
	// not be classified.
	MODE0
	MODE1
	MODE1_RAW
	MODE2
	MODE2_FORM1
	MODE2_FORM2
	MODE2_FORM_MIX
	MODE2_RAW
)

var modeNames = map[Mode]string{
	MODE_AUDIO:     "AUDIO",
	MODE0:          "MODE0",
	MODE1:          "MODE1",
	MODE1_RAW:      "MODE1_RAW",
	MODE2:          "MODE2",
	MODE2_FORM1:    "MODE2_FORM1",
	MODE2_FORM2:    "MODE2_FORM2",
	MODE2_FORM_MIX: "MODE2_FORM_MIX",
	MODE2_RAW:      "MODE2_RAW",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name as printed by String back to a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown track mode %q", s)
}

// BlockLen returns the number of bytes one block of this mode carries.
func (m Mode) BlockLen() int {
	switch m {
	case MODE_AUDIO, MODE1_RAW, MODE2_RAW:
		return consts.CD_AUDIO_BLOCK_LEN
	case MODE0:
		return consts.CD_MODE0_BLOCK_LEN
	case MODE1:
		return consts.CD_MODE1_BLOCK_LEN
	case MODE2, MODE2_FORM_MIX:
		return consts.CD_MODE2_BLOCK_LEN
	case MODE2_FORM1:
		return consts.CD_MODE2_FORM1_BLOCK_LEN
	case MODE2_FORM2:
		return consts.CD_MODE2_FORM2_BLOCK_LEN
	}
	return consts.CD_AUDIO_BLOCK_LEN
}

func (m Mode) IsAudio() bool {
	return m == MODE_AUDIO
}

// IsXA reports whether the mode uses the CD-ROM XA sub-header.
func (m Mode) IsXA() bool {
	switch m {
	case MODE2_FORM1, MODE2_FORM2, MODE2_FORM_MIX:
		return true
	}
	return false
}

// Compatible reports whether a span of mode span may be placed on a track of mode m.
func (m Mode) Compatible(span Mode) bool {
	if m == span {
		return true
	}
	switch m {
	case MODE2_FORM_MIX:
		return span == MODE2_FORM1 || span == MODE2_FORM2
	case MODE2_RAW:
		return span == MODE2 || span.IsXA()
	case MODE1_RAW:
		return span == MODE1
	}
	return false
}
