package driver

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/subchannel"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// Cue sheet data forms of the main channel.
const (
	DATA_FORM_AUDIO         = 0x00
	DATA_FORM_AUDIO_ZERO    = 0x01
	DATA_FORM_MODE1         = 0x10
	DATA_FORM_MODE1_RAW     = 0x11
	DATA_FORM_MODE1_ZERO    = 0x14
	DATA_FORM_XA_FORM1      = 0x20
	DATA_FORM_XA_FORM2      = 0x24
	DATA_FORM_MODE2         = 0x30
	DATA_FORM_MODE2_RAW     = 0x31
	DATA_FORM_MODE2_ZERO    = 0x34
	DATA_FORM_CDTEXT_LEADIN = 0x40
)

// Length of one cue sheet entry.
const cueEntryLen = 8

// DataForm returns the cue sheet data form for blocks of mode sent by the host.
func DataForm(mode trackdata.Mode) (byte, error) {
	switch mode {
	case trackdata.MODE_AUDIO:
		return DATA_FORM_AUDIO, nil
	case trackdata.MODE1:
		return DATA_FORM_MODE1, nil
	case trackdata.MODE1_RAW:
		return DATA_FORM_MODE1_RAW, nil
	case trackdata.MODE2, trackdata.MODE2_FORM_MIX:
		return DATA_FORM_MODE2, nil
	case trackdata.MODE2_FORM1:
		return DATA_FORM_XA_FORM1, nil
	case trackdata.MODE2_FORM2:
		return DATA_FORM_XA_FORM2, nil
	case trackdata.MODE2_RAW:
		return DATA_FORM_MODE2_RAW, nil
	}
	return 0, fmt.Errorf("%w: cannot record %s blocks", ErrUnsupported, mode)
}

// leadDataForm returns the data form of lead-in and lead-out, which are generated by the drive.
func leadDataForm(mode trackdata.Mode) byte {
	switch {
	case mode.IsAudio():
		return DATA_FORM_AUDIO_ZERO
	case mode == trackdata.MODE1 || mode == trackdata.MODE1_RAW:
		return DATA_FORM_MODE1_ZERO
	}
	return DATA_FORM_MODE2_ZERO
}

// BuildCueSheet creates the cue sheet of a disc-at-once recording of t. With cdText set the
// lead-in is announced to carry CD-TEXT in the R-W sub-channel.
func BuildCueSheet(t *toc.Toc, cdText bool) ([]byte, error) {
	if t.TrackCount() == 0 {
		return nil, fmt.Errorf("%w: empty TOC", ErrNoToc)
	}
	var cue []byte
	add := func(ctlAdr, tno, index, form byte, pos msf.Msf) {
		m, s, f := pos.Min(), pos.Sec(), pos.Frac()
		cue = append(cue, ctlAdr, tno, index, form, 0, byte(m), byte(s), byte(f))
	}

	first := t.Track(1)
	firstCtl := TrackCtl(first) << 4

	if cat := t.Catalog(); cat != "" {
		cue = append(cue, subchannel.ADR_CATALOG)
		cue = append(cue, cat[:7]...)
		cue = append(cue, subchannel.ADR_CATALOG)
		cue = append(cue, cat[7:]...)
		cue = append(cue, 0)
	}

	leadIn := leadDataForm(t.LeadInMode())
	if cdText {
		leadIn |= DATA_FORM_CDTEXT_LEADIN
	}
	add(firstCtl|subchannel.ADR_POSITION, 0, 0, leadIn, 0)

	for n := 1; n <= t.TrackCount(); n++ {
		tr := t.Track(n)
		absStart, start, _, err := t.TrackPosition(n)
		if err != nil {
			return nil, err
		}
		form, err := DataForm(tr.Mode())
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", n, err)
		}
		ctl := TrackCtl(tr) << 4
		tno := byte(n)

		if isrc := tr.Isrc(); isrc != "" {
			cue = append(cue, ctl|subchannel.ADR_ISRC, tno)
			cue = append(cue, isrc[:6]...)
			cue = append(cue, ctl|subchannel.ADR_ISRC, tno)
			cue = append(cue, isrc[6:]...)
		}

		switch {
		case n == 1:
			add(ctl|subchannel.ADR_POSITION, tno, 0, form, 0)
		case tr.Start() > 0:
			add(ctl|subchannel.ADR_POSITION, tno, 0, form, absStart+consts.CD_LBA_OFFSET)
		}
		add(ctl|subchannel.ADR_POSITION, tno, 1, form, start+consts.CD_LBA_OFFSET)
		for i, off := range tr.Indices() {
			add(ctl|subchannel.ADR_POSITION, tno, byte(i+2), form, start+off+consts.CD_LBA_OFFSET)
		}
	}

	last := t.Track(t.TrackCount())
	add(TrackCtl(last)<<4|subchannel.ADR_POSITION, consts.CD_LEADOUT_TRACK, 1,
		leadDataForm(t.LeadOutMode()), t.Length()+consts.CD_LBA_OFFSET)

	if len(cue)%cueEntryLen != 0 {
		panic(fmt.Sprintf("driver: cue sheet length %d is not a multiple of %d", len(cue), cueEntryLen))
	}
	return cue, nil
}
