package driver

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/scsi"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/bgrewell/cdr-kit/pkg/track"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// Write parameters mode page fields.
const (
	WRITE_TYPE_SAO        = 0x02
	WRITE_TEST            = 0x10
	WRITE_MULTI_SESSION   = 0xC0
	writeTypeMask         = 0x1f
	multiSessionMask      = 0xC0
	sessionFormatOffset   = 8
	writeParametersMinLen = 9
)

// R-W blocks sent per WRITE(10) while writing the CD-TEXT lead-in.
const leadInChunk = 32

// CheckToc rejects TOCs with tracks this driver cannot record.
func (d *GenericMMC) CheckToc(t *toc.Toc) error {
	for n := 1; n <= t.TrackCount(); n++ {
		if _, err := DataForm(t.Track(n).Mode()); err != nil {
			return fmt.Errorf("track %d: %w", n, err)
		}
	}
	if sev, findings := t.CheckCdText(); sev >= track.SEVERITY_ERROR {
		for _, f := range findings {
			if f.Severity >= track.SEVERITY_ERROR {
				return fmt.Errorf("cannot record CD-TEXT: %s", f)
			}
		}
	}
	return nil
}

// InitDao builds the cue sheet and CD-TEXT packs of t.
func (d *GenericMMC) InitDao(t *toc.Toc) error {
	packs, err := t.CdTextPacks()
	if err != nil {
		return fmt.Errorf("cannot encode CD-TEXT: %w", err)
	}
	cue, err := BuildCueSheet(t, len(packs) > 0)
	if err != nil {
		return err
	}
	d.toc, d.cueSheet, d.cdTextPacks = t, cue, packs
	d.aborted = false
	d.log.Debug("prepared recording", "cue sheet entries", len(cue)/cueEntryLen, "cd-text packs", len(packs))
	return nil
}

// setWriteParameters selects session at once recording in the write parameters page.
func (d *GenericMMC) setWriteParameters() error {
	mp, err := scsi.SenseModePage(d.t, scsi.PAGE_WRITE_PARAMETERS)
	if err != nil {
		return err
	}
	p := mp.Page
	if len(p) < writeParametersMinLen {
		return fmt.Errorf("write parameters page: %w", scsi.ErrShortResponse)
	}
	p[2] = p[2]&^writeTypeMask | WRITE_TYPE_SAO
	if d.opts.Simulate {
		p[2] |= WRITE_TEST
	}
	p[3] &^= multiSessionMask
	if d.opts.MultiSession {
		p[3] |= WRITE_MULTI_SESSION
	}
	p[sessionFormatOffset] = SessionFormat(d.toc)
	if err := scsi.SelectModePage(d.t, mp); err != nil {
		return fmt.Errorf("cannot set write parameters: %w", err)
	}
	return nil
}

// StartDao locks the tray, configures the write parameters, sends the cue sheet and writes the
// CD-TEXT lead-in.
func (d *GenericMMC) StartDao() error {
	if d.toc == nil {
		return fmt.Errorf("%w: recording not initialized", ErrInvalidState)
	}
	if err := d.PreventMediumRemoval(true); err != nil {
		return err
	}
	if err := d.setWriteParameters(); err != nil {
		return err
	}
	if err := d.send(scsi.BuildSendCueSheet(len(d.cueSheet)), d.cueSheet, nil); err != nil {
		return fmt.Errorf("cannot send cue sheet: %w", err)
	}
	if len(d.cdTextPacks) > 0 {
		if err := d.writeCdTextLeadIn(); err != nil {
			return err
		}
	}
	return nil
}

// writeCdTextLeadIn fills the lead-in from its start up to the pre-gap of track 1 with the packed
// CD-TEXT, repeating the packs.
func (d *GenericMMC) writeCdTextLeadIn() error {
	start, err := d.leadInStart()
	if err != nil {
		return err
	}
	rw := cdtext.PackRW(d.cdTextPacks)
	end := int64(-consts.CD_LBA_OFFSET)
	d.log.Debug("writing CD-TEXT lead-in", "start", start, "blocks", end-start)

	buf := make([]byte, leadInChunk*consts.CD_PW_SUBCHANNEL_LEN)
	next := 0
	for lba := start; lba < end; {
		n := int64(leadInChunk)
		if end-lba < n {
			n = end - lba
		}
		for i := int64(0); i < n; i++ {
			copy(buf[i*consts.CD_PW_SUBCHANNEL_LEN:], rw[next])
			next = (next + 1) % len(rw)
		}
		data := buf[:n*consts.CD_PW_SUBCHANNEL_LEN]
		if err := d.send(scsi.BuildWrite10(lba, int(n)), data, nil); err != nil {
			return fmt.Errorf("cannot write CD-TEXT lead-in at lba %d: %w", lba, err)
		}
		lba += n
	}
	return nil
}

// WriteData writes blocks blocks with WRITE(10).
func (d *GenericMMC) WriteData(mode trackdata.Mode, lba int64, buf []byte, blocks int) error {
	bl := d.BlockSize(mode)
	if len(buf) < blocks*bl {
		return fmt.Errorf("buffer holds %d bytes, %d blocks of %s need %d", len(buf), blocks, mode, blocks*bl)
	}
	if err := d.send(scsi.BuildWrite10(lba, blocks), buf[:blocks*bl], nil); err != nil {
		return fmt.Errorf("write at lba %d failed: %w", lba, err)
	}
	return nil
}

// FinishDao flushes the cache, which writes the lead-out, and waits until the drive is idle.
func (d *GenericMMC) FinishDao() error {
	if err := d.FlushCache(); err != nil {
		return err
	}
	if err := d.waitReady(); err != nil {
		return fmt.Errorf("drive did not finish recording: %w", err)
	}
	if err := d.PreventMediumRemoval(false); err != nil {
		return err
	}
	d.toc, d.cueSheet, d.cdTextPacks = nil, nil, nil
	return nil
}

// AbortDao flushes the cache and unlocks the tray. Failures are logged, not returned.
func (d *GenericMMC) AbortDao() error {
	if d.aborted {
		return nil
	}
	d.aborted = true
	if err := d.FlushCache(); err != nil {
		d.log.Info("flush during abort failed", "error", err)
	}
	if err := d.PreventMediumRemoval(false); err != nil {
		d.log.Info("cannot unlock tray", "error", err)
	}
	d.toc, d.cueSheet, d.cdTextPacks = nil, nil, nil
	return nil
}
