// Package toc implements the table of contents of a disc-at-once session: an ordered list of
// tracks with derived disc positions, the structural editor operating on it, CD-TEXT validation and
// sequential access to the disc content.
package toc

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/logging"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/track"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
	"github.com/go-logr/logr"
)

// Type is the disc type recorded in the session's lead-in.
type Type int

const (
	CD_DA Type = iota
	CD_ROM
	CD_I
	CD_ROM_XA
)

func (t Type) String() string {
	switch t {
	case CD_DA:
		return "CD_DA"
	case CD_ROM:
		return "CD_ROM"
	case CD_I:
		return "CD_I"
	case CD_ROM_XA:
		return "CD_ROM_XA"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType converts a disc type keyword.
func ParseType(s string) (Type, error) {
	for _, t := range []Type{CD_DA, CD_ROM, CD_I, CD_ROM_XA} {
		if t.String() == s {
			return t, nil
		}
	}
	return CD_DA, fmt.Errorf("unknown disc type %q", s)
}

// entry is one track plus the positions derived from its predecessors. All positions are disc
// relative block addresses; end is exclusive.
type entry struct {
	track    *track.Track
	absStart msf.Msf
	start    msf.Msf
	end      msf.Msf
	trackNr  int
}

// Toc is the ordered track list of one session.
type Toc struct {
	tocType Type
	catalog string
	entries []*entry
	length  msf.Msf
	cdtext  *cdtext.Container
	log     *logging.Logger
}

// New creates an empty CD_DA table of contents.
func New() *Toc {
	return &Toc{
		tocType: CD_DA,
		cdtext:  cdtext.NewContainer(),
		log:     logging.DefaultLogger(),
	}
}

// SetLogger sets the logger used for check findings and edits.
func (t *Toc) SetLogger(log logr.Logger) {
	t.log = logging.NewLogger(log)
}

// Clone returns a deep copy of the TOC.
func (t *Toc) Clone() *Toc {
	c := &Toc{
		tocType: t.tocType,
		catalog: t.catalog,
		length:  t.length,
		cdtext:  t.cdtext.Clone(),
		log:     t.log,
		entries: make([]*entry, len(t.entries)),
	}
	for i, e := range t.entries {
		n := *e
		n.track = e.track.Clone()
		c.entries[i] = &n
	}
	return c
}

func (t *Toc) Type() Type {
	return t.tocType
}

func (t *Toc) SetType(tt Type) {
	t.tocType = tt
}

// TocTypeString returns the TOC file keyword of a disc type.
func TocTypeString(tt Type) string {
	return tt.String()
}

// Length returns the total disc length.
func (t *Toc) Length() msf.Msf {
	return t.length
}

func (t *Toc) TrackCount() int {
	return len(t.entries)
}

// Catalog returns the 13 digit media catalog number, empty if none is set.
func (t *Toc) Catalog() string {
	return t.catalog
}

// SetCatalog sets the media catalog number; an empty string removes it.
func (t *Toc) SetCatalog(s string) error {
	if s == "" {
		t.catalog = ""
		return nil
	}
	if len(s) != consts.CD_CATALOG_LEN {
		return fmt.Errorf("%w: %q", ErrIllegalCatalog, s)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: %q", ErrIllegalCatalog, s)
		}
	}
	t.catalog = s
	return nil
}

// Track returns track n (1 based) or nil. The returned track is owned by the TOC: meta data such as
// flags, ISRC and CD-TEXT may be changed through it, content and index marks must be edited through
// the TOC.
func (t *Toc) Track(n int) *track.Track {
	if e := t.entry(n); e != nil {
		return e.track
	}
	return nil
}

// TrackPosition returns the disc positions of track n: start of the pre-gap, start of the track
// and the exclusive end.
func (t *Toc) TrackPosition(n int) (absStart, start, end msf.Msf, err error) {
	e := t.entry(n)
	if e == nil {
		return 0, 0, 0, fmt.Errorf("%w: %d", ErrNoTrack, n)
	}
	return e.absStart, e.start, e.end, nil
}

// FindTrack returns the number of the track containing an absolute sample position, 0 when the
// position is behind the last track.
func (t *Toc) FindTrack(sample uint64) int {
	if e := t.findTrack(sample); e != nil {
		return e.trackNr
	}
	return 0
}

func (t *Toc) entry(n int) *entry {
	if n < 1 || n > len(t.entries) {
		return nil
	}
	return t.entries[n-1]
}

func (t *Toc) findTrack(sample uint64) *entry {
	for _, e := range t.entries {
		if sample < e.end.Samples() {
			return e
		}
	}
	return nil
}

// Append adds a copy of tr as the last track.
func (t *Toc) Append(tr *track.Track) {
	t.entries = append(t.entries, &entry{track: tr.Clone()})
	t.update()
	t.log.Debug("appended track", "track", len(t.entries), "length", tr.Length())
}

// update recomputes all derived positions and the track numbering.
func (t *Toc) update() {
	var length msf.Msf
	for i, e := range t.entries {
		l := e.track.Length()
		e.absStart = length
		e.start = length + e.track.Start()
		e.end = length + l
		e.trackNr = i + 1
		length += l
	}
	t.length = length
}

// checkConsistency verifies the derived state after an edit. A violation is a bug in the editor.
func (t *Toc) checkConsistency() {
	var length msf.Msf
	for i, e := range t.entries {
		if e.trackNr != i+1 {
			panic(fmt.Sprintf("toc: track %d numbered %d", i+1, e.trackNr))
		}
		if e.absStart != length || e.end != length+e.track.Length() || e.start != e.absStart+e.track.Start() {
			panic(fmt.Sprintf("toc: stale positions for track %d", e.trackNr))
		}
		if err := e.track.CheckConsistency(); err != nil {
			panic(fmt.Sprintf("toc: track %d: %v", e.trackNr, err))
		}
		length = e.end
	}
	if length != t.length {
		panic(fmt.Sprintf("toc: length %s does not match tracks (%s)", t.length, length))
	}
}

// LeadInMode returns the mode of the first sub-track of the first track, AUDIO for an empty TOC.
func (t *Toc) LeadInMode() trackdata.Mode {
	if len(t.entries) == 0 {
		return trackdata.MODE_AUDIO
	}
	s := t.entries[0].track.FirstSubTrack()
	if s == nil {
		return trackdata.MODE_AUDIO
	}
	return s.Mode()
}

// LeadOutMode returns the mode of the last sub-track of the last track, AUDIO for an empty TOC.
func (t *Toc) LeadOutMode() trackdata.Mode {
	if len(t.entries) == 0 {
		return trackdata.MODE_AUDIO
	}
	s := t.entries[len(t.entries)-1].track.LastSubTrack()
	if s == nil {
		return trackdata.MODE_AUDIO
	}
	return s.Mode()
}

// Check runs the advisory checks of every track and returns the highest severity found.
func (t *Toc) Check() (track.Severity, []track.Finding) {
	var findings []track.Finding
	for _, e := range t.entries {
		findings = append(findings, e.track.Check(e.trackNr)...)
	}
	for _, f := range findings {
		t.logFinding(f.Severity, f.String())
	}
	return track.MaxSeverity(findings), findings
}

func (t *Toc) logFinding(sev track.Severity, msg string) {
	switch sev {
	case track.SEVERITY_ERROR:
		t.log.Error(fmt.Errorf("%s", msg), "toc check failed")
	case track.SEVERITY_WARNING:
		t.log.Info("toc check warning", "finding", msg)
	}
}

// CdText returns the disc level CD-TEXT container.
func (t *Toc) CdText() *cdtext.Container {
	return t.cdtext
}

// AddCdTextItem adds an item to the disc (trackNr 0) or to a track.
func (t *Toc) AddCdTextItem(trackNr int, item *cdtext.Item) error {
	if trackNr == 0 {
		t.cdtext.Add(item)
		return nil
	}
	e := t.entry(trackNr)
	if e == nil {
		return fmt.Errorf("%w: %d", ErrNoTrack, trackNr)
	}
	e.track.AddCdTextItem(item)
	return nil
}

// RemoveCdTextItem removes an item from the disc (trackNr 0) or from a track.
func (t *Toc) RemoveCdTextItem(trackNr int, pt cdtext.PackType, block int) {
	if trackNr == 0 {
		t.cdtext.Remove(pt, block)
		return
	}
	if e := t.entry(trackNr); e != nil {
		e.track.RemoveCdTextItem(pt, block)
	}
}

// CdTextItem returns an item of the disc (trackNr 0) or of a track, nil if it is not defined.
func (t *Toc) CdTextItem(trackNr, block int, pt cdtext.PackType) *cdtext.Item {
	if trackNr == 0 {
		return t.cdtext.Get(block, pt)
	}
	if e := t.entry(trackNr); e != nil {
		return e.track.CdTextItem(block, pt)
	}
	return nil
}

// ExistCdTextBlock reports whether the disc or any track has items in a block.
func (t *Toc) ExistCdTextBlock(block int) bool {
	if t.cdtext.ExistBlock(block) {
		return true
	}
	for _, e := range t.entries {
		if e.track.ExistCdTextBlock(block) {
			return true
		}
	}
	return false
}

// SetCdTextLanguage assigns a language code to a block, -1 marks the block unused.
func (t *Toc) SetCdTextLanguage(block, lang int) {
	t.cdtext.SetLanguage(block, lang)
}

func (t *Toc) CdTextLanguage(block int) int {
	return t.cdtext.Language(block)
}

// CdTextPacks encodes the CD-TEXT of the disc and all tracks into lead-in packs.
func (t *Toc) CdTextPacks() ([]cdtext.Pack, error) {
	return cdtext.Encode(t.cdtext, t.trackContainers())
}

func (t *Toc) trackContainers() []*cdtext.Container {
	out := make([]*cdtext.Container, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.track.CdText()
	}
	return out
}
