// Package track implements the content model of a single track: typed data spans, pre-gap, index
// marks, ISRC and CD-TEXT items.
package track

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

var (
	ErrTooManyIndices = errors.New("too many index marks")
	ErrIllegalIndex   = errors.New("illegal index mark position")
	ErrIndexNotFound  = errors.New("index mark not found")
	ErrIllegalIsrc    = errors.New("illegal ISRC code")
	ErrModeMismatch   = errors.New("data mode does not match track mode")
	ErrIllegalStart   = errors.New("illegal track start")
	ErrIllegalRange   = errors.New("sample range outside of track")
)

// Flags are the sub-channel control bits a track is recorded with.
type Flags struct {
	CopyPermitted bool
	PreEmphasis   bool
	FourChannel   bool
}

// Track is an ordered sequence of sub-tracks plus the meta data recorded for it. Index marks are
// stored as offsets relative to the track start (index 1), the pre-gap precedes the start.
type Track struct {
	mode      trackdata.Mode
	flags     Flags
	start     msf.Msf
	indices   []msf.Msf
	isrc      string
	cdtext    *cdtext.Container
	subTracks []*trackdata.SubTrack
}

// New creates an empty track of the given mode.
func New(mode trackdata.Mode) *Track {
	return &Track{mode: mode, cdtext: cdtext.NewContainer()}
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	c := *t
	c.indices = append([]msf.Msf(nil), t.indices...)
	c.cdtext = t.cdtext.Clone()
	c.subTracks = make([]*trackdata.SubTrack, len(t.subTracks))
	for i, s := range t.subTracks {
		c.subTracks[i] = s.Clone()
	}
	return &c
}

func (t *Track) Mode() trackdata.Mode {
	return t.mode
}

func (t *Track) IsAudio() bool {
	return t.mode.IsAudio()
}

func (t *Track) Flags() Flags {
	return t.flags
}

func (t *Track) SetFlags(f Flags) {
	t.flags = f
}

// Start returns the pre-gap length.
func (t *Track) Start() msf.Msf {
	return t.start
}

// SetStart sets the pre-gap length. Index offsets stay relative to the new start and must still
// fit into the track.
func (t *Track) SetStart(start msf.Msf) error {
	if start < 0 || start > t.Length() {
		return fmt.Errorf("%w: %s of %s", ErrIllegalStart, start, t.Length())
	}
	body := t.Length() - start
	if n := len(t.indices); n > 0 && t.indices[n-1] >= body {
		return fmt.Errorf("%w: index mark at %s beyond new track end", ErrIllegalStart, t.indices[n-1])
	}
	t.start = start
	return nil
}

// Samples returns the track length in samples.
func (t *Track) Samples() uint64 {
	return trackdata.SubTrackSamples(t.subTracks)
}

// Length returns the track length in blocks including the pre-gap. A trailing partial audio block
// counts as a full block.
func (t *Track) Length() msf.Msf {
	return msf.FromSamplesCeil(t.Samples())
}

// BodyLength returns the length after the pre-gap.
func (t *Track) BodyLength() msf.Msf {
	return t.Length() - t.start
}

func (t *Track) IndexCount() int {
	return len(t.indices)
}

// Index returns the offset of index mark i (index number i+2) relative to the track start.
func (t *Track) Index(i int) msf.Msf {
	return t.indices[i]
}

func (t *Track) Indices() []msf.Msf {
	return append([]msf.Msf(nil), t.indices...)
}

// AddIndex inserts an index mark at an offset relative to the track start.
func (t *Track) AddIndex(offset msf.Msf) error {
	if len(t.indices) >= consts.CD_MAX_INDEX_MARKS {
		return ErrTooManyIndices
	}
	if offset <= 0 || offset >= t.BodyLength() {
		return fmt.Errorf("%w: %s", ErrIllegalIndex, offset)
	}
	i := sort.Search(len(t.indices), func(i int) bool { return t.indices[i] >= offset })
	if i < len(t.indices) && t.indices[i] == offset {
		return fmt.Errorf("%w: %s already marked", ErrIllegalIndex, offset)
	}
	t.indices = append(t.indices, 0)
	copy(t.indices[i+1:], t.indices[i:])
	t.indices[i] = offset
	return nil
}

// RemoveIndex removes index mark i (index number i+2).
func (t *Track) RemoveIndex(i int) error {
	if i < 0 || i >= len(t.indices) {
		return fmt.Errorf("%w: %d", ErrIndexNotFound, i+2)
	}
	t.indices = append(t.indices[:i], t.indices[i+1:]...)
	return nil
}

// MoveIndex moves index mark i to a new offset without crossing its neighbours.
func (t *Track) MoveIndex(i int, offset msf.Msf) error {
	if i < 0 || i >= len(t.indices) {
		return fmt.Errorf("%w: %d", ErrIndexNotFound, i+2)
	}
	lower := msf.Msf(0)
	if i > 0 {
		lower = t.indices[i-1]
	}
	upper := t.BodyLength()
	if i+1 < len(t.indices) {
		upper = t.indices[i+1]
	}
	if offset <= lower || offset >= upper {
		return fmt.Errorf("%w: %s not between %s and %s", ErrIllegalIndex, offset, lower, upper)
	}
	t.indices[i] = offset
	return nil
}

// SetIndices replaces all index marks.
func (t *Track) SetIndices(offsets []msf.Msf) error {
	if err := validIndices(offsets, t.BodyLength()); err != nil {
		return err
	}
	t.indices = append([]msf.Msf(nil), offsets...)
	return nil
}

func validIndices(offsets []msf.Msf, body msf.Msf) error {
	if len(offsets) > consts.CD_MAX_INDEX_MARKS {
		return ErrTooManyIndices
	}
	last := msf.Msf(0)
	for _, o := range offsets {
		if o <= last || o >= body {
			return fmt.Errorf("%w: %s", ErrIllegalIndex, o)
		}
		last = o
	}
	return nil
}

func (t *Track) Isrc() string {
	return t.isrc
}

// SetIsrc sets the ISRC code; an empty string removes it.
func (t *Track) SetIsrc(isrc string) error {
	if isrc != "" && !ValidIsrc(isrc) {
		return fmt.Errorf("%w: %q", ErrIllegalIsrc, isrc)
	}
	t.isrc = isrc
	return nil
}

// ValidIsrc checks the CCOOOYYSSSSS layout: country and owner alphanumeric, year and serial
// numeric.
func ValidIsrc(s string) bool {
	if len(s) != consts.CD_ISRC_LEN {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		digit := c >= '0' && c <= '9'
		upper := c >= 'A' && c <= 'Z'
		switch {
		case i < 2:
			if !upper {
				return false
			}
		case i < 5:
			if !upper && !digit {
				return false
			}
		default:
			if !digit {
				return false
			}
		}
	}
	return true
}

// CdText returns the track's CD-TEXT container.
func (t *Track) CdText() *cdtext.Container {
	return t.cdtext
}

func (t *Track) AddCdTextItem(item *cdtext.Item) {
	t.cdtext.Add(item)
}

func (t *Track) RemoveCdTextItem(pt cdtext.PackType, block int) {
	t.cdtext.Remove(pt, block)
}

func (t *Track) CdTextItem(block int, pt cdtext.PackType) *cdtext.Item {
	return t.cdtext.Get(block, pt)
}

func (t *Track) ExistCdTextBlock(block int) bool {
	return t.cdtext.ExistBlock(block)
}

// SubTracks returns copies of the sub-tracks in order.
func (t *Track) SubTracks() []*trackdata.SubTrack {
	out := make([]*trackdata.SubTrack, len(t.subTracks))
	for i, s := range t.subTracks {
		out[i] = s.Clone()
	}
	return out
}

func (t *Track) SubTrackCount() int {
	return len(t.subTracks)
}

func (t *Track) FirstSubTrack() *trackdata.SubTrack {
	if len(t.subTracks) == 0 {
		return nil
	}
	return t.subTracks[0]
}

func (t *Track) LastSubTrack() *trackdata.SubTrack {
	if len(t.subTracks) == 0 {
		return nil
	}
	return t.subTracks[len(t.subTracks)-1]
}

// Append adds a sub-track at the end of the track.
func (t *Track) Append(s *trackdata.SubTrack) error {
	return t.AppendSubTracks([]*trackdata.SubTrack{s})
}

// AppendData appends a data span as a DATA sub-track.
func (t *Track) AppendData(d *trackdata.TrackData) error {
	return t.Append(trackdata.NewSubTrack(trackdata.SUBTRACK_DATA, d))
}

func (t *Track) AppendSubTracks(subs []*trackdata.SubTrack) error {
	if err := t.checkModes(subs); err != nil {
		return err
	}
	for _, s := range subs {
		t.subTracks = append(t.subTracks, s.Clone())
	}
	return nil
}

// Prepend inserts sub-tracks in front of the existing ones. Start and index offsets are not
// changed.
func (t *Track) Prepend(subs []*trackdata.SubTrack) error {
	if err := t.checkModes(subs); err != nil {
		return err
	}
	n := make([]*trackdata.SubTrack, 0, len(subs)+len(t.subTracks))
	for _, s := range subs {
		n = append(n, s.Clone())
	}
	t.subTracks = append(n, t.subTracks...)
	return nil
}

func (t *Track) checkModes(subs []*trackdata.SubTrack) error {
	for _, s := range subs {
		if !t.mode.Compatible(s.Mode()) {
			return fmt.Errorf("%w: %s span on %s track", ErrModeMismatch, s.Mode(), t.mode)
		}
	}
	return nil
}

// RemoveToEnd cuts the track at a sample offset and returns everything after it. Index marks that
// fall behind the new end are dropped.
func (t *Track) RemoveToEnd(sample uint64) ([]*trackdata.SubTrack, error) {
	if sample > t.Samples() {
		return nil, fmt.Errorf("%w: %d", ErrIllegalRange, sample)
	}
	head, tail, err := trackdata.SplitSubTracks(t.subTracks, sample)
	if err != nil {
		return nil, err
	}
	t.subTracks = head
	body := t.BodyLength()
	for len(t.indices) > 0 && t.indices[len(t.indices)-1] >= body {
		t.indices = t.indices[:len(t.indices)-1]
	}
	return tail, nil
}

// RemoveFromStart removes the first samples of the track and returns them. Start and index offsets
// are left for the caller to adjust.
func (t *Track) RemoveFromStart(sample uint64) ([]*trackdata.SubTrack, error) {
	if sample > t.Samples() {
		return nil, fmt.Errorf("%w: %d", ErrIllegalRange, sample)
	}
	head, tail, err := trackdata.SplitSubTracks(t.subTracks, sample)
	if err != nil {
		return nil, err
	}
	t.subTracks = tail
	return head, nil
}

// RemoveTrackData removes the samples [start, end) and returns them.
func (t *Track) RemoveTrackData(start, end uint64) ([]*trackdata.SubTrack, error) {
	if start >= end || end > t.Samples() {
		return nil, fmt.Errorf("%w: %d-%d", ErrIllegalRange, start, end)
	}
	head, rest, err := trackdata.SplitSubTracks(t.subTracks, start)
	if err != nil {
		return nil, err
	}
	removed, tail, err := trackdata.SplitSubTracks(rest, end-start)
	if err != nil {
		return nil, err
	}
	t.subTracks = append(head, tail...)
	return removed, nil
}

// InsertTrackData inserts sub-tracks at a sample offset.
func (t *Track) InsertTrackData(pos uint64, subs []*trackdata.SubTrack) error {
	if pos > t.Samples() {
		return fmt.Errorf("%w: %d", ErrIllegalRange, pos)
	}
	if err := t.checkModes(subs); err != nil {
		return err
	}
	head, tail, err := trackdata.SplitSubTracks(t.subTracks, pos)
	if err != nil {
		return err
	}
	n := make([]*trackdata.SubTrack, 0, len(head)+len(subs)+len(tail))
	n = append(n, head...)
	for _, s := range subs {
		n = append(n, s.Clone())
	}
	t.subTracks = append(n, tail...)
	return nil
}

// CheckConsistency verifies the structural invariants of the track.
func (t *Track) CheckConsistency() error {
	if t.start < 0 || t.start > t.Length() {
		return fmt.Errorf("%w: start %s, length %s", ErrIllegalStart, t.start, t.Length())
	}
	if err := validIndices(t.indices, t.BodyLength()); err != nil {
		return err
	}
	return t.checkModes(t.subTracks)
}
