package toc

import (
	"errors"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/track"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// All editor operations work on copies of the affected tracks and only replace the originals after
// every check passed. Index marks keep their absolute disc positions unless they are removed.

const minTrack = msf.Msf(consts.CD_MIN_TRACK_BLOCKS)

// MoveTrackMarker moves the pre-gap start (indexNr 0), the track start (indexNr 1) or an index mark
// (indexNr > 1) of a track to an absolute block address. Moving a track boundary moves the audio
// data between the track and its predecessor.
func (t *Toc) MoveTrackMarker(trackNr, indexNr int, lba int64) error {
	const op = "move track marker"
	fail := func(err error) error { return markerError(op, trackNr, indexNr, lba, err) }

	if trackNr == 1 && indexNr == 0 {
		return fail(ErrFirstTrackPregap)
	}
	act := t.entry(trackNr)
	if act == nil || indexNr < 0 {
		return fail(ErrMarkerNotFound)
	}
	pregap := act.track.Start()
	var pred *entry
	if trackNr > 1 {
		pred = t.entries[trackNr-2]
	}

	if indexNr <= 1 && !act.track.IsAudio() {
		return fail(ErrDataTrack)
	}
	if (indexNr == 0 || (indexNr == 1 && pregap == 0)) && pred != nil && !pred.track.IsAudio() {
		return fail(ErrDataTrack)
	}
	if indexNr == 0 && pregap == 0 {
		return fail(ErrMarkerNotFound)
	}
	if indexNr > 1 && indexNr-2 >= act.track.IndexCount() {
		return fail(ErrMarkerNotFound)
	}
	if lba < 0 || lba >= t.length.LBA() {
		return fail(ErrIllegalPosition)
	}
	pos := msf.FromLBA(lba)

	if indexNr > 1 {
		if pos <= act.absStart || pos >= act.end {
			return fail(ErrIllegalPosition)
		}
		if pos <= act.start {
			return fail(ErrCrossesMarker)
		}
		nt := act.track.Clone()
		if err := nt.MoveIndex(indexNr-2, pos-act.start); err != nil {
			return fail(ErrCrossesMarker)
		}
		t.commit(map[*entry]*track.Track{act: nt})
		return nil
	}

	if indexNr == 1 && (pregap > 0 || trackNr == 1) {
		// the track start moves inside its own pre-gap region
		if pos > act.end-minTrack {
			return fail(ErrTrackTooShort)
		}
		if pos <= act.absStart && trackNr > 1 {
			return fail(ErrIllegalPosition)
		}
		nt := act.track.Clone()
		if err := shiftStart(nt, pos-act.absStart, act.start-pos); err != nil {
			return fail(err)
		}
		t.commit(map[*entry]*track.Track{act: nt})
		return nil
	}

	// The boundary between pred and act moves: samples are transplanted between the two tracks.
	boundary := act.absStart
	np := pred.track.Clone()
	na := act.track.Clone()

	switch {
	case pos < boundary:
		if pos < pred.start+minTrack {
			return fail(ErrTrackTooShort)
		}
		if n := np.IndexCount(); n > 0 && pred.start+np.Index(n-1) >= pos {
			return fail(ErrCrossesMarker)
		}
		tail, err := np.RemoveToEnd((pos - pred.absStart).Samples())
		if err != nil {
			return fail(ErrIllegalPosition)
		}
		if err := na.Prepend(tail); err != nil {
			return fail(ErrDataTrack)
		}
		if indexNr == 0 {
			if err := na.SetStart(act.start - pos); err != nil {
				return fail(ErrIllegalPosition)
			}
		} else if err := shiftStart(na, 0, boundary-pos); err != nil {
			return fail(err)
		}

	case pos > boundary:
		if indexNr == 1 {
			if act.end-pos < minTrack {
				return fail(ErrTrackTooShort)
			}
		} else if pos >= act.start {
			return fail(ErrCrossesMarker)
		}
		head, err := na.RemoveFromStart((pos - boundary).Samples())
		if err != nil {
			return fail(ErrIllegalPosition)
		}
		if indexNr == 1 {
			if err := shiftStart(na, 0, boundary-pos); err != nil {
				return fail(err)
			}
		} else if err := na.SetStart(act.start - pos); err != nil {
			return fail(ErrIllegalPosition)
		}
		if err := np.AppendSubTracks(head); err != nil {
			return fail(ErrDataTrack)
		}

	default:
		return nil
	}

	t.commit(map[*entry]*track.Track{pred: np, act: na})
	return nil
}

// shiftStart gives tr a new pre-gap and moves all index marks by delta so that they keep their
// absolute positions. delta is the difference between the old and the new track start.
func shiftStart(tr *track.Track, pregap, delta msf.Msf) error {
	indices := tr.Indices()
	for i := range indices {
		indices[i] += delta
		if indices[i] <= 0 {
			return ErrCrossesMarker
		}
	}
	if err := tr.SetIndices(nil); err != nil {
		return err
	}
	if err := tr.SetStart(pregap); err != nil {
		return ErrIllegalPosition
	}
	if tr.BodyLength() < minTrack {
		return ErrTrackTooShort
	}
	if err := tr.SetIndices(indices); err != nil {
		return ErrCrossesMarker
	}
	return nil
}

// RemoveTrackMarker removes a pre-gap (indexNr 0), an index mark (indexNr > 1) or a whole track
// boundary (indexNr 1), in which case the track is merged into its predecessor.
func (t *Toc) RemoveTrackMarker(trackNr, indexNr int) error {
	const op = "remove track marker"
	fail := func(err error) error { return markerError(op, trackNr, indexNr, -1, err) }

	if trackNr == 1 && indexNr == 1 {
		return fail(ErrFirstTrackStart)
	}
	act := t.entry(trackNr)
	if act == nil || indexNr < 0 {
		return fail(ErrMarkerNotFound)
	}
	var pred *entry
	if trackNr > 1 {
		pred = t.entries[trackNr-2]
	}
	if indexNr <= 1 {
		if !act.track.IsAudio() || (pred != nil && !pred.track.IsAudio()) {
			return fail(ErrDataTrack)
		}
	}

	pregap := act.track.Start()
	switch {
	case indexNr > 1:
		nt := act.track.Clone()
		if err := nt.RemoveIndex(indexNr - 2); err != nil {
			return fail(ErrMarkerNotFound)
		}
		t.commit(map[*entry]*track.Track{act: nt})

	case trackNr == 1 && indexNr == 0:
		if pregap == 0 {
			return fail(ErrMarkerNotFound)
		}
		nt := act.track.Clone()
		if err := shiftStart(nt, 0, pregap); err != nil {
			return fail(err)
		}
		t.commit(map[*entry]*track.Track{act: nt})

	case indexNr == 0:
		if pregap == 0 {
			return fail(ErrMarkerNotFound)
		}
		nt := act.track.Clone()
		np := pred.track.Clone()
		head, err := nt.RemoveFromStart(pregap.Samples())
		if err != nil {
			return fail(ErrIllegalPosition)
		}
		if err := nt.SetStart(0); err != nil {
			return fail(ErrIllegalPosition)
		}
		if err := np.AppendSubTracks(head); err != nil {
			return fail(ErrDataTrack)
		}
		t.commit(map[*entry]*track.Track{act: nt, pred: np})

	default:
		np := pred.track.Clone()
		indices := np.Indices()
		for _, idx := range act.track.Indices() {
			indices = append(indices, act.start+idx-pred.start)
		}
		if len(indices) > consts.CD_MAX_INDEX_MARKS {
			return fail(ErrTooManyIndices)
		}
		if err := np.AppendSubTracks(act.track.SubTracks()); err != nil {
			return fail(ErrDataTrack)
		}
		if err := np.SetIndices(indices); err != nil {
			return fail(ErrCrossesMarker)
		}
		pred.track = np
		t.entries = append(t.entries[:trackNr-1], t.entries[trackNr:]...)
		t.update()
		t.checkConsistency()
	}
	t.log.Debug("removed track marker", "track", trackNr, "index", indexNr)
	return nil
}

// AddIndexMarker adds an index mark at an absolute block address.
func (t *Toc) AddIndexMarker(lba int64) error {
	const op = "add index marker"
	if lba < 0 {
		return positionError(op, lba, ErrOutOfRange)
	}
	pos := msf.FromLBA(lba)
	act := t.findTrack(pos.Samples())
	if act == nil {
		return positionError(op, lba, ErrOutOfRange)
	}
	fail := func(err error) error { return markerError(op, act.trackNr, -1, lba, err) }
	if pos <= act.start {
		return fail(ErrIllegalPosition)
	}
	nt := act.track.Clone()
	if err := nt.AddIndex(pos - act.start); err != nil {
		if errors.Is(err, track.ErrTooManyIndices) {
			return fail(ErrTooManyIndices)
		}
		return fail(ErrIllegalPosition)
	}
	t.commit(map[*entry]*track.Track{act: nt})
	return nil
}

// AddTrackMarker splits the audio track containing lba into two tracks. Index marks behind lba move
// to the new track.
func (t *Toc) AddTrackMarker(lba int64) error {
	const op = "add track marker"
	if lba < 0 {
		return positionError(op, lba, ErrOutOfRange)
	}
	pos := msf.FromLBA(lba)
	act := t.findTrack(pos.Samples())
	if act == nil {
		return positionError(op, lba, ErrOutOfRange)
	}
	fail := func(err error) error { return markerError(op, act.trackNr, -1, lba, err) }
	if !act.track.IsAudio() {
		return fail(ErrDataTrack)
	}
	if pos <= act.start {
		return fail(ErrIllegalPosition)
	}
	if pos-act.start < minTrack {
		return fail(ErrPreviousTrackTooShort)
	}
	if act.end-pos < minTrack {
		return fail(ErrTrackTooShort)
	}

	na := act.track.Clone()
	var keep, moved []msf.Msf
	for _, idx := range na.Indices() {
		switch abs := act.start + idx; {
		case abs < pos:
			keep = append(keep, idx)
		case abs > pos:
			moved = append(moved, abs-pos)
		}
	}
	if err := na.SetIndices(keep); err != nil {
		return fail(ErrIllegalPosition)
	}
	tail, err := na.RemoveToEnd((pos - act.absStart).Samples())
	if err != nil {
		return fail(ErrIllegalPosition)
	}
	nt := track.New(na.Mode())
	nt.SetFlags(na.Flags())
	if err := nt.AppendSubTracks(tail); err != nil {
		return fail(ErrDataTrack)
	}
	if err := nt.SetIndices(moved); err != nil {
		return fail(ErrIllegalPosition)
	}

	i := act.trackNr
	act.track = na
	t.entries = append(t.entries, nil)
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = &entry{track: nt}
	t.update()
	t.checkConsistency()
	t.log.Debug("added track marker", "track", i+1, "lba", lba)
	return nil
}

// AddPregap turns the part of a track behind lba into the pre-gap of the following track.
func (t *Toc) AddPregap(lba int64) error {
	const op = "add pre-gap"
	if lba < 0 {
		return positionError(op, lba, ErrOutOfRange)
	}
	pos := msf.FromLBA(lba)
	act := t.findTrack(pos.Samples())
	if act == nil {
		return positionError(op, lba, ErrOutOfRange)
	}
	fail := func(err error) error { return markerError(op, act.trackNr, -1, lba, err) }
	if !act.track.IsAudio() {
		return fail(ErrDataTrack)
	}
	next := t.entry(act.trackNr + 1)
	if next == nil {
		return fail(ErrIllegalPosition)
	}
	if !next.track.IsAudio() {
		return fail(ErrDataTrack)
	}
	if pos <= act.start || next.track.Start() != 0 {
		return fail(ErrIllegalPosition)
	}
	if pos-act.start < minTrack {
		return fail(ErrTrackTooShort)
	}
	if n := act.track.IndexCount(); n > 0 && act.start+act.track.Index(n-1) >= pos {
		return fail(ErrCrossesMarker)
	}

	na := act.track.Clone()
	nn := next.track.Clone()
	tail, err := na.RemoveToEnd((pos - act.absStart).Samples())
	if err != nil {
		return fail(ErrIllegalPosition)
	}
	if err := nn.Prepend(tail); err != nil {
		return fail(ErrDataTrack)
	}
	if err := nn.SetStart(next.start - pos); err != nil {
		return fail(ErrIllegalPosition)
	}
	t.commit(map[*entry]*track.Track{act: na, next: nn})
	return nil
}

// AppendTrack appends audio data as a new track. Data shorter than 4 seconds is padded with
// silence. The returned positions are the first block of the new track and the new disc end.
func (t *Toc) AppendTrack(spans []*trackdata.TrackData) (start, end int64, err error) {
	nt := track.New(trackdata.MODE_AUDIO)
	for _, s := range spans {
		if err := nt.AppendData(s); err != nil {
			return 0, 0, positionError("append track", -1, err)
		}
	}
	if floor := minTrack.Samples(); nt.Samples() < floor {
		pad := trackdata.NewSubTrack(trackdata.SUBTRACK_PAD, trackdata.NewSilence(floor-nt.Samples()))
		if err := nt.Append(pad); err != nil {
			return 0, 0, positionError("append track", -1, err)
		}
	}
	start = t.length.LBA()
	t.entries = append(t.entries, &entry{track: nt})
	t.update()
	t.checkConsistency()
	return start, t.length.LBA(), nil
}

// AppendTrackData appends audio data to the last track, or creates the first track of an empty
// TOC.
func (t *Toc) AppendTrackData(spans []*trackdata.TrackData) (start, end int64, err error) {
	const op = "append track data"
	if len(t.entries) == 0 {
		return t.AppendTrack(spans)
	}
	last := t.entries[len(t.entries)-1]
	if !last.track.IsAudio() {
		return 0, 0, markerError(op, last.trackNr, -1, -1, ErrDataTrack)
	}
	nt := last.track.Clone()
	for _, s := range spans {
		if err := nt.AppendData(s); err != nil {
			return 0, 0, markerError(op, last.trackNr, -1, -1, err)
		}
	}
	start = t.length.LBA()
	t.commit(map[*entry]*track.Track{last: nt})
	return start, t.length.LBA(), nil
}

// RemoveTrackData removes the samples start..end (both inclusive, absolute) from a single audio
// track and returns them. A pre-gap overlapped by the range shrinks; index marks that no longer
// fit are dropped.
func (t *Toc) RemoveTrackData(start, end uint64) ([]*trackdata.SubTrack, error) {
	const op = "remove track data"
	act := t.findTrack(start)
	if act == nil {
		return nil, positionError(op, -1, ErrIllegalPosition)
	}
	fail := func(err error) error { return markerError(op, act.trackNr, -1, -1, err) }
	if !act.track.IsAudio() {
		return nil, fail(ErrDataTrack)
	}
	if end < start {
		return nil, fail(ErrIllegalPosition)
	}
	if t.findTrack(end) != act {
		return nil, fail(ErrSpansTracks)
	}

	base := act.absStart.Samples()
	s, e := start-base, end-base+1
	nt := act.track.Clone()
	pregap := nt.Start().Samples()
	newPregap := pregap
	if s < pregap {
		newPregap = s
		if e < pregap {
			newPregap = pregap - (e - s)
		}
	}
	removed, err := nt.RemoveTrackData(s, e)
	if err != nil {
		return nil, fail(ErrIllegalPosition)
	}
	indices := nt.Indices()
	if err := nt.SetIndices(nil); err != nil {
		return nil, fail(err)
	}
	if err := nt.SetStart(msf.FromSamples(newPregap)); err != nil {
		return nil, fail(ErrIllegalPosition)
	}
	if nt.BodyLength() < minTrack {
		return nil, fail(ErrTrackTooShort)
	}
	for len(indices) > 0 && indices[len(indices)-1] >= nt.BodyLength() {
		indices = indices[:len(indices)-1]
	}
	if err := nt.SetIndices(indices); err != nil {
		return nil, fail(ErrIllegalPosition)
	}
	t.commit(map[*entry]*track.Track{act: nt})
	return removed, nil
}

// InsertTrackData inserts audio data at an absolute sample position. Data inserted behind the end
// of the disc is appended to the last track.
func (t *Toc) InsertTrackData(pos uint64, subs []*trackdata.SubTrack) error {
	const op = "insert track data"
	act := t.findTrack(pos)
	if act == nil {
		spans := make([]*trackdata.TrackData, len(subs))
		for i, s := range subs {
			spans[i] = s.Data()
		}
		_, _, err := t.AppendTrackData(spans)
		return err
	}
	if !act.track.IsAudio() {
		return markerError(op, act.trackNr, -1, -1, ErrDataTrack)
	}
	nt := act.track.Clone()
	if err := nt.InsertTrackData(pos-act.absStart.Samples(), subs); err != nil {
		return markerError(op, act.trackNr, -1, -1, err)
	}
	t.commit(map[*entry]*track.Track{act: nt})
	return nil
}

// commit replaces the tracks of the given entries and recomputes the derived state.
func (t *Toc) commit(tracks map[*entry]*track.Track) {
	for e, tr := range tracks {
		e.track = tr
	}
	t.update()
	t.checkConsistency()
}
