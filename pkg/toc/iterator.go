package toc

import (
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/track"
)

// TrackRef is a track together with its disc positions. Start is the position of index 1, AbsStart
// the beginning of the pre-gap and End the first block of the next track.
type TrackRef struct {
	Track    *track.Track
	TrackNr  int
	AbsStart msf.Msf
	Start    msf.Msf
	End      msf.Msf
}

// TrackIterator walks the tracks of a TOC in order. It must not be used across structural edits.
type TrackIterator struct {
	toc  *Toc
	next int
}

func (t *Toc) Iterator() *TrackIterator {
	return &TrackIterator{toc: t}
}

// First restarts the iteration at track 1.
func (it *TrackIterator) First() (TrackRef, bool) {
	it.next = 0
	return it.Next()
}

func (it *TrackIterator) Next() (TrackRef, bool) {
	if it.next >= len(it.toc.entries) {
		return TrackRef{}, false
	}
	e := it.toc.entries[it.next]
	it.next++
	return ref(e), true
}

// Find positions the iterator at a track number and returns that track.
func (it *TrackIterator) Find(trackNr int) (TrackRef, bool) {
	e := it.toc.entry(trackNr)
	if e == nil {
		it.next = len(it.toc.entries)
		return TrackRef{}, false
	}
	it.next = e.trackNr
	return ref(e), true
}

// FindSample positions the iterator at the track containing an absolute sample.
func (it *TrackIterator) FindSample(sample uint64) (TrackRef, bool) {
	e := it.toc.findTrack(sample)
	if e == nil {
		it.next = len(it.toc.entries)
		return TrackRef{}, false
	}
	it.next = e.trackNr
	return ref(e), true
}

func ref(e *entry) TrackRef {
	return TrackRef{Track: e.track, TrackNr: e.trackNr, AbsStart: e.absStart, Start: e.start, End: e.end}
}
