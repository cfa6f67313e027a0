package trackdata

import "github.com/bgrewell/cdr-kit/pkg/consts"

// SubTrackType tags the content of a sub-track.
type SubTrackType int

const (
	// SUBTRACK_DATA is data taken from a source.
	SUBTRACK_DATA SubTrackType = iota
	// SUBTRACK_PAD is silence inserted to satisfy the minimum track length.
	SUBTRACK_PAD
)

func (t SubTrackType) String() string {
	if t == SUBTRACK_PAD {
		return "PAD"
	}
	return "DATA"
}

// SubTrack is one typed span of a track.
type SubTrack struct {
	TrackData
	kind SubTrackType
}

// NewSubTrack wraps a copy of d.
func NewSubTrack(kind SubTrackType, d *TrackData) *SubTrack {
	return &SubTrack{TrackData: *d, kind: kind}
}

func (s *SubTrack) Type() SubTrackType {
	return s.kind
}

// Data returns a copy of the underlying span.
func (s *SubTrack) Data() *TrackData {
	return s.TrackData.Clone()
}

func (s *SubTrack) Clone() *SubTrack {
	c := *s
	return &c
}

// Split divides the sub-track like TrackData.Split, keeping the content tag on both halves.
func (s *SubTrack) Split(pos uint64) (*SubTrack, *SubTrack, error) {
	head, tail, err := s.TrackData.Split(pos)
	if err != nil {
		return nil, nil, err
	}
	return NewSubTrack(s.kind, head), NewSubTrack(s.kind, tail), nil
}

// SplitSubTracks divides an ordered run of sub-tracks at a sample offset. Spans that straddle the
// offset are split; the input slice is not modified.
func SplitSubTracks(subs []*SubTrack, sample uint64) ([]*SubTrack, []*SubTrack, error) {
	var head, tail []*SubTrack
	var pos uint64
	for i, s := range subs {
		n := s.Samples()
		switch {
		case pos+n <= sample:
			head = append(head, s.Clone())
		case pos >= sample:
			tail = append(tail, cloneAll(subs[i:])...)
			return head, tail, nil
		default:
			off := sample - pos
			if !s.Mode().IsAudio() {
				off = off / consts.CD_SAMPLES_PER_BLOCK * uint64(s.Mode().BlockLen())
			}
			h, t, err := s.Split(off)
			if err != nil {
				return nil, nil, err
			}
			head = append(head, h)
			tail = append(tail, t)
			tail = append(tail, cloneAll(subs[i+1:])...)
			return head, tail, nil
		}
		pos += n
	}
	return head, tail, nil
}

// SubTrackSamples sums the sample lengths of the given sub-tracks.
func SubTrackSamples(subs []*SubTrack) uint64 {
	var n uint64
	for _, s := range subs {
		n += s.Samples()
	}
	return n
}

func cloneAll(subs []*SubTrack) []*SubTrack {
	out := make([]*SubTrack, len(subs))
	for i, s := range subs {
		out[i] = s.Clone()
	}
	return out
}
