package track

import (
	"errors"
	"fmt"
	"io"

	"github.com/bgrewell/cdr-kit/pkg/consts"
)

var ErrReaderClosed = errors.New("track reader is not open")

// Reader streams the bytes of a track: audio as 4 byte stereo samples, data as user data of the
// track mode. The stream always covers Length() whole blocks.
type Reader struct {
	track   *Track
	offsets []int64
	size    int64
	span    int
	cur     io.ReadCloser
	pos     int64
	open    bool
}

func NewReader(t *Track) *Reader {
	r := &Reader{track: t}
	var off int64
	for _, s := range t.subTracks {
		r.offsets = append(r.offsets, off)
		off += s.StreamLen()
	}
	r.size = int64(t.Length()) * int64(r.BlockLen())
	return r
}

// BlockLen returns the number of stream bytes per block.
func (r *Reader) BlockLen() int {
	return r.track.mode.BlockLen()
}

// Size returns the total number of bytes of the track stream.
func (r *Reader) Size() int64 {
	return r.size
}

// Open positions the reader at the beginning of the track.
func (r *Reader) Open() error {
	r.open = true
	return r.seek(0)
}

func (r *Reader) Close() error {
	r.open = false
	return r.closeSpan()
}

// SeekSample positions the reader at a sample offset relative to the start of the track's
// pre-gap. Data tracks are positioned at the start of the containing block.
func (r *Reader) SeekSample(sample uint64) error {
	if !r.open {
		return ErrReaderClosed
	}
	var pos int64
	if r.track.IsAudio() {
		pos = int64(sample) * consts.CD_BYTES_PER_SAMPLE
	} else {
		pos = int64(sample/consts.CD_SAMPLES_PER_BLOCK) * int64(r.BlockLen())
	}
	if pos > r.size {
		return fmt.Errorf("%w: sample %d", ErrIllegalRange, sample)
	}
	return r.seek(pos)
}

func (r *Reader) seek(pos int64) error {
	if err := r.closeSpan(); err != nil {
		return err
	}
	r.pos = pos
	r.span = len(r.offsets)
	for i, off := range r.offsets {
		if pos < off+r.track.subTracks[i].StreamLen() {
			r.span = i
			break
		}
	}
	return nil
}

func (r *Reader) closeSpan() error {
	if r.cur == nil {
		return nil
	}
	err := r.cur.Close()
	r.cur = nil
	return err
}

// Read fills p from the track stream. It only returns less than len(p) bytes at the end of the
// track or on a source error.
func (r *Reader) Read(p []byte) (int, error) {
	if !r.open {
		return 0, ErrReaderClosed
	}
	if r.pos >= r.size {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) && r.pos < r.size {
		if r.span >= len(r.offsets) {
			k := int64(len(p) - n)
			if rest := r.size - r.pos; rest < k {
				k = rest
			}
			clear(p[n : n+int(k)])
			n += int(k)
			r.pos += k
			continue
		}

		s := r.track.subTracks[r.span]
		end := r.offsets[r.span] + s.StreamLen()
		if r.cur == nil {
			c, err := s.OpenAt(r.pos - r.offsets[r.span])
			if err != nil {
				return n, err
			}
			r.cur = c
		}
		want := int64(len(p) - n)
		if rest := end - r.pos; rest < want {
			want = rest
		}
		k, err := io.ReadFull(r.cur, p[n:n+int(want)])
		n += k
		r.pos += int64(k)
		if err != nil {
			return n, fmt.Errorf("failed to read %s data: %w", s.Mode(), err)
		}
		if r.pos >= end {
			if err := r.closeSpan(); err != nil {
				return n, err
			}
			r.span++
		}
	}
	return n, nil
}

// Position returns the current byte offset in the track stream.
func (r *Reader) Position() int64 {
	return r.pos
}
