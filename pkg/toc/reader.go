package toc

import (
	"errors"
	"fmt"
	"io"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/track"
)

var (
	ErrReaderClosed = errors.New("toc reader is not open")
	ErrSeekRange    = errors.New("sample position outside of disc")
	ErrUnaligned    = errors.New("read position is not block aligned")
)

// Reader reads the content of a whole disc across track boundaries. The position is kept in
// samples; data tracks yield silence when read as samples.
type Reader struct {
	toc  *Toc
	cur  int
	tr   *track.Reader
	pos  uint64
	open bool
}

func (t *Toc) NewReader() *Reader {
	return &Reader{toc: t}
}

// Open positions the reader at the start of the disc.
func (r *Reader) Open() error {
	if r.open {
		if err := r.Close(); err != nil {
			return err
		}
	}
	r.open = true
	r.pos = 0
	return r.openTrack(0)
}

func (r *Reader) Close() error {
	r.open = false
	r.pos = 0
	return r.closeTrack()
}

func (r *Reader) openTrack(i int) error {
	if err := r.closeTrack(); err != nil {
		return err
	}
	r.cur = i
	if i >= len(r.toc.entries) {
		return nil
	}
	r.tr = track.NewReader(r.toc.entries[i].track)
	if err := r.tr.Open(); err != nil {
		r.tr = nil
		return fmt.Errorf("failed to open track %d: %w", i+1, err)
	}
	return nil
}

func (r *Reader) closeTrack() error {
	if r.tr == nil {
		return nil
	}
	err := r.tr.Close()
	r.tr = nil
	return err
}

// Position returns the absolute sample position of the next read.
func (r *Reader) Position() uint64 {
	return r.pos
}

// SeekSample moves the reader to an absolute sample position, reopening the owning track when
// necessary.
func (r *Reader) SeekSample(sample uint64) error {
	if !r.open {
		return ErrReaderClosed
	}
	e := r.toc.findTrack(sample)
	if e == nil {
		return fmt.Errorf("%w: %d", ErrSeekRange, sample)
	}
	if e.trackNr-1 != r.cur || r.tr == nil {
		if err := r.openTrack(e.trackNr - 1); err != nil {
			return err
		}
	}
	if err := r.tr.SeekSample(sample - e.absStart.Samples()); err != nil {
		return err
	}
	r.pos = sample
	return nil
}

// advance moves to the next track once the current one is exhausted.
func (r *Reader) advance() error {
	e := r.toc.entries[r.cur]
	if r.pos < e.end.Samples() {
		return nil
	}
	return r.openTrack(r.cur + 1)
}

// ReadSamples fills buf with 4 byte stereo samples and returns the number of samples read. Fewer
// samples than requested are only returned at the end of the disc.
func (r *Reader) ReadSamples(buf []byte) (int, error) {
	if !r.open {
		return 0, ErrReaderClosed
	}
	want := uint64(len(buf) / consts.CD_BYTES_PER_SAMPLE)
	if total := r.toc.length.Samples(); r.pos+want > total {
		if r.pos >= total {
			return 0, nil
		}
		want = total - r.pos
	}

	var done uint64
	for done < want {
		e := r.toc.entries[r.cur]
		k := e.end.Samples() - r.pos
		if k > want-done {
			k = want - done
		}
		out := buf[done*consts.CD_BYTES_PER_SAMPLE : (done+k)*consts.CD_BYTES_PER_SAMPLE]
		if e.track.IsAudio() {
			if _, err := io.ReadFull(r.tr, out); err != nil {
				return int(done), fmt.Errorf("failed to read track %d: %w", e.trackNr, err)
			}
			r.pos += k
		} else {
			clear(out)
			r.pos += k
			if r.pos < e.end.Samples() {
				if err := r.tr.SeekSample(r.pos - e.absStart.Samples()); err != nil {
					return int(done), err
				}
			}
		}
		done += k
		if err := r.advance(); err != nil {
			return int(done), err
		}
	}
	return int(done), nil
}

// ReadData reads up to blocks blocks into consecutive 2352 byte slots of buf and returns the
// number of blocks read. Data blocks occupy the start of their slot, the rest is zeroed.
func (r *Reader) ReadData(buf []byte, blocks int) (int, error) {
	if !r.open {
		return 0, ErrReaderClosed
	}
	if r.pos%consts.CD_SAMPLES_PER_BLOCK != 0 {
		return 0, fmt.Errorf("%w: sample %d", ErrUnaligned, r.pos)
	}
	if capacity := len(buf) / consts.CD_AUDIO_BLOCK_LEN; blocks > capacity {
		blocks = capacity
	}
	if rest := int(r.toc.length.LBA()) - int(r.pos/consts.CD_SAMPLES_PER_BLOCK); blocks > rest {
		blocks = rest
	}

	for i := 0; i < blocks; i++ {
		e := r.toc.entries[r.cur]
		slot := buf[i*consts.CD_AUDIO_BLOCK_LEN : (i+1)*consts.CD_AUDIO_BLOCK_LEN]
		bl := r.tr.BlockLen()
		if _, err := io.ReadFull(r.tr, slot[:bl]); err != nil {
			return i, fmt.Errorf("failed to read track %d: %w", e.trackNr, err)
		}
		clear(slot[bl:])
		r.pos += consts.CD_SAMPLES_PER_BLOCK
		if err := r.advance(); err != nil {
			return i + 1, err
		}
	}
	return blocks, nil
}
