package trackdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bgrewell/cdr-kit/pkg/consts"
)

var (
	ErrSplitPosition = errors.New("split position outside of data span")
	ErrOddAudioData  = errors.New("audio data length is not a multiple of the sample size")
)

// SourceType identifies where the bytes of a span come from.
type SourceType int

const (
	SOURCE_ZERO SourceType = iota
	SOURCE_FILE
	SOURCE_MEMORY
)

// TrackData is a contiguous run of audio samples or data bytes of a single mode. Audio spans are
// measured in samples, data spans in bytes. A TrackData never owns an open file; readers are
// created on demand by Open.
type TrackData struct {
	mode        Mode
	source      SourceType
	filename    string
	offset      int64
	length      uint64
	data        []byte
	swapSamples bool
}

// NewZero creates a span of silence (audio) or zero filled sectors (data).
func NewZero(mode Mode, length uint64) *TrackData {
	return &TrackData{mode: mode, source: SOURCE_ZERO, length: length}
}

// NewSilence creates an audio span of the given number of silent samples.
func NewSilence(samples uint64) *TrackData {
	return NewZero(MODE_AUDIO, samples)
}

// NewFile creates a span that references length units of a file starting at a byte offset.
func NewFile(mode Mode, filename string, offset int64, length uint64) *TrackData {
	return &TrackData{mode: mode, source: SOURCE_FILE, filename: filename, offset: offset, length: length}
}

// NewMemory creates a span backed by a byte slice. Audio data must hold whole samples.
func NewMemory(mode Mode, data []byte) (*TrackData, error) {
	length := uint64(len(data))
	if mode.IsAudio() {
		if len(data)%consts.CD_BYTES_PER_SAMPLE != 0 {
			return nil, ErrOddAudioData
		}
		length /= consts.CD_BYTES_PER_SAMPLE
	}
	return &TrackData{mode: mode, source: SOURCE_MEMORY, data: data, length: length}, nil
}

func (d *TrackData) Mode() Mode {
	return d.mode
}

func (d *TrackData) Source() SourceType {
	return d.source
}

func (d *TrackData) Filename() string {
	return d.filename
}

// Offset returns the byte offset of the span inside its file.
func (d *TrackData) Offset() int64 {
	return d.offset
}

// Length returns the span length in samples (audio) or bytes (data).
func (d *TrackData) Length() uint64 {
	return d.length
}

// SwapSamples reports whether the 16 bit samples of the source are byte swapped on read.
func (d *TrackData) SwapSamples() bool {
	return d.swapSamples
}

func (d *TrackData) SetSwapSamples(swap bool) {
	d.swapSamples = swap
}

// ByteLength returns the number of source bytes the span covers.
func (d *TrackData) ByteLength() int64 {
	if d.mode.IsAudio() {
		return int64(d.length) * consts.CD_BYTES_PER_SAMPLE
	}
	return int64(d.length)
}

// Blocks returns the number of blocks the span occupies. A partial block counts as a full one.
func (d *TrackData) Blocks() uint64 {
	if d.mode.IsAudio() {
		return (d.length + consts.CD_SAMPLES_PER_BLOCK - 1) / consts.CD_SAMPLES_PER_BLOCK
	}
	bl := uint64(d.mode.BlockLen())
	return (d.length + bl - 1) / bl
}

// Samples returns the span length in samples. Data spans are counted as whole blocks.
func (d *TrackData) Samples() uint64 {
	if d.mode.IsAudio() {
		return d.length
	}
	return d.Blocks() * consts.CD_SAMPLES_PER_BLOCK
}

// StreamLen returns the number of bytes a reader of this span yields. Data spans are padded to a
// whole number of blocks, audio spans are not.
func (d *TrackData) StreamLen() int64 {
	if d.mode.IsAudio() {
		return d.ByteLength()
	}
	return int64(d.Blocks()) * int64(d.mode.BlockLen())
}

// Clone returns an independent copy of the span. Memory contents are shared read-only.
func (d *TrackData) Clone() *TrackData {
	c := *d
	return &c
}

// Split divides the span at pos (samples for audio, bytes for data). Both halves reference the
// same source; the receiver is not modified.
func (d *TrackData) Split(pos uint64) (*TrackData, *TrackData, error) {
	if pos == 0 || pos >= d.length {
		return nil, nil, fmt.Errorf("%w: %d of %d", ErrSplitPosition, pos, d.length)
	}
	byteOff := int64(pos)
	if d.mode.IsAudio() {
		byteOff *= consts.CD_BYTES_PER_SAMPLE
	}

	head := d.Clone()
	head.length = pos
	tail := d.Clone()
	tail.length = d.length - pos

	switch d.source {
	case SOURCE_FILE:
		tail.offset = d.offset + byteOff
	case SOURCE_MEMORY:
		head.data = d.data[:byteOff]
		tail.data = d.data[byteOff:]
	}
	return head, tail, nil
}

// Open returns a reader over the span's bytes.
func (d *TrackData) Open() (io.ReadCloser, error) {
	return d.OpenAt(0)
}

// OpenAt returns a reader over the span's bytes starting skip bytes into the span. The reader yields
// StreamLen()-skip bytes: data missing from a short source file is reported as
// io.ErrUnexpectedEOF, block padding of data spans is returned as zeros.
func (d *TrackData) OpenAt(skip int64) (io.ReadCloser, error) {
	if skip < 0 || skip > d.StreamLen() {
		return nil, fmt.Errorf("%w: skip %d", ErrSplitPosition, skip)
	}
	payload := d.ByteLength()
	var r io.Reader
	var closer io.Closer

	switch d.source {
	case SOURCE_ZERO:
		r = io.LimitReader(zeroReader{}, d.StreamLen()-skip)
		return io.NopCloser(r), nil
	case SOURCE_MEMORY:
		if skip < payload {
			r = bytes.NewReader(d.data[skip:payload])
		} else {
			r = bytes.NewReader(nil)
		}
	case SOURCE_FILE:
		f, err := os.Open(d.filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open data file %q: %w", d.filename, err)
		}
		closer = f
		start := skip
		if start > payload {
			start = payload
		}
		r = &exactReader{r: io.NewSectionReader(f, d.offset+start, payload-start), remaining: payload - start}
	default:
		return nil, fmt.Errorf("unknown source type %d", d.source)
	}

	if d.swapSamples && d.mode.IsAudio() {
		r = &swapReader{r: r}
	}
	if pad := d.StreamLen() - payload; pad > 0 {
		padSkip := skip - payload
		if padSkip < 0 {
			padSkip = 0
		}
		r = io.MultiReader(r, io.LimitReader(zeroReader{}, pad-padSkip))
	}
	return &readCloser{Reader: r, closer: closer}, nil
}

// TotalLength sums the lengths of the given spans.
func TotalLength(spans []*TrackData) uint64 {
	var n uint64
	for _, s := range spans {
		n += s.length
	}
	return n
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

type readCloser struct {
	io.Reader
	closer io.Closer
}

func (r *readCloser) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// exactReader turns an early EOF of a source file into io.ErrUnexpectedEOF.
type exactReader struct {
	r         io.Reader
	remaining int64
}

func (e *exactReader) Read(p []byte) (int, error) {
	if e.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > e.remaining {
		p = p[:e.remaining]
	}
	n, err := e.r.Read(p)
	e.remaining -= int64(n)
	if err == io.EOF && e.remaining > 0 {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}

// swapReader swaps the two bytes of every 16 bit sample value.
type swapReader struct {
	r       io.Reader
	pending []byte
}

func (s *swapReader) Read(p []byte) (int, error) {
	if len(s.pending) > 0 {
		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		return n, nil
	}
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) < 2 {
		var pair [2]byte
		n, err := io.ReadFull(s.r, pair[:])
		if n < 2 {
			return s.tail(p, pair[:n], err)
		}
		p[0] = pair[1]
		s.pending = []byte{pair[0]}
		return 1, nil
	}
	even := len(p) &^ 1
	var n int
	var err error
	for n < even && err == nil {
		var k int
		k, err = s.r.Read(p[n:even])
		n += k
	}
	for i := 0; i+1 < n; i += 2 {
		p[i], p[i+1] = p[i+1], p[i]
	}
	switch {
	case n%2 == 1 && err == io.EOF:
		// source ended inside a sample
		err = io.ErrUnexpectedEOF
	case n > 0 && err == io.EOF:
		err = nil
	}
	return n, err
}

func (s *swapReader) tail(p, got []byte, err error) (int, error) {
	if len(got) == 0 {
		return 0, err
	}
	p[0] = got[0]
	return 1, io.ErrUnexpectedEOF
}
