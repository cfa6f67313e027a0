package track

import (
	"bytes"
	"io"
	"testing"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// audioTrack builds an audio track of the given number of blocks whose samples encode their own
// position, so moved data can be recognised.
func audioTrack(t *testing.T, blocks int) *Track {
	t.Helper()
	tr := New(trackdata.MODE_AUDIO)
	require.NoError(t, tr.AppendData(patternData(t, 0, blocks*588)))
	return tr
}

func patternData(t *testing.T, first, samples int) *trackdata.TrackData {
	t.Helper()
	buf := make([]byte, samples*4)
	for i := 0; i < samples; i++ {
		v := uint32(first + i)
		buf[i*4] = byte(v >> 24)
		buf[i*4+1] = byte(v >> 16)
		buf[i*4+2] = byte(v >> 8)
		buf[i*4+3] = byte(v)
	}
	d, err := trackdata.NewMemory(trackdata.MODE_AUDIO, buf)
	require.NoError(t, err)
	return d
}

func readTrack(t *testing.T, tr *Track) []byte {
	t.Helper()
	r := NewReader(tr)
	require.NoError(t, r.Open())
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return b
}

func TestLength(t *testing.T) {
	tr := audioTrack(t, 400)
	assert.Equal(t, msf.Msf(400), tr.Length())
	assert.Equal(t, uint64(400*588), tr.Samples())

	require.NoError(t, tr.AppendData(trackdata.NewSilence(10)))
	assert.Equal(t, msf.Msf(401), tr.Length())

	require.NoError(t, tr.SetStart(150))
	assert.Equal(t, msf.Msf(251), tr.BodyLength())

	require.ErrorIs(t, tr.SetStart(500), ErrIllegalStart)
	require.ErrorIs(t, tr.AppendData(trackdata.NewZero(trackdata.MODE1, 2048)), ErrModeMismatch)
}

func TestIndices(t *testing.T) {
	tr := audioTrack(t, 400)

	require.NoError(t, tr.AddIndex(200))
	require.NoError(t, tr.AddIndex(100))
	require.NoError(t, tr.AddIndex(300))
	assert.Equal(t, []msf.Msf{100, 200, 300}, tr.Indices())

	tests := []struct {
		name   string
		offset msf.Msf
	}{
		{"zero", 0},
		{"negative", -1},
		{"at end", 400},
		{"duplicate", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tr.AddIndex(tt.offset), ErrIllegalIndex)
		})
	}

	require.ErrorIs(t, tr.MoveIndex(1, 100), ErrIllegalIndex)
	require.ErrorIs(t, tr.MoveIndex(1, 300), ErrIllegalIndex)
	require.NoError(t, tr.MoveIndex(1, 250))
	assert.Equal(t, msf.Msf(250), tr.Index(1))

	require.NoError(t, tr.RemoveIndex(0))
	require.ErrorIs(t, tr.RemoveIndex(5), ErrIndexNotFound)
	assert.Equal(t, 2, tr.IndexCount())

	// pre-gap may not swallow index marks
	require.ErrorIs(t, tr.SetStart(150), ErrIllegalStart)

	t.Run("limit", func(t *testing.T) {
		tr := audioTrack(t, 400)
		for i := 1; i <= 98; i++ {
			require.NoError(t, tr.AddIndex(msf.Msf(i)))
		}
		require.ErrorIs(t, tr.AddIndex(200), ErrTooManyIndices)
	})
}

func TestIsrc(t *testing.T) {
	tr := New(trackdata.MODE_AUDIO)
	require.NoError(t, tr.SetIsrc("USABC9912345"))
	assert.Equal(t, "USABC9912345", tr.Isrc())
	require.ErrorIs(t, tr.SetIsrc("US-ABC-99-12345"), ErrIllegalIsrc)
	require.ErrorIs(t, tr.SetIsrc("12ABC9912345"), ErrIllegalIsrc)
	require.ErrorIs(t, tr.SetIsrc("USABC99A2345"), ErrIllegalIsrc)
	require.NoError(t, tr.SetIsrc(""))
	assert.Empty(t, tr.Isrc())
}

func TestRemoveAndPrepend(t *testing.T) {
	tr := audioTrack(t, 600)
	require.NoError(t, tr.AddIndex(500))
	whole := readTrack(t, tr)

	tail, err := tr.RemoveToEnd(400 * 588)
	require.NoError(t, err)
	assert.Equal(t, msf.Msf(400), tr.Length())
	assert.Equal(t, uint64(200*588), trackdata.SubTrackSamples(tail))
	assert.Zero(t, tr.IndexCount(), "index behind the cut is dropped")

	other := New(trackdata.MODE_AUDIO)
	require.NoError(t, other.Prepend(tail))
	assert.Equal(t, whole[400*2352:], readTrack(t, other))

	head, err := tr.RemoveFromStart(100 * 588)
	require.NoError(t, err)
	assert.Equal(t, uint64(100*588), trackdata.SubTrackSamples(head))
	assert.Equal(t, whole[100*2352:400*2352], readTrack(t, tr))

	_, err = tr.RemoveToEnd(10_000_000)
	require.ErrorIs(t, err, ErrIllegalRange)
}

func TestRemoveInsertTrackData(t *testing.T) {
	tr := audioTrack(t, 400)
	whole := readTrack(t, tr)

	removed, err := tr.RemoveTrackData(1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), trackdata.SubTrackSamples(removed))
	assert.Equal(t, uint64(400*588-1000), tr.Samples())

	require.NoError(t, tr.InsertTrackData(1000, removed))
	assert.Equal(t, whole, readTrack(t, tr))

	_, err = tr.RemoveTrackData(10, 10)
	require.ErrorIs(t, err, ErrIllegalRange)
}

func TestReader(t *testing.T) {
	tr := New(trackdata.MODE_AUDIO)
	require.NoError(t, tr.AppendData(patternData(t, 0, 100)))
	require.NoError(t, tr.AppendData(trackdata.NewSilence(50)))
	require.NoError(t, tr.AppendData(patternData(t, 150, 100)))

	b := readTrack(t, tr)
	require.Len(t, b, 2352, "one block, padded")
	assert.Equal(t, make([]byte, 200), b[400:600])
	assert.Equal(t, byte(150), b[600+3])
	assert.Equal(t, make([]byte, 2352-1000), b[1000:])

	r := NewReader(tr)
	_, err := r.Read(make([]byte, 4))
	require.ErrorIs(t, err, ErrReaderClosed)

	require.NoError(t, r.Open())
	require.NoError(t, r.SeekSample(160))
	buf := make([]byte, 4)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 160}, buf)
	assert.Equal(t, int64(161*4), r.Position())
	require.NoError(t, r.Close())
}

func TestCheck(t *testing.T) {
	tr := audioTrack(t, 100)
	findings := tr.Check(3)
	require.NotEmpty(t, findings)
	assert.Equal(t, SEVERITY_ERROR, MaxSeverity(findings))
	assert.Contains(t, findings[0].String(), "track 3")

	ok := audioTrack(t, 300)
	assert.Equal(t, SEVERITY_NONE, MaxSeverity(ok.Check(1)))

	empty := New(trackdata.MODE1)
	assert.Equal(t, SEVERITY_ERROR, MaxSeverity(empty.Check(1)))
}

func TestCloneAndPrint(t *testing.T) {
	tr := New(trackdata.MODE_AUDIO)
	require.NoError(t, tr.AppendData(trackdata.NewSilence(150*588)))
	require.NoError(t, tr.AppendData(trackdata.NewFile(trackdata.MODE_AUDIO, "music.raw", 0, 300*588)))
	require.NoError(t, tr.SetStart(150))
	require.NoError(t, tr.AddIndex(75))
	require.NoError(t, tr.SetIsrc("DEXYZ0100001"))
	tr.SetFlags(Flags{CopyPermitted: true})
	tr.AddCdTextItem(cdtext.NewText(cdtext.CDTEXT_TITLE, 0, `Say "Hi"`))

	c := tr.Clone()
	require.NoError(t, c.AddIndex(100))
	c.AddCdTextItem(cdtext.NewText(cdtext.CDTEXT_TITLE, 0, "changed"))
	assert.Equal(t, 1, tr.IndexCount())
	assert.Equal(t, `Say "Hi"`, tr.CdTextItem(0, cdtext.CDTEXT_TITLE).Text)

	var out bytes.Buffer
	require.NoError(t, tr.Print(&out))
	s := out.String()
	for _, want := range []string{
		"TRACK AUDIO\n",
		"COPY\n",
		"NO PRE_EMPHASIS\n",
		"TWO_CHANNEL_AUDIO\n",
		`ISRC "DEXYZ0100001"`,
		`TITLE "Say \"Hi\""`,
		"SILENCE 00:02:00\n",
		`FILE "music.raw" #0 0 00:04:00`,
		"START 00:02:00\n",
		"INDEX 00:01:00\n",
	} {
		assert.Contains(t, s, want)
	}
	assert.NotContains(t, s, "NO COPY")

	data := New(trackdata.MODE1)
	require.NoError(t, data.AppendData(trackdata.NewZero(trackdata.MODE1, 2048*150)))
	out.Reset()
	require.NoError(t, data.Print(&out))
	assert.Contains(t, out.String(), "ZERO MODE1 00:02:00")
	assert.NotContains(t, out.String(), "PRE_EMPHASIS")
}
