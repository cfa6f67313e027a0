package toc

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/track"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pattern returns audio data whose samples hold their own running number starting at first.
func pattern(t *testing.T, first, samples uint64) *trackdata.TrackData {
	t.Helper()
	buf := make([]byte, samples*4)
	for i := uint64(0); i < samples; i++ {
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

// patternToc builds an audio TOC with contiguous pattern data split into tracks of the given block
// lengths.
func patternToc(t *testing.T, blocks ...int) *Toc {
	t.Helper()
	toc := New()
	var next uint64
	for _, b := range blocks {
		n := uint64(b) * 588
		tr := track.New(trackdata.MODE_AUDIO)
		require.NoError(t, tr.AppendData(pattern(t, next, n)))
		toc.Append(tr)
		next += n
	}
	return toc
}

func silentTrack(t *testing.T, blocks msf.Msf) *track.Track {
	t.Helper()
	tr := track.New(trackdata.MODE_AUDIO)
	require.NoError(t, tr.AppendData(trackdata.NewSilence(blocks.Samples())))
	return tr
}

func dataTrack(t *testing.T, blocks int) *track.Track {
	t.Helper()
	tr := track.New(trackdata.MODE1)
	require.NoError(t, tr.AppendData(trackdata.NewZero(trackdata.MODE1, uint64(blocks)*2048)))
	return tr
}

// disc reads all samples of the TOC.
func disc(t *testing.T, toc *Toc) []byte {
	t.Helper()
	r := toc.NewReader()
	require.NoError(t, r.Open())
	defer r.Close()
	buf := make([]byte, toc.Length().Samples()*4)
	n, err := r.ReadSamples(buf)
	require.NoError(t, err)
	require.Equal(t, int(toc.Length().Samples()), n)
	return buf
}

func requireInvariants(t *testing.T, toc *Toc) {
	t.Helper()
	var sum msf.Msf
	it := toc.Iterator()
	nr := 0
	for ref, ok := it.First(); ok; ref, ok = it.Next() {
		nr++
		require.Equal(t, nr, ref.TrackNr)
		require.GreaterOrEqual(t, int64(ref.Track.BodyLength()), int64(300), "track %d", nr)
		require.Equal(t, ref.AbsStart, sum)
		sum += ref.Track.Length()
	}
	require.Equal(t, toc.TrackCount(), nr)
	require.Equal(t, toc.Length(), sum)
}

// mixedToc: audio 0-400, audio 400-800 with pre-gap 400-500 and index 2 at 600, data 800-1100,
// audio 1100-1500.
func mixedToc(t *testing.T) *Toc {
	t.Helper()
	toc := New()
	toc.Append(silentTrack(t, 400))
	t2 := silentTrack(t, 400)
	require.NoError(t, t2.SetStart(100))
	require.NoError(t, t2.AddIndex(100))
	toc.Append(t2)
	toc.Append(dataTrack(t, 300))
	toc.Append(silentTrack(t, 400))
	return toc
}

func TestPositions(t *testing.T) {
	toc := mixedToc(t)
	requireInvariants(t, toc)
	assert.Equal(t, msf.Msf(1500), toc.Length())
	assert.Equal(t, 4, toc.TrackCount())

	abs, start, end, err := toc.TrackPosition(2)
	require.NoError(t, err)
	assert.Equal(t, []msf.Msf{400, 500, 800}, []msf.Msf{abs, start, end})
	_, _, _, err = toc.TrackPosition(5)
	require.ErrorIs(t, err, ErrNoTrack)

	assert.Equal(t, 1, toc.FindTrack(0))
	assert.Equal(t, 1, toc.FindTrack(400*588-1))
	assert.Equal(t, 2, toc.FindTrack(400*588))
	assert.Equal(t, 0, toc.FindTrack(1500*588))

	assert.Equal(t, trackdata.MODE_AUDIO, toc.LeadInMode())
	assert.Equal(t, trackdata.MODE_AUDIO, toc.LeadOutMode())
	assert.Equal(t, trackdata.MODE_AUDIO, New().LeadInMode())

	it := toc.Iterator()
	ref, ok := it.FindSample(900 * 588)
	require.True(t, ok)
	assert.Equal(t, 3, ref.TrackNr)
	ref, ok = it.Next()
	require.True(t, ok)
	assert.Equal(t, 4, ref.TrackNr)
	_, ok = it.Next()
	assert.False(t, ok)
	ref, ok = it.Find(2)
	require.True(t, ok)
	assert.Equal(t, msf.Msf(500), ref.Start)
}

func TestCatalogAndType(t *testing.T) {
	toc := New()
	require.NoError(t, toc.SetCatalog("0123456789012"))
	assert.Equal(t, "0123456789012", toc.Catalog())
	require.ErrorIs(t, toc.SetCatalog("012345678901"), ErrIllegalCatalog)
	require.ErrorIs(t, toc.SetCatalog("012345678901A"), ErrIllegalCatalog)
	assert.Equal(t, "0123456789012", toc.Catalog())
	require.NoError(t, toc.SetCatalog(""))
	assert.Empty(t, toc.Catalog())

	toc.SetType(CD_ROM_XA)
	assert.Equal(t, "CD_ROM_XA", TocTypeString(toc.Type()))
	tt, err := ParseType("CD_I")
	require.NoError(t, err)
	assert.Equal(t, CD_I, tt)
	_, err = ParseType("DVD")
	require.Error(t, err)
}

func TestSplitScenario(t *testing.T) {
	four := msf.New(4, 0, 0)
	toc := New()
	for i := 0; i < 3; i++ {
		toc.Append(silentTrack(t, four))
	}
	before := toc.Length()

	require.NoError(t, toc.AddTrackMarker((four + four/2).LBA()))

	requireInvariants(t, toc)
	assert.Equal(t, 4, toc.TrackCount())
	assert.Equal(t, before, toc.Length())
	assert.Equal(t, four/2, toc.Track(2).Length())
	assert.Equal(t, four/2, toc.Track(3).Length())
	assert.Equal(t, four, toc.Track(4).Length())
}

func TestMoveFirstTrackPregap(t *testing.T) {
	toc := mixedToc(t)
	before := toc.Clone()
	for _, lba := range []int64{-1, 0, 1, 150, 399, 1499, 1500, 1 << 40} {
		err := toc.MoveTrackMarker(1, 0, lba)
		require.ErrorIs(t, err, ErrFirstTrackPregap, "lba %d", lba)
	}
	assert.Equal(t, before, toc)
}

func TestRejectedEditsDoNotMutate(t *testing.T) {
	audio := trackdata.NewSubTrack(trackdata.SUBTRACK_DATA, trackdata.NewSilence(588))

	tests := []struct {
		name string
		edit func(*Toc) error
		want error
	}{
		{"move unknown track", func(c *Toc) error { return c.MoveTrackMarker(9, 1, 10) }, ErrMarkerNotFound},
		{"move unknown index", func(c *Toc) error { return c.MoveTrackMarker(2, 3, 600) }, ErrMarkerNotFound},
		{"move first start too late", func(c *Toc) error { return c.MoveTrackMarker(1, 1, 600) }, ErrTrackTooShort},
		{"move data track start", func(c *Toc) error { return c.MoveTrackMarker(3, 1, 850) }, ErrDataTrack},
		{"move behind data track", func(c *Toc) error { return c.MoveTrackMarker(4, 1, 1050) }, ErrDataTrack},
		{"move outside disc", func(c *Toc) error { return c.MoveTrackMarker(2, 1, 2000) }, ErrIllegalPosition},
		{"move start onto pre-gap start", func(c *Toc) error { return c.MoveTrackMarker(2, 1, 400) }, ErrIllegalPosition},
		{"move start too late", func(c *Toc) error { return c.MoveTrackMarker(2, 1, 790) }, ErrTrackTooShort},
		{"move index into pre-gap", func(c *Toc) error { return c.MoveTrackMarker(2, 2, 450) }, ErrCrossesMarker},
		{"move pre-gap shortens previous", func(c *Toc) error { return c.MoveTrackMarker(2, 0, 250) }, ErrTrackTooShort},
		{"move pre-gap behind start", func(c *Toc) error { return c.MoveTrackMarker(2, 0, 550) }, ErrCrossesMarker},
		{"move start behind index", func(c *Toc) error { return c.MoveTrackMarker(2, 1, 650) }, ErrTrackTooShort},

		{"remove first start", func(c *Toc) error { return c.RemoveTrackMarker(1, 1) }, ErrFirstTrackStart},
		{"remove unknown track", func(c *Toc) error { return c.RemoveTrackMarker(7, 1) }, ErrMarkerNotFound},
		{"remove data track", func(c *Toc) error { return c.RemoveTrackMarker(3, 1) }, ErrDataTrack},
		{"remove behind data track", func(c *Toc) error { return c.RemoveTrackMarker(4, 1) }, ErrDataTrack},
		{"remove missing pre-gap", func(c *Toc) error { return c.RemoveTrackMarker(1, 0) }, ErrMarkerNotFound},
		{"remove unknown index", func(c *Toc) error { return c.RemoveTrackMarker(2, 5) }, ErrMarkerNotFound},

		{"index outside disc", func(c *Toc) error { return c.AddIndexMarker(5000) }, ErrOutOfRange},
		{"index negative", func(c *Toc) error { return c.AddIndexMarker(-1) }, ErrOutOfRange},
		{"index in pre-gap", func(c *Toc) error { return c.AddIndexMarker(450) }, ErrIllegalPosition},
		{"index duplicate", func(c *Toc) error { return c.AddIndexMarker(600) }, ErrIllegalPosition},

		{"track outside disc", func(c *Toc) error { return c.AddTrackMarker(1500) }, ErrOutOfRange},
		{"track in data track", func(c *Toc) error { return c.AddTrackMarker(900) }, ErrDataTrack},
		{"track in pre-gap", func(c *Toc) error { return c.AddTrackMarker(450) }, ErrIllegalPosition},
		{"track previous too short", func(c *Toc) error { return c.AddTrackMarker(700) }, ErrPreviousTrackTooShort},
		{"track new too short", func(c *Toc) error { return c.AddTrackMarker(1450) }, ErrTrackTooShort},

		{"pre-gap outside disc", func(c *Toc) error { return c.AddPregap(1500) }, ErrOutOfRange},
		{"pre-gap on last track", func(c *Toc) error { return c.AddPregap(1400) }, ErrIllegalPosition},
		{"pre-gap in data track", func(c *Toc) error { return c.AddPregap(900) }, ErrDataTrack},
		{"pre-gap before data track", func(c *Toc) error { return c.AddPregap(700) }, ErrDataTrack},
		{"pre-gap on existing pre-gap", func(c *Toc) error { return c.AddPregap(350) }, ErrIllegalPosition},

		{"remove data from data track", func(c *Toc) error {
			_, err := c.RemoveTrackData(900*588, 950*588)
			return err
		}, ErrDataTrack},
		{"remove data across tracks", func(c *Toc) error {
			_, err := c.RemoveTrackData(350*588, 450*588)
			return err
		}, ErrSpansTracks},
		{"remove data outside disc", func(c *Toc) error {
			_, err := c.RemoveTrackData(1600*588, 1700*588)
			return err
		}, ErrIllegalPosition},
		{"remove data below floor", func(c *Toc) error {
			_, err := c.RemoveTrackData(10*588, 200*588)
			return err
		}, ErrTrackTooShort},
		{"insert into data track", func(c *Toc) error {
			return c.InsertTrackData(900*588, []*trackdata.SubTrack{audio})
		}, ErrDataTrack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toc := mixedToc(t)
			before := toc.Clone()
			err := tt.edit(toc)
			require.ErrorIs(t, err, tt.want)
			var ee *EditError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, before, toc)
		})
	}
}

func TestMoveTrackStartTransplantsAudio(t *testing.T) {
	toc := patternToc(t, 500, 800)
	content := disc(t, toc)
	require.NoError(t, toc.AddIndexMarker(700))

	require.NoError(t, toc.MoveTrackMarker(2, 1, 400))
	requireInvariants(t, toc)
	assert.Equal(t, msf.Msf(400), toc.Track(1).Length())
	assert.Equal(t, msf.Msf(900), toc.Track(2).Length())
	assert.Equal(t, content, disc(t, toc))
	_, start, _, _ := toc.TrackPosition(2)
	assert.Equal(t, msf.Msf(700), start+toc.Track(2).Index(0), "index keeps its disc position")

	require.NoError(t, toc.MoveTrackMarker(2, 1, 450))
	requireInvariants(t, toc)
	assert.Equal(t, msf.Msf(450), toc.Track(1).Length())
	assert.Equal(t, content, disc(t, toc))
	_, start, _, _ = toc.TrackPosition(2)
	assert.Equal(t, msf.Msf(700), start+toc.Track(2).Index(0))

	require.ErrorIs(t, toc.MoveTrackMarker(2, 1, 720), ErrCrossesMarker)
	require.NoError(t, toc.MoveTrackMarker(2, 2, 720))
	assert.Equal(t, msf.Msf(270), toc.Track(2).Index(0))
}

func TestPregapEdits(t *testing.T) {
	toc := patternToc(t, 600, 600)
	content := disc(t, toc)

	require.ErrorIs(t, toc.AddPregap(200), ErrTrackTooShort)
	require.NoError(t, toc.AddPregap(450))
	requireInvariants(t, toc)
	abs, start, _, _ := toc.TrackPosition(2)
	assert.Equal(t, msf.Msf(450), abs)
	assert.Equal(t, msf.Msf(600), start)
	assert.Equal(t, content, disc(t, toc))

	require.NoError(t, toc.MoveTrackMarker(2, 0, 500))
	assert.Equal(t, msf.Msf(100), toc.Track(2).Start())
	require.NoError(t, toc.MoveTrackMarker(2, 0, 420))
	assert.Equal(t, msf.Msf(180), toc.Track(2).Start())
	assert.Equal(t, content, disc(t, toc))

	// track start inside its own pre-gap region
	require.NoError(t, toc.MoveTrackMarker(2, 1, 650))
	abs, start, _, _ = toc.TrackPosition(2)
	assert.Equal(t, msf.Msf(420), abs)
	assert.Equal(t, msf.Msf(650), start)

	require.NoError(t, toc.RemoveTrackMarker(2, 0))
	requireInvariants(t, toc)
	assert.Zero(t, toc.Track(2).Start())
	assert.Equal(t, msf.Msf(650), toc.Track(1).Length())
	assert.Equal(t, content, disc(t, toc))
}

func TestFirstTrackPregap(t *testing.T) {
	toc := patternToc(t, 600)
	require.NoError(t, toc.AddIndexMarker(500))
	require.NoError(t, toc.MoveTrackMarker(1, 1, 150))
	assert.Equal(t, msf.Msf(150), toc.Track(1).Start())
	assert.Equal(t, msf.Msf(350), toc.Track(1).Index(0))

	require.NoError(t, toc.RemoveTrackMarker(1, 0))
	assert.Zero(t, toc.Track(1).Start())
	assert.Equal(t, msf.Msf(500), toc.Track(1).Index(0))
}

func TestMergeAndSplit(t *testing.T) {
	toc := patternToc(t, 400, 700)
	content := disc(t, toc)
	require.NoError(t, toc.AddIndexMarker(900))
	require.NoError(t, toc.AddIndexMarker(200))

	require.NoError(t, toc.RemoveTrackMarker(2, 1))
	requireInvariants(t, toc)
	require.Equal(t, 1, toc.TrackCount())
	assert.Equal(t, []msf.Msf{200, 900}, toc.Track(1).Indices())
	assert.Equal(t, content, disc(t, toc))

	require.NoError(t, toc.AddTrackMarker(500))
	requireInvariants(t, toc)
	require.Equal(t, 2, toc.TrackCount())
	assert.Equal(t, []msf.Msf{200}, toc.Track(1).Indices())
	assert.Equal(t, []msf.Msf{400}, toc.Track(2).Indices())
	assert.Equal(t, content, disc(t, toc))

	require.NoError(t, toc.RemoveTrackMarker(2, 2))
	assert.Zero(t, toc.Track(2).IndexCount())
}

func TestAppendTrack(t *testing.T) {
	toc := New()
	start, end, err := toc.AppendTrackData([]*trackdata.TrackData{trackdata.NewSilence(100)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(300), end)
	subs := toc.Track(1).SubTracks()
	require.Len(t, subs, 2)
	assert.Equal(t, trackdata.SUBTRACK_PAD, subs[1].Type())

	start, end, err = toc.AppendTrackData([]*trackdata.TrackData{trackdata.NewSilence(75 * 588)})
	require.NoError(t, err)
	assert.Equal(t, int64(300), start)
	assert.Equal(t, int64(375), end)
	assert.Equal(t, 1, toc.TrackCount())

	start, _, err = toc.AppendTrack([]*trackdata.TrackData{trackdata.NewSilence(400 * 588)})
	require.NoError(t, err)
	assert.Equal(t, int64(375), start)
	assert.Equal(t, 2, toc.TrackCount())

	toc.Append(dataTrack(t, 300))
	_, _, err = toc.AppendTrackData([]*trackdata.TrackData{trackdata.NewSilence(588)})
	require.ErrorIs(t, err, ErrDataTrack)
	assert.Equal(t, trackdata.MODE1, toc.LeadOutMode())
}

func TestRemoveInsertTrackData(t *testing.T) {
	toc := patternToc(t, 400, 400)
	content := disc(t, toc)

	removed, err := toc.RemoveTrackData(450*588, 460*588-1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10*588), trackdata.SubTrackSamples(removed))
	assert.Equal(t, msf.Msf(790), toc.Length())
	requireInvariants(t, toc)

	require.NoError(t, toc.InsertTrackData(450*588, removed))
	assert.Equal(t, content, disc(t, toc))

	require.NoError(t, toc.InsertTrackData(5000*588, []*trackdata.SubTrack{
		trackdata.NewSubTrack(trackdata.SUBTRACK_DATA, trackdata.NewSilence(588)),
	}))
	assert.Equal(t, msf.Msf(801), toc.Length())
}

func TestCheck(t *testing.T) {
	toc := patternToc(t, 300)
	sev, findings := toc.Check()
	assert.Equal(t, track.SEVERITY_NONE, sev)
	assert.Empty(t, findings)

	toc.Append(silentTrack(t, 100))
	sev, findings = toc.Check()
	assert.Equal(t, track.SEVERITY_ERROR, sev)
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].TrackNr)
}

func TestCdTextItems(t *testing.T) {
	toc := mixedToc(t)
	require.NoError(t, toc.AddCdTextItem(0, cdtext.NewText(cdtext.CDTEXT_TITLE, 0, "Album")))
	require.NoError(t, toc.AddCdTextItem(2, cdtext.NewText(cdtext.CDTEXT_TITLE, 1, "Song")))
	require.ErrorIs(t, toc.AddCdTextItem(9, cdtext.NewText(cdtext.CDTEXT_TITLE, 0, "x")), ErrNoTrack)

	assert.Equal(t, "Album", toc.CdTextItem(0, 0, cdtext.CDTEXT_TITLE).Text)
	assert.Equal(t, "Song", toc.CdTextItem(2, 1, cdtext.CDTEXT_TITLE).Text)
	assert.Nil(t, toc.CdTextItem(2, 0, cdtext.CDTEXT_TITLE))
	assert.True(t, toc.ExistCdTextBlock(1))
	assert.False(t, toc.ExistCdTextBlock(2))

	toc.RemoveCdTextItem(2, cdtext.CDTEXT_TITLE, 1)
	assert.False(t, toc.ExistCdTextBlock(1))

	toc.SetCdTextLanguage(0, cdtext.LANG_ENGLISH)
	assert.Equal(t, cdtext.LANG_ENGLISH, toc.CdTextLanguage(0))
	assert.Equal(t, -1, toc.CdTextLanguage(1))

	packs, err := toc.CdTextPacks()
	require.NoError(t, err)
	d := cdtext.Decode(packs)
	require.Empty(t, d.Errors)
	assert.Equal(t, "Album", d.Disc.Get(0, cdtext.CDTEXT_TITLE).Text)
}

func TestPrint(t *testing.T) {
	toc := patternToc(t, 300)
	toc.Append(dataTrack(t, 300))
	toc.SetType(CD_ROM)
	require.NoError(t, toc.SetCatalog("1234567890123"))
	toc.SetCdTextLanguage(0, cdtext.LANG_ENGLISH)
	require.NoError(t, toc.AddCdTextItem(0, cdtext.NewText(cdtext.CDTEXT_TITLE, 0, "Album")))

	var out bytes.Buffer
	require.NoError(t, toc.Print(&out))
	s := out.String()
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("CD_ROM\n\n")))
	for _, want := range []string{
		`CATALOG "1234567890123"`,
		"LANGUAGE_MAP {",
		"0 : 9",
		`TITLE "Album"`,
		"// Track 1\nTRACK AUDIO\n",
		"// Track 2\nTRACK MODE1\n",
		"ZERO MODE1 00:04:00",
	} {
		assert.Contains(t, s, want)
	}

	name := filepath.Join(t.TempDir(), "disc.toc")
	require.NoError(t, toc.WriteFile(name))
	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, s, string(b))
}
