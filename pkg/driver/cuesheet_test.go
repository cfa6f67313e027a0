package driver_test

import (
	"testing"

	"github.com/bgrewell/cdr-kit/pkg/driver"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/bgrewell/cdr-kit/pkg/track"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mixedToc returns an audio track with pre-gap, ISRC and an index mark followed by a MODE1 track
// with pre-gap. Track 1 starts at 150, track 2 at 700, the lead-out at 1000.
func mixedToc(t *testing.T) *toc.Toc {
	t.Helper()
	tc := toc.New()

	audio := track.New(trackdata.MODE_AUDIO)
	require.NoError(t, audio.AppendData(trackdata.NewSilence(msf.Msf(550).Samples())))
	require.NoError(t, audio.SetStart(150))
	require.NoError(t, audio.SetIndices([]msf.Msf{100}))
	require.NoError(t, audio.SetIsrc(testIsrc))
	audio.SetFlags(track.Flags{CopyPermitted: true})
	tc.Append(audio)

	data := track.New(trackdata.MODE1)
	require.NoError(t, data.AppendData(trackdata.NewZero(trackdata.MODE1, 450*2048)))
	require.NoError(t, data.SetStart(150))
	tc.Append(data)

	require.NoError(t, tc.SetCatalog(testCatalog))
	return tc
}

func TestBuildCueSheet(t *testing.T) {
	cue, err := driver.BuildCueSheet(mixedToc(t), false)
	require.NoError(t, err)

	want := [][]byte{
		{0x02, '1', '2', '3', '4', '5', '6', '7'},
		{0x02, '8', '9', '0', '1', '2', '3', 0x00},
		{0x21, 0x00, 0x00, 0x01, 0x00, 0, 0, 0},
		{0x23, 0x01, 'D', 'E', 'A', '1', '2', '3'},
		{0x23, 0x01, '4', '5', '6', '7', '8', '9'},
		{0x21, 0x01, 0x00, 0x00, 0x00, 0, 0, 0},
		{0x21, 0x01, 0x01, 0x00, 0x00, 0, 4, 0},
		{0x21, 0x01, 0x02, 0x00, 0x00, 0, 5, 25},
		{0x41, 0x02, 0x00, 0x10, 0x00, 0, 9, 25},
		{0x41, 0x02, 0x01, 0x10, 0x00, 0, 11, 25},
		{0x41, 0xaa, 0x01, 0x14, 0x00, 0, 15, 25},
	}
	require.Len(t, cue, len(want)*8)
	for i, w := range want {
		assert.Equal(t, w, cue[i*8:(i+1)*8], "entry %d", i)
	}
}

func TestBuildCueSheetCdText(t *testing.T) {
	cue, err := driver.BuildCueSheet(audioToc(t, 300), true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x41, 0x00, 0, 0, 0}, cue[:8])
	// no pre-gap entry besides the one of track 1
	assert.Len(t, cue, 4*8)
}

func TestBuildCueSheetNoPregap(t *testing.T) {
	cue, err := driver.BuildCueSheet(audioToc(t, 300, 400), false)
	require.NoError(t, err)
	// lead-in, track 1 index 0 and 1, track 2 index 1, lead-out
	require.Len(t, cue, 5*8)
	assert.Equal(t, []byte{0x01, 0x02, 0x01, 0x00, 0x00, 0, 8, 0}, cue[24:32])
}

func TestBuildCueSheetEmpty(t *testing.T) {
	_, err := driver.BuildCueSheet(toc.New(), false)
	assert.ErrorIs(t, err, driver.ErrNoToc)
}

func TestDataForm(t *testing.T) {
	tests := []struct {
		mode trackdata.Mode
		form byte
	}{
		{trackdata.MODE_AUDIO, driver.DATA_FORM_AUDIO},
		{trackdata.MODE1, driver.DATA_FORM_MODE1},
		{trackdata.MODE1_RAW, driver.DATA_FORM_MODE1_RAW},
		{trackdata.MODE2, driver.DATA_FORM_MODE2},
		{trackdata.MODE2_FORM1, driver.DATA_FORM_XA_FORM1},
		{trackdata.MODE2_FORM2, driver.DATA_FORM_XA_FORM2},
		{trackdata.MODE2_FORM_MIX, driver.DATA_FORM_MODE2},
		{trackdata.MODE2_RAW, driver.DATA_FORM_MODE2_RAW},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			form, err := driver.DataForm(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.form, form)
		})
	}

	_, err := driver.DataForm(trackdata.MODE0)
	assert.ErrorIs(t, err, driver.ErrUnsupported)
}
