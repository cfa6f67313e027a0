package toc

import (
	"testing"

	"github.com/bgrewell/cdr-kit/pkg/track"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderSamplesAcrossTracks(t *testing.T) {
	toc := patternToc(t, 300, 300, 300)
	r := toc.NewReader()

	_, err := r.ReadSamples(make([]byte, 4))
	require.ErrorIs(t, err, ErrReaderClosed)

	require.NoError(t, r.Open())
	defer r.Close()

	// straddle the boundary between track 1 and 2
	require.NoError(t, r.SeekSample(300*588-2))
	buf := make([]byte, 4*4)
	n, err := r.ReadSamples(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	for i := 0; i < 4; i++ {
		assert.Equal(t, byte(300*588-2+i), buf[i*4+3])
	}
	assert.Equal(t, uint64(300*588+2), r.Position())

	// short read only at the end of the disc
	require.NoError(t, r.SeekSample(900*588-3))
	n, err = r.ReadSamples(make([]byte, 40))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = r.ReadSamples(make([]byte, 40))
	require.NoError(t, err)
	assert.Zero(t, n)

	require.ErrorIs(t, r.SeekSample(900*588), ErrSeekRange)
}

func TestReaderData(t *testing.T) {
	toc := patternToc(t, 300)
	user := make([]byte, 300*2048)
	for i := range user {
		user[i] = byte(i / 2048)
	}
	d, err := trackdata.NewMemory(trackdata.MODE1, user)
	require.NoError(t, err)
	data := track.New(trackdata.MODE1)
	require.NoError(t, data.AppendData(d))
	toc.Append(data)

	r := toc.NewReader()
	require.NoError(t, r.Open())
	defer r.Close()

	require.NoError(t, r.SeekSample(299*588))
	buf := make([]byte, 3*2352)
	n, err := r.ReadData(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	// last audio block, then the first two data blocks
	assert.Equal(t, byte((299*588)&0xff), buf[3])
	assert.Equal(t, byte(0), buf[2352])
	assert.Equal(t, make([]byte, 2352-2048), buf[2352+2048:2*2352])
	assert.Equal(t, byte(1), buf[2*2352])

	require.NoError(t, r.SeekSample(599*588))
	n, err = r.ReadData(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(299&0xff), buf[0])

	// samples of a data track read as silence
	require.NoError(t, r.SeekSample(400*588))
	samples := make([]byte, 8)
	samples[0] = 0xff
	_, err = r.ReadSamples(samples)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), samples)

	require.NoError(t, r.SeekSample(10))
	_, err = r.ReadData(buf, 1)
	require.ErrorIs(t, err, ErrUnaligned)
}
