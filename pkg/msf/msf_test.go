package msf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndAccessors(t *testing.T) {
	m := New(4, 0, 0)
	assert.Equal(t, int64(18000), m.LBA())
	assert.Equal(t, 4, m.Min())
	assert.Equal(t, 0, m.Sec())
	assert.Equal(t, 0, m.Frac())
	assert.Equal(t, "04:00:00", m.String())

	m = New(1, 2, 3)
	assert.Equal(t, int64(60*75+2*75+3), m.LBA())
	assert.Equal(t, "01:02:03", m.String())
}

func TestSamples(t *testing.T) {
	assert.Equal(t, uint64(588*300), FromLBA(300).Samples())
	assert.Equal(t, Msf(1), FromSamples(1175))
	assert.Equal(t, Msf(2), FromSamplesCeil(1175))
	assert.Equal(t, Msf(2), FromSamplesCeil(1176))
	assert.Equal(t, uint64(0), Msf(-5).Samples())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Msf
		wantErr bool
	}{
		{"00:00:00", 0, false},
		{"00:02:00", 150, false},
		{"74:59:74", New(74, 59, 74), false},
		{"00:60:00", 0, true},
		{"00:00:75", 0, true},
		{"garbage", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBCD(t *testing.T) {
	m := New(12, 34, 56)
	mm, ss, ff := m.BCD()
	assert.Equal(t, []byte{0x12, 0x34, 0x56}, []byte{mm, ss, ff})

	// 00:02:00 absolute is LBA 0
	got, err := FromBCD(0x00, 0x02, 0x00)
	require.NoError(t, err)
	assert.Equal(t, Msf(0), got)

	_, err = FromBCD(0x0f, 0x00, 0x00)
	require.Error(t, err)

	assert.Equal(t, Msf(150), Msf(0).Absolute())
	assert.Equal(t, "-00:01:00", Msf(-75).String())
}
