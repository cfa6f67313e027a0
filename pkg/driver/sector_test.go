package driver_test

import (
	"testing"

	"github.com/bgrewell/cdr-kit/pkg/driver"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
	"github.com/stretchr/testify/assert"
)

func TestDetermineSectorMode(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		mode trackdata.Mode
	}{
		{"mode 1", []byte{0, 2, 0, 1}, trackdata.MODE1},
		{"mode 2 without sub-header", []byte{0, 2, 0, 2}, trackdata.MODE2},
		{"form 1", []byte{0, 2, 0, 2, 0, 0, 0x08, 0, 0, 0, 0x08, 0}, trackdata.MODE2_FORM1},
		{"form 2", []byte{0, 2, 0, 2, 1, 0, 0x20, 0, 1, 0, 0x20, 0}, trackdata.MODE2_FORM2},
		{"empty sub-mode", []byte{0, 2, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0}, trackdata.MODE2_FORM1},
		{"differing copies", []byte{0, 2, 0, 2, 0, 0, 0x08, 0, 0, 0, 0x20, 0}, trackdata.MODE2},
		{"illegal mode byte", []byte{0, 2, 0, 7}, trackdata.MODE0},
		{"mode 0", []byte{0, 2, 0, 0}, trackdata.MODE0},
		{"short header", []byte{0, 2}, trackdata.MODE0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.mode, driver.DetermineSectorMode(tt.buf))
		})
	}
}

func TestAnalyzeSubHeader(t *testing.T) {
	assert.Equal(t, trackdata.MODE2, driver.AnalyzeSubHeader([]byte{0, 0, 0x08}))
	assert.Equal(t, trackdata.MODE2_FORM1, driver.AnalyzeSubHeader([]byte{0, 0, driver.SUBMODE_VIDEO, 0, 0, 0, driver.SUBMODE_VIDEO, 0}))
	// end of record and end of file bits alone do not select a form
	assert.Equal(t, trackdata.MODE2, driver.AnalyzeSubHeader([]byte{0, 0, 0x81, 0, 0, 0, 0x81, 0}))
}
