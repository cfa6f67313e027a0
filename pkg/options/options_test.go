package options

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	o := Default()
	assert.Equal(t, 1, o.Session)
	assert.True(t, o.PadFirstPregap)
	assert.Equal(t, ANALYSIS_DEFAULT, o.Analysis)
	assert.NotNil(t, o.Logger.GetSink())
	assert.Nil(t, o.ProgressCallback)
}

func TestApply(t *testing.T) {
	var calls int
	o := Apply(
		WithSpeed(8),
		WithSimulate(true),
		WithMultiSession(true),
		WithFastTocReading(true),
		WithRawDataReading(true),
		WithPadFirstPregap(false),
		WithAnalysis(ANALYSIS_SEARCH),
		WithSession(2),
		WithDriver("plextor", 0x20000),
		WithLogger(logr.Discard()),
		WithProgress(func(trackNr, totalTracks int, done, total int64) { calls++ }),
	)

	assert.Equal(t, 8, o.Speed)
	assert.True(t, o.Simulate)
	assert.True(t, o.MultiSession)
	assert.True(t, o.FastTocReading)
	assert.True(t, o.RawDataReading)
	assert.False(t, o.PadFirstPregap)
	assert.Equal(t, ANALYSIS_SEARCH, o.Analysis)
	assert.Equal(t, 2, o.Session)
	assert.Equal(t, "plextor", o.Driver)
	assert.Equal(t, uint32(0x20000), o.DriverOptions)

	require.NotNil(t, o.ProgressCallback)
	o.ProgressCallback(1, 1, 0, 10)
	assert.Equal(t, 1, calls)
}

func TestApplyLastWins(t *testing.T) {
	o := Apply(WithSpeed(4), WithSpeed(2))
	assert.Equal(t, 2, o.Speed)
}

func TestAnalysisMethodString(t *testing.T) {
	assert.Equal(t, "scan", ANALYSIS_SCAN.String())
	assert.Equal(t, "search", ANALYSIS_SEARCH.String())
	assert.Equal(t, "default", ANALYSIS_DEFAULT.String())
}
