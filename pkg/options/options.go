package options

import (
	"github.com/go-logr/logr"
)

// ProgressCallback defines the signature for progress update functions.
type ProgressCallback func(
	trackNr int,
	totalTracks int,
	blocksDone int64,
	totalBlocks int64,
)

// AnalysisMethod selects how track boundaries are recovered from the sub-channels.
type AnalysisMethod int

const (
	// ANALYSIS_DEFAULT uses the method preferred by the driver.
	ANALYSIS_DEFAULT AnalysisMethod = iota
	// ANALYSIS_SCAN reads the sub-channel of every block.
	ANALYSIS_SCAN
	// ANALYSIS_SEARCH binary searches index transitions. Needs a driver that can locate the
	// track and index of a single block.
	ANALYSIS_SEARCH
)

func (a AnalysisMethod) String() string {
	switch a {
	case ANALYSIS_SCAN:
		return "scan"
	case ANALYSIS_SEARCH:
		return "search"
	}
	return "default"
}

// Options represents the settings of a driver and the operations run through it.
type Options struct {
	Logger           logr.Logger
	Speed            int
	Simulate         bool
	MultiSession     bool
	FastTocReading   bool
	RawDataReading   bool
	PadFirstPregap   bool
	Analysis         AnalysisMethod
	Session          int
	Driver           string
	DriverOptions    uint32
	ProgressCallback ProgressCallback
}

// Option represents a function that modifies the Options
type Option func(*Options)

// Default returns the options used when nothing is overridden.
func Default() *Options {
	return &Options{
		Logger:         logr.Discard(),
		Session:        1,
		PadFirstPregap: true,
	}
}

// Apply returns the default options modified by opts.
func Apply(opts ...Option) *Options {
	o := Default()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithProgress sets a progress callback function that will be called with progress updates.
// Parameters:
// - trackNr: The track currently being written or analyzed.
// - totalTracks: The number of tracks of the session.
// - blocksDone: The number of blocks processed so far.
// - totalBlocks: The total number of blocks of the operation.
func WithProgress(callback ProgressCallback) Option {
	return func(o *Options) {
		o.ProgressCallback = callback
	}
}

// WithLogger sets the logger used by the driver and the read and write algorithms.
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithSpeed sets the writing speed as a multiple of the audio speed. 0 selects the maximum.
func WithSpeed(speed int) Option {
	return func(o *Options) {
		o.Speed = speed
	}
}

// WithSimulate enables test writes with the laser turned off.
func WithSimulate(enabled bool) Option {
	return func(o *Options) {
		o.Simulate = enabled
	}
}

// WithMultiSession keeps the disc open for another session after writing.
func WithMultiSession(enabled bool) Option {
	return func(o *Options) {
		o.MultiSession = enabled
	}
}

// WithFastTocReading skips the index, pre-gap and ISRC analysis when reading a disc's TOC.
func WithFastTocReading(enabled bool) Option {
	return func(o *Options) {
		o.FastTocReading = enabled
	}
}

// WithRawDataReading reads data tracks as raw 2352 byte sectors.
func WithRawDataReading(enabled bool) Option {
	return func(o *Options) {
		o.RawDataReading = enabled
	}
}

// WithPadFirstPregap makes the pre-gap of the first track silence instead of taking it from the
// data file.
func WithPadFirstPregap(enabled bool) Option {
	return func(o *Options) {
		o.PadFirstPregap = enabled
	}
}

// WithAnalysis selects how audio tracks are analyzed.
func WithAnalysis(method AnalysisMethod) Option {
	return func(o *Options) {
		o.Analysis = method
	}
}

// WithSession selects the session to read, starting at 1.
func WithSession(session int) Option {
	return func(o *Options) {
		o.Session = session
	}
}

// WithDriver overrides the driver selected from the driver table.
func WithDriver(id string, driverOptions uint32) Option {
	return func(o *Options) {
		o.Driver = id
		o.DriverOptions = driverOptions
	}
}
