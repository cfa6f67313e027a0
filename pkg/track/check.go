package track

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/consts"
)

// Severity grades advisory findings.
type Severity int

const (
	SEVERITY_NONE Severity = iota
	SEVERITY_WARNING
	SEVERITY_ERROR
)

func (s Severity) String() string {
	switch s {
	case SEVERITY_WARNING:
		return "warning"
	case SEVERITY_ERROR:
		return "error"
	}
	return "none"
}

// Finding is one advisory check result.
type Finding struct {
	Severity Severity
	TrackNr  int
	Message  string
}

func (f Finding) String() string {
	if f.TrackNr > 0 {
		return fmt.Sprintf("%s: track %d: %s", f.Severity, f.TrackNr, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Severity, f.Message)
}

// Check reports problems that would prevent or degrade recording the track. trackNr is used for
// the findings only.
func (t *Track) Check(trackNr int) []Finding {
	var out []Finding
	add := func(sev Severity, format string, args ...interface{}) {
		out = append(out, Finding{Severity: sev, TrackNr: trackNr, Message: fmt.Sprintf(format, args...)})
	}

	if len(t.subTracks) == 0 {
		add(SEVERITY_ERROR, "track contains no data")
		return out
	}
	if t.BodyLength() < consts.CD_MIN_TRACK_BLOCKS {
		add(SEVERITY_ERROR, "track is shorter than 4 seconds (%s)", t.BodyLength())
	}
	if t.IsAudio() && t.Samples()%consts.CD_SAMPLES_PER_BLOCK != 0 {
		add(SEVERITY_WARNING, "length is not a multiple of the block size, last block is padded with silence")
	}
	if t.isrc != "" && !ValidIsrc(t.isrc) {
		add(SEVERITY_ERROR, "illegal ISRC code %q", t.isrc)
	}
	if !t.IsAudio() && (t.flags.PreEmphasis || t.flags.FourChannel) {
		add(SEVERITY_WARNING, "audio flags set on %s track are ignored", t.mode)
	}
	if err := t.CheckConsistency(); err != nil {
		add(SEVERITY_ERROR, "%v", err)
	}
	return out
}

// MaxSeverity returns the highest severity of the findings.
func MaxSeverity(findings []Finding) Severity {
	s := SEVERITY_NONE
	for _, f := range findings {
		if f.Severity > s {
			s = f.Severity
		}
	}
	return s
}
