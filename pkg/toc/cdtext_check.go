package toc

import (
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/track"
)

// CdTextFinding is one result of the CD-TEXT consistency check. Block is -1 for findings that
// concern all languages.
type CdTextFinding struct {
	Severity track.Severity
	Block    int
	Type     cdtext.PackType
	Message  string
}

func (f CdTextFinding) String() string {
	if f.Block < 0 {
		return fmt.Sprintf("%s: CD-TEXT: %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("%s: CD-TEXT: language %d: %s", f.Severity, f.Block, f.Message)
}

// textFields must be defined for the disc and every track or not at all. Title and performer
// are expected in every used language.
var textFields = []struct {
	pt       cdtext.PackType
	expected bool
}{
	{cdtext.CDTEXT_TITLE, true},
	{cdtext.CDTEXT_PERFORMER, true},
	{cdtext.CDTEXT_SONGWRITER, false},
	{cdtext.CDTEXT_COMPOSER, false},
	{cdtext.CDTEXT_ARRANGER, false},
	{cdtext.CDTEXT_MESSAGE, false},
}

// CheckCdText verifies the CD-TEXT data of the disc and all tracks. A block counts as used when a
// language code is assigned to it. Every finding is logged.
func (t *Toc) CheckCdText() (track.Severity, []CdTextFinding) {
	var findings []CdTextFinding
	add := func(sev track.Severity, block int, pt cdtext.PackType, format string, args ...interface{}) {
		findings = append(findings, CdTextFinding{
			Severity: sev,
			Block:    block,
			Type:     pt,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	var used []int
	genres := 0
	last := -1
	for b := 0; b < consts.CDTEXT_MAX_BLOCKS; b++ {
		if t.CdTextLanguage(b) < 0 {
			continue
		}
		used = append(used, b)
		if t.cdtext.Get(b, cdtext.CDTEXT_GENRE) != nil {
			genres++
		}
		if b-1 != last {
			if last == -1 {
				add(track.SEVERITY_ERROR, b, 0, "language numbers must start at 0")
			} else {
				add(track.SEVERITY_ERROR, b, 0, "language numbers are not continuously used")
			}
		}
		last = b
	}

	if genres > 0 && genres != len(used) {
		add(track.SEVERITY_ERROR, -1, cdtext.CDTEXT_GENRE, "%s field not defined for all languages", cdtext.CDTEXT_GENRE)
	}

	n := len(t.entries)
	for _, b := range used {
		for _, f := range textFields {
			cnt := t.countItems(b, f.pt)
			if t.cdtext.Get(b, f.pt) != nil {
				cnt++
			}
			switch {
			case cnt > 0 && cnt != n+1:
				add(track.SEVERITY_ERROR, b, f.pt, "%s field not defined for all tracks or disc", f.pt)
			case cnt == 0 && f.expected:
				add(track.SEVERITY_WARNING, b, f.pt, "%s field is not defined", f.pt)
			}
		}

		isrc := t.countItems(b, cdtext.CDTEXT_UPCEAN_ISRC)
		if (isrc > 0 && isrc != n) || (isrc == 0 && t.cdtext.Get(b, cdtext.CDTEXT_UPCEAN_ISRC) != nil) {
			add(track.SEVERITY_ERROR, b, cdtext.CDTEXT_UPCEAN_ISRC, "%s field not defined for all tracks",
				cdtext.CDTEXT_UPCEAN_ISRC.TrackString())
		}
	}

	sev := track.SEVERITY_NONE
	for _, f := range findings {
		if f.Severity > sev {
			sev = f.Severity
		}
		t.logFinding(f.Severity, f.String())
	}
	return sev, findings
}

func (t *Toc) countItems(block int, pt cdtext.PackType) int {
	cnt := 0
	for _, e := range t.entries {
		if e.track.CdTextItem(block, pt) != nil {
			cnt++
		}
	}
	return cnt
}
