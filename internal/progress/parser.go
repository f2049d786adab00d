// Package progress turns the fetcher's textual status lines into structured
// progress updates and fans those lines out to subscribers.
package progress

import (
	"regexp"
	"strconv"

	"github.com/veranemoloko/media-downloader/internal/domain"
)

// Each field has its own matcher so lines can carry any subset of them.
var (
	// [download]  42.5% of 10.00MiB ...
	percentPattern = regexp.MustCompile(`\[download\]\s*(\d+(?:\.\d+)?)%`)

	// ... at 1.20MiB/s ...
	speedPattern = regexp.MustCompile(`(?:^|\s)at\s+(\d+(?:\.\d+)?[KMG]iB/s)`)

	// ... ETA 00:30 (hh:mm:ss for long downloads)
	etaPattern = regexp.MustCompile(`(?:^|\s)ETA\s+(\d+:\d{2}(?::\d{2})?)`)
)

// Update holds the fields extracted from a single line.
// A field is meaningful only when its Has* flag is set.
type Update struct {
	Percent    float64
	Speed      string
	ETA        string
	HasPercent bool
	HasSpeed   bool
	HasETA     bool
}

// Empty reports whether no field was extracted.
func (u Update) Empty() bool {
	return !u.HasPercent && !u.HasSpeed && !u.HasETA
}

// ApplyTo merges the present fields into s and bumps its sequence number.
// Absent fields keep their previous values. Returns false if nothing changed.
func (u Update) ApplyTo(s *domain.ProgressSnapshot) bool {
	if u.Empty() {
		return false
	}
	if u.HasPercent {
		s.Percent = u.Percent
	}
	if u.HasSpeed {
		s.Speed = u.Speed
	}
	if u.HasETA {
		s.ETA = u.ETA
	}
	s.Sequence++
	return true
}

// Parse extracts percent, speed and ETA from line.
func Parse(line string) Update {
	var u Update
	u.Percent, u.HasPercent = parsePercent(line)
	u.Speed, u.HasSpeed = parseSpeed(line)
	u.ETA, u.HasETA = parseETA(line)
	return u
}

func parsePercent(line string) (float64, bool) {
	m := percentPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseSpeed(line string) (string, bool) {
	m := speedPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func parseETA(line string) (string, bool) {
	m := etaPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}
