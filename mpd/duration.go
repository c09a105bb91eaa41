package mpd

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
)

// xsDurationRE matches the xs:duration lexical form PnYnMnDTnHnMnS, e.g.
// "P0Y0M0DT0H1M30.5S" or the common abbreviated "PT1M30.5S". All components
// are optional except that at least one must be present, and the seconds
// field may carry a fractional part (spec.md §3: "the parser accepts
// fractional seconds"), so parsing is hand-rolled here using the
// regexp-based approach most DASH parsers in the pack take (jun-oku-mpd
// and mc2soft-mpd both keep the lexical form as a raw string and parse it
// lazily rather than eagerly, for the same round-trip reason).
var xsDurationRE = regexp.MustCompile(
	`^(-)?P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`,
)

const (
	hoursPerDay  = 24
	daysPerMonth = 30 // DASH durations never need calendar-accurate months
	daysPerYear  = 365
)

// ParseXSDuration parses an xs:duration lexical string into a
// time.Duration. Years/months are approximated (DASH manifests never
// legitimately need calendar precision here; MinBufferTime/SegmentTemplate
// durations are always sub-day).
func ParseXSDuration(s string) (time.Duration, error) {
	m := xsDurationRE.FindStringSubmatch(s)
	if m == nil {
		return 0, &dmerrors.BadDuration{Attr: "duration", Value: s}
	}
	if m[2] == "" && m[3] == "" && m[4] == "" && m[5] == "" && m[6] == "" && m[7] == "" {
		return 0, &dmerrors.BadDuration{Attr: "duration", Value: s}
	}

	var total time.Duration
	add := func(field string, unit time.Duration) error {
		if field == "" {
			return nil
		}
		n, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return err
		}
		total += time.Duration(n * float64(unit))
		return nil
	}

	if err := add(m[2], daysPerYear*hoursPerDay*time.Hour); err != nil {
		return 0, &dmerrors.BadDuration{Attr: "duration", Value: s}
	}
	if err := add(m[3], daysPerMonth*hoursPerDay*time.Hour); err != nil {
		return 0, &dmerrors.BadDuration{Attr: "duration", Value: s}
	}
	if err := add(m[4], hoursPerDay*time.Hour); err != nil {
		return 0, &dmerrors.BadDuration{Attr: "duration", Value: s}
	}
	if err := add(m[5], time.Hour); err != nil {
		return 0, &dmerrors.BadDuration{Attr: "duration", Value: s}
	}
	if err := add(m[6], time.Minute); err != nil {
		return 0, &dmerrors.BadDuration{Attr: "duration", Value: s}
	}
	if err := add(m[7], time.Second); err != nil {
		return 0, &dmerrors.BadDuration{Attr: "duration", Value: s}
	}

	if m[1] == "-" {
		total = -total
	}
	return total, nil
}

// FormatXSDuration renders a time.Duration back to the canonical
// "PT#H#M#.###S" xs:duration lexical form.
func FormatXSDuration(d time.Duration) string {
	wholeSeconds := int64(d / time.Second)
	frac := d % time.Second

	hours := wholeSeconds / 3600
	minutes := (wholeSeconds % 3600) / 60
	secs := wholeSeconds % 60

	var b []byte
	b = append(b, "PT"...)
	if hours > 0 {
		b = append(b, fmt.Sprintf("%dH", hours)...)
	}
	if minutes > 0 {
		b = append(b, fmt.Sprintf("%dM", minutes)...)
	}
	if frac == 0 {
		b = append(b, fmt.Sprintf("%dS", secs)...)
	} else {
		b = append(b, fmt.Sprintf("%d.%03dS", secs, int64(frac/time.Millisecond))...)
	}
	return string(b)
}

// Duration parses MPD.MediaPresentationDuration, returning (0, false) when
// absent.
func (m *MPD) Duration() (time.Duration, bool, error) {
	if m.MediaPresentationDuration == nil {
		return 0, false, nil
	}
	d, err := ParseXSDuration(*m.MediaPresentationDuration)
	return d, true, err
}

// MinBufferTimeDuration parses MPD.MinBufferTime.
func (m *MPD) MinBufferTimeDuration() (time.Duration, error) {
	if m.MinBufferTime == nil {
		return 0, nil
	}
	return ParseXSDuration(*m.MinBufferTime)
}

// StartDuration parses Period.Start, returning (0, false) when absent.
func (p *Period) StartDuration() (time.Duration, bool, error) {
	if p.Start == nil {
		return 0, false, nil
	}
	d, err := ParseXSDuration(*p.Start)
	return d, true, err
}

// DurationDuration parses Period.Duration, returning (0, false) when absent.
func (p *Period) DurationDuration() (time.Duration, bool, error) {
	if p.Duration == nil {
		return 0, false, nil
	}
	d, err := ParseXSDuration(*p.Duration)
	return d, true, err
}

// MinimumUpdatePeriodDuration parses MPD.MinimumUpdatePeriod.
func (m *MPD) MinimumUpdatePeriodDuration() (time.Duration, bool, error) {
	if m.MinimumUpdatePeriod == nil {
		return 0, false, nil
	}
	d, err := ParseXSDuration(*m.MinimumUpdatePeriod)
	return d, true, err
}
