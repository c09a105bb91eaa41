package segment

import "github.com/dash-mpd-go/dashmpd/dmerrors"

// TimelineEntry is one concrete (time, duration) pair produced by walking a
// SegmentTimeline, with its ordinal segment number already computed —
// mirrors the flattening the teacher's ConvertTimeline performs, extended
// to also track @r and the running segment number SegmentTemplate's
// $Number$ placeholder needs.
type TimelineEntry struct {
	Number   uint64
	Time     uint64
	Duration uint64
}

// TimelineS is the minimal shape WalkTimeline needs from an mpd.S entry,
// so WalkTimeline itself does not depend on the mpd types.
type TimelineS struct {
	T       *uint64
	D       uint64
	Repeats int64 // 0 means "just once"; -1 means "repeat until periodEnd"
}

// WalkTimeline flattens a SegmentTimeline's S elements into an ordered list
// of segments, numbering them startNumber, startNumber+1, ... spec.md §4.F:
// "T absent on the first S means start at 0; T absent on a later S means
// continue from the previous entry's t + d*(r+1)". periodEnd (in the same
// timescale as the entries) resolves an r="-1" ("repeat until the end of
// the Period") entry; pass 0 if the timeline is not known to contain one.
func WalkTimeline(entries []TimelineS, startNumber uint64, periodEnd uint64) ([]TimelineEntry, error) {
	var out []TimelineEntry
	var t uint64
	num := startNumber

	for i, s := range entries {
		if s.T != nil {
			t = *s.T
		} else if i == 0 {
			t = 0
		}
		// else: t already holds "previous entry's end", left as-is.

		repeat := s.Repeats
		if repeat == -1 {
			if periodEnd == 0 || periodEnd <= t {
				return nil, &dmerrors.TemplateError{Template: "SegmentTimeline", Reason: "r=\"-1\" entry requires a known period end"}
			}
			if s.D == 0 {
				return nil, &dmerrors.TemplateError{Template: "SegmentTimeline", Reason: "r=\"-1\" entry has zero duration"}
			}
			repeat = int64((periodEnd-t)/s.D) - 1
			if repeat < 0 {
				repeat = 0
			}
		}

		for r := int64(0); r <= repeat; r++ {
			out = append(out, TimelineEntry{Number: num, Time: t, Duration: s.D})
			num++
			t += s.D
		}
	}
	return out, nil
}
