package mpd

import "github.com/dash-mpd-go/dashmpd/dmerrors"

// AddressingMode identifies which of the four segment-addressing schemes is
// effective for a Representation once inheritance has been resolved.
type AddressingMode int

const (
	// AddressingNone means the Representation carries no segment
	// information at all (legal only for single-file "whole
	// representation is one BaseURL" content, which this core treats as
	// an UnsupportedFeature since it rarely appears in the wild).
	AddressingNone AddressingMode = iota
	AddressingSegmentBase
	AddressingSegmentList
	AddressingSegmentTemplate
)

// EffectiveTemplate is the fully inherited, representation-level view of a
// SegmentTemplate: each field is taken from the innermost
// (Representation > AdaptationSet > Period) definition that set it,
// following spec.md §4.F's inheritance rule ("individual attributes ...
// inherit from outer templates when absent inner").
type EffectiveTemplate struct {
	Timescale              uint64
	Duration               uint64
	StartNumber            uint64
	PresentationTimeOffset uint64
	Media                  string
	Initialization         string
	Timeline               *SegmentTimeline
}

// EffectiveAddressing computes, once per Representation, which addressing
// mode governs it and the fully-inherited template/list/base that goes with
// it. It implements the "function effective_addressing(period, aset, rep)"
// design note from spec.md §9.
func EffectiveAddressing(p *Period, as *AdaptationSet, rep *Representation) (AddressingMode, error) {
	// A Representation-level descriptor always wins outright; mixing two
	// different modes at the SAME level is the one case spec.md §3 calls
	// an error ("multiple modes at the same level is an error").
	repModes := countModes(rep.SegmentBase != nil, rep.SegmentList != nil, rep.SegmentTemplate != nil)
	if repModes > 1 {
		return AddressingNone, &dmerrors.UnsupportedFeature{Feature: "multiple segment addressing modes on one Representation"}
	}
	asModes := countModes(as.SegmentBase != nil, as.SegmentList != nil, as.SegmentTemplate != nil)
	if asModes > 1 {
		return AddressingNone, &dmerrors.UnsupportedFeature{Feature: "multiple segment addressing modes on one AdaptationSet"}
	}
	pModes := countModes(p.SegmentBase != nil, p.SegmentList != nil, p.SegmentTemplate != nil)
	if pModes > 1 {
		return AddressingNone, &dmerrors.UnsupportedFeature{Feature: "multiple segment addressing modes on one Period"}
	}

	for _, l := range [][3]bool{
		{rep.SegmentTemplate != nil, rep.SegmentList != nil, rep.SegmentBase != nil},
		{as.SegmentTemplate != nil, as.SegmentList != nil, as.SegmentBase != nil},
		{p.SegmentTemplate != nil, p.SegmentList != nil, p.SegmentBase != nil},
	} {
		switch {
		case l[0]:
			return AddressingSegmentTemplate, nil
		case l[1]:
			return AddressingSegmentList, nil
		case l[2]:
			return AddressingSegmentBase, nil
		}
	}
	return AddressingNone, nil
}

func countModes(a, b, c bool) int {
	n := 0
	if a {
		n++
	}
	if b {
		n++
	}
	if c {
		n++
	}
	return n
}

// ResolveTemplate walks Period -> AdaptationSet -> Representation and
// returns the effective SegmentTemplate, with each field taking the
// innermost value that was actually set. The Representation's own
// SegmentTemplate need not set every field; fields it leaves nil fall back
// to the AdaptationSet's, then the Period's.
func ResolveTemplate(p *Period, as *AdaptationSet, rep *Representation) *EffectiveTemplate {
	levels := []*SegmentTemplate{p.SegmentTemplate, as.SegmentTemplate, rep.SegmentTemplate}

	et := &EffectiveTemplate{
		Timescale:   1, // xs default per DASH schema when timescale is absent
		StartNumber: 1,
	}
	for _, t := range levels {
		if t == nil {
			continue
		}
		if t.Timescale != nil {
			et.Timescale = *t.Timescale
		}
		if t.Duration != nil {
			et.Duration = *t.Duration
		}
		if t.StartNumber != nil {
			et.StartNumber = *t.StartNumber
		}
		if t.PresentationTimeOffset != nil {
			et.PresentationTimeOffset = *t.PresentationTimeOffset
		}
		if t.Media != nil {
			et.Media = *t.Media
		}
		if t.Initialization != nil {
			et.Initialization = *t.Initialization
		}
		if t.Timeline != nil {
			et.Timeline = t.Timeline
		}
	}
	return et
}

// ResolveSegmentBase returns the effective SegmentBase, innermost wins
// whole (SegmentBase is small enough that spec.md does not require
// per-field merging the way SegmentTemplate does).
func ResolveSegmentBase(p *Period, as *AdaptationSet, rep *Representation) *SegmentBase {
	if rep.SegmentBase != nil {
		return rep.SegmentBase
	}
	if as.SegmentBase != nil {
		return as.SegmentBase
	}
	return p.SegmentBase
}

// ResolveSegmentList returns the effective SegmentList.
func ResolveSegmentList(p *Period, as *AdaptationSet, rep *Representation) *SegmentList {
	if rep.SegmentList != nil {
		return rep.SegmentList
	}
	if as.SegmentList != nil {
		return as.SegmentList
	}
	return p.SegmentList
}

// ResolveBaseURLs returns the BaseURL stack from outermost to innermost
// (MPD, Period, AdaptationSet, Representation), for segment.ResolveURL to
// fold left-to-right per spec.md §4.F.
func ResolveBaseURLs(m *MPD, p *Period, as *AdaptationSet, rep *Representation) []string {
	var out []string
	collect := func(bs []BaseURL) {
		if len(bs) > 0 {
			// "Open question: when multiple BaseURL entries appear at
			// the same level, the source appears to pick the first";
			// spec.md §9 specifies "first".
			out = append(out, bs[0].Value)
		}
	}
	collect(m.BaseURLs)
	collect(p.BaseURLs)
	collect(as.BaseURLs)
	collect(rep.BaseURLs)
	return out
}
