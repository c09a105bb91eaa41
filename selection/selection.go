// Package selection picks which AdaptationSets and Representations a
// download should actually fetch, generalizing the teacher's
// selectRepresentations (internal/session/session.go) — which hardcoded
// "best video bandwidth, every audio/text track" — into the full knob set
// spec.md §4.I exposes (best/worst/intermediate quality, preferred
// width/height/language/role, per-track-class opt-outs).
package selection

import (
	"sort"
	"strings"

	"github.com/dash-mpd-go/dashmpd/mpd"
)

// Quality picks which Representation within an AdaptationSet to keep when
// the caller asked for a single rendition rather than every one.
type Quality int

const (
	// QualityAll keeps every Representation (the default; matches the
	// teacher's audio/text branch, which keeps every available track).
	QualityAll Quality = iota
	QualityBest
	QualityWorst
	// QualityIntermediate picks the middle Representation by bandwidth
	// rank, rounding down, e.g. the 2nd of 3 or the 2nd of 4.
	QualityIntermediate
	// QualityPreferWidth picks the Representation whose @width is closest
	// to PreferWidth, breaking ties by bandwidth. Set directly by
	// PreferVideoWidth so the preference works standalone rather than only
	// as a tiebreak under another quality mode.
	QualityPreferWidth
	// QualityPreferHeight is QualityPreferWidth's @height counterpart.
	QualityPreferHeight
)

// Options mirrors the builder's quality/preference knobs (spec.md §4.I).
type Options struct {
	Quality         Quality
	PreferWidth     *uint64
	PreferHeight    *uint64
	PreferLanguages []string
	PreferRoles     []string
	FetchVideo      bool
	FetchAudio      bool
	FetchSubtitles  bool
	VideoOnly       bool
	AudioOnly       bool
}

// DefaultOptions fetches every track class at every quality, matching the
// teacher's unconditional "select all audio/text tracks" behavior extended
// to video.
func DefaultOptions() Options {
	return Options{Quality: QualityAll, FetchVideo: true, FetchAudio: true, FetchSubtitles: true}
}

// trackClass classifies an AdaptationSet the same way the teacher's switch
// on as.ContentType does, falling back to the mimeType prefix when
// @contentType itself is absent (spec.md §4.E: "contentType is preferred
// but MimeType is the fallback discriminator").
func trackClass(as *mpd.AdaptationSet) string {
	if as.ContentType != nil && *as.ContentType != "" {
		return *as.ContentType
	}
	if as.MimeType != nil {
		switch {
		case strings.HasPrefix(*as.MimeType, "video/"):
			return "video"
		case strings.HasPrefix(*as.MimeType, "audio/"):
			return "audio"
		case strings.HasPrefix(*as.MimeType, "text/"), strings.HasPrefix(*as.MimeType, "application/"):
			return "text"
		}
	}
	return ""
}

// SelectAdaptationSets filters a Period's AdaptationSets down to the track
// classes the caller asked for, then by language/role preference within
// each kept class.
func SelectAdaptationSets(p *mpd.Period, opts Options) []*mpd.AdaptationSet {
	var kept []*mpd.AdaptationSet
	for i := range p.AdaptationSets {
		as := &p.AdaptationSets[i]
		class := trackClass(as)

		switch {
		case opts.VideoOnly && class != "video":
			continue
		case opts.AudioOnly && class != "audio":
			continue
		case class == "video" && !opts.FetchVideo:
			continue
		case class == "audio" && !opts.FetchAudio:
			continue
		case (class == "text" || class == "subtitle") && !opts.FetchSubtitles:
			continue
		}
		kept = append(kept, as)
	}

	if len(opts.PreferLanguages) > 0 {
		kept = filterByLanguage(kept, opts.PreferLanguages)
	}
	if len(opts.PreferRoles) > 0 {
		kept = filterByRole(kept, opts.PreferRoles)
	}
	return kept
}

func filterByLanguage(sets []*mpd.AdaptationSet, langs []string) []*mpd.AdaptationSet {
	for _, want := range langs {
		var matched []*mpd.AdaptationSet
		for _, as := range sets {
			if as.Lang != nil && *as.Lang == want {
				matched = append(matched, as)
			}
		}
		if len(matched) > 0 {
			// Narrow only the track classes that had a match; other
			// classes (e.g. video without a lang) pass through.
			return narrowWithinClasses(sets, matched)
		}
	}
	return sets
}

func narrowWithinClasses(sets, matched []*mpd.AdaptationSet) []*mpd.AdaptationSet {
	isMatch := map[*mpd.AdaptationSet]bool{}
	matchedClass := map[string]bool{}
	for _, as := range matched {
		isMatch[as] = true
		matchedClass[trackClass(as)] = true
	}
	var out []*mpd.AdaptationSet
	for _, as := range sets {
		if isMatch[as] || !matchedClass[trackClass(as)] {
			out = append(out, as)
		}
	}
	return out
}

func filterByRole(sets []*mpd.AdaptationSet, roles []string) []*mpd.AdaptationSet {
	for _, want := range roles {
		var matched []*mpd.AdaptationSet
		for _, as := range sets {
			for _, r := range as.Roles {
				if r.Value != nil && *r.Value == want {
					matched = append(matched, as)
					break
				}
			}
		}
		if len(matched) > 0 {
			return narrowWithinClasses(sets, matched)
		}
	}
	return sets
}

// SelectRepresentations returns the Representations within as that are
// candidates for download, dropping trick-mode tracks: those whose ID,
// lowercased, contains "trickmode" or "trick-mode". Role descriptors are
// not consulted, and no quality narrowing happens here (see ApplyQuality).
func SelectRepresentations(as *mpd.AdaptationSet) []*mpd.Representation {
	candidates := make([]*mpd.Representation, 0, len(as.Representations))
	for i := range as.Representations {
		rep := &as.Representations[i]
		if isTrickMode(rep) {
			continue
		}
		candidates = append(candidates, rep)
	}
	return candidates
}

func isTrickMode(rep *mpd.Representation) bool {
	lower := strings.ToLower(rep.ID)
	return strings.Contains(lower, "trickmode") || strings.Contains(lower, "trick-mode")
}

// ApplyQuality narrows candidates (as filtered by SelectRepresentations)
// down to the single Representation opts.Quality asks for, or returns all
// of them unmodified for QualityAll.
func ApplyQuality(candidates []*mpd.Representation, opts Options) []*mpd.Representation {
	if opts.Quality == QualityAll || len(candidates) == 0 {
		return candidates
	}

	switch opts.Quality {
	case QualityBest:
		ranked := rankByPreference(candidates, opts)
		// First entry of the top-bandwidth group, so the tie-break order holds.
		best := len(ranked) - 1
		for best > 0 && bandwidth(ranked[best-1]) == bandwidth(ranked[best]) {
			best--
		}
		return ranked[best : best+1]
	case QualityWorst:
		ranked := rankByPreference(candidates, opts)
		return ranked[:1]
	case QualityIntermediate:
		ranked := rankByPreference(candidates, opts)
		mid := (len(ranked) - 1) / 2
		return ranked[mid : mid+1]
	case QualityPreferWidth:
		if opts.PreferWidth == nil {
			return candidates
		}
		ranked := rankByDimension(candidates, widthDistance, *opts.PreferWidth)
		return ranked[:1]
	case QualityPreferHeight:
		if opts.PreferHeight == nil {
			return candidates
		}
		ranked := rankByDimension(candidates, heightDistance, *opts.PreferHeight)
		return ranked[:1]
	default:
		return candidates
	}
}

// rankByPreference sorts candidates ascending by bandwidth, but when
// PreferWidth/PreferHeight are set, ties are broken toward the
// Representation closest to the requested dimensions — spec.md §4.I's
// "prefer_video_width/height act as a tiebreak among equally-best
// candidates, not an override of best_quality/worst_quality".
func rankByPreference(candidates []*mpd.Representation, opts Options) []*mpd.Representation {
	ranked := append([]*mpd.Representation(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		bi, bj := bandwidth(ranked[i]), bandwidth(ranked[j])
		if bi != bj {
			return bi < bj
		}
		if opts.PreferWidth != nil {
			return widthDistance(ranked[i], *opts.PreferWidth) < widthDistance(ranked[j], *opts.PreferWidth)
		}
		if opts.PreferHeight != nil {
			return heightDistance(ranked[i], *opts.PreferHeight) < heightDistance(ranked[j], *opts.PreferHeight)
		}
		return false
	})
	return ranked
}

// rankByDimension sorts candidates ascending by dist(rep, want), breaking
// ties by bandwidth, so QualityPreferWidth/QualityPreferHeight rank by
// distance from the requested dimension as the primary key rather than as
// a bandwidth tiebreak.
func rankByDimension(candidates []*mpd.Representation, dist func(*mpd.Representation, uint64) uint64, want uint64) []*mpd.Representation {
	ranked := append([]*mpd.Representation(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := dist(ranked[i], want), dist(ranked[j], want)
		if di != dj {
			return di < dj
		}
		return bandwidth(ranked[i]) < bandwidth(ranked[j])
	})
	return ranked
}

func bandwidth(rep *mpd.Representation) uint64 {
	if rep.Bandwidth == nil {
		return 0
	}
	return *rep.Bandwidth
}

func widthDistance(rep *mpd.Representation, want uint64) uint64 {
	if rep.Width == nil {
		return want
	}
	if *rep.Width > want {
		return *rep.Width - want
	}
	return want - *rep.Width
}

func heightDistance(rep *mpd.Representation, want uint64) uint64 {
	if rep.Height == nil {
		return want
	}
	if *rep.Height > want {
		return *rep.Height - want
	}
	return want - *rep.Height
}
