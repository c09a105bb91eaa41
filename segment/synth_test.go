package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dash-mpd-go/dashmpd/mpd"
)

func pu64(n uint64) *uint64 { return &n }

func TestSynthesizeSegmentTemplateWithTimeline(t *testing.T) {
	media := "$RepresentationID$/$Number$.m4s"
	init := "$RepresentationID$/init.mp4"
	m := &mpd.MPD{BaseURLs: []mpd.BaseURL{{Value: "https://cdn.example/"}}}
	p := &mpd.Period{BaseURLs: []mpd.BaseURL{{Value: "1/"}}}
	as := &mpd.AdaptationSet{}
	rep := &mpd.Representation{
		ID:        "v1",
		Bandwidth: pu64(5000000),
		SegmentTemplate: &mpd.SegmentTemplate{
			Timescale: pu64(90000), StartNumber: pu64(1),
			Media: &media, Initialization: &init,
			Timeline: &mpd.SegmentTimeline{S: []mpd.S{{T: pu64(0), D: 540000, R: int64Ptr(1)}}},
		},
	}

	segs, err := Synthesize("https://cdn.example/manifest.mpd", m, p, as, rep, 0)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "https://cdn.example/1/v1/1.m4s", segs[0].URL)
	assert.Equal(t, "https://cdn.example/1/v1/2.m4s", segs[1].URL)
	assert.Equal(t, "https://cdn.example/1/v1/init.mp4", segs[0].Initialization)
	assert.Equal(t, uint64(540000), segs[0].Duration)
}

func int64Ptr(n int64) *int64 { return &n }

func TestSynthesizeSegmentTemplateFlatDuration(t *testing.T) {
	media := "$RepresentationID$/$Number$.m4s"
	m := &mpd.MPD{}
	p := &mpd.Period{}
	as := &mpd.AdaptationSet{}
	rep := &mpd.Representation{
		ID: "a1",
		SegmentTemplate: &mpd.SegmentTemplate{
			Timescale: pu64(48000), StartNumber: pu64(1), Duration: pu64(96000),
			Media: &media,
		},
	}

	segs, err := Synthesize("https://cdn.example/manifest.mpd", m, p, as, rep, 480000)
	require.NoError(t, err)
	assert.Len(t, segs, 5)
	assert.Equal(t, "https://cdn.example/a1/1.m4s", segs[0].URL)
	assert.Equal(t, "https://cdn.example/a1/5.m4s", segs[4].URL)
}

func TestSynthesizeSegmentList(t *testing.T) {
	media1 := "seg1.m4s"
	media2 := "seg2.m4s"
	initSrc := "init.mp4"
	m := &mpd.MPD{}
	p := &mpd.Period{}
	as := &mpd.AdaptationSet{}
	rep := &mpd.Representation{
		ID: "v1",
		SegmentList: &mpd.SegmentList{
			Initialization: &mpd.URLWithRange{SourceURL: &initSrc},
			SegmentURLs:    []mpd.SegmentURL{{Media: &media1}, {Media: &media2}},
		},
	}

	segs, err := Synthesize("https://cdn.example/manifest.mpd", m, p, as, rep, 0)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "https://cdn.example/seg1.m4s", segs[0].URL)
	assert.Equal(t, "https://cdn.example/init.mp4", segs[0].Initialization)
}

func TestSynthesizeSegmentBaseSingleSegment(t *testing.T) {
	idxRange := "0-851"
	m := &mpd.MPD{}
	p := &mpd.Period{}
	as := &mpd.AdaptationSet{}
	rep := &mpd.Representation{
		ID:          "v1",
		BaseURLs:    []mpd.BaseURL{{Value: "https://cdn.example/v1.mp4"}},
		SegmentBase: &mpd.SegmentBase{IndexRange: &idxRange, Timescale: pu64(90000)},
	}

	segs, err := Synthesize("https://cdn.example/manifest.mpd", m, p, as, rep, 0)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "https://cdn.example/v1.mp4", segs[0].URL)
	assert.Equal(t, "0-851", segs[0].ByteRange)
}

func TestSynthesizeRejectsNoAddressingInfo(t *testing.T) {
	_, err := Synthesize("https://cdn.example/manifest.mpd", &mpd.MPD{}, &mpd.Period{}, &mpd.AdaptationSet{}, &mpd.Representation{ID: "v1"}, 0)
	assert.Error(t, err)
}
