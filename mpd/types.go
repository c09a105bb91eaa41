// Package mpd implements the MPEG-DASH Media Presentation Description data
// model, its XML codec, and the XLink resolver that inlines remote
// xlink:href fragments.
//
// Every attribute the DASH schema marks as optional is represented with a
// pointer (or, for slices, a nil slice) so that absence and presence can be
// told apart — this matters because large parts of the model are resolved
// by inheritance from an enclosing element, and "the child didn't set it"
// is a different fact than "the child set it to the zero value".
package mpd

import "encoding/xml"

// Canonical namespace URIs understood by the codec.
const (
	NamespaceMPD    = "urn:mpeg:dash:schema:mpd:2011"
	NamespaceXLink  = "http://www.w3.org/1999/xlink"
	NamespaceCENC   = "urn:mpeg:cenc:2013"
	NamespaceSCTE35 = "urn:scte:scte35:2014:xml+bin"
)

// ResolveToZero is the special xlink:href value that means "remove this
// element" rather than "fetch a replacement for it".
const ResolveToZero = "urn:mpeg:dash:resolve-to-zero:2011"

// MPD is the root element of a Media Presentation Description.
type MPD struct {
	XMLName                    xml.Name `xml:"MPD"`
	ID                         *string  `xml:"id,attr"`
	Type                       *string  `xml:"type,attr"` // "static" | "dynamic"
	Profiles                   string   `xml:"profiles,attr"`
	MinBufferTime              *string  `xml:"minBufferTime,attr"`
	MediaPresentationDuration  *string  `xml:"mediaPresentationDuration,attr"`
	AvailabilityStartTime      *string  `xml:"availabilityStartTime,attr"`
	TimeShiftBufferDepth       *string  `xml:"timeShiftBufferDepth,attr"`
	SuggestedPresentationDelay *string  `xml:"suggestedPresentationDelay,attr"`
	MaxSegmentDuration         *string  `xml:"maxSegmentDuration,attr"`
	MinimumUpdatePeriod        *string  `xml:"minimumUpdatePeriod,attr"`
	PublishTime                *string  `xml:"publishTime,attr"`

	BaseURLs    []BaseURL            `xml:"BaseURL,omitempty"`
	Locations   []string             `xml:"Location,omitempty"`
	Periods     []Period             `xml:"Period,omitempty"`
	ProgramInfo *ProgramInformation  `xml:"ProgramInformation,omitempty"`
}

// IsDynamic reports whether this is a dynamic (live) manifest.
func (m *MPD) IsDynamic() bool {
	return m.Type != nil && *m.Type == "dynamic"
}

// ProgramInformation carries human-readable metadata about the content.
type ProgramInformation struct {
	Title      *string `xml:"Title"`
	Source     *string `xml:"Source"`
	Copyright  *string `xml:"Copyright"`
	MoreInfoURL *string `xml:"moreInformationURL,attr"`
}

// BaseURL is a base URI that may be absolute or relative to its enclosing
// context; ServiceLocation/byteRange are carried through but not
// interpreted by the core.
type BaseURL struct {
	Value           string  `xml:",chardata"`
	ServiceLocation *string `xml:"serviceLocation,attr"`
	ByteRange       *string `xml:"byteRange,attr"`
}

// Period is a contiguous interval of the presentation.
type Period struct {
	ID       *string `xml:"id,attr"`
	Start    *string `xml:"start,attr"`
	Duration *string `xml:"duration,attr"`

	XLinkHref    *string `xml:"href,attr"`
	XLinkActuate *string `xml:"actuate,attr"`

	BaseURLs        []BaseURL        `xml:"BaseURL,omitempty"`
	AdaptationSets  []AdaptationSet  `xml:"AdaptationSet,omitempty"`
	EventStreams    []EventStream    `xml:"EventStream,omitempty"`
	SegmentTemplate *SegmentTemplate `xml:"SegmentTemplate,omitempty"`
	SegmentBase     *SegmentBase     `xml:"SegmentBase,omitempty"`
	SegmentList     *SegmentList     `xml:"SegmentList,omitempty"`
	AssetIdentifier *Descriptor      `xml:"AssetIdentifier,omitempty"`
}

// HasXLink reports whether this Period still needs XLink resolution.
func (p *Period) HasXLink() bool { return p.XLinkHref != nil && *p.XLinkHref != "" }

// EventStream carries SCTE-35 (or other) timed events. The content of each
// Event's scte35:Signal/Binary is schema extension content the codec does
// not interpret, just preserves.
type EventStream struct {
	SchemeIDURI *string `xml:"schemeIdUri,attr"`
	Value       *string `xml:"value,attr"`
	Timescale   *uint64 `xml:"timescale,attr"`
	Events      []Event `xml:"Event,omitempty"`
}

// Event is a single timed event inside an EventStream.
type Event struct {
	ID               *string `xml:"id,attr"`
	PresentationTime *uint64 `xml:"presentationTime,attr"`
	Duration         *uint64 `xml:"duration,attr"`
	InnerXML         string  `xml:",innerxml"` // opaque scte35:* payload
}

// Descriptor is the generic DASH DescriptorType used for Role,
// Accessibility, Viewpoint and AssetIdentifier.
type Descriptor struct {
	SchemeIDURI *string `xml:"schemeIdUri,attr"`
	Value       *string `xml:"value,attr"`
	ID          *string `xml:"id,attr"`
}

// AdaptationSet is a collection of interchangeable Representations.
type AdaptationSet struct {
	ID          *string `xml:"id,attr"`
	Group       *int    `xml:"group,attr"`
	ContentType *string `xml:"contentType,attr"`
	MimeType    *string `xml:"mimeType,attr"`
	Codecs      *string `xml:"codecs,attr"`
	Lang        *string `xml:"lang,attr"`
	MinBandwidth *uint64 `xml:"minBandwidth,attr"`
	MaxBandwidth *uint64 `xml:"maxBandwidth,attr"`
	MinWidth    *uint64 `xml:"minWidth,attr"`
	MaxWidth    *uint64 `xml:"maxWidth,attr"`
	MinHeight   *uint64 `xml:"minHeight,attr"`
	MaxHeight   *uint64 `xml:"maxHeight,attr"`
	FrameRate   *string `xml:"frameRate,attr"`
	Par         *string `xml:"par,attr"`

	XLinkHref    *string `xml:"href,attr"`
	XLinkActuate *string `xml:"actuate,attr"`

	Roles              []Descriptor        `xml:"Role,omitempty"`
	Accessibilities    []Descriptor        `xml:"Accessibility,omitempty"`
	Viewpoints         []Descriptor        `xml:"Viewpoint,omitempty"`
	ContentProtections []ContentProtection `xml:"ContentProtection,omitempty"`

	BaseURLs        []BaseURL        `xml:"BaseURL,omitempty"`
	SegmentTemplate *SegmentTemplate `xml:"SegmentTemplate,omitempty"`
	SegmentList     *SegmentList     `xml:"SegmentList,omitempty"`
	SegmentBase     *SegmentBase     `xml:"SegmentBase,omitempty"`

	Representations []Representation `xml:"Representation,omitempty"`
}

// HasXLink reports whether this AdaptationSet still needs XLink resolution.
func (a *AdaptationSet) HasXLink() bool { return a.XLinkHref != nil && *a.XLinkHref != "" }

// ContentProtection models CENC and other DRM-scheme protection metadata.
// The core never decrypts; it only carries this through for a decryptor
// collaborator to consume.
type ContentProtection struct {
	SchemeIDURI *string `xml:"schemeIdUri,attr"`
	Value       *string `xml:"value,attr"`
	DefaultKID  *string `xml:"default_KID,attr"` // cenc:default_KID
	PSSH        *string `xml:"pssh"`             // cenc:pssh, base64
}

// Representation is a single encoded version of a media stream.
type Representation struct {
	ID                     string  `xml:"id,attr"`
	Bandwidth              *uint64 `xml:"bandwidth,attr"`
	Width                  *uint64 `xml:"width,attr"`
	Height                 *uint64 `xml:"height,attr"`
	MimeType               *string `xml:"mimeType,attr"`
	Codecs                 *string `xml:"codecs,attr"`
	FrameRate              *string `xml:"frameRate,attr"`
	AudioSamplingRate      *string `xml:"audioSamplingRate,attr"`
	PresentationTimeOffset *uint64 `xml:"presentationTimeOffset,attr"`

	BaseURLs        []BaseURL        `xml:"BaseURL,omitempty"`
	SegmentTemplate *SegmentTemplate `xml:"SegmentTemplate,omitempty"`
	SegmentList     *SegmentList     `xml:"SegmentList,omitempty"`
	SegmentBase     *SegmentBase     `xml:"SegmentBase,omitempty"`

	ContentProtections []ContentProtection `xml:"ContentProtection,omitempty"`
}

// SegmentBase describes a single-segment Representation, optionally with an
// index range pointing at an embedded sidx/Cues box.
type SegmentBase struct {
	Timescale              *uint64        `xml:"timescale,attr"`
	PresentationTimeOffset *uint64        `xml:"presentationTimeOffset,attr"`
	IndexRange             *string        `xml:"indexRange,attr"`
	Initialization         *URLWithRange  `xml:"Initialization,omitempty"`
}

// URLWithRange models Initialization/RepresentationIndex elements that pair
// a sourceURL with an optional byte range.
type URLWithRange struct {
	SourceURL *string `xml:"sourceURL,attr"`
	Range     *string `xml:"range,attr"`
}

// SegmentList is explicit: an Initialization plus an ordered SegmentURL list.
type SegmentList struct {
	Timescale      *uint64       `xml:"timescale,attr"`
	Duration       *uint64       `xml:"duration,attr"`
	StartNumber    *uint64       `xml:"startNumber,attr"`
	Initialization *URLWithRange `xml:"Initialization,omitempty"`
	SegmentURLs    []SegmentURL  `xml:"SegmentURL,omitempty"`
}

// SegmentURL is one explicit entry in a SegmentList.
type SegmentURL struct {
	Media      *string `xml:"media,attr"`
	MediaRange *string `xml:"mediaRange,attr"`
	Index      *string `xml:"index,attr"`
	IndexRange *string `xml:"indexRange,attr"`
}

// SegmentTemplate describes templated segment URLs, either flat
// ($Number$-addressed with a fixed duration) or driven by a SegmentTimeline.
type SegmentTemplate struct {
	Timescale              *uint64          `xml:"timescale,attr"`
	Duration               *uint64          `xml:"duration,attr"`
	StartNumber            *uint64          `xml:"startNumber,attr"`
	PresentationTimeOffset *uint64          `xml:"presentationTimeOffset,attr"`
	Media                  *string          `xml:"media,attr"`
	Initialization         *string          `xml:"initialization,attr"`
	Index                  *string          `xml:"index,attr"`
	Timeline               *SegmentTimeline `xml:"SegmentTimeline,omitempty"`
}

// SegmentTimeline is the explicit list of S entries describing a walk of
// (time, duration, repeat-count) triples.
type SegmentTimeline struct {
	S []S `xml:"S"`
}

// S is a single SegmentTimeline entry: a run of R+1 segments starting at
// time T, each of duration D. T absent means "continue from the previous
// entry's t + d*(r+1)".
type S struct {
	T *uint64 `xml:"t,attr"`
	D uint64  `xml:"d,attr"`
	R *int64  `xml:"r,attr"` // absent means 0; -1 means "repeat until Period end"
}

// Repeats returns the R attribute, defaulting to 0 when absent.
func (s S) Repeats() int64 {
	if s.R == nil {
		return 0
	}
	return *s.R
}
