package mpd

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
)

var selfClosingRE = regexp.MustCompile(`></[A-Za-z][A-Za-z0-9]*>`)

// Parse decodes manifest XML bytes into an MPD. It performs the two
// structural checks spec.md §4.B calls out as the only cases where a
// malformed manifest is rejected outright at the XML layer: the XML
// declaration (if present) must start at byte offset 0, and every open tag
// must have a matching close tag (which encoding/xml already enforces, but
// we wrap its error into the taxonomy's ParseError).
func Parse(data []byte) (*MPD, error) {
	if i := bytes.Index(data, []byte("<?xml")); i > 0 {
		return nil, &dmerrors.ParseError{Where: "xml declaration", Err: fmt.Errorf("declaration not at byte offset 0 (found at %d)", i)}
	}

	var m MPD
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, &dmerrors.ParseError{Where: "MPD", Err: err}
	}

	dropEmptyPeriods(&m)
	return &m, nil
}

// dropEmptyPeriods enforces spec.md §3's invariant that every Period has at
// least one AdaptationSet after resolution; empty ones are dropped. This is
// idempotent so it is safe to call again after XLink resolution splices in
// new AdaptationSets.
func dropEmptyPeriods(m *MPD) {
	kept := m.Periods[:0]
	for _, p := range m.Periods {
		if len(p.AdaptationSets) == 0 && !p.HasXLink() {
			continue
		}
		kept = append(kept, p)
	}
	m.Periods = kept
}

// mpdMarshal is the root element shaped specifically for serialization: it
// carries the explicit namespace-prefix declarations encoding/xml can't
// infer from the decode-side MPD struct. Mirrors mc2soft-mpd's
// decode-struct / encode-struct split, which exists because Go's
// encoding/xml cannot emit a namespace prefix it never received on decode
// (see the upstream issue mc2soft-mpd's own comment references).
type mpdMarshal struct {
	XMLName  xml.Name `xml:"MPD"`
	Xmlns    string   `xml:"xmlns,attr"`
	XmlnsXlink string `xml:"xmlns:xlink,attr"`
	XmlnsCenc  string `xml:"xmlns:cenc,attr,omitempty"`
	XmlnsScte  string `xml:"xmlns:scte35,attr,omitempty"`

	ID                         *string `xml:"id,attr,omitempty"`
	Type                       *string `xml:"type,attr,omitempty"`
	Profiles                   string  `xml:"profiles,attr"`
	MinBufferTime              *string `xml:"minBufferTime,attr,omitempty"`
	MediaPresentationDuration  *string `xml:"mediaPresentationDuration,attr,omitempty"`
	AvailabilityStartTime      *string `xml:"availabilityStartTime,attr,omitempty"`
	TimeShiftBufferDepth       *string `xml:"timeShiftBufferDepth,attr,omitempty"`
	SuggestedPresentationDelay *string `xml:"suggestedPresentationDelay,attr,omitempty"`
	MaxSegmentDuration         *string `xml:"maxSegmentDuration,attr,omitempty"`
	MinimumUpdatePeriod        *string `xml:"minimumUpdatePeriod,attr,omitempty"`
	PublishTime                *string `xml:"publishTime,attr,omitempty"`

	BaseURLs    []BaseURL           `xml:"BaseURL,omitempty"`
	Locations   []string            `xml:"Location,omitempty"`
	Periods     []periodMarshal     `xml:"Period,omitempty"`
	ProgramInfo *ProgramInformation `xml:"ProgramInformation,omitempty"`
}

type periodMarshal struct {
	ID       *string `xml:"id,attr,omitempty"`
	Start    *string `xml:"start,attr,omitempty"`
	Duration *string `xml:"duration,attr,omitempty"`

	XLinkHref    *string `xml:"xlink:href,attr,omitempty"`
	XLinkActuate *string `xml:"xlink:actuate,attr,omitempty"`

	BaseURLs        []BaseURL             `xml:"BaseURL,omitempty"`
	SegmentBase     *SegmentBase           `xml:"SegmentBase,omitempty"`
	SegmentList     *SegmentList           `xml:"SegmentList,omitempty"`
	SegmentTemplate *SegmentTemplate       `xml:"SegmentTemplate,omitempty"`
	AssetIdentifier *Descriptor            `xml:"AssetIdentifier,omitempty"`
	EventStreams    []EventStream          `xml:"EventStream,omitempty"`
	AdaptationSets  []adaptationSetMarshal `xml:"AdaptationSet,omitempty"`
}

type adaptationSetMarshal struct {
	ID           *string `xml:"id,attr,omitempty"`
	Group        *int    `xml:"group,attr,omitempty"`
	ContentType  *string `xml:"contentType,attr,omitempty"`
	MimeType     *string `xml:"mimeType,attr,omitempty"`
	Codecs       *string `xml:"codecs,attr,omitempty"`
	Lang         *string `xml:"lang,attr,omitempty"`
	MinBandwidth *uint64 `xml:"minBandwidth,attr,omitempty"`
	MaxBandwidth *uint64 `xml:"maxBandwidth,attr,omitempty"`
	MinWidth     *uint64 `xml:"minWidth,attr,omitempty"`
	MaxWidth     *uint64 `xml:"maxWidth,attr,omitempty"`
	MinHeight    *uint64 `xml:"minHeight,attr,omitempty"`
	MaxHeight    *uint64 `xml:"maxHeight,attr,omitempty"`
	FrameRate    *string `xml:"frameRate,attr,omitempty"`
	Par          *string `xml:"par,attr,omitempty"`

	XLinkHref    *string `xml:"xlink:href,attr,omitempty"`
	XLinkActuate *string `xml:"xlink:actuate,attr,omitempty"`

	Roles              []Descriptor             `xml:"Role,omitempty"`
	Accessibilities    []Descriptor             `xml:"Accessibility,omitempty"`
	Viewpoints         []Descriptor             `xml:"Viewpoint,omitempty"`
	ContentProtections []contentProtectionMarshal `xml:"ContentProtection,omitempty"`

	BaseURLs        []BaseURL        `xml:"BaseURL,omitempty"`
	SegmentTemplate *SegmentTemplate `xml:"SegmentTemplate,omitempty"`
	SegmentList     *SegmentList     `xml:"SegmentList,omitempty"`
	SegmentBase     *SegmentBase     `xml:"SegmentBase,omitempty"`

	Representations []representationMarshal `xml:"Representation,omitempty"`
}

type representationMarshal struct {
	ID                     string  `xml:"id,attr"`
	Bandwidth              *uint64 `xml:"bandwidth,attr,omitempty"`
	Width                  *uint64 `xml:"width,attr,omitempty"`
	Height                 *uint64 `xml:"height,attr,omitempty"`
	MimeType               *string `xml:"mimeType,attr,omitempty"`
	Codecs                 *string `xml:"codecs,attr,omitempty"`
	FrameRate              *string `xml:"frameRate,attr,omitempty"`
	AudioSamplingRate      *string `xml:"audioSamplingRate,attr,omitempty"`
	PresentationTimeOffset *uint64 `xml:"presentationTimeOffset,attr,omitempty"`

	BaseURLs        []BaseURL        `xml:"BaseURL,omitempty"`
	SegmentTemplate *SegmentTemplate `xml:"SegmentTemplate,omitempty"`
	SegmentList     *SegmentList     `xml:"SegmentList,omitempty"`
	SegmentBase     *SegmentBase     `xml:"SegmentBase,omitempty"`

	ContentProtections []contentProtectionMarshal `xml:"ContentProtection,omitempty"`
}

// contentProtectionMarshal is where the CENC namespace prefix actually
// matters: default_KID and pssh are defined in urn:mpeg:cenc:2013, so on
// the wire they must read cenc:default_KID / cenc:pssh, matching
// mc2soft-mpd's descriptorMarshal/psshMarshal split.
type contentProtectionMarshal struct {
	SchemeIDURI *string `xml:"schemeIdUri,attr,omitempty"`
	Value       *string `xml:"value,attr,omitempty"`
	DefaultKID  *string `xml:"cenc:default_KID,attr,omitempty"`
	PSSH        *string `xml:"cenc:pssh,omitempty"`
}

func toMarshalDoc(m *MPD) *mpdMarshal {
	needsCenc := false
	needsScte := false
	periods := make([]periodMarshal, 0, len(m.Periods))
	for _, p := range m.Periods {
		if len(p.EventStreams) > 0 {
			needsScte = true
		}
		pm := periodMarshal{
			ID: p.ID, Start: p.Start, Duration: p.Duration,
			XLinkHref: p.XLinkHref, XLinkActuate: p.XLinkActuate,
			BaseURLs: p.BaseURLs, EventStreams: p.EventStreams,
			SegmentTemplate: p.SegmentTemplate, SegmentBase: p.SegmentBase,
			SegmentList: p.SegmentList, AssetIdentifier: p.AssetIdentifier,
		}
		for _, as := range p.AdaptationSets {
			asm := adaptationSetMarshal{
				ID: as.ID, Group: as.Group, ContentType: as.ContentType,
				MimeType: as.MimeType, Codecs: as.Codecs, Lang: as.Lang,
				MinBandwidth: as.MinBandwidth, MaxBandwidth: as.MaxBandwidth,
				MinWidth: as.MinWidth, MaxWidth: as.MaxWidth,
				MinHeight: as.MinHeight, MaxHeight: as.MaxHeight,
				FrameRate: as.FrameRate, Par: as.Par,
				XLinkHref: as.XLinkHref, XLinkActuate: as.XLinkActuate,
				Roles: as.Roles, Accessibilities: as.Accessibilities, Viewpoints: as.Viewpoints,
				BaseURLs: as.BaseURLs, SegmentTemplate: as.SegmentTemplate,
				SegmentList: as.SegmentList, SegmentBase: as.SegmentBase,
			}
			if len(as.ContentProtections) > 0 {
				needsCenc = true
				asm.ContentProtections = toContentProtectionMarshal(as.ContentProtections)
			}
			for _, rep := range as.Representations {
				rm := representationMarshal{
					ID: rep.ID, Bandwidth: rep.Bandwidth, Width: rep.Width, Height: rep.Height,
					MimeType: rep.MimeType, Codecs: rep.Codecs, FrameRate: rep.FrameRate,
					AudioSamplingRate: rep.AudioSamplingRate, PresentationTimeOffset: rep.PresentationTimeOffset,
					BaseURLs: rep.BaseURLs, SegmentTemplate: rep.SegmentTemplate,
					SegmentList: rep.SegmentList, SegmentBase: rep.SegmentBase,
				}
				if len(rep.ContentProtections) > 0 {
					needsCenc = true
					rm.ContentProtections = toContentProtectionMarshal(rep.ContentProtections)
				}
				asm.Representations = append(asm.Representations, rm)
			}
			pm.AdaptationSets = append(pm.AdaptationSets, asm)
		}
		periods = append(periods, pm)
	}

	doc := &mpdMarshal{
		Xmlns:      NamespaceMPD,
		XmlnsXlink: NamespaceXLink,
		ID:         m.ID, Type: m.Type, Profiles: m.Profiles,
		MinBufferTime: m.MinBufferTime, MediaPresentationDuration: m.MediaPresentationDuration,
		AvailabilityStartTime: m.AvailabilityStartTime, TimeShiftBufferDepth: m.TimeShiftBufferDepth,
		SuggestedPresentationDelay: m.SuggestedPresentationDelay, MaxSegmentDuration: m.MaxSegmentDuration,
		MinimumUpdatePeriod: m.MinimumUpdatePeriod, PublishTime: m.PublishTime,
		BaseURLs: m.BaseURLs, Locations: m.Locations, Periods: periods, ProgramInfo: m.ProgramInfo,
	}
	if needsCenc {
		doc.XmlnsCenc = NamespaceCENC
	}
	if needsScte {
		doc.XmlnsScte = NamespaceSCTE35
	}
	return doc
}

func toContentProtectionMarshal(cps []ContentProtection) []contentProtectionMarshal {
	out := make([]contentProtectionMarshal, 0, len(cps))
	for _, cp := range cps {
		out = append(out, contentProtectionMarshal{
			SchemeIDURI: cp.SchemeIDURI, Value: cp.Value,
			DefaultKID: cp.DefaultKID, PSSH: cp.PSSH,
		})
	}
	return out
}

// Serialize encodes an MPD back to canonical XML: UTF-8, the
// urn:mpeg:dash:schema:mpd:2011 default namespace, optional fields emitted
// only when present, matching spec.md §4.B.
func Serialize(m *MPD) ([]byte, error) {
	doc := toMarshalDoc(m)

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, &dmerrors.ParseError{Where: "MPD serialize", Err: err}
	}

	out := "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" + selfClosingRE.ReplaceAllString(buf.String(), "/>") + "\n"
	return []byte(out), nil
}

// RoundTripEqual reports whether two manifests are structurally equivalent
// per spec.md §8 property 1: attribute order and whitespace may differ, but
// every element, attribute and text value must match. Namespace
// declarations (xmlns, xmlns:*) are not compared. It canonicalizes both
// sides through etree (chosen because it offers an element tree generic
// enough to diff without re-declaring the whole schema a second time — see
// DESIGN.md) before comparing.
func RoundTripEqual(a, b []byte) (bool, error) {
	da, err := loadEtree(a)
	if err != nil {
		return false, err
	}
	db, err := loadEtree(b)
	if err != nil {
		return false, err
	}
	return canonicalString(da.Root()) == canonicalString(db.Root()), nil
}

func loadEtree(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &dmerrors.ParseError{Where: "etree round-trip compare", Err: err}
	}
	return doc, nil
}

func canonicalString(el *etree.Element) string {
	if el == nil {
		return ""
	}
	var b strings.Builder
	writeCanonical(&b, el)
	return b.String()
}

func writeCanonical(b *strings.Builder, el *etree.Element) {
	b.WriteByte('<')
	b.WriteString(el.Tag)
	attrs := append([]etree.Attr(nil), el.Attr...)
	sortAttrs(attrs)
	for _, a := range attrs {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		fmt.Fprintf(b, " %s=%q", a.FullKey(), a.Value)
	}
	b.WriteByte('>')
	b.WriteString(strings.TrimSpace(el.Text()))
	for _, c := range el.ChildElements() {
		writeCanonical(b, c)
	}
	b.WriteString("</")
	b.WriteString(el.Tag)
	b.WriteByte('>')
}

func sortAttrs(a []etree.Attr) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j-1].FullKey() > a[j].FullKey(); j-- {
			a[j-1], a[j] = a[j], a[j-1]
		}
	}
}
