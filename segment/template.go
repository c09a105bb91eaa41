// Package segment turns an inherited SegmentTemplate/SegmentList/SegmentBase
// plus a Representation into the concrete, ordered list of segment URLs a
// client would fetch — spec.md §4.F.
package segment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
)

// placeholderRE matches one $Name$ or $Name%0Nd$ token, or the literal "$$"
// escape. Name is matched generically (any run of letters) rather than
// restricted to the five recognized ones, so an unrecognized placeholder
// like $Foo$ still reaches ExpandTemplate's default case and raises a
// TemplateError instead of passing through unexpanded.
var placeholderRE = regexp.MustCompile(`\$([A-Za-z]+)(%0(\d+)d)?\$|\$\$`)

// TemplateParams are the substitution values available when expanding a
// SegmentTemplate @media or @initialization string. Number/Time/SubNumber
// are pointers because @initialization must reject any template that
// references them (spec.md §4.F: "Initialization may only use
// $RepresentationID$ and $Bandwidth$").
type TemplateParams struct {
	RepresentationID string
	Bandwidth        uint64
	Number           *uint64
	Time             *uint64
	SubNumber        *uint64
}

// ExpandTemplate substitutes every placeholder in tmpl, returning a
// TemplateError naming the offending token when a referenced value is not
// available in params (e.g. $Time$ used in a $Number$-addressed
// Representation).
func ExpandTemplate(tmpl string, params TemplateParams) (string, error) {
	var outerErr error
	out := placeholderRE.ReplaceAllStringFunc(tmpl, func(tok string) string {
		if outerErr != nil {
			return tok
		}
		if tok == "$$" {
			return "$"
		}
		m := placeholderRE.FindStringSubmatch(tok)
		name := m[1]
		width := m[3]

		switch name {
		case "RepresentationID":
			return params.RepresentationID
		case "Bandwidth":
			return formatWidth(params.Bandwidth, width)
		case "Number":
			if params.Number == nil {
				outerErr = &dmerrors.TemplateError{Template: tmpl, Reason: "$Number$ used but no segment number available"}
				return tok
			}
			return formatWidth(*params.Number, width)
		case "Time":
			if params.Time == nil {
				outerErr = &dmerrors.TemplateError{Template: tmpl, Reason: "$Time$ used but no segment time available"}
				return tok
			}
			return formatWidth(*params.Time, width)
		case "SubNumber":
			if params.SubNumber == nil {
				outerErr = &dmerrors.TemplateError{Template: tmpl, Reason: "$SubNumber$ used but no sub-segment number available"}
				return tok
			}
			return formatWidth(*params.SubNumber, width)
		default:
			outerErr = &dmerrors.TemplateError{Template: tmpl, Reason: fmt.Sprintf("unknown placeholder %q", tok)}
			return tok
		}
	})
	if outerErr != nil {
		return "", outerErr
	}
	return out, nil
}

func formatWidth(v uint64, width string) string {
	if width == "" {
		return strconv.FormatUint(v, 10)
	}
	w, err := strconv.Atoi(width)
	if err != nil {
		return strconv.FormatUint(v, 10)
	}
	return fmt.Sprintf("%0*d", w, v)
}

// ExpandInitialization expands a SegmentTemplate @initialization string,
// rejecting any $Number$/$Time$/$SubNumber$ reference per spec.md §4.F.
func ExpandInitialization(tmpl string, repID string, bandwidth uint64) (string, error) {
	if strings.Contains(tmpl, "$Number") || strings.Contains(tmpl, "$Time") || strings.Contains(tmpl, "$SubNumber") {
		return "", &dmerrors.TemplateError{Template: tmpl, Reason: "initialization template may not reference $Number$, $Time$ or $SubNumber$"}
	}
	return ExpandTemplate(tmpl, TemplateParams{RepresentationID: repID, Bandwidth: bandwidth})
}
