// Package dmerrors defines the error taxonomy shared by every component of
// dashmpd: the MPD parser, the segment synthesis engine and the fetch
// pipeline all return errors from this package so callers can dispatch on
// kind with errors.Is / errors.As instead of string matching.
package dmerrors

import (
	"fmt"
	"time"
)

// Sentinel errors for kinds that carry no useful payload beyond a message.
var (
	ErrXLinkCycle           = fmt.Errorf("xlink: maximum resolution depth exceeded")
	ErrLiveStreamDisallowed = fmt.Errorf("dynamic MPD rejected: allow_live_streams not set")
	ErrMuxingFailed         = fmt.Errorf("no configured muxer succeeded")
	ErrDecryptionFailed     = fmt.Errorf("no configured decryptor succeeded")
)

// ParseError wraps a failure to decode the manifest XML or an index box,
// carrying the location (byte offset, XPath-ish description) where it
// occurred so the message is actionable.
type ParseError struct {
	Where string
	Err   error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error at %s: %v", e.Where, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// BadInteger reports a numeric attribute that failed to parse.
type BadInteger struct {
	Attr, Value string
}

func (e *BadInteger) Error() string {
	return fmt.Sprintf("bad integer for attribute %q: %q", e.Attr, e.Value)
}

// BadDuration reports an xs:duration attribute that failed to parse.
type BadDuration struct {
	Attr, Value string
}

func (e *BadDuration) Error() string {
	return fmt.Sprintf("bad duration for attribute %q: %q", e.Attr, e.Value)
}

// TemplateError reports an unknown or malformed $Placeholder$ in a
// SegmentTemplate @media / @initialization URL.
type TemplateError struct {
	Template, Reason string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error in %q: %s", e.Template, e.Reason)
}

// XLinkFetchFailed reports a failed fetch of an xlink:href target.
type XLinkFetchFailed struct {
	URL string
	Err error
}

func (e *XLinkFetchFailed) Error() string { return fmt.Sprintf("xlink fetch failed for %s: %v", e.URL, e.Err) }
func (e *XLinkFetchFailed) Unwrap() error { return e.Err }

// ContentTypeMismatch reports a response whose Content-Type disagrees with
// the expected track class.
type ContentTypeMismatch struct {
	URL, Expected, Got string
}

func (e *ContentTypeMismatch) Error() string {
	return fmt.Sprintf("content-type mismatch for %s: expected %q, got %q", e.URL, e.Expected, e.Got)
}

// UnsupportedFeature reports a construct the core recognizes but does not
// implement.
type UnsupportedFeature struct {
	Feature string
}

func (e *UnsupportedFeature) Error() string { return fmt.Sprintf("unsupported feature: %s", e.Feature) }

// HTTPError reports a non-2xx HTTP response. RetryAfter carries the
// duration the server's Retry-After header asked the client to wait
// before retrying, zero when absent or unparseable.
type HTTPError struct {
	URL        string
	Status     int
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string { return fmt.Sprintf("http %d fetching %s", e.Status, e.URL) }

// NetworkError wraps a transport-level failure (connection reset, timeout,
// DNS failure, etc).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// IndexParseError reports a malformed sidx box or Cues element, naming the
// specific format and the underlying failure.
type IndexParseError struct {
	Format string
	Err    error
}

func (e *IndexParseError) Error() string {
	return fmt.Sprintf("%s index parse error: %v", e.Format, e.Err)
}
func (e *IndexParseError) Unwrap() error { return e.Err }

// DownloadFailed is the fatal, top-level error raised once a segment
// exhausts its retry budget or a fatal 4xx is hit.
type DownloadFailed struct {
	SegmentURL string
	Err        error
}

func (e *DownloadFailed) Error() string {
	return fmt.Sprintf("download failed for %s: %v", e.SegmentURL, e.Err)
}
func (e *DownloadFailed) Unwrap() error { return e.Err }

// MuxingFailed carries the failing muxer's captured stderr.
type MuxingFailed struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *MuxingFailed) Error() string {
	return fmt.Sprintf("muxer %s failed: %v\n%s", e.Tool, e.Err, e.Stderr)
}
func (e *MuxingFailed) Unwrap() error { return e.Err }

// IoError wraps a local filesystem failure (temp file creation, write,
// rename).
type IoError struct {
	Op, Path string
	Err      error
}

func (e *IoError) Error() string { return fmt.Sprintf("io error during %s %s: %v", e.Op, e.Path, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }
