package segment

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
)

// IsDataURL reports whether ref is an RFC 2397 "data:" URL rather than a
// fetchable HTTP(S) reference. Some SegmentTemplate/BaseURL content inlines
// small initialization segments this way instead of pointing at a server.
func IsDataURL(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// DecodeDataURL decodes an RFC 2397 "data:[<mediatype>][;base64],<data>"
// URL into its raw bytes and declared media type.
func DecodeDataURL(ref string) ([]byte, string, error) {
	if !strings.HasPrefix(ref, "data:") {
		return nil, "", &dmerrors.ParseError{Where: "data URL", Err: fmt.Errorf("missing data: scheme")}
	}
	rest := ref[len("data:"):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, "", &dmerrors.ParseError{Where: "data URL", Err: fmt.Errorf("missing comma separator")}
	}
	meta, payload := rest[:comma], rest[comma+1:]

	isBase64 := false
	mediaType := "text/plain;charset=US-ASCII"
	if meta != "" {
		parts := strings.Split(meta, ";")
		if len(parts) > 0 && parts[0] != "" {
			mediaType = parts[0]
		}
		for _, p := range parts[1:] {
			if p == "base64" {
				isBase64 = true
			} else {
				mediaType += ";" + p
			}
		}
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", &dmerrors.ParseError{Where: "data URL base64", Err: err}
		}
		return data, mediaType, nil
	}

	unescaped, err := url.QueryUnescape(payload)
	if err != nil {
		return nil, "", &dmerrors.ParseError{Where: "data URL percent-decode", Err: err}
	}
	return []byte(unescaped), mediaType, nil
}
