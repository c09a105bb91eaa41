package mpd

import "net/url"

// ResolveURL resolves ref against base per RFC 3986, as used both for
// BaseURL stacking (segment.ResolveURL builds on this one element at a
// time) and for turning an xlink:href into a fetchable absolute URL.
func ResolveURL(base, ref string) (string, error) {
	if base == "" {
		u, err := url.Parse(ref)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
