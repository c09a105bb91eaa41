package segment

import "net/url"

// ResolveURL folds a stack of BaseURL values (outermost first, as returned
// by mpd.ResolveBaseURLs) together with a final relative reference,
// left-to-right per RFC 3986, matching the teacher's BuildSegment which
// resolves the Period BaseURL against the manifest's own URL before
// resolving the segment path against that.
func ResolveURL(stack []string, ref string) (string, error) {
	current := ""
	for _, next := range stack {
		resolved, err := resolveOne(current, next)
		if err != nil {
			return "", err
		}
		current = resolved
	}
	return resolveOne(current, ref)
}

func resolveOne(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if base == "" {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
