package content

import (
	"fmt"
	"net/url"
	"strings"
)

// Link is the externally-owned reference the subsystem resolves: a parsed
// target URL plus the class flags and data attributes carried by the anchor
// element it came from. Two Links pointing at the same resource share one
// cache entry; identity for caching is derived (see Loader.ResourceKey),
// never the Link value itself.
type Link struct {
	URL     *url.URL
	Classes []string

	// OriginalURL overrides URL for source resolution when the anchor
	// carried a data-url-original attribute (e.g. an archived copy whose
	// original location should drive classification).
	OriginalURL string

	// TargetID overrides the URL fragment as the anchor target inside the
	// resolved document.
	TargetID string

	// BacklinkSource identifies the page a backlinks fragment was
	// requested for.
	BacklinkSource string
}

// ParseLink parses raw into a Link with the given classes.
func ParseLink(raw string, classes ...string) (*Link, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing link target %q: %w", raw, err)
	}
	return &Link{URL: u, Classes: classes}, nil
}

// HasClass reports whether the link carries the named class flag.
func (l *Link) HasClass(name string) bool {
	for _, c := range l.Classes {
		if c == name {
			return true
		}
	}
	return false
}

// Anchor returns the element id the link targets inside its resolved
// document: the TargetID override if set, otherwise the URL fragment.
func (l *Link) Anchor() string {
	if l.TargetID != "" {
		return l.TargetID
	}
	return l.URL.Fragment
}

// Path returns the link's URL path with a trailing slash collapsed, so
// "/essay" and "/essay/" resolve to the same resource.
func (l *Link) Path() string {
	p := l.URL.Path
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// Extension returns the lower-cased filename extension of the link path,
// without the dot, or "" when the path has none.
func (l *Link) Extension() string {
	p := l.Path()
	i := strings.LastIndexByte(p, '/')
	name := p[i+1:]
	j := strings.LastIndexByte(name, '.')
	if j < 0 {
		return ""
	}
	return strings.ToLower(name[j+1:])
}

// CanonicalKey derives the cache key form of u: the absolute URL with the
// fragment stripped. Distinct anchors into one page share one resource.
func CanonicalKey(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
