package content

import (
	"net/url"
	"strings"
)

// Site describes the documentation site the subsystem resolves links for:
// which host counts as local, where its auxiliary fragments and page archives
// live, and which mirror hosts foreign links are rewritten to.
type Site struct {
	// Base is the site origin. Relative link targets resolve against it.
	Base *url.URL

	// AnnotationPrefix is the path prefix of auxiliary metadata fragments
	// (backlinks, similar links, link bibliographies).
	AnnotationPrefix string

	// ArchivePrefix is the path prefix under which archived copies of
	// external pages are hosted.
	ArchivePrefix string

	// NitterHost is the privacy mirror that tweet links are rewritten to.
	NitterHost string
}

// NewSite builds a Site with the default prefix layout.
func NewSite(base *url.URL) *Site {
	return &Site{
		Base:             base,
		AnnotationPrefix: "/metadata/annotation",
		ArchivePrefix:    "/doc/www",
		NitterHost:       "nitter.net",
	}
}

// IsLocal reports whether the link targets the site itself. Host-less
// (relative) targets are local.
func (s *Site) IsLocal(link *Link) bool {
	h := link.URL.Host
	return h == "" || strings.EqualFold(h, s.Base.Host)
}

// Resolve makes u absolute against the site origin.
func (s *Site) Resolve(u *url.URL) *url.URL {
	return s.Base.ResolveReference(u)
}

// ResolveLink returns the link's effective target, absolute against the
// site origin, honoring the original-URL override.
func (s *Site) ResolveLink(link *Link) *url.URL {
	if link.OriginalURL != "" {
		if u, err := url.Parse(link.OriginalURL); err == nil {
			return s.Resolve(u)
		}
	}
	return s.Resolve(link.URL)
}

// DefaultRegistry builds the standard descriptor set in its required
// specificity order: the archived-tweet transform and media/code/fragment
// types ahead of the local-page catch-all, foreign embeds last.
func DefaultRegistry(site *Site) *Registry {
	r := NewRegistry()
	r.Register(&TweetArchive{Site: site})
	r.Register(&LocalVideo{Site: site})
	r.Register(&LocalAudio{Site: site})
	r.Register(&LocalImage{Site: site})
	r.Register(&LocalDocument{Site: site})
	r.Register(&LocalCodeFile{Site: site})
	r.Register(&LocalFragment{Site: site})
	r.Register(&LocalPage{Site: site})
	r.Register(&ForeignTweet{Site: site})
	r.Register(&WikipediaEntry{Site: site})
	r.Register(&WikimediaCommonsFile{Site: site})
	return r
}
