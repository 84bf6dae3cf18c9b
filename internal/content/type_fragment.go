package content

import (
	"net/url"
	"strings"
)

// LocalFragment handles the auxiliary-links metadata fragments the build
// pipeline renders under the annotation prefix: backlinks, similar-links,
// and link-bibliography lists. These are partial HTML, not full pages, so
// they parse as fragments rather than documents.
type LocalFragment struct {
	Site *Site
}

func (t *LocalFragment) Name() string { return "localFragment" }

func (t *LocalFragment) Matches(link *Link) bool {
	return t.Site.IsLocal(link) && strings.HasPrefix(link.Path(), t.Site.AnnotationPrefix+"/")
}

func (t *LocalFragment) SourceURLs(link *Link) []*url.URL {
	return []*url.URL{t.Site.ResolveLink(link)}
}

func (t *LocalFragment) PermittedContentTypes() []string {
	return []string{"text/html"}
}

func (t *LocalFragment) Parse(resp *Response, _ *Link, loadedFrom *url.URL) (*Document, error) {
	return SynthesizeDocument(string(resp.Body), loadedFrom)
}

func (t *LocalFragment) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	kind := t.fragmentKind(link)
	title := fragmentTitles[kind]
	if title == "" {
		title = "Auxiliary links"
	}

	target := t.Site.ResolveLink(link)
	return &ReferenceData{
		TitleText:   title,
		TitleLink:   target.String(),
		Content:     doc.FragmentOf(doc.Root),
		BodyClasses: []string{"popframe-aux-links", "aux-links-" + kind},
	}, nil
}

var fragmentTitles = map[string]string{
	"backlinks":         "Backlinks",
	"similars":          "Similar links",
	"link-bibliography": "Link bibliography",
}

// fragmentKind picks the aux-links variety from the path segment directly
// under the annotation prefix, e.g. /metadata/annotation/backlinks/....
func (t *LocalFragment) fragmentKind(link *Link) string {
	rest := strings.TrimPrefix(link.Path(), t.Site.AnnotationPrefix+"/")
	if i := strings.IndexByte(rest, '/'); i > 0 {
		return rest[:i]
	}
	return ""
}
