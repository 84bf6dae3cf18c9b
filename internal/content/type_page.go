package content

import (
	"bytes"
	"net/url"
	"strings"
)

// LocalPage is the catch-all for local HTML pages, including anchored
// sections, footnotes, and the current page itself. It must stay last among
// the local descriptors: every more specific local predicate precedes it.
type LocalPage struct {
	Site *Site
}

func (t *LocalPage) Name() string { return "localPage" }

func (t *LocalPage) Matches(link *Link) bool {
	if !t.Site.IsLocal(link) {
		return false
	}
	ext := link.Extension()
	return ext == "" || ext == "html" || ext == "htm"
}

func (t *LocalPage) SourceURLs(link *Link) []*url.URL {
	target := t.Site.ResolveLink(link)
	page := *target
	page.Fragment = ""
	page.RawFragment = ""
	return []*url.URL{&page}
}

func (t *LocalPage) PermittedContentTypes() []string {
	return []string{"text/html"}
}

func (t *LocalPage) Parse(resp *Response, _ *Link, loadedFrom *url.URL) (*Document, error) {
	return ParseDocument(bytes.NewReader(resp.Body), loadedFrom)
}

func (t *LocalPage) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	target := t.Site.ResolveLink(link)
	title := doc.Title()
	classes := []string{"popframe-local-page"}

	anchor := link.Anchor()
	content := doc.FragmentOf(doc.Body())

	if anchor != "" {
		if suffix := anchorTitleSuffix(doc, anchor); suffix != "" {
			title = strings.TrimSpace(title + " " + suffix)
			if strings.HasPrefix(suffix, "note") {
				classes = append(classes, "footnote")
			}
		}
		if fragment := anchorFragment(doc, anchor); fragment != nil {
			content = fragment
		}
	}

	return &ReferenceData{
		TitleText:   title,
		TitleLink:   target.String(),
		Content:     content,
		BodyClasses: classes,
	}, nil
}
