package content

import (
	"bytes"
	"net/url"
	"strings"
)

// Archived tweet pages (and their live nitter mirrors) are "transformable"
// documents: the fetched page is structurally reduced to the single tweet's
// content before caching.

// TweetArchive handles locally-archived tweet pages under the site's
// archive prefix. It must precede localDocument and localPage in the
// registry: its path predicate overlaps both.
type TweetArchive struct {
	Site *Site
}

func (t *TweetArchive) Name() string { return "tweetArchive" }

func (t *TweetArchive) Matches(link *Link) bool {
	if !t.Site.IsLocal(link) || !strings.HasPrefix(link.Path(), t.Site.ArchivePrefix+"/") {
		return false
	}
	p := link.Path()
	return strings.Contains(p, "twitter.com") || strings.Contains(p, "x.com") || strings.Contains(p, "nitter")
}

func (t *TweetArchive) SourceURLs(link *Link) []*url.URL {
	return []*url.URL{t.Site.Resolve(link.URL)}
}

func (t *TweetArchive) PermittedContentTypes() []string {
	return []string{"text/html"}
}

func (t *TweetArchive) Parse(resp *Response, _ *Link, loadedFrom *url.URL) (*Document, error) {
	return extractTweet(resp.Body, loadedFrom)
}

func (t *TweetArchive) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	return tweetReferenceData(doc, t.Site.Resolve(link.URL).String()), nil
}

// ForeignTweet handles live tweet links by rewriting them to the configured
// nitter mirror and applying the same single-tweet transform.
type ForeignTweet struct {
	Site *Site
}

func (t *ForeignTweet) Name() string { return "foreignTweet" }

func (t *ForeignTweet) Matches(link *Link) bool {
	if t.Site.IsLocal(link) {
		return false
	}
	switch strings.ToLower(link.URL.Host) {
	case "twitter.com", "www.twitter.com", "mobile.twitter.com", "x.com", "www.x.com":
		return strings.Contains(link.URL.Path, "/status/")
	}
	return false
}

func (t *ForeignTweet) SourceURLs(link *Link) []*url.URL {
	mirror := *link.URL
	mirror.Scheme = "https"
	mirror.Host = t.Site.NitterHost
	return []*url.URL{&mirror}
}

func (t *ForeignTweet) PermittedContentTypes() []string {
	return []string{"text/html"}
}

func (t *ForeignTweet) Parse(resp *Response, _ *Link, loadedFrom *url.URL) (*Document, error) {
	return extractTweet(resp.Body, loadedFrom)
}

func (t *ForeignTweet) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	mirror := t.SourceURLs(link)[0]
	return tweetReferenceData(doc, mirror.String()), nil
}

// extractTweet reduces a tweet page to the main tweet's content. Returns nil
// (unprocessable) when the page holds no recognizable tweet.
func extractTweet(page []byte, loadedFrom *url.URL) (*Document, error) {
	full, err := ParseDocument(bytes.NewReader(page), loadedFrom)
	if err != nil {
		return nil, err
	}

	sel := full.Find(".main-tweet .tweet-content")
	if sel.Length() == 0 {
		sel = full.Find(".main-tweet")
	}
	if sel.Length() == 0 {
		sel = full.Find(".tweet-content")
	}
	if sel.Length() == 0 {
		return nil, nil
	}

	return full.FragmentOf(sel.Get(0)), nil
}

func tweetReferenceData(doc *Document, href string) *ReferenceData {
	title := strings.TrimSpace(nodeText(doc.Root))
	// Truncate on a rune boundary; tweet text is rarely ASCII-only.
	if runes := []rune(title); len(runes) > 80 {
		title = string(runes[:80]) + "…"
	}
	return &ReferenceData{
		TitleText:   title,
		TitleLink:   href,
		Content:     doc.FragmentOf(doc.Root),
		BodyClasses: []string{"popframe-tweet", "content-transform"},
	}
}
