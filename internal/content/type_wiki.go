package content

import (
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Foreign encyclopedia content is resolved through metadata APIs rather than
// scraping article HTML: Wikipedia's REST summary endpoint and the Wikimedia
// Commons imageinfo API are both plain JSON-returning GETs.

// WikipediaEntry handles links to Wikipedia articles. The title link is
// rewritten to the mobile-optimized subdomain.
type WikipediaEntry struct {
	Site *Site
}

func (t *WikipediaEntry) Name() string { return "wikipediaEntry" }

func (t *WikipediaEntry) Matches(link *Link) bool {
	if t.Site.IsLocal(link) {
		return false
	}
	host := strings.ToLower(link.URL.Host)
	return strings.HasSuffix(host, ".wikipedia.org") &&
		!strings.Contains(host, ".m.") &&
		strings.HasPrefix(link.URL.Path, "/wiki/") &&
		!strings.HasPrefix(link.URL.Path, "/wiki/File:")
}

func (t *WikipediaEntry) SourceURLs(link *Link) []*url.URL {
	title := strings.TrimPrefix(link.URL.Path, "/wiki/")
	api := *link.URL
	api.Scheme = "https"
	api.Path = "/api/rest_v1/page/summary/" + title
	api.RawQuery = ""
	return []*url.URL{&api}
}

func (t *WikipediaEntry) PermittedContentTypes() []string {
	return []string{"application/json"}
}

type wikipediaSummary struct {
	Title       string `json:"title"`
	ExtractHTML string `json:"extract_html"`
	Extract     string `json:"extract"`
	Thumbnail   *struct {
		Source string `json:"source"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Mobile struct {
			Page string `json:"page"`
		} `json:"mobile"`
	} `json:"content_urls"`
}

func (t *WikipediaEntry) Parse(resp *Response, _ *Link, loadedFrom *url.URL) (*Document, error) {
	var summary wikipediaSummary
	if err := json.Unmarshal(resp.Body, &summary); err != nil {
		return nil, fmt.Errorf("decoding wikipedia summary: %w", err)
	}
	if summary.Title == "" && summary.Extract == "" {
		return nil, nil
	}

	extract := summary.ExtractHTML
	if extract == "" {
		extract = "<p>" + html.EscapeString(summary.Extract) + "</p>"
	}

	var sb strings.Builder
	sb.WriteString(`<div class="wikipedia-entry"`)
	sb.WriteString(fmt.Sprintf(` data-entry-title="%s"`, html.EscapeString(summary.Title)))
	if summary.ContentURLs.Mobile.Page != "" {
		sb.WriteString(fmt.Sprintf(` data-mobile-page="%s"`, html.EscapeString(summary.ContentURLs.Mobile.Page)))
	}
	sb.WriteString(">")
	if summary.Thumbnail != nil {
		sb.WriteString(fmt.Sprintf(`<figure class="thumbnail"><img src="%s" width="%d" height="%d" loading="lazy"></figure>`,
			html.EscapeString(summary.Thumbnail.Source), summary.Thumbnail.Width, summary.Thumbnail.Height))
	}
	sb.WriteString(extract)
	sb.WriteString("</div>")

	return SynthesizeDocument(sb.String(), loadedFrom)
}

func (t *WikipediaEntry) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	entry := doc.Find(".wikipedia-entry")
	title := ""
	mobile := ""
	if entry.Length() > 0 {
		title, _ = entry.Attr("data-entry-title")
		mobile, _ = entry.Attr("data-mobile-page")
	}
	if mobile == "" {
		mobile = MobileWikipediaURL(link.URL).String()
	}

	rd := &ReferenceData{
		TitleText:   title,
		TitleLink:   mobile,
		Content:     doc.FragmentOf(doc.Root),
		BodyClasses: []string{"popframe-wikipedia", "live-embed"},
	}
	if thumb := doc.Find(".thumbnail img"); thumb.Length() > 0 {
		if h, err := goquery.OuterHtml(thumb); err == nil {
			rd.ThumbnailHTML = h
		}
	}
	return rd, nil
}

// MobileWikipediaURL rewrites a Wikipedia article URL to its mobile
// subdomain form, e.g. en.wikipedia.org -> en.m.wikipedia.org.
func MobileWikipediaURL(u *url.URL) *url.URL {
	m := *u
	host := strings.ToLower(m.Host)
	if strings.HasSuffix(host, ".wikipedia.org") && !strings.Contains(host, ".m.") {
		m.Host = strings.TrimSuffix(host, ".wikipedia.org") + ".m.wikipedia.org"
	}
	return &m
}

// WikimediaCommonsFile handles Commons file pages via the imageinfo
// metadata API lookup.
type WikimediaCommonsFile struct {
	Site *Site
}

func (t *WikimediaCommonsFile) Name() string { return "wikimediaCommonsFile" }

func (t *WikimediaCommonsFile) Matches(link *Link) bool {
	if t.Site.IsLocal(link) {
		return false
	}
	host := strings.ToLower(link.URL.Host)
	return (host == "commons.wikimedia.org" || host == "www.wikimedia.org") &&
		strings.HasPrefix(link.URL.Path, "/wiki/File:")
}

func (t *WikimediaCommonsFile) SourceURLs(link *Link) []*url.URL {
	fileTitle := strings.TrimPrefix(link.URL.Path, "/wiki/")
	api := &url.URL{Scheme: "https", Host: "commons.wikimedia.org", Path: "/w/api.php"}
	q := url.Values{}
	q.Set("action", "query")
	q.Set("titles", fileTitle)
	q.Set("prop", "imageinfo")
	q.Set("iiprop", "url|size|extmetadata")
	q.Set("format", "json")
	api.RawQuery = q.Encode()
	return []*url.URL{api}
}

func (t *WikimediaCommonsFile) PermittedContentTypes() []string {
	return []string{"application/json"}
}

type commonsImageInfo struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			ImageInfo []struct {
				URL            string `json:"url"`
				DescriptionURL string `json:"descriptionurl"`
				Width          int    `json:"width"`
				Height         int    `json:"height"`
			} `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

func (t *WikimediaCommonsFile) Parse(resp *Response, _ *Link, loadedFrom *url.URL) (*Document, error) {
	var info commonsImageInfo
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return nil, fmt.Errorf("decoding imageinfo: %w", err)
	}

	for _, page := range info.Query.Pages {
		if len(page.ImageInfo) == 0 {
			continue
		}
		ii := page.ImageInfo[0]
		markup := fmt.Sprintf(
			`<figure class="commons-file" data-file-title="%s"><img src="%s" width="%d" height="%d" loading="lazy"></figure>`,
			html.EscapeString(page.Title), html.EscapeString(ii.URL), ii.Width, ii.Height)
		return SynthesizeDocument(markup, loadedFrom)
	}
	return nil, nil
}

func (t *WikimediaCommonsFile) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	title := ""
	if fig := doc.Find(".commons-file"); fig.Length() > 0 {
		title, _ = fig.Attr("data-file-title")
	}
	if title == "" {
		title = strings.TrimPrefix(link.URL.Path, "/wiki/")
	}
	return &ReferenceData{
		TitleText:   title,
		TitleLink:   link.URL.String(),
		Content:     doc.FragmentOf(doc.Root),
		BodyClasses: []string{"popframe-image", "live-embed"},
	}, nil
}
