package content

import (
	"fmt"
	"html"
	"net/url"
)

// Locally-hosted media content types. These synthesize their document from
// the link itself: no source URLs, no network request, the media element
// loads lazily inside the pop-frame.

var videoExtensions = map[string]bool{"mp4": true, "webm": true, "mov": true}
var audioExtensions = map[string]bool{"mp3": true, "ogg": true, "m4a": true, "wav": true, "flac": true}
var imageExtensions = map[string]bool{"png": true, "jpg": true, "jpeg": true, "gif": true, "svg": true, "webp": true, "avif": true}

// LocalVideo handles locally-hosted video files.
type LocalVideo struct {
	Site *Site
}

func (t *LocalVideo) Name() string { return "localVideo" }

func (t *LocalVideo) Matches(link *Link) bool {
	return t.Site.IsLocal(link) && videoExtensions[link.Extension()]
}

func (t *LocalVideo) SourceURLs(link *Link) []*url.URL { return nil }

func (t *LocalVideo) Parse(_ *Response, link *Link, _ *url.URL) (*Document, error) {
	src := t.Site.ResolveLink(link)
	markup := fmt.Sprintf(`<figure><video controls preload="none"><source src="%s"></video></figure>`,
		html.EscapeString(src.String()))
	return SynthesizeDocument(markup, src)
}

func (t *LocalVideo) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	return mediaReferenceData(t.Site, doc, link, "video"), nil
}

// LocalAudio handles locally-hosted audio files.
type LocalAudio struct {
	Site *Site
}

func (t *LocalAudio) Name() string { return "localAudio" }

func (t *LocalAudio) Matches(link *Link) bool {
	return t.Site.IsLocal(link) && audioExtensions[link.Extension()]
}

func (t *LocalAudio) SourceURLs(link *Link) []*url.URL { return nil }

func (t *LocalAudio) Parse(_ *Response, link *Link, _ *url.URL) (*Document, error) {
	src := t.Site.ResolveLink(link)
	markup := fmt.Sprintf(`<figure><audio controls preload="none" src="%s"></audio></figure>`,
		html.EscapeString(src.String()))
	return SynthesizeDocument(markup, src)
}

func (t *LocalAudio) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	return mediaReferenceData(t.Site, doc, link, "audio"), nil
}

// LocalImage handles locally-hosted images.
type LocalImage struct {
	Site *Site
}

func (t *LocalImage) Name() string { return "localImage" }

func (t *LocalImage) Matches(link *Link) bool {
	return t.Site.IsLocal(link) && imageExtensions[link.Extension()]
}

func (t *LocalImage) SourceURLs(link *Link) []*url.URL { return nil }

func (t *LocalImage) Parse(_ *Response, link *Link, _ *url.URL) (*Document, error) {
	src := t.Site.ResolveLink(link)
	markup := fmt.Sprintf(`<figure><img src="%s" loading="lazy"></figure>`,
		html.EscapeString(src.String()))
	return SynthesizeDocument(markup, src)
}

func (t *LocalImage) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	rd := mediaReferenceData(t.Site, doc, link, "image")
	src := t.Site.ResolveLink(link)
	rd.ThumbnailHTML = fmt.Sprintf(`<img src="%s" loading="lazy">`, html.EscapeString(src.String()))
	return rd, nil
}

func mediaReferenceData(site *Site, doc *Document, link *Link, kind string) *ReferenceData {
	target := site.ResolveLink(link)
	return &ReferenceData{
		TitleText:   filename(link.Path()),
		TitleLink:   target.String(),
		Content:     doc.FragmentOf(doc.Root),
		BodyClasses: []string{"popframe-" + kind, "mini-title-bar"},
	}
}

// LocalDocument handles locally-hosted generic documents (PDFs and other
// embeddable files) by synthesizing an embed frame.
type LocalDocument struct {
	Site *Site
}

func (t *LocalDocument) Name() string { return "localDocument" }

func (t *LocalDocument) Matches(link *Link) bool {
	if !t.Site.IsLocal(link) {
		return false
	}
	switch link.Extension() {
	case "pdf", "epub", "csv":
		return true
	}
	return link.HasClass("link-document")
}

func (t *LocalDocument) SourceURLs(link *Link) []*url.URL { return nil }

func (t *LocalDocument) Parse(_ *Response, link *Link, _ *url.URL) (*Document, error) {
	src := t.Site.ResolveLink(link)
	markup := fmt.Sprintf(`<iframe src="%s" class="document-embed" loading="lazy" sandbox></iframe>`,
		html.EscapeString(src.String()))
	return SynthesizeDocument(markup, src)
}

func (t *LocalDocument) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	return mediaReferenceData(t.Site, doc, link, "document"), nil
}
