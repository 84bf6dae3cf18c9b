package content

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var codeExtensions = map[string]bool{
	"c": true, "cpp": true, "css": true, "go": true, "hs": true,
	"java": true, "js": true, "json": true, "lua": true, "md": true, "ml": true,
	"patch": true, "php": true, "py": true, "r": true, "rb": true, "rs": true,
	"sh": true, "sql": true, "swift": true, "toml": true, "ts": true, "xml": true,
	"yaml": true, "yml": true, "zig": true,
}

// LocalCodeFile handles syntax-highlightable local code files. Two candidate
// sources are tried in order: the build pipeline's pre-rendered highlighted
// variant (<path>.html), then the raw file, which is highlighted here as the
// fallback.
type LocalCodeFile struct {
	Site *Site
}

func (t *LocalCodeFile) Name() string { return "localCodeFile" }

func (t *LocalCodeFile) Matches(link *Link) bool {
	return t.Site.IsLocal(link) && codeExtensions[link.Extension()]
}

func (t *LocalCodeFile) SourceURLs(link *Link) []*url.URL {
	target := t.Site.ResolveLink(link)

	rendered := *target
	rendered.Path += ".html"
	raw := *target
	return []*url.URL{&rendered, &raw}
}

func (t *LocalCodeFile) PermittedContentTypes() []string {
	return []string{"text/html", "text/plain"}
}

func (t *LocalCodeFile) Parse(resp *Response, link *Link, loadedFrom *url.URL) (*Document, error) {
	if resp.ContentType == "text/html" {
		return ParseDocument(bytes.NewReader(resp.Body), loadedFrom)
	}
	highlighted, err := highlightSource(filename(link.Path()), string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("highlighting %s: %w", link.Path(), err)
	}
	return SynthesizeDocument(highlighted, loadedFrom)
}

func (t *LocalCodeFile) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	target := t.Site.ResolveLink(link)
	return &ReferenceData{
		TitleText:   filename(link.Path()),
		TitleLink:   target.String(),
		Content:     doc.FragmentOf(doc.Body()),
		BodyClasses: []string{"popframe-code", "mini-title-bar"},
	}, nil
}

func highlightSource(name, source string) (string, error) {
	lexer := lexers.Match(name)
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}

	formatter := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.WithLineNumbers(true),
	)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", fmt.Errorf("tokenising: %w", err)
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", fmt.Errorf("formatting: %w", err)
	}
	return buf.String(), nil
}
