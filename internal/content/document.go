package content

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is the normalized in-memory representation every content type
// parses into: a detached node tree plus the location it was loaded from.
// BaseLocation is needed to resolve relative anchors and to tell a fetched
// copy of the current page apart from the live page document.
type Document struct {
	Root         *html.Node
	BaseLocation *url.URL
}

// ParseDocument parses a full HTML page.
func ParseDocument(r io.Reader, base *url.URL) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return &Document{Root: root, BaseLocation: base}, nil
}

// SynthesizeDocument builds a Document from an HTML fragment. The fragment's
// top-level nodes are reparented under a detached container element.
func SynthesizeDocument(fragment string, base *url.URL) (*Document, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}

	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return &Document{Root: container, BaseLocation: base}, nil
}

// Selection returns a goquery selection rooted at the document.
func (d *Document) Selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(d.Root).Selection
}

// Find runs a CSS selector query against the document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.Selection().Find(selector)
}

// ElementByID walks the tree for the element with the given id attribute.
func (d *Document) ElementByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	return findByID(d.Root, id)
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// Title returns the page <title> text, falling back to the first <h1>.
func (d *Document) Title() string {
	if t := firstElement(d.Root, "title"); t != nil {
		return strings.TrimSpace(nodeText(t))
	}
	if h := firstElement(d.Root, "h1"); h != nil {
		return strings.TrimSpace(nodeText(h))
	}
	return ""
}

// Body returns the page's <body> element, or the root for synthesized
// fragments that have none.
func (d *Document) Body() *html.Node {
	if b := firstElement(d.Root, "body"); b != nil {
		return b
	}
	return d.Root
}

// HTML renders the document root.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.Root); err != nil {
		return "", fmt.Errorf("rendering document: %w", err)
	}
	return buf.String(), nil
}

// FragmentOf returns a detached deep copy of node as its own Document.
// Copying keeps cached documents immutable under consumers that restructure
// the fragment they were handed.
func (d *Document) FragmentOf(node *html.Node) *Document {
	return &Document{Root: CloneNode(node), BaseLocation: d.BaseLocation}
}

// CloneNode deep-copies an HTML node tree, leaving the copy detached.
func CloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:     n.Type,
		DataAtom: n.DataAtom,
		Data:     n.Data,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(CloneNode(child))
	}
	return c
}

func firstElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func hasAttrClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
