package content

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ReferenceData is the presentation-ready record a content type derives from
// a cached document for one specific requesting link. It is recomputed per
// request, never cached.
type ReferenceData struct {
	TitleText     string    `json:"titleText"`
	TitleHTML     string    `json:"titleHTML,omitempty"`
	TitleLink     string    `json:"titleLink"`
	ThumbnailHTML string    `json:"thumbnailHTML,omitempty"`
	Content       *Document `json:"-"`
	BodyClasses   []string  `json:"bodyClasses,omitempty"`
}

// ContentHTML renders the body fragment, or "" when there is none.
func (rd *ReferenceData) ContentHTML() (string, error) {
	if rd.Content == nil {
		return "", nil
	}
	return rd.Content.HTML()
}

// anchorTitleSuffix computes the element-scoped title suffix for a link
// targeting a sub-element of a whole-page document: "§ <heading>" for the
// nearest enclosing section, "note <n>" for a footnote. Returns "" for
// whole-page links or unresolvable anchors.
func anchorTitleSuffix(doc *Document, anchorID string) string {
	if anchorID == "" {
		return ""
	}
	target := doc.ElementByID(anchorID)
	if target == nil {
		return ""
	}

	for n := target; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if n.Data == "li" && (hasAttrClass(n, "footnote") || strings.HasPrefix(attrValue(n, "id"), "fn")) {
			return footnoteSuffix(n)
		}
		if n.Data == "section" {
			if heading := sectionHeading(n); heading != "" {
				return "§ " + heading
			}
		}
	}
	return ""
}

// sectionHeading returns the text of the section's own heading (a direct
// h1-h6 child, not one from a nested section).
func sectionHeading(section *html.Node) string {
	for c := section.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && isHeading(c.Data) {
			return strings.TrimSpace(nodeText(c))
		}
	}
	return ""
}

func isHeading(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}

func footnoteSuffix(li *html.Node) string {
	id := attrValue(li, "id")
	if num := strings.TrimPrefix(id, "fn"); num != id && num != "" {
		return fmt.Sprintf("note %s", num)
	}
	return "note"
}

// anchorFragment returns the document subtree a link's anchor scopes it to:
// the enclosing section of the target element when there is one, otherwise
// the target element itself. Nil when the anchor does not resolve.
func anchorFragment(doc *Document, anchorID string) *Document {
	target := doc.ElementByID(anchorID)
	if target == nil {
		return nil
	}
	for n := target; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && (n.Data == "section" || (n.Data == "li" && strings.HasPrefix(attrValue(n, "id"), "fn"))) {
			return doc.FragmentOf(n)
		}
	}
	return doc.FragmentOf(target)
}

// filename returns the final path segment of a link path.
func filename(path string) string {
	i := strings.LastIndexByte(path, '/')
	return path[i+1:]
}
