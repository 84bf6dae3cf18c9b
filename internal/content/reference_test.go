package content

import (
	"strings"
	"testing"
)

const sectionedPage = `<html>
<head><title>An Essay</title></head>
<body>
<section id="intro"><h2>Introduction</h2><p>First words.</p></section>
<section id="methods"><h2>Methods</h2>
  <p id="para-3">A paragraph inside methods.</p>
  <section id="sub"><h3>Subsection</h3><p>Nested.</p></section>
</section>
<ol class="footnotes">
  <li id="fn2"><p>The second footnote.</p></li>
</ol>
</body>
</html>`

func TestAnchorTitleSuffix_Section(t *testing.T) {
	t.Parallel()

	doc := mustParseDoc(t, sectionedPage)
	if got := anchorTitleSuffix(doc, "para-3"); got != "§ Methods" {
		t.Errorf("suffix = %q, want %q", got, "§ Methods")
	}
}

func TestAnchorTitleSuffix_NestedSectionUsesOwnHeading(t *testing.T) {
	t.Parallel()

	doc := mustParseDoc(t, sectionedPage)
	if got := anchorTitleSuffix(doc, "sub"); got != "§ Subsection" {
		t.Errorf("suffix = %q, want %q", got, "§ Subsection")
	}
}

func TestAnchorTitleSuffix_Footnote(t *testing.T) {
	t.Parallel()

	doc := mustParseDoc(t, sectionedPage)
	if got := anchorTitleSuffix(doc, "fn2"); got != "note 2" {
		t.Errorf("suffix = %q, want %q", got, "note 2")
	}
}

func TestAnchorTitleSuffix_Unresolvable(t *testing.T) {
	t.Parallel()

	doc := mustParseDoc(t, sectionedPage)
	if got := anchorTitleSuffix(doc, "missing"); got != "" {
		t.Errorf("suffix = %q, want empty", got)
	}
	if got := anchorTitleSuffix(doc, ""); got != "" {
		t.Errorf("suffix for whole-page link = %q, want empty", got)
	}
}

func TestAnchorFragment_Section(t *testing.T) {
	t.Parallel()

	doc := mustParseDoc(t, sectionedPage)
	frag := anchorFragment(doc, "para-3")
	if frag == nil {
		t.Fatal("expected fragment")
	}
	out, err := frag.HTML()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "A paragraph inside methods.") {
		t.Errorf("fragment missing target content: %s", out)
	}
	if strings.Contains(out, "First words.") {
		t.Errorf("fragment leaked sibling section content: %s", out)
	}
}

func TestAnchorFragment_Footnote(t *testing.T) {
	t.Parallel()

	doc := mustParseDoc(t, sectionedPage)
	frag := anchorFragment(doc, "fn2")
	if frag == nil {
		t.Fatal("expected fragment")
	}
	out, _ := frag.HTML()
	if !strings.Contains(out, "The second footnote.") {
		t.Errorf("fragment = %s", out)
	}
}

func TestReferenceData_PerLinkVariation(t *testing.T) {
	t.Parallel()

	site := testSite(t)
	page := &LocalPage{Site: site}
	doc := mustParseDoc(t, sectionedPage)

	whole, err := page.ReferenceData(doc, mustLink(t, "/essay"))
	if err != nil {
		t.Fatal(err)
	}
	if whole.TitleText != "An Essay" {
		t.Errorf("whole-page title = %q", whole.TitleText)
	}

	anchored, err := page.ReferenceData(doc, mustLink(t, "/essay#methods"))
	if err != nil {
		t.Fatal(err)
	}
	if anchored.TitleText != "An Essay § Methods" {
		t.Errorf("anchored title = %q, want %q", anchored.TitleText, "An Essay § Methods")
	}

	footnote, err := page.ReferenceData(doc, mustLink(t, "/essay#fn2"))
	if err != nil {
		t.Fatal(err)
	}
	if footnote.TitleText != "An Essay note 2" {
		t.Errorf("footnote title = %q, want %q", footnote.TitleText, "An Essay note 2")
	}
	hasFootnoteClass := false
	for _, c := range footnote.BodyClasses {
		if c == "footnote" {
			hasFootnoteClass = true
		}
	}
	if !hasFootnoteClass {
		t.Errorf("footnote link missing footnote body class: %v", footnote.BodyClasses)
	}
}

func TestReferenceData_Pure(t *testing.T) {
	t.Parallel()

	site := testSite(t)
	page := &LocalPage{Site: site}
	doc := mustParseDoc(t, sectionedPage)
	link := mustLink(t, "/essay#methods")

	first, err := page.ReferenceData(doc, link)
	if err != nil {
		t.Fatal(err)
	}
	second, err := page.ReferenceData(doc, link)
	if err != nil {
		t.Fatal(err)
	}
	if first.TitleText != second.TitleText || first.TitleLink != second.TitleLink {
		t.Error("repeated extraction diverged")
	}
	if first.Content == second.Content {
		t.Error("extractions should hand out independent fragment copies")
	}
}
