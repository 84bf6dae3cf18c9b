package content

import (
	"net/url"
	"testing"
)

func TestParseLink(t *testing.T) {
	t.Parallel()

	link, err := ParseLink("/essay#section-2", "link-annotated")
	if err != nil {
		t.Fatal(err)
	}
	if link.URL.Path != "/essay" {
		t.Errorf("path = %q, want /essay", link.URL.Path)
	}
	if !link.HasClass("link-annotated") {
		t.Error("expected class link-annotated")
	}
	if link.HasClass("other") {
		t.Error("unexpected class match")
	}
}

func TestParseLink_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := ParseLink("://bad"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLink_Anchor(t *testing.T) {
	t.Parallel()

	link, _ := ParseLink("/essay#conclusion")
	if got := link.Anchor(); got != "conclusion" {
		t.Errorf("anchor = %q, want conclusion", got)
	}

	link.TargetID = "override"
	if got := link.Anchor(); got != "override" {
		t.Errorf("anchor with target id = %q, want override", got)
	}
}

func TestLink_Path_TrailingSlash(t *testing.T) {
	t.Parallel()

	a, _ := ParseLink("/essay/")
	b, _ := ParseLink("/essay")
	if a.Path() != b.Path() {
		t.Errorf("trailing slash not collapsed: %q vs %q", a.Path(), b.Path())
	}

	root, _ := ParseLink("/")
	if root.Path() != "/" {
		t.Errorf("root path = %q, want /", root.Path())
	}
}

func TestLink_Extension(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{"/file.PDF", "pdf"},
		{"/code/main.go", "go"},
		{"/essay", ""},
		{"/dir.d/page", ""},
		{"/archive.tar.gz", "gz"},
	}
	for _, tc := range cases {
		link, _ := ParseLink(tc.raw)
		if got := link.Extension(); got != tc.want {
			t.Errorf("Extension(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestCanonicalKey_StripsFragment(t *testing.T) {
	t.Parallel()

	a, _ := url.Parse("https://example.org/essay#one")
	b, _ := url.Parse("https://example.org/essay#two")
	if CanonicalKey(a) != CanonicalKey(b) {
		t.Errorf("anchors should share a key: %q vs %q", CanonicalKey(a), CanonicalKey(b))
	}
	if CanonicalKey(a) != "https://example.org/essay" {
		t.Errorf("key = %q", CanonicalKey(a))
	}
}
