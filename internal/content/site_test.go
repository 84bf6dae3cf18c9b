package content

import (
	"net/url"
	"testing"
)

func testSite(t *testing.T) *Site {
	t.Helper()
	base, err := url.Parse("https://example.org")
	if err != nil {
		t.Fatal(err)
	}
	return NewSite(base)
}

func TestSite_IsLocal(t *testing.T) {
	t.Parallel()

	site := testSite(t)
	cases := []struct {
		raw  string
		want bool
	}{
		{"/essay", true},
		{"https://example.org/essay", true},
		{"https://EXAMPLE.ORG/essay", true},
		{"https://other.example.com/essay", false},
	}
	for _, tc := range cases {
		if got := site.IsLocal(mustLink(t, tc.raw)); got != tc.want {
			t.Errorf("IsLocal(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestSite_ResolveLink(t *testing.T) {
	t.Parallel()

	site := testSite(t)
	link := mustLink(t, "/essay")
	if got := site.ResolveLink(link).String(); got != "https://example.org/essay" {
		t.Errorf("resolved = %q", got)
	}
}

func TestSite_ResolveLink_OriginalOverride(t *testing.T) {
	t.Parallel()

	site := testSite(t)
	link := mustLink(t, "/doc/www/original.example.com/page.html")
	link.OriginalURL = "https://original.example.com/page"

	if got := site.ResolveLink(link).String(); got != "https://original.example.com/page" {
		t.Errorf("resolved = %q, want the original-URL override", got)
	}
}
