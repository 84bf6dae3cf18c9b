package content

import (
	"bytes"
	"net/url"
	"testing"
)

// stubType is a minimal ContentType for registry and loader tests. Matching
// is keyed on a path prefix; parsing treats the body as a full HTML page.
type stubType struct {
	name    string
	prefix  string
	sources []*url.URL
	parse   func(resp *Response, link *Link, loadedFrom *url.URL) (*Document, error)
}

func (s *stubType) Name() string { return s.name }

func (s *stubType) Matches(link *Link) bool {
	if s.prefix == "" {
		return true
	}
	return len(link.Path()) >= len(s.prefix) && link.Path()[:len(s.prefix)] == s.prefix
}

func (s *stubType) SourceURLs(*Link) []*url.URL { return s.sources }

func (s *stubType) Parse(resp *Response, link *Link, loadedFrom *url.URL) (*Document, error) {
	if s.parse != nil {
		return s.parse(resp, link, loadedFrom)
	}
	if resp == nil {
		return SynthesizeDocument("<p>synthesized</p>", nil)
	}
	return ParseDocument(bytes.NewReader(resp.Body), loadedFrom)
}

func (s *stubType) ReferenceData(doc *Document, link *Link) (*ReferenceData, error) {
	return &ReferenceData{
		TitleText: doc.Title(),
		TitleLink: link.URL.String(),
		Content:   doc.FragmentOf(doc.Body()),
	}, nil
}

// strictStubType adds a content-type allow-list.
type strictStubType struct {
	stubType
	allowed []string
}

func (s *strictStubType) PermittedContentTypes() []string { return s.allowed }

func mustLink(t *testing.T, raw string, classes ...string) *Link {
	t.Helper()
	link, err := ParseLink(raw, classes...)
	if err != nil {
		t.Fatal(err)
	}
	return link
}

func TestRegistry_FirstMatchWins(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubType{name: "specific", prefix: "/doc/"})
	r.Register(&stubType{name: "general"})

	if ct := r.Classify(mustLink(t, "/doc/file")); ct.Name() != "specific" {
		t.Errorf("classified as %s, want specific", ct.Name())
	}
	if ct := r.Classify(mustLink(t, "/essay")); ct.Name() != "general" {
		t.Errorf("classified as %s, want general", ct.Name())
	}
}

func TestRegistry_Deterministic(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubType{name: "a"})
	r.Register(&stubType{name: "b"})

	link := mustLink(t, "/anything")
	for i := 0; i < 100; i++ {
		if ct := r.Classify(link); ct.Name() != "a" {
			t.Fatalf("iteration %d classified as %s, want a", i, ct.Name())
		}
	}
}

func TestRegistry_NoMatch(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubType{name: "narrow", prefix: "/doc/"})

	if ct := r.Classify(mustLink(t, "/elsewhere")); ct != nil {
		t.Errorf("expected nil, got %s", ct.Name())
	}
}

func TestRegistry_RegisterBefore(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubType{name: "general"})
	if err := r.RegisterBefore("general", &stubType{name: "specific", prefix: "/doc/"}); err != nil {
		t.Fatal(err)
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "specific" || names[1] != "general" {
		t.Errorf("order = %v, want [specific general]", names)
	}
	if ct := r.Classify(mustLink(t, "/doc/x")); ct.Name() != "specific" {
		t.Errorf("classified as %s, want specific", ct.Name())
	}
}

func TestRegistry_RegisterAfter(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubType{name: "first"})
	r.Register(&stubType{name: "third"})
	if err := r.RegisterAfter("first", &stubType{name: "second"}); err != nil {
		t.Fatal(err)
	}

	names := r.Names()
	want := []string{"first", "second", "third"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}
}

func TestRegistry_RegisterBefore_Unknown(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.RegisterBefore("missing", &stubType{name: "x"}); err == nil {
		t.Fatal("expected error for unknown anchor name")
	}
}

func TestDefaultRegistry_Order(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://example.org")
	r := DefaultRegistry(NewSite(base))

	// The archive transform and every specific local type must precede the
	// local-page catch-all.
	names := r.Names()
	pageAt := -1
	for i, n := range names {
		if n == "localPage" {
			pageAt = i
		}
	}
	if pageAt < 0 {
		t.Fatal("localPage not registered")
	}
	for _, specific := range []string{"tweetArchive", "localVideo", "localImage", "localCodeFile", "localFragment"} {
		found := false
		for i := 0; i < pageAt; i++ {
			if names[i] == specific {
				found = true
			}
		}
		if !found {
			t.Errorf("%s not registered ahead of localPage: %v", specific, names)
		}
	}
}

func TestDefaultRegistry_Classification(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://example.org")
	r := DefaultRegistry(NewSite(base))

	cases := []struct {
		raw  string
		want string
	}{
		{"/essay", "localPage"},
		{"/essay/", "localPage"},
		{"/clip.mp4", "localVideo"},
		{"/track.mp3", "localAudio"},
		{"/fig.png", "localImage"},
		{"/paper.pdf", "localDocument"},
		{"/code/main.go", "localCodeFile"},
		{"/metadata/annotation/backlinks/essay.html", "localFragment"},
		{"/doc/www/twitter.com/user/status/123.html", "tweetArchive"},
		{"https://twitter.com/user/status/123", "foreignTweet"},
		{"https://en.wikipedia.org/wiki/Go_(programming_language)", "wikipediaEntry"},
		{"https://commons.wikimedia.org/wiki/File:Example.jpg", "wikimediaCommonsFile"},
	}
	for _, tc := range cases {
		ct := r.Classify(mustLink(t, tc.raw))
		if ct == nil {
			t.Errorf("Classify(%q) = nil, want %s", tc.raw, tc.want)
			continue
		}
		if ct.Name() != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.raw, ct.Name(), tc.want)
		}
	}
}

func TestDefaultRegistry_ForeignUnmatched(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://example.org")
	r := DefaultRegistry(NewSite(base))

	if ct := r.Classify(mustLink(t, "https://other.example.com/page")); ct != nil {
		t.Errorf("foreign non-embed link classified as %s, want nil", ct.Name())
	}
}
