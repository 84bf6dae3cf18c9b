package snapshot

import (
	"bytes"
	"testing"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	body := []byte("<html><head><title>Archived</title></head></html>")

	if err := s.Write("https://example.org/essay", "text/html", body); err != nil {
		t.Fatal(err)
	}

	mediaType, got, err := s.Read("https://example.org/essay")
	if err != nil {
		t.Fatal(err)
	}
	if mediaType != "text/html" {
		t.Errorf("media type = %q, want text/html", mediaType)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("body round-trip failed: got %q", got)
	}
}

func TestWrite_Replaces(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	key := "https://example.org/essay"

	if err := s.Write(key, "text/html", []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(key, "text/plain", []byte("new")); err != nil {
		t.Fatal(err)
	}

	mediaType, body, err := s.Read(key)
	if err != nil {
		t.Fatal(err)
	}
	if mediaType != "text/plain" || string(body) != "new" {
		t.Errorf("got %s %q, want the replacement snapshot", mediaType, body)
	}
}

func TestRead_Missing(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	if _, _, err := s.Read("https://example.org/never-written"); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}

func TestHas(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	if s.Has("key") {
		t.Error("Has before write")
	}
	if err := s.Write("key", "text/plain", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if !s.Has("key") {
		t.Error("Has after write")
	}
}

func TestKeys_DistinctPaths(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	if err := s.Write("key-a", "text/plain", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("key-b", "text/plain", []byte("b")); err != nil {
		t.Fatal(err)
	}

	_, a, _ := s.Read("key-a")
	_, b, _ := s.Read("key-b")
	if string(a) != "a" || string(b) != "b" {
		t.Errorf("keys collided: %q %q", a, b)
	}
}

func TestWrite_BodyWithNewlines(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	body := []byte("line one\nline two\nline three")
	if err := s.Write("key", "text/plain", body); err != nil {
		t.Fatal(err)
	}
	_, got, err := s.Read("key")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("multi-line body mangled: %q", got)
	}
}
