package errlog

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jthornhill/popframe/internal/content"
)

func TestHTTPReporter_Report(t *testing.T) {
	t.Parallel()

	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.URL.Query().Get("url")
	}))
	defer srv.Close()

	rep := NewHTTPReporter(srv.URL)
	rep.Report("https://example.org/gone", content.FailureNotFound)

	select {
	case report := <-got:
		want := "https://example.org/gone--not-found"
		if report != want {
			t.Errorf("report = %q, want %q", report, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("report never arrived")
	}
}

func TestHTTPReporter_NoEndpoint(t *testing.T) {
	t.Parallel()

	// Must be a silent no-op, not a panic.
	rep := NewHTTPReporter("")
	rep.Report("https://example.org/gone", content.FailureNotFound)
}
