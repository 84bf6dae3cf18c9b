// Package errlog implements the failure-report side channel: a
// fire-and-forget client that pings a logging endpoint with the failed
// resource URL plus a reason suffix, and the sqlite-backed store the serve
// command uses to ingest those reports.
package errlog

import (
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/jthornhill/popframe/internal/content"
)

// HTTPReporter reports failures to a remote logging endpoint. Reports are
// best-effort: they run on their own goroutine, never retry, and never block
// or fail the broadcast that triggered them.
type HTTPReporter struct {
	endpoint string
	client   *http.Client
}

func NewHTTPReporter(endpoint string) *HTTPReporter {
	return &HTTPReporter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Report implements content.Reporter.
func (r *HTTPReporter) Report(resourceURL string, reason content.FailureReason) {
	if r.endpoint == "" {
		return
	}
	go func() {
		q := url.Values{}
		q.Set("url", resourceURL+"--"+string(reason))
		resp, err := r.client.Get(r.endpoint + "?" + q.Encode())
		if err != nil {
			log.Printf("errlog: report for %s failed: %v", resourceURL, err)
			return
		}
		resp.Body.Close()
	}()
}
