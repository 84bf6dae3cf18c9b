package content

import (
	"errors"
	"fmt"
)

// ErrNoMatch means no registered content type claims the link; the subsystem
// declines involvement and default link behavior applies. Not a failure.
var ErrNoMatch = errors.New("no content type matches link")

// ErrNotCached is returned when reference data is requested for a resource
// that has not finished loading.
var ErrNotCached = errors.New("resource not cached")

// FailureReason classifies a terminal load failure. The string values double
// as the suffixes attached to error-log reports.
type FailureReason string

const (
	// FailureNotFound: every candidate source URL transport-failed.
	FailureNotFound FailureReason = "not-found"

	// FailureBadContentType: a response's content-type header was not in
	// the descriptor's allow-list. Terminal; the fallback chain is not
	// advanced.
	FailureBadContentType FailureReason = "bad-content-type"

	// FailureUnprocessable: the descriptor's parse step yielded no usable
	// document.
	FailureUnprocessable FailureReason = "could-not-process"
)

// LoadFailure is the sentinel cached for a resource whose load terminally
// failed. It is distinguishable from any valid Document and sticky for the
// session: repeated loads of a failed key return the same failure without
// new network activity.
type LoadFailure struct {
	Key    string
	Reason FailureReason
	Err    error
}

func (f *LoadFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("loading %s: %s: %v", f.Key, f.Reason, f.Err)
	}
	return fmt.Sprintf("loading %s: %s", f.Key, f.Reason)
}

func (f *LoadFailure) Unwrap() error { return f.Err }
