package content

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jthornhill/popframe/internal/notify"
)

// Response is a fetched candidate source, reduced to what parse steps need.
type Response struct {
	URL         *url.URL
	StatusCode  int
	ContentType string // media type only, parameters stripped
	Body        []byte
}

// Reporter receives fire-and-forget failure reports (the error-log side
// channel). Implementations must never block the failure path.
type Reporter interface {
	Report(resourceURL string, reason FailureReason)
}

// SnapshotStore archives raw fetched responses so a resource whose every
// candidate transport-fails can still be restored from a local copy.
type SnapshotStore interface {
	Write(key, mediaType string, body []byte) error
	Read(key string) (mediaType string, body []byte, err error)
}

const defaultTimeout = 30 * time.Second

// Loader orchestrates fetch-or-reuse: classify the link, check the cache,
// walk the candidate source-URL chain, parse via the matched content type,
// populate the cache, and broadcast completion or failure exactly once per
// resource key. Concurrent loads of one key share a single flight.
type Loader struct {
	registry *Registry
	cache    *Cache
	hub      *notify.Hub

	client    *http.Client
	userAgent string
	snapshots SnapshotStore
	reporter  Reporter

	flights singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(ld *Loader) { ld.client = c }
}

// WithUserAgent sets the User-Agent header on fetches.
func WithUserAgent(ua string) LoaderOption {
	return func(ld *Loader) { ld.userAgent = ua }
}

// WithSnapshots enables the snapshot archive.
func WithSnapshots(s SnapshotStore) LoaderOption {
	return func(ld *Loader) { ld.snapshots = s }
}

// WithReporter enables error-log reporting.
func WithReporter(r Reporter) LoaderOption {
	return func(ld *Loader) { ld.reporter = r }
}

func NewLoader(registry *Registry, cache *Cache, hub *notify.Hub, opts ...LoaderOption) *Loader {
	ld := &Loader{
		registry:  registry,
		cache:     cache,
		hub:       hub,
		client:    &http.Client{Timeout: defaultTimeout},
		userAgent: "popframe/0.1.0",
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Registry returns the loader's content type registry.
func (ld *Loader) Registry() *Registry { return ld.registry }

// Cache returns the loader's content cache.
func (ld *Loader) Cache() *Cache { return ld.cache }

// Hub returns the notification hub the loader broadcasts on.
func (ld *Loader) Hub() *notify.Hub { return ld.hub }

// Classify returns the content type handling the link, or nil.
func (ld *Loader) Classify(link *Link) ContentType {
	return ld.registry.Classify(link)
}

// ResourceKey derives the canonical cache key for the link: the absolute
// form of its first candidate source URL, or of the link target itself for
// synthesized content.
func (ld *Loader) ResourceKey(link *Link) (string, error) {
	ct := ld.registry.Classify(link)
	if ct == nil {
		return "", ErrNoMatch
	}
	return resourceKey(link, ct), nil
}

func resourceKey(link *Link, ct ContentType) string {
	if candidates := ct.SourceURLs(link); len(candidates) > 0 {
		return CanonicalKey(candidates[0])
	}
	return CanonicalKey(link.URL)
}

// Load resolves the link's content, reusing the cache when possible. For a
// key already loaded or failed it returns the cached result with no network
// activity or duplicate broadcast. Concurrent callers for one key share a
// single request sequence and all observe its result; the hub broadcast
// fires exactly once, when the key first reaches a terminal state.
func (ld *Loader) Load(ctx context.Context, link *Link) (*Document, error) {
	ct := ld.registry.Classify(link)
	if ct == nil {
		return nil, ErrNoMatch
	}
	key := resourceKey(link, ct)

	if doc, failure, ok := ld.cache.Lookup(key); ok {
		if failure != nil {
			return nil, failure
		}
		return doc, nil
	}

	v, err, _ := ld.flights.Do(key, func() (any, error) {
		// Another flight may have resolved the key between the caller's
		// cache check and this one.
		if doc, failure, ok := ld.cache.Lookup(key); ok {
			if failure != nil {
				return nil, failure
			}
			return doc, nil
		}

		doc, failure, err := ld.fetch(ctx, link, ct, key)
		if err != nil {
			// The caller stopped waiting mid-flight. That says nothing
			// about the resource, so the key stays absent: no cached
			// failure, no report, no broadcast. A later load retries.
			return nil, err
		}
		if failure != nil {
			ld.cache.StoreFailure(key, failure)
			if ld.reporter != nil {
				ld.reporter.Report(key, failure.Reason)
			}
			ld.hub.Publish(notify.ContentLoadDidFail, notify.Payload{Key: key, Data: failure})
			return nil, failure
		}
		ld.cache.Store(key, doc)
		ld.hub.Publish(notify.ContentDidLoad, notify.Payload{Key: key, Data: doc})
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// fetch walks the candidate chain for one never-before-requested key and
// returns exactly one terminal outcome, or a plain error when the caller's
// context ended before a verdict on the resource could be reached.
func (ld *Loader) fetch(ctx context.Context, link *Link, ct ContentType, key string) (*Document, *LoadFailure, error) {
	candidates := ct.SourceURLs(link)

	// Synthesized content: no network, the link itself is the source.
	if len(candidates) == 0 {
		doc, err := ct.Parse(nil, link, nil)
		if doc == nil || err != nil {
			return nil, &LoadFailure{Key: key, Reason: FailureUnprocessable, Err: err}, nil
		}
		return doc, nil, nil
	}

	var lastErr error
	for _, candidate := range candidates {
		// The current page is its own content source; no network.
		if pageKey := ld.cache.PageKey(); pageKey != "" && CanonicalKey(candidate) == pageKey {
			return ld.cache.PageDocument(), nil, nil
		}

		resp, err := ld.get(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, fmt.Errorf("loading %s: %w", key, ctx.Err())
			}
			log.Printf("loader: %s: candidate %s failed: %v", ct.Name(), candidate, err)
			lastErr = err
			continue
		}

		if perms, ok := ct.(ContentTypePermissions); ok {
			if !permitted(resp.ContentType, perms.PermittedContentTypes()) {
				// Terminal: a reachable server returning the wrong kind of
				// content is a misconfiguration, not a transient miss.
				return nil, &LoadFailure{
					Key:    key,
					Reason: FailureBadContentType,
					Err:    fmt.Errorf("%s returned %s", candidate, resp.ContentType),
				}, nil
			}
		}

		doc, err := ct.Parse(resp, link, candidate)
		if doc == nil || err != nil {
			return nil, &LoadFailure{Key: key, Reason: FailureUnprocessable, Err: err}, nil
		}

		if ld.snapshots != nil {
			if err := ld.snapshots.Write(key, resp.ContentType, resp.Body); err != nil {
				log.Printf("loader: snapshot write for %s failed: %v", key, err)
			}
		}
		return doc, nil, nil
	}

	// All candidates transport-failed; try the local snapshot archive.
	if ld.snapshots != nil {
		if doc := ld.restore(link, ct, key, candidates[0]); doc != nil {
			log.Printf("loader: restored %s from snapshot", key)
			return doc, nil, nil
		}
	}

	return nil, &LoadFailure{Key: key, Reason: FailureNotFound, Err: lastErr}, nil
}

func (ld *Loader) restore(link *Link, ct ContentType, key string, origin *url.URL) *Document {
	mediaType, body, err := ld.snapshots.Read(key)
	if err != nil {
		return nil
	}
	resp := &Response{URL: origin, StatusCode: http.StatusOK, ContentType: mediaType, Body: body}
	doc, err := ct.Parse(resp, link, origin)
	if err != nil {
		return nil
	}
	return doc
}

func (ld *Loader) get(ctx context.Context, u *url.URL) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", ld.userAgent)

	resp, err := ld.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s returned %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	mediaType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = mt
	}

	return &Response{
		URL:         resp.Request.URL,
		StatusCode:  resp.StatusCode,
		ContentType: mediaType,
		Body:        body,
	}, nil
}

func permitted(mediaType string, allowed []string) bool {
	for _, a := range allowed {
		if mediaType == a {
			return true
		}
	}
	return false
}

// Reference extracts presentation data for a link whose content is already
// cached. Recomputed per call: it is cheap and depends on the specific
// requesting link. Returns the cached failure for failed keys and
// ErrNotCached for keys never loaded.
func (ld *Loader) Reference(link *Link) (*ReferenceData, error) {
	ct := ld.registry.Classify(link)
	if ct == nil {
		return nil, ErrNoMatch
	}
	key := resourceKey(link, ct)

	doc, failure, ok := ld.cache.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, key)
	}
	if failure != nil {
		return nil, failure
	}
	return ct.ReferenceData(doc, link)
}

// Resolve is Load followed by Reference: the one-call path for consumers
// that want presentation data directly.
func (ld *Loader) Resolve(ctx context.Context, link *Link) (*ReferenceData, error) {
	if _, err := ld.Load(ctx, link); err != nil {
		return nil, err
	}
	return ld.Reference(link)
}

// WaitForLoad invokes the matching callback when the link's resource reaches
// a terminal state: immediately for already-resolved keys, otherwise via
// one-shot broadcast handlers whose unfired sibling is removed. The returned
// cancel detaches both handlers; late results are simply ignored by callers
// that no longer care.
func (ld *Loader) WaitForLoad(link *Link, onLoad func(*Document), onFail func(*LoadFailure)) (cancel func(), err error) {
	ct := ld.registry.Classify(link)
	if ct == nil {
		return nil, ErrNoMatch
	}
	key := resourceKey(link, ct)

	if doc, failure, ok := ld.cache.Lookup(key); ok {
		if failure != nil {
			onFail(failure)
		} else {
			onLoad(doc)
		}
		return func() {}, nil
	}

	// The broadcast can land between the subscription below and the
	// re-check after it, in which case the handler has already fired and
	// cancel is a no-op. Guard the callbacks so both paths together
	// deliver exactly once.
	var once sync.Once
	deliver := func(doc *Document, failure *LoadFailure) {
		once.Do(func() {
			if failure != nil {
				onFail(failure)
			} else {
				onLoad(doc)
			}
		})
	}

	sameKey := func(p notify.Payload) bool { return p.Key == key }
	cancel = ld.hub.PairOnce(notify.ContentDidLoad, notify.ContentLoadDidFail, sameKey,
		func(p notify.Payload) {
			if doc, ok := p.Data.(*Document); ok {
				deliver(doc, nil)
			}
		},
		func(p notify.Payload) {
			if failure, ok := p.Data.(*LoadFailure); ok {
				deliver(nil, failure)
			}
		},
	)

	// The key may have resolved between the cache check and subscription.
	if doc, failure, ok := ld.cache.Lookup(key); ok {
		cancel()
		deliver(doc, failure)
		return func() {}, nil
	}
	return cancel, nil
}
