package content

import (
	"fmt"
	"net/url"
	"sync"
)

// ContentType is the strategy a registered descriptor implements: classify a
// link, name its candidate source URLs, turn a raw response into a Document,
// and derive presentation data from a cached Document.
type ContentType interface {
	// Name identifies the descriptor for registry ordering and logging.
	Name() string

	// Matches reports whether this descriptor handles the link. Predicates
	// must be cheap and side-effect-free; they run on every candidate link.
	Matches(link *Link) bool

	// SourceURLs returns candidate fetch URLs, tried in order. An empty
	// list means the content is synthesized from the link itself and no
	// network request is made.
	SourceURLs(link *Link) []*url.URL

	// Parse transforms a raw response into a Document. resp and loadedFrom
	// are nil for synthesized content. Returning a nil Document or an
	// error marks the resource unprocessable.
	Parse(resp *Response, link *Link, loadedFrom *url.URL) (*Document, error)

	// ReferenceData derives presentation data from an already-parsed
	// document plus the specific requesting link. Pure; no I/O. The same
	// document may yield different data for different links (anchors).
	ReferenceData(doc *Document, link *Link) (*ReferenceData, error)
}

// ContentTypePermissions is implemented by descriptors that restrict the
// acceptable response content-type headers. A response outside the list is a
// terminal bad-content-type failure, distinct from transport failure.
type ContentTypePermissions interface {
	PermittedContentTypes() []string
}

// Registry holds content types in priority order. Classification is
// first-match-wins, so more specific predicates must precede general
// fallbacks; RegisterBefore/RegisterAfter exist because appending is not
// enough to maintain that ordering.
type Registry struct {
	mu    sync.RWMutex
	types []ContentType
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends ct at the lowest priority.
func (r *Registry) Register(ct ContentType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, ct)
}

// RegisterBefore inserts ct immediately ahead of the named descriptor.
func (r *Registry) RegisterBefore(name string, ct ContentType) error {
	return r.insert(name, ct, 0)
}

// RegisterAfter inserts ct immediately behind the named descriptor.
func (r *Registry) RegisterAfter(name string, ct ContentType) error {
	return r.insert(name, ct, 1)
}

func (r *Registry) insert(name string, ct ContentType, offset int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.types {
		if existing.Name() == name {
			at := i + offset
			r.types = append(r.types, nil)
			copy(r.types[at+1:], r.types[at:])
			r.types[at] = ct
			return nil
		}
	}
	return fmt.Errorf("registering %s: no content type named %q", ct.Name(), name)
}

// Classify returns the first registered content type whose predicate matches
// the link, or nil when none does.
func (r *Registry) Classify(link *Link) ContentType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ct := range r.types {
		if ct.Matches(link) {
			return ct
		}
	}
	return nil
}

// Names returns the registered descriptor names in priority order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.types))
	for i, ct := range r.types {
		names[i] = ct.Name()
	}
	return names
}
