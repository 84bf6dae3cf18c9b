// Package transclude resolves include links inside loaded documents:
// content that itself references other content which must recursively
// resolve and be spliced in place of the referencing link.
package transclude

import (
	"context"
	"log"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/jthornhill/popframe/internal/content"
	"github.com/jthornhill/popframe/internal/notify"
)

// IncludeClass marks links whose targets are transcluded rather than
// previewed.
const IncludeClass = "include"

const (
	defaultMaxDepth    = 8
	defaultConcurrency = 4
)

// Resolver expands include links in documents. Expansion is bounded by a
// depth limit and an already-spliced key set so a self-referencing chain
// terminates instead of looping.
type Resolver struct {
	loader      *content.Loader
	hub         *notify.Hub
	maxDepth    int
	concurrency int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth bounds how many nested expansion passes run.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithConcurrency bounds parallel loads within one expansion pass.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func NewResolver(loader *content.Loader, hub *notify.Hub, opts ...Option) *Resolver {
	r := &Resolver{
		loader:      loader,
		hub:         hub,
		maxDepth:    defaultMaxDepth,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Expand resolves the document's include links in place, pass by pass, until
// none remain or the depth limit is hit. Loads within a pass run
// concurrently; splicing is sequential. A failed include is left as its
// original link rather than aborting the whole expansion.
func (r *Resolver) Expand(ctx context.Context, doc *content.Document) error {
	spliced := make(map[string]bool)

	for depth := 0; depth < r.maxDepth; depth++ {
		anchors := includeAnchors(doc)
		if len(anchors) == 0 {
			return nil
		}

		fragments := r.loadAll(ctx, anchors, spliced)

		progressed := false
		for _, a := range anchors {
			fragment, ok := fragments[a.key]
			stripIncludeClass(a.node)
			if !ok || fragment == nil {
				continue
			}
			splice(a.node, fragment)
			spliced[a.key] = true
			progressed = true
			r.hub.Publish(notify.ContentDidInject, notify.Payload{Key: a.key, Data: fragment})
		}
		if !progressed {
			return nil
		}
	}

	log.Printf("transclude: depth limit %d reached, leaving remaining includes unexpanded", r.maxDepth)
	return nil
}

// ExpandCached refreshes nested transclusions inside an already-cached
// document in place, without re-fetching the document itself. Include
// targets are loaded outside the cache lock, then spliced under it.
func (r *Resolver) ExpandCached(ctx context.Context, key string) bool {
	cache := r.loader.Cache()

	var anchors []includeAnchor
	if !cache.Update(key, func(doc *content.Document) {
		anchors = includeAnchors(doc)
	}) {
		return false
	}
	if len(anchors) == 0 {
		return true
	}

	fragments := r.loadAll(ctx, anchors, nil)

	type spliceEvent struct {
		key      string
		fragment *content.Document
	}
	var events []spliceEvent

	ok := cache.Update(key, func(doc *content.Document) {
		// The document may have changed since the scan; re-walk it and
		// re-derive each anchor's resource key.
		for _, a := range includeAnchors(doc) {
			k, err := r.loader.ResourceKey(a.link)
			stripIncludeClass(a.node)
			if err != nil {
				continue
			}
			fragment, found := fragments[k]
			if !found || fragment == nil {
				continue
			}
			splice(a.node, fragment)
			events = append(events, spliceEvent{key: k, fragment: fragment})
		}
	})

	// Publish after Update returns: handlers run synchronously and may
	// touch the cache, which still holds its write lock inside mutate.
	for _, ev := range events {
		r.hub.Publish(notify.ContentDidInject, notify.Payload{Key: ev.key, Data: ev.fragment})
	}
	return ok
}

type includeAnchor struct {
	node *html.Node
	link *content.Link
	key  string
}

// includeAnchors collects the document's include links in document order.
func includeAnchors(doc *content.Document) []includeAnchor {
	var anchors []includeAnchor

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, IncludeClass) {
			if a := anchorFor(n); a != nil {
				anchors = append(anchors, *a)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc.Root)
	return anchors
}

func anchorFor(n *html.Node) *includeAnchor {
	href := attr(n, "href")
	if href == "" {
		return nil
	}
	link, err := content.ParseLink(href, classList(n)...)
	if err != nil {
		return nil
	}
	return &includeAnchor{node: n, link: link}
}

// loadAll resolves every distinct include target once, concurrently. Keys in
// skip (already spliced higher in this expansion) are treated as cycles and
// not loaded again.
func (r *Resolver) loadAll(ctx context.Context, anchors []includeAnchor, skip map[string]bool) map[string]*content.Document {
	var mu sync.Mutex
	fragments := make(map[string]*content.Document)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	requested := make(map[string]bool)
	for i := range anchors {
		a := &anchors[i]
		key, err := r.loader.ResourceKey(a.link)
		if err != nil {
			continue
		}
		a.key = key
		if skip[key] {
			log.Printf("transclude: cycle on %s, not expanding again", key)
			continue
		}
		if requested[key] {
			continue
		}
		requested[key] = true

		link := a.link
		g.Go(func() error {
			rd, err := r.loader.Resolve(ctx, link)
			if err != nil {
				log.Printf("transclude: include %s failed: %v", key, err)
				return nil
			}
			mu.Lock()
			fragments[key] = rd.Content
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return fragments
}

// splice replaces the include anchor with a copy of the fragment's children.
func splice(anchor *html.Node, fragment *content.Document) {
	parent := anchor.Parent
	if parent == nil {
		return
	}
	root := content.CloneNode(fragment.Root)
	for child := root.FirstChild; child != nil; {
		next := child.NextSibling
		root.RemoveChild(child)
		parent.InsertBefore(child, anchor)
		child = next
	}
	parent.RemoveChild(anchor)
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classList(n) {
		if c == class {
			return true
		}
	}
	return false
}

func classList(n *html.Node) []string {
	return strings.Fields(attr(n, "class"))
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// stripIncludeClass removes the include marker so an unexpandable link is
// not retried on a later pass.
func stripIncludeClass(n *html.Node) {
	for i, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		classes := strings.Fields(a.Val)
		kept := classes[:0]
		for _, c := range classes {
			if c != IncludeClass {
				kept = append(kept, c)
			}
		}
		n.Attr[i].Val = strings.Join(kept, " ")
		return
	}
}
