// Package notify implements the process-wide notification hub used to
// decouple the content subsystem from its consumers. Handlers for a given
// event fire synchronously, in registration order.
package notify

import "sync"

// Event names a broadcast channel on the hub.
type Event string

const (
	// ContentDidLoad is published exactly once per resource key when a
	// load reaches the Loaded state.
	ContentDidLoad Event = "contentDidLoad"

	// ContentLoadDidFail is published exactly once per resource key when a
	// load reaches the Failed state.
	ContentLoadDidFail Event = "contentLoadDidFail"

	// ContentDidInject is published each time a content fragment is
	// spliced into another document.
	ContentDidInject Event = "contentDidInject"
)

// Payload carries the subject of a broadcast. Key is the canonical resource
// key; Data is event-specific (the hub does not interpret it).
type Payload struct {
	Key  string
	Data any
}

// HandlerFunc receives a broadcast payload.
type HandlerFunc func(Payload)

type subscription struct {
	id        uint64
	fn        HandlerFunc
	condition func(Payload) bool
	once      bool
}

// Hub is a mutex-guarded publish/subscribe bus. The zero value is not
// usable; call NewHub.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Event][]*subscription
}

func NewHub() *Hub {
	return &Hub{subs: make(map[Event][]*subscription)}
}

// Option configures a subscription.
type Option func(*subscription)

// Once removes the subscription after its first matching delivery.
func Once() Option {
	return func(s *subscription) { s.once = true }
}

// Condition filters deliveries; the handler only fires (and, for one-shot
// subscriptions, is only consumed) when cond returns true.
func Condition(cond func(Payload) bool) Option {
	return func(s *subscription) { s.condition = cond }
}

// Subscribe registers fn for ev and returns a cancel function. Cancel is
// idempotent and safe to call after the handler fired.
func (h *Hub) Subscribe(ev Event, fn HandlerFunc, opts ...Option) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &subscription{id: h.nextID, fn: fn}
	for _, opt := range opts {
		opt(sub)
	}
	h.subs[ev] = append(h.subs[ev], sub)

	id := sub.id
	return func() { h.remove(ev, id) }
}

func (h *Hub) remove(ev Event, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(ev, id)
}

func (h *Hub) removeLocked(ev Event, id uint64) {
	subs := h.subs[ev]
	for i, s := range subs {
		if s.id == id {
			h.subs[ev] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers p to every subscriber of ev, in registration order.
// Handlers run synchronously on the caller's goroutine; one-shot handlers
// are removed before their callback runs, so a handler that re-publishes
// cannot fire itself again.
func (h *Hub) Publish(ev Event, p Payload) {
	h.mu.Lock()
	subs := h.subs[ev]
	var fire []HandlerFunc
	for _, s := range subs {
		if s.condition != nil && !s.condition(p) {
			continue
		}
		fire = append(fire, s.fn)
		if s.once {
			h.removeLocked(ev, s.id)
		}
	}
	h.mu.Unlock()

	for _, fn := range fire {
		fn(p)
	}
}

// SubscriberCount reports how many handlers are registered for ev.
func (h *Hub) SubscriberCount(ev Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ev])
}

// PairOnce registers one-shot handlers on two sibling events sharing one
// condition. Whichever event matches first fires its handler and removes the
// other subscription, so neither handler leaks. The returned cancel removes
// both if neither has fired yet.
func (h *Hub) PairOnce(evA, evB Event, cond func(Payload) bool, onA, onB HandlerFunc) (cancel func()) {
	var mu sync.Mutex
	var cancelA, cancelB func()
	done := false

	wrap := func(other *func(), fn HandlerFunc) HandlerFunc {
		return func(p Payload) {
			mu.Lock()
			if done {
				mu.Unlock()
				return
			}
			done = true
			otherCancel := *other
			mu.Unlock()
			if otherCancel != nil {
				otherCancel()
			}
			fn(p)
		}
	}

	mu.Lock()
	cancelA = h.Subscribe(evA, wrap(&cancelB, onA), Once(), Condition(cond))
	cancelB = h.Subscribe(evB, wrap(&cancelA, onB), Once(), Condition(cond))
	mu.Unlock()

	return func() {
		mu.Lock()
		if done {
			mu.Unlock()
			return
		}
		done = true
		mu.Unlock()
		cancelA()
		cancelB()
	}
}
