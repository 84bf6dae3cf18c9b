package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/jthornhill/popframe/internal/notify"
)

// Relay streams notification-hub broadcasts to HTTP clients over
// Server-Sent Events, so out-of-process pop-frame orchestrators can observe
// load completion without polling.
//
// Concurrency model: a single internal event loop (goroutine) owns the
// client set. Public methods communicate with this loop through channels.
type Relay struct {
	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan relayEvent

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool

	cancels []func()
}

type relayEvent struct {
	event string
	key   string
}

// NewRelay starts the relay loop and attaches it to the hub's content
// events. Payload data is deliberately dropped: clients get the event name
// and resource key and fetch the rest through the API.
func NewRelay(hub *notify.Hub) *Relay {
	r := &Relay{
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan relayEvent, 256),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	for _, ev := range []notify.Event{notify.ContentDidLoad, notify.ContentLoadDidFail, notify.ContentDidInject} {
		ev := ev
		cancel := hub.Subscribe(ev, func(p notify.Payload) {
			select {
			case r.publishCh <- relayEvent{event: string(ev), key: p.Key}:
			default:
				// Relay backlog full; SSE consumers are advisory.
			}
		})
		r.cancels = append(r.cancels, cancel)
	}

	go r.run()
	return r
}

func (r *Relay) run() {
	defer close(r.stopped)

	clients := make(map[chan []byte]struct{})

	for {
		select {
		case <-r.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-r.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-r.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-r.publishCh:
			payload, err := json.Marshal(map[string]string{"key": ev.key})
			if err != nil {
				continue
			}
			msg := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.event, payload))
			for ch := range clients {
				select {
				case ch <- msg:
				default:
					// Client buffer full; skip to avoid blocking the loop.
				}
			}
		}
	}
}

// Close detaches the relay from the hub and stops the loop.
func (r *Relay) Close() {
	if r.closed.CompareAndSwap(false, true) {
		for _, cancel := range r.cancels {
			cancel()
		}
		close(r.stopCh)
	}
	<-r.stopped
}

func (r *Relay) subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if r.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case r.subscribeCh <- ch:
	case <-r.stopped:
		close(ch)
	}
	return ch
}

func (r *Relay) unsubscribe(ch chan []byte) {
	if r.closed.Load() {
		return
	}
	select {
	case r.unsubscribeCh <- ch:
	case <-r.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := r.subscribe()
	defer r.unsubscribe(ch)

	ctx := req.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
